package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter registers every API route on a fresh gin engine.
func NewRouter(h *APIHandler) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(h.Logger), gin.Recovery())

	api := router.Group("/api")
	{
		// Class routes
		api.GET("/classes", h.GetAllClasses)
		api.GET("/classes/:classId", h.GetClassByID)
		api.POST("/classes", h.AddClass)

		// Student routes within a class
		api.GET("/classes/:classId/students", h.GetStudentsByClass)
		api.POST("/classes/:classId/students", h.AddStudent)
		api.GET("/classes/:classId/random-student", h.GetRandomStudent)

		// Score reports
		api.POST("/classes/:classId/reports", h.CreateReport)
		api.GET("/classes/:classId/reports", h.GetClassReports)
		api.GET("/reports/:reportId", h.GetReport)
		api.GET("/reports/:reportId/text", h.GetReportText)
		api.GET("/reports/:reportId/xlsx", h.ExportReport)

		api.POST("/import/students", h.ImportStudents)
		api.POST("/gemini", h.Gemini)
		api.GET("/ping", PingHandler)
	}
	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
