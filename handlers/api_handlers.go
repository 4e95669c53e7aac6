package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rollcall-scores-go/assistant"
	"rollcall-scores-go/db"
	"rollcall-scores-go/models"
	"rollcall-scores-go/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	RedisService *db.RedisService
	Assistant    assistant.Generator // nil disables /api/gemini
	Logger       *zap.Logger

	// Seed picks a seed when a report request does not carry one.
	Seed func() uint64
	Now  func() time.Time
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(service *db.RedisService, gen assistant.Generator, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		RedisService: service,
		Assistant:    gen,
		Logger:       logger,
		Seed:         rand.Uint64,
		Now:          time.Now,
	}
}

// --- Class Handlers ---

// GetAllClasses handles GET /api/classes
func (h *APIHandler) GetAllClasses(c *gin.Context) {
	classes, err := h.RedisService.GetAllClasses()
	if err != nil {
		h.Logger.Error("Error in GetAllClasses handler", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve classes"})
		return
	}
	if classes == nil {
		c.JSON(http.StatusOK, []models.Clazz{})
		return
	}
	c.JSON(http.StatusOK, classes)
}

// GetClassByID handles GET /api/classes/:classId
func (h *APIHandler) GetClassByID(c *gin.Context) {
	classID := c.Param("classId")

	clazz, err := h.RedisService.GetClassByID(classID)
	if err != nil {
		h.Logger.Error("Error in GetClassByID handler", zap.String("classId", classID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve class details"})
		return
	}
	if clazz == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Class not found"})
		return
	}

	c.JSON(http.StatusOK, clazz)
}

// AddClass handles POST /api/classes
func (h *APIHandler) AddClass(c *gin.Context) {
	var newClass models.Clazz
	if err := c.ShouldBindJSON(&newClass); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if newClass.ID == "" || newClass.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Class ID and Name are required"})
		return
	}

	if err := h.RedisService.AddClass(newClass); err != nil {
		h.Logger.Error("Error in AddClass handler", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add class"})
		return
	}

	c.JSON(http.StatusCreated, newClass)
}

// --- Student Handlers ---

// GetStudentsByClass handles GET /api/classes/:classId/students
func (h *APIHandler) GetStudentsByClass(c *gin.Context) {
	classID := c.Param("classId")
	if !h.requireClass(c, classID) {
		return
	}

	students, err := h.RedisService.GetStudentsByClassID(classID)
	if err != nil {
		h.Logger.Error("Error in GetStudentsByClass handler", zap.String("classId", classID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve students for the class"})
		return
	}
	if students == nil {
		c.JSON(http.StatusOK, []models.Student{})
		return
	}

	c.JSON(http.StatusOK, students)
}

// AddStudent handles POST /api/classes/:classId/students
func (h *APIHandler) AddStudent(c *gin.Context) {
	var student models.Student
	if err := c.ShouldBindJSON(&student); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	student.ClassID = c.Param("classId")
	if student.ID == "" || student.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Student ID and Name are required"})
		return
	}

	if err := h.RedisService.AddStudent(student); err != nil {
		h.Logger.Error("Error in AddStudent handler", zap.String("studentId", student.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add student"})
		return
	}

	c.JSON(http.StatusCreated, student)
}

// GetRandomStudent handles GET /api/classes/:classId/random-student
func (h *APIHandler) GetRandomStudent(c *gin.Context) {
	classID := c.Param("classId")

	student, err := h.RedisService.GetRandomStudent(classID)
	if err != nil {
		h.Logger.Error("Error in GetRandomStudent handler", zap.String("classId", classID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get random student"})
		return
	}

	if student == nil {
		exists, err := h.RedisService.ClassExists(classID)
		if err != nil {
			h.Logger.Error("Error checking class in GetRandomStudent handler", zap.String("classId", classID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify class"})
			return
		}
		if !exists {
			c.JSON(http.StatusNotFound, gin.H{"message": "Class not found"})
		} else {
			c.JSON(http.StatusNotFound, gin.H{"message": "No students found in this class"})
		}
		return
	}

	c.JSON(http.StatusOK, student)
}

// --- Import Handler ---

// ImportStudents handles POST /api/import/students
func (h *APIHandler) ImportStudents(c *gin.Context) {
	classID := c.PostForm("classId")
	if classID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing 'classId' in form data"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	h.Logger.Info("Received file upload", zap.String("file", header.Filename), zap.String("classId", classID))

	importedCount, err := h.RedisService.ImportStudentsFromExcel(file, classID)
	if err != nil {
		h.Logger.Error("Error importing students",
			zap.String("file", header.Filename), zap.String("classId", classID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to import students: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Import successful",
		"importedCount": importedCount,
		"classId":       classID,
	})
}

// --- Report Handlers ---

type createReportRequest struct {
	Count int     `json:"count"`
	Seed  *uint64 `json:"seed"`
}

// CreateReport handles POST /api/classes/:classId/reports
func (h *APIHandler) CreateReport(c *gin.Context) {
	classID := c.Param("classId")

	// An empty body, chunked or not, keeps the defaults.
	req := createReportRequest{Count: 3}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Count <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must be positive"})
		return
	}
	seed := h.Seed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	names, err := h.RedisService.GetRosterNames(classID)
	if err != nil {
		h.writeDomainError(c, "CreateReport", err)
		return
	}

	rep, err := report.Build(classID, names, req.Count, seed, h.Now())
	if err != nil {
		h.writeDomainError(c, "CreateReport", err)
		return
	}
	if err := h.RedisService.SaveReport(rep); err != nil {
		h.Logger.Error("Error saving report", zap.String("classId", classID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save report"})
		return
	}

	c.JSON(http.StatusCreated, rep)
}

// GetClassReports handles GET /api/classes/:classId/reports
func (h *APIHandler) GetClassReports(c *gin.Context) {
	classID := c.Param("classId")
	if !h.requireClass(c, classID) {
		return
	}

	reports, err := h.RedisService.GetReportsByClassID(classID)
	if err != nil {
		h.Logger.Error("Error in GetClassReports handler", zap.String("classId", classID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reports"})
		return
	}
	c.JSON(http.StatusOK, reports)
}

// GetReport handles GET /api/reports/:reportId
func (h *APIHandler) GetReport(c *gin.Context) {
	rep, ok := h.loadReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rep)
}

// GetReportText handles GET /api/reports/:reportId/text
func (h *APIHandler) GetReportText(c *gin.Context) {
	rep, ok := h.loadReport(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.RenderSummary(&buf, rep.Records, rep.Summary); err != nil {
		h.Logger.Error("Error rendering report", zap.String("reportId", rep.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render report"})
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

// ExportReport handles GET /api/reports/:reportId/xlsx
func (h *APIHandler) ExportReport(c *gin.Context) {
	rep, ok := h.loadReport(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, *rep); err != nil {
		h.Logger.Error("Error exporting report", zap.String("reportId", rep.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export report"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.xlsx"`, rep.ID))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *APIHandler) loadReport(c *gin.Context) (*models.Report, bool) {
	reportID := c.Param("reportId")
	rep, err := h.RedisService.GetReport(reportID)
	if err != nil {
		h.Logger.Error("Error loading report", zap.String("reportId", reportID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve report"})
		return nil, false
	}
	if rep == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return nil, false
	}
	return rep, true
}

// --- Gemini Handler ---

type geminiRequest struct {
	UserInput string `json:"user_input" form:"user_input"`
}

// Gemini handles POST /api/gemini. An empty prompt answers with an empty
// response without calling the model.
func (h *APIHandler) Gemini(c *gin.Context) {
	if h.Assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Gemini is not configured"})
		return
	}

	var req geminiRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.UserInput == "" {
		c.JSON(http.StatusOK, gin.H{"response": ""})
		return
	}

	text, err := h.Assistant.Generate(c.Request.Context(), req.UserInput)
	if err != nil {
		h.Logger.Error("Error calling Gemini", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to generate content"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": text})
}

// --- Helpers ---

func (h *APIHandler) requireClass(c *gin.Context, classID string) bool {
	exists, err := h.RedisService.ClassExists(classID)
	if err != nil {
		h.Logger.Error("Error checking class existence", zap.String("classId", classID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify class"})
		return false
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Class not found"})
		return false
	}
	return true
}

func (h *APIHandler) writeDomainError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Class not found"})
	case errors.Is(err, models.ErrEmptySource):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Class has no students"})
	case errors.Is(err, models.ErrSamplingSize):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.Logger.Error("Error in "+op+" handler", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// PingHandler handles GET /api/ping
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}
