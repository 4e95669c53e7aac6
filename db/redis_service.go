package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"rollcall-scores-go/config"
	"rollcall-scores-go/models"
	"rollcall-scores-go/roster"
)

const (
	classesKey          = "classes"  // Set: Stores all class IDs
	classInfoPrefix     = "class:"   // Hash prefix: class:{id} -> stores class details
	classStudentsPrefix = "class:"   // Set prefix: class:{id}:students -> stores student IDs for a class
	classReportsPrefix  = "class:"   // List prefix: class:{id}:reports -> report IDs, oldest first
	studentInfoPrefix   = "student:" // Hash prefix: student:{id} -> stores student details
	reportInfoPrefix    = "report:"  // String prefix: report:{id} -> JSON encoded report
)

// RedisService handles operations with the Redis database
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context // Base context
	Logger *zap.Logger
}

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client, logger *zap.Logger) *RedisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisService{
		Client: client,
		Ctx:    context.Background(),
		Logger: logger,
	}
}

func getClassInfoKey(classID string) string {
	return classInfoPrefix + classID
}

func getClassStudentsKey(classID string) string {
	return classStudentsPrefix + classID + ":students"
}

func getClassReportsKey(classID string) string {
	return classReportsPrefix + classID + ":reports"
}

func getStudentInfoKey(studentID string) string {
	return studentInfoPrefix + studentID
}

func getReportInfoKey(reportID string) string {
	return reportInfoPrefix + reportID
}

// --- Class Operations ---

// AddClass adds a new class to Redis
func (s *RedisService) AddClass(clazz models.Clazz) error {
	if clazz.ID == "" || clazz.Name == "" {
		return errors.New("class ID and Name cannot be empty")
	}
	pipe := s.Client.Pipeline()
	pipe.SAdd(s.Ctx, classesKey, clazz.ID)
	pipe.HSet(s.Ctx, getClassInfoKey(clazz.ID), map[string]interface{}{
		"id":   clazz.ID,
		"name": clazz.Name,
	})

	if _, err := pipe.Exec(s.Ctx); err != nil {
		s.Logger.Error("Error adding class", zap.String("classId", clazz.ID), zap.Error(err))
		return fmt.Errorf("failed to add class to Redis: %w", err)
	}
	s.Logger.Info("Added class", zap.String("name", clazz.Name), zap.String("classId", clazz.ID))
	return nil
}

// GetClassByID retrieves a class by its ID. A missing class is (nil, nil).
func (s *RedisService) GetClassByID(classID string) (*models.Clazz, error) {
	data, err := s.Client.HGetAll(s.Ctx, getClassInfoKey(classID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get class from Redis: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	return &models.Clazz{
		ID:   data["id"],
		Name: data["name"],
	}, nil
}

// GetAllClasses retrieves all classes ordered by ID
func (s *RedisService) GetAllClasses() ([]models.Clazz, error) {
	classIDs, err := s.Client.SMembers(s.Ctx, classesKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []models.Clazz{}, nil
		}
		return nil, fmt.Errorf("failed to get class IDs from Redis: %w", err)
	}
	sort.Strings(classIDs)

	classes := make([]models.Clazz, 0, len(classIDs))
	for _, id := range classIDs {
		clazz, err := s.GetClassByID(id)
		if err != nil {
			// Keep going, one broken hash should not hide the others
			s.Logger.Warn("Error fetching class details", zap.String("classId", id), zap.Error(err))
			continue
		}
		if clazz != nil {
			classes = append(classes, *clazz)
		}
	}
	return classes, nil
}

// ClassExists checks if a class ID exists in the classes set
func (s *RedisService) ClassExists(classID string) (bool, error) {
	exists, err := s.Client.SIsMember(s.Ctx, classesKey, classID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check class existence: %w", err)
	}
	return exists, nil
}

// --- Student Operations ---

// AddStudent adds a student to a class, creating the class if needed
func (s *RedisService) AddStudent(student models.Student) error {
	if student.ID == "" || student.Name == "" || student.ClassID == "" {
		return errors.New("student ID, Name, and ClassID cannot be empty")
	}

	if err := s.ensureClass(student.ClassID, "Class "+student.ClassID); err != nil {
		return fmt.Errorf("student's class %s does not exist and auto-creation failed: %w", student.ClassID, err)
	}

	pipe := s.Client.Pipeline()
	pipe.SAdd(s.Ctx, getClassStudentsKey(student.ClassID), student.ID)
	pipe.HSet(s.Ctx, getStudentInfoKey(student.ID), map[string]interface{}{
		"id":      student.ID,
		"name":    student.Name,
		"classId": student.ClassID,
	})

	if _, err := pipe.Exec(s.Ctx); err != nil {
		s.Logger.Error("Error adding student",
			zap.String("studentId", student.ID), zap.String("classId", student.ClassID), zap.Error(err))
		return fmt.Errorf("failed to add student to Redis: %w", err)
	}
	return nil
}

func (s *RedisService) ensureClass(classID, name string) error {
	exists, err := s.ClassExists(classID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	s.Logger.Info("Creating missing class", zap.String("classId", classID))
	return s.AddClass(models.Clazz{ID: classID, Name: name})
}

// GetStudentByID retrieves a student by their ID. A missing student is (nil, nil).
func (s *RedisService) GetStudentByID(studentID string) (*models.Student, error) {
	data, err := s.Client.HGetAll(s.Ctx, getStudentInfoKey(studentID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get student from Redis: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	return &models.Student{
		ID:      data["id"],
		Name:    data["name"],
		ClassID: data["classId"],
	}, nil
}

// GetStudentsByClassID retrieves all students of a class ordered by student
// ID. The stable order is what lets a seeded sample be replayed.
func (s *RedisService) GetStudentsByClassID(classID string) ([]models.Student, error) {
	studentIDs, err := s.Client.SMembers(s.Ctx, getClassStudentsKey(classID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []models.Student{}, nil
		}
		return nil, fmt.Errorf("failed to get student IDs from Redis for class %s: %w", classID, err)
	}
	sort.Strings(studentIDs)

	students := make([]models.Student, 0, len(studentIDs))
	for _, id := range studentIDs {
		student, err := s.GetStudentByID(id)
		if err != nil {
			s.Logger.Warn("Error fetching student details",
				zap.String("studentId", id), zap.String("classId", classID), zap.Error(err))
			continue
		}
		if student != nil {
			students = append(students, *student)
		}
	}
	return students, nil
}

// GetRosterNames returns the names of a class roster in student ID order.
func (s *RedisService) GetRosterNames(classID string) ([]string, error) {
	exists, err := s.ClassExists(classID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewOpError("db.roster", models.KindNotFound, classID, nil)
	}

	students, err := s.GetStudentsByClassID(classID)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, models.NewOpError("db.roster", models.KindEmptySource, classID, nil)
	}

	names := make([]string, len(students))
	for i, st := range students {
		names[i] = st.Name
	}
	return names, nil
}

// GetRandomStudent selects a random student from a class
func (s *RedisService) GetRandomStudent(classID string) (*models.Student, error) {
	randomStudentID, err := s.Client.SRandMember(s.Ctx, getClassStudentsKey(classID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Class exists but has no students, or key doesn't exist
		}
		return nil, fmt.Errorf("failed to get random student ID from Redis for class %s: %w", classID, err)
	}
	if randomStudentID == "" {
		return nil, nil
	}

	return s.GetStudentByID(randomStudentID)
}

// --- Reports ---

// SaveReport stores a report and appends it to its class's report list
func (s *RedisService) SaveReport(report models.Report) error {
	if report.ID == "" || report.ClassID == "" {
		return errors.New("report ID and ClassID cannot be empty")
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report %s: %w", report.ID, err)
	}

	pipe := s.Client.TxPipeline()
	pipe.Set(s.Ctx, getReportInfoKey(report.ID), data, 0)
	pipe.RPush(s.Ctx, getClassReportsKey(report.ClassID), report.ID)
	if _, err := pipe.Exec(s.Ctx); err != nil {
		return fmt.Errorf("failed to save report to Redis: %w", err)
	}
	s.Logger.Info("Saved report",
		zap.String("reportId", report.ID), zap.String("classId", report.ClassID), zap.Int("records", len(report.Records)))
	return nil
}

// GetReport loads a report by ID. A missing report is (nil, nil).
func (s *RedisService) GetReport(reportID string) (*models.Report, error) {
	data, err := s.Client.Get(s.Ctx, getReportInfoKey(reportID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report from Redis: %w", err)
	}

	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", reportID, err)
	}
	return &report, nil
}

// GetReportsByClassID lists a class's reports, oldest first
func (s *RedisService) GetReportsByClassID(classID string) ([]models.Report, error) {
	ids, err := s.Client.LRange(s.Ctx, getClassReportsKey(classID), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to list reports for class %s: %w", classID, err)
	}

	reports := make([]models.Report, 0, len(ids))
	for _, id := range ids {
		report, err := s.GetReport(id)
		if err != nil {
			s.Logger.Warn("Error fetching report", zap.String("reportId", id), zap.Error(err))
			continue
		}
		if report != nil {
			reports = append(reports, *report)
		}
	}
	return reports, nil
}

// --- Excel Import ---

// ImportStudentsFromExcel reads an Excel file stream and adds students to the specified class
func (s *RedisService) ImportStudentsFromExcel(file io.Reader, classID string) (int, error) {
	if err := s.ensureClass(classID, "Imported Class "+classID); err != nil {
		return 0, fmt.Errorf("target class %s does not exist and failed to create it: %w", classID, err)
	}

	students, err := roster.ParseStudentsExcel(file, classID, s.Logger)
	if err != nil {
		return 0, err
	}

	s.Logger.Info("Importing students from Excel",
		zap.Int("count", len(students)), zap.String("classId", classID))
	importedCount := 0
	for _, student := range students {
		if err := s.AddStudent(student); err != nil {
			// Continue processing other students
			s.Logger.Warn("Error adding student during import",
				zap.String("studentId", student.ID), zap.String("name", student.Name), zap.Error(err))
			continue
		}
		importedCount++
	}

	s.Logger.Info("Imported students", zap.Int("count", importedCount), zap.String("classId", classID))
	return importedCount, nil
}

// --- Seed Data ---

// HasData reports whether any class has been stored yet
func (s *RedisService) HasData() (bool, error) {
	count, err := s.Client.SCard(s.Ctx, classesKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("failed to count classes: %w", err)
	}
	return count > 0, nil
}

// SeedData adds a demo class whose roster matches the sample names file
func (s *RedisService) SeedData() {
	s.Logger.Info("Seeding initial data")

	class1 := models.Clazz{ID: "C_DEMO_01", Name: "示範班級"}
	if err := s.AddClass(class1); err != nil {
		s.Logger.Warn("Error adding seed class", zap.String("classId", class1.ID), zap.Error(err))
	}

	for i, name := range []string{"Amy", "Ben", "Cara", "Drew"} {
		student := models.Student{ID: fmt.Sprintf("S_DEMO_01_%03d", i+1), Name: name, ClassID: class1.ID}
		if err := s.AddStudent(student); err != nil {
			s.Logger.Warn("Error adding seed student", zap.String("studentId", student.ID), zap.Error(err))
		}
	}

	s.Logger.Info("Seeding complete")
}

// --- Utility ---

// InitializeRedisClient creates a Redis client and pings it
func InitializeRedisClient(cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("Connected to Redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return rdb, nil
}
