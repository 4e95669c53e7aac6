package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rollcall-scores-go/db"
	"rollcall-scores-go/models"
)

type fakeGenerator struct {
	prompts []string
	reply   string
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type testEnv struct {
	router  *gin.Engine
	service *db.RedisService
	handler *APIHandler
	mr      *miniredis.Miniredis
}

func newTestEnv(t *testing.T, gen *fakeGenerator) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	service := db.NewRedisService(client, nil)
	var h *APIHandler
	if gen != nil {
		h = NewAPIHandler(service, gen, nil)
	} else {
		h = NewAPIHandler(service, nil, nil)
	}
	h.Seed = func() uint64 { return 4561 }
	h.Now = func() time.Time { return time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC) }

	return &testEnv{router: NewRouter(h), service: service, handler: h, mr: mr}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func (e *testEnv) seedClass(t *testing.T, id string, names ...string) {
	t.Helper()
	require.NoError(t, e.service.AddClass(models.Clazz{ID: id, Name: "Class " + id}))
	for i, n := range names {
		require.NoError(t, e.service.AddStudent(models.Student{
			ID: id + "_" + string(rune('A'+i)), Name: n, ClassID: id,
		}))
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestPing(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/api/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Pong!"}`, w.Body.String())
}

func TestClassRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/classes", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/classes", `{"id":"C1","name":"One"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/classes", `{"id":"C2"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/classes/C1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"C1","name":"One"}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/classes/C404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStudentRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedClass(t, "C1")

	w := env.do(t, http.MethodGet, "/api/classes/C1/random-student", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "No students found")

	w = env.do(t, http.MethodPost, "/api/classes/C1/students", `{"id":"S1","name":"Amy"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.Student{ID: "S1", Name: "Amy", ClassID: "C1"}, decode[models.Student](t, w))

	w = env.do(t, http.MethodPost, "/api/classes/C1/students", `{"id":"S2"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/classes/C1/students", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Student](t, w), 1)

	w = env.do(t, http.MethodGet, "/api/classes/C1/random-student", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Amy", decode[models.Student](t, w).Name)

	w = env.do(t, http.MethodGet, "/api/classes/C404/students", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/classes/C404/random-student", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Class not found")
}

func TestImportStudents(t *testing.T) {
	env := newTestEnv(t, nil)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"ID", "Name"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"S1", "Amy"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"S2", "Ben"}))
	var xlsx bytes.Buffer
	require.NoError(t, f.Write(&xlsx))
	require.NoError(t, f.Close())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("classId", "C5"))
	part, err := mw.CreateFormFile("file", "roster.xlsx")
	require.NoError(t, err)
	_, err = part.Write(xlsx.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/import/students", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"Import successful","importedCount":2,"classId":"C5"}`, w.Body.String())

	names, err := env.service.GetRosterNames("C5")
	require.NoError(t, err)
	assert.Equal(t, []string{"Amy", "Ben"}, names)
}

func TestImportStudents_MissingFields(t *testing.T) {
	env := newTestEnv(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("classId", "C5"))
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/import/students", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/import/students", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateReport(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedClass(t, "C1", "Amy", "Ben", "Cara", "Drew")

	w := env.do(t, http.MethodPost, "/api/classes/C1/reports", `{"count":3,"seed":7}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[models.Report](t, w)
	assert.Equal(t, "C1", first.ClassID)
	assert.Equal(t, uint64(7), first.Seed)
	assert.Len(t, first.Records, 3)
	for _, rec := range first.Records {
		for _, s := range rec.Scores() {
			assert.GreaterOrEqual(t, s, models.MinScore)
			assert.LessOrEqual(t, s, models.MaxScore)
		}
	}

	// Same seed replays the same records.
	w = env.do(t, http.MethodPost, "/api/classes/C1/reports", `{"count":3,"seed":7}`)
	require.Equal(t, http.StatusCreated, w.Code)
	second := decode[models.Report](t, w)
	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.Summary, second.Summary)

	// No body uses the defaults: three names and the handler's seed.
	w = env.do(t, http.MethodPost, "/api/classes/C1/reports", "")
	require.Equal(t, http.StatusCreated, w.Code)
	third := decode[models.Report](t, w)
	assert.Equal(t, uint64(4561), third.Seed)
	assert.Len(t, third.Records, 3)

	w = env.do(t, http.MethodGet, "/api/classes/C1/reports", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Report](t, w), 3)

	w = env.do(t, http.MethodGet, "/api/reports/"+first.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first.Records, decode[models.Report](t, w).Records)
}

func TestCreateReport_ChunkedEmptyBody(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedClass(t, "C1", "Amy", "Ben", "Cara", "Drew")

	r := httptest.NewRequest(http.MethodPost, "/api/classes/C1/reports", strings.NewReader(""))
	r.ContentLength = -1
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rep := decode[models.Report](t, w)
	assert.Equal(t, uint64(4561), rep.Seed)
	assert.Len(t, rep.Records, 3)
}

func TestCreateReport_Errors(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedClass(t, "C1", "Amy", "Ben")
	env.seedClass(t, "C2")

	cases := []struct {
		name, path, body string
		want             int
	}{
		{"unknown class", "/api/classes/C404/reports", `{"count":1}`, http.StatusNotFound},
		{"empty roster", "/api/classes/C2/reports", `{"count":1}`, http.StatusUnprocessableEntity},
		{"too many", "/api/classes/C1/reports", `{"count":3}`, http.StatusUnprocessableEntity},
		{"zero count", "/api/classes/C1/reports", `{"count":0}`, http.StatusBadRequest},
		{"bad json", "/api/classes/C1/reports", `{"count":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestReportTextAndExport(t *testing.T) {
	env := newTestEnv(t, nil)
	rep := models.Report{
		ID: "r1", ClassID: "C1",
		Records: []models.StudentRecord{
			{Name: "Amy", Chinese: 60, English: 70, Math: 80},
			{Name: "Ben", Chinese: 90, English: 95, Math: 100},
		},
		Summary: models.Summary{
			ClassAverage: 82.5,
			Top:          models.RankedStudent{Name: "Ben", Average: 95},
			Bottom:       models.RankedStudent{Name: "Amy", Average: 70},
		},
	}
	require.NoError(t, env.service.SaveReport(rep))

	w := env.do(t, http.MethodGet, "/api/reports/r1/text", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "學生成績表:\n"+
		"姓名\t國文\t英文\t數學\t平均\n"+
		"Amy\t60\t70\t80\t70.00\n"+
		"Ben\t90\t95\t100\t95.00\n"+
		"成績分析:\n"+
		"- 全班平均成績:82.5分\n"+
		"- 最高分學生: Ben(95.0分)\n"+
		"- 最低分學生: Amy(70.0分)\n", w.Body.String())

	w = env.do(t, http.MethodGet, "/api/reports/r1/xlsx", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "report-r1.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Equal(t, "Amy", rows[1][0])

	w = env.do(t, http.MethodGet, "/api/reports/missing/text", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGemini(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		env := newTestEnv(t, nil)
		w := env.do(t, http.MethodPost, "/api/gemini", `{"user_input":"hi"}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("forwards prompt", func(t *testing.T) {
		gen := &fakeGenerator{reply: "哈囉"}
		env := newTestEnv(t, gen)

		w := env.do(t, http.MethodPost, "/api/gemini", `{"user_input":"你好"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"response":"哈囉"}`, w.Body.String())
		assert.Equal(t, []string{"你好"}, gen.prompts)
	})

	t.Run("form input", func(t *testing.T) {
		gen := &fakeGenerator{reply: "ok"}
		env := newTestEnv(t, gen)

		r := httptest.NewRequest(http.MethodPost, "/api/gemini", strings.NewReader("user_input=hello"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"hello"}, gen.prompts)
	})

	t.Run("empty input skips the model", func(t *testing.T) {
		gen := &fakeGenerator{reply: "unused"}
		env := newTestEnv(t, gen)

		w := env.do(t, http.MethodPost, "/api/gemini", `{"user_input":""}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"response":""}`, w.Body.String())
		assert.Empty(t, gen.prompts)
	})

	t.Run("model failure", func(t *testing.T) {
		env := newTestEnv(t, &fakeGenerator{err: errors.New("quota")})
		w := env.do(t, http.MethodPost, "/api/gemini", `{"user_input":"hi"}`)
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestGetRandomStudent_ClassLookupFails(t *testing.T) {
	env := newTestEnv(t, nil)
	// The roster set is missing and the class index holds the wrong type.
	require.NoError(t, env.mr.Set("classes", "corrupt"))

	w := env.do(t, http.MethodGet, "/api/classes/C1/random-student", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to verify class", decode[map[string]string](t, w)["error"])
}
