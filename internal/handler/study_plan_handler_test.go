package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyplanhq/studyplan-api/internal/dto"
	internalmiddleware "github.com/studyplanhq/studyplan-api/internal/middleware"
	"github.com/studyplanhq/studyplan-api/internal/models"
	appErrors "github.com/studyplanhq/studyplan-api/pkg/errors"
	"github.com/studyplanhq/studyplan-api/pkg/export"
)

type studyPlanServiceMock struct {
	captured    dto.GenerateStudyPlanRequest
	generateErr error
	deleteErr   error
	dataset     export.Dataset
}

func (m *studyPlanServiceMock) Generate(ctx context.Context, actor *models.JWTClaims, req dto.GenerateStudyPlanRequest) (*dto.GenerateStudyPlanResponse, error) {
	m.captured = req
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	return &dto.GenerateStudyPlanResponse{Plan: models.StudyPlan{ID: "plan-1", StudentID: req.StudentID}}, nil
}

func (m *studyPlanServiceMock) List(ctx context.Context, actor *models.JWTClaims, filter dto.StudyPlanFilter) ([]models.StudyPlan, *models.Pagination, error) {
	return nil, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (m *studyPlanServiceMock) Get(ctx context.Context, actor *models.JWTClaims, planID string) (*dto.StudyPlanDetailResponse, error) {
	return &dto.StudyPlanDetailResponse{Plan: models.StudyPlan{ID: planID}}, nil
}

func (m *studyPlanServiceMock) Delete(ctx context.Context, actor *models.JWTClaims, planID string) error {
	return m.deleteErr
}

func (m *studyPlanServiceMock) CompleteItem(ctx context.Context, actor *models.JWTClaims, planID, itemID string, completed bool) error {
	return nil
}

func (m *studyPlanServiceMock) ExportDataset(ctx context.Context, actor *models.JWTClaims, planID string) (string, export.Dataset, error) {
	return "Plano ENEM", m.dataset, nil
}

func testHandler(svc studyPlanManager) *StudyPlanHandler {
	return &StudyPlanHandler{service: svc, csv: export.NewCSVExporter(), pdf: export.NewPDFExporter()}
}

func authedContext(t *testing.T, w *httptest.ResponseRecorder, req *http.Request, claims *models.JWTClaims) *gin.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	if claims != nil {
		c.Set(internalmiddleware.ContextUserKey, claims)
	}
	return c
}

func generatePayload(studentID string) []byte {
	payload, _ := json.Marshal(dto.GenerateStudyPlanRequest{
		StudentID:     studentID,
		StartDate:     "2024-01-01",
		EndDate:       "2024-01-14",
		HoursPerDay:   2,
		DaysPerWeek:   5,
		DisciplineIDs: []string{"d1"},
		Mode:          "parallel",
	})
	return payload
}

func TestStudyPlanHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &studyPlanServiceMock{}
	handler := testHandler(mockSvc)

	req, _ := http.NewRequest(http.MethodPost, "/study-plans/generate", bytes.NewReader(generatePayload("student-1")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c := authedContext(t, w, req, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	handler.Generate(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "student-1", mockSvc.captured.StudentID)
}

func TestStudyPlanHandlerGenerateDefaultsStudentToCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &studyPlanServiceMock{}
	handler := testHandler(mockSvc)

	req, _ := http.NewRequest(http.MethodPost, "/study-plans/generate", bytes.NewReader(generatePayload("")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c := authedContext(t, w, req, &models.JWTClaims{UserID: "student-7", Role: models.RoleStudent})

	handler.Generate(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "student-7", mockSvc.captured.StudentID)
}

func TestStudyPlanHandlerGenerateMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := testHandler(&studyPlanServiceMock{})

	req, _ := http.NewRequest(http.MethodPost, "/study-plans/generate", bytes.NewReader([]byte(`{"student_id":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c := authedContext(t, w, req, &models.JWTClaims{UserID: "student-1"})

	handler.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStudyPlanHandlerGenerateUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := testHandler(&studyPlanServiceMock{})

	req, _ := http.NewRequest(http.MethodPost, "/study-plans/generate", bytes.NewReader(generatePayload("student-1")))
	w := httptest.NewRecorder()
	c := authedContext(t, w, req, nil)

	handler.Generate(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStudyPlanHandlerGenerateInfeasiblePassesDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &studyPlanServiceMock{
		generateErr: appErrors.WithDetails(appErrors.ErrInfeasible, "not enough time", map[string]int{"hours_needed": 30}),
	}
	handler := testHandler(mockSvc)

	req, _ := http.NewRequest(http.MethodPost, "/study-plans/generate", bytes.NewReader(generatePayload("student-1")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c := authedContext(t, w, req, &models.JWTClaims{UserID: "student-1"})

	handler.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INFEASIBLE")
	assert.Contains(t, w.Body.String(), "hours_needed")
}

func TestStudyPlanHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := testHandler(&studyPlanServiceMock{})

	req, _ := http.NewRequest(http.MethodDelete, "/study-plans/plan-1", nil)
	w := httptest.NewRecorder()
	c := authedContext(t, w, req, &models.JWTClaims{UserID: "student-1"})
	c.Params = gin.Params{{Key: "id", Value: "plan-1"}}

	handler.Delete(c)
	// A body-less 204 is only flushed to the recorder on an explicit write
	// when the handler is invoked outside a gin engine.
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestStudyPlanHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &studyPlanServiceMock{
		dataset: export.Dataset{
			Headers: []string{"week", "lesson"},
			Rows:    []map[string]string{{"week": "1", "lesson": "Cinemática"}},
		},
	}
	handler := testHandler(mockSvc)

	req, _ := http.NewRequest(http.MethodGet, "/study-plans/plan-1/export?format=csv", nil)
	w := httptest.NewRecorder()
	c := authedContext(t, w, req, &models.JWTClaims{UserID: "student-1"})
	c.Params = gin.Params{{Key: "id", Value: "plan-1"}}

	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "plano-enem.csv")
	assert.Contains(t, w.Body.String(), "Cinemática")
}

func TestStudyPlanHandlerExportUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := testHandler(&studyPlanServiceMock{})

	req, _ := http.NewRequest(http.MethodGet, "/study-plans/plan-1/export?format=xlsx", nil)
	w := httptest.NewRecorder()
	c := authedContext(t, w, req, &models.JWTClaims{UserID: "student-1"})
	c.Params = gin.Params{{Key: "id", Value: "plan-1"}}

	handler.Export(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStudyPlanHandlerListDefaultsPaging(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := testHandler(&studyPlanServiceMock{})

	req, _ := http.NewRequest(http.MethodGet, "/study-plans?page=0", nil)
	w := httptest.NewRecorder()
	c := authedContext(t, w, req, &models.JWTClaims{UserID: "student-1"})

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"page":1`)
	assert.Contains(t, w.Body.String(), `"page_size":20`)
}
