package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studyplanhq/studyplan-api/internal/dto"
	"github.com/studyplanhq/studyplan-api/internal/models"
	"github.com/studyplanhq/studyplan-api/internal/service"
	appErrors "github.com/studyplanhq/studyplan-api/pkg/errors"
	"github.com/studyplanhq/studyplan-api/pkg/export"
	"github.com/studyplanhq/studyplan-api/pkg/response"
)

type studyPlanManager interface {
	Generate(ctx context.Context, actor *models.JWTClaims, req dto.GenerateStudyPlanRequest) (*dto.GenerateStudyPlanResponse, error)
	List(ctx context.Context, actor *models.JWTClaims, filter dto.StudyPlanFilter) ([]models.StudyPlan, *models.Pagination, error)
	Get(ctx context.Context, actor *models.JWTClaims, planID string) (*dto.StudyPlanDetailResponse, error)
	Delete(ctx context.Context, actor *models.JWTClaims, planID string) error
	CompleteItem(ctx context.Context, actor *models.JWTClaims, planID, itemID string, completed bool) error
	ExportDataset(ctx context.Context, actor *models.JWTClaims, planID string) (string, export.Dataset, error)
}

// StudyPlanHandler exposes study plan endpoints.
type StudyPlanHandler struct {
	service studyPlanManager
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
}

// NewStudyPlanHandler constructs the handler.
func NewStudyPlanHandler(svc *service.StudyPlanService) *StudyPlanHandler {
	return &StudyPlanHandler{
		service: svc,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
	}
}

// Generate godoc
// @Summary Generate a week-by-week study plan
// @Description Builds and persists a plan distributing the selected lessons over the study period. Returns 400 with remediation details when the selection does not fit the available time.
// @Tags StudyPlans
// @Accept json
// @Produce json
// @Param payload body dto.GenerateStudyPlanRequest true "Generation parameters"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /study-plans/generate [post]
func (h *StudyPlanHandler) Generate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.GenerateStudyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid study plan payload"))
		return
	}
	if req.StudentID == "" {
		req.StudentID = claims.UserID
	}

	result, err := h.service.Generate(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List study plans
// @Tags StudyPlans
// @Produce json
// @Param studentId query string false "Student ID, defaults to the caller"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /study-plans [get]
func (h *StudyPlanHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := dto.StudyPlanFilter{
		StudentID: c.Query("studentId"),
		Page:      intQuery(c, "page", 1),
		PageSize:  intQuery(c, "pageSize", 20),
	}
	if filter.StudentID == "" {
		filter.StudentID = claims.UserID
	}

	plans, pagination, err := h.service.List(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, pagination)
}

// Get godoc
// @Summary Get a study plan with its scheduled items
// @Tags StudyPlans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /study-plans/{id} [get]
func (h *StudyPlanHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.service.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete a study plan
// @Tags StudyPlans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /study-plans/{id} [delete]
func (h *StudyPlanHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CompleteItem godoc
// @Summary Mark a scheduled lesson as completed or not
// @Tags StudyPlans
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param itemId path string true "Item ID"
// @Param payload body dto.CompleteItemRequest true "Completion flag"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /study-plans/{id}/items/{itemId} [patch]
func (h *StudyPlanHandler) CompleteItem(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CompleteItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid completion payload"))
		return
	}

	if err := h.service.CompleteItem(c.Request.Context(), claims, c.Param("id"), c.Param("itemId"), req.Completed); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"completed": req.Completed}, nil)
}

// Export godoc
// @Summary Export a study plan as CSV or PDF
// @Tags StudyPlans
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Plan ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /study-plans/{id}/export [get]
func (h *StudyPlanHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	name, dataset, err := h.service.ExportDataset(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	var (
		payload  []byte
		mimeType string
	)
	switch format {
	case "csv":
		payload, err = h.csv.Render(dataset)
		mimeType = "text/csv"
	case "pdf":
		payload, err = h.pdf.Render(dataset, name)
		mimeType = "application/pdf"
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported export format"))
		return
	}
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(name, format)))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, mimeType, payload)
}

func exportFilename(name, ext string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	if slug == "" {
		slug = "study-plan"
	}
	return slug + "." + ext
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
