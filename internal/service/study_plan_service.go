package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/studyplanhq/studyplan-api/internal/dto"
	"github.com/studyplanhq/studyplan-api/internal/models"
	"github.com/studyplanhq/studyplan-api/internal/scheduler"
	appErrors "github.com/studyplanhq/studyplan-api/pkg/errors"
	"github.com/studyplanhq/studyplan-api/pkg/export"
)

const dateLayout = "2006-01-02"

type catalogReader interface {
	ListFrontIDsByDisciplines(ctx context.Context, disciplineIDs []string, courseID *string) ([]string, error)
	ListModuleIDsByFronts(ctx context.Context, frontIDs, subset []string) ([]string, error)
	ListLessonsByModules(ctx context.Context, moduleIDs []string, minPriority int) ([]models.LessonDetail, error)
}

type studyPlanStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, plan *models.StudyPlan) error
	BulkInsertItems(ctx context.Context, exec sqlx.ExtContext, items []models.StudyPlanItem) error
	ListByStudent(ctx context.Context, studentID string, page, pageSize int) ([]models.StudyPlan, int, error)
	FindByID(ctx context.Context, id string) (*models.StudyPlan, error)
	ListItemDetails(ctx context.Context, planID string) ([]models.StudyPlanItemDetail, error)
	Delete(ctx context.Context, id string) (int64, error)
	SetItemCompleted(ctx context.Context, planID, itemID string, completed bool) (string, error)
}

type completionStore interface {
	ListCompletedLessonIDs(ctx context.Context, studentID string, lessonIDs []string) ([]string, error)
	MarkCompleted(ctx context.Context, studentID, lessonID string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// StudyPlanService orchestrates generation and management of study plans.
type StudyPlanService struct {
	catalog     catalogReader
	plans       studyPlanStore
	completions completionStore
	cache       *CacheService
	tx          txProvider
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cacheTTL    time.Duration
	maxLessons  int
}

// NewStudyPlanService constructs the service.
func NewStudyPlanService(catalog catalogReader, plans studyPlanStore, completions completionStore, cache *CacheService, tx txProvider, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration, maxLessons int) *StudyPlanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StudyPlanService{
		catalog:     catalog,
		plans:       plans,
		completions: completions,
		cache:       cache,
		tx:          tx,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cacheTTL:    cacheTTL,
		maxLessons:  maxLessons,
	}
}

// canAccess reports whether the actor may operate on the student's plans.
// Students only reach their own; staff roles reach everyone.
func canAccess(actor *models.JWTClaims, studentID string) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleAdmin, models.RoleMentor:
		return true
	default:
		return actor.UserID == studentID
	}
}

// Generate builds and persists a study plan for the requested student.
func (s *StudyPlanService) Generate(ctx context.Context, actor *models.JWTClaims, req dto.GenerateStudyPlanRequest) (*dto.GenerateStudyPlanResponse, error) {
	started := time.Now()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid study plan payload")
	}
	if !canAccess(actor, req.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot generate a plan for another student")
	}

	startDate, endDate, vacations, err := parsePeriod(req)
	if err != nil {
		return nil, err
	}

	weeks := scheduler.BuildWeeks(startDate, endDate, vacations, req.HoursPerDay, req.DaysPerWeek)
	if len(scheduler.Usable(weeks)) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "the study period has no usable weeks")
	}

	lessons, err := s.resolveLessons(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.maxLessons > 0 && len(lessons) > s.maxLessons {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("selection matches %d lessons, the limit is %d", len(lessons), s.maxLessons))
	}

	scheduler.SortLessons(lessons)
	playbackSpeed := req.PlaybackSpeed
	if playbackSpeed <= 0 {
		playbackSpeed = 1.0
	}
	costed := scheduler.ApplyCosts(lessons, playbackSpeed)
	totalCost := scheduler.TotalCost(costed)

	report := scheduler.CheckFeasibility(totalCost, weeks, req.HoursPerDay, req.DaysPerWeek)
	if !report.Feasible {
		message := fmt.Sprintf("the selected lessons need %d hours but only %d are available; raise daily hours to at least %.1f or extend the period", report.HoursNeeded, report.HoursAvailable, report.RequiredDailyHours)
		return nil, appErrors.WithDetails(appErrors.ErrInfeasible, message, report)
	}

	fronts := scheduler.GroupFronts(costed)
	mode, err := scheduler.ParseMode(req.Mode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid distribution mode")
	}
	assignments := scheduler.NewDistributor(mode, req.FrontOrder).Distribute(fronts, scheduler.Usable(weeks))

	stats := buildStats(assignments, costed, weeks, totalCost)

	plan, items, err := buildPlanRecords(req, startDate, endDate, assignments, stats)
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, plan, items); err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, planCachePattern(req.StudentID))
	}
	s.metrics.ObservePlanGenerated(string(mode), len(items), time.Since(started))
	s.logger.Info("study plan generated",
		zap.String("plan_id", plan.ID),
		zap.String("student_id", plan.StudentID),
		zap.String("mode", string(mode)),
		zap.Int("lessons", len(items)),
		zap.Int("weeks", stats.TotalWeeks))

	return &dto.GenerateStudyPlanResponse{
		Plan:        *plan,
		Items:       items,
		Stats:       stats,
		Feasibility: report,
	}, nil
}

// resolveLessons walks the catalog hierarchy for the selection, reporting
// which level came up empty, and applies the completed-lesson exclusion.
func (s *StudyPlanService) resolveLessons(ctx context.Context, req dto.GenerateStudyPlanRequest) ([]scheduler.Lesson, error) {
	frontIDs, err := s.catalog.ListFrontIDsByDisciplines(ctx, req.DisciplineIDs, req.TargetCourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fronts")
	}
	if len(frontIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no fronts found for the selected disciplines")
	}

	moduleIDs, err := s.catalog.ListModuleIDsByFronts(ctx, frontIDs, req.ModuleIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load modules")
	}
	if len(moduleIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no modules found for the selected fronts")
	}

	details, err := s.catalog.ListLessonsByModules(ctx, moduleIDs, req.MinPriority)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}
	if len(details) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no lessons match the selected filters")
	}

	if excludeCompleted(req) {
		ids := make([]string, len(details))
		for i, d := range details {
			ids[i] = d.ID
		}
		completed, err := s.completions.ListCompletedLessonIDs(ctx, req.StudentID, ids)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load completed lessons")
		}
		if len(completed) > 0 {
			done := make(map[string]bool, len(completed))
			for _, id := range completed {
				done[id] = true
			}
			remaining := details[:0]
			for _, d := range details {
				if !done[d.ID] {
					remaining = append(remaining, d)
				}
			}
			details = remaining
		}
		if len(details) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "all matching lessons are already completed")
		}
	}

	lessons := make([]scheduler.Lesson, len(details))
	for i, d := range details {
		lessons[i] = scheduler.Lesson{
			ID:             d.ID,
			Name:           d.Name,
			Number:         intOrZero(d.Number),
			RawMinutes:     d.EstimatedMinutes,
			Priority:       d.Priority,
			ModuleID:       d.ModuleID,
			ModuleNumber:   intOrZero(d.ModuleNumber),
			FrontID:        d.FrontID,
			FrontName:      d.FrontName,
			DisciplineID:   d.DisciplineID,
			DisciplineName: d.DisciplineName,
		}
	}
	return lessons, nil
}

// persist writes the plan header and items in one transaction.
func (s *StudyPlanService) persist(ctx context.Context, plan *models.StudyPlan, items []models.StudyPlanItem) error {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.plans.Create(ctx, tx, plan); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist study plan")
	}
	for i := range items {
		items[i].PlanID = plan.ID
	}
	if err = s.plans.BulkInsertItems(ctx, tx, items); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist study plan items")
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit study plan")
	}
	return nil
}

// List returns a student's plans, served from cache when possible.
func (s *StudyPlanService) List(ctx context.Context, actor *models.JWTClaims, filter dto.StudyPlanFilter) ([]models.StudyPlan, *models.Pagination, error) {
	if !canAccess(actor, filter.StudentID) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "cannot list another student's plans")
	}

	type cached struct {
		Plans      []models.StudyPlan `json:"plans"`
		Pagination models.Pagination  `json:"pagination"`
	}
	key := fmt.Sprintf("study-plans:%s:list:%d:%d", filter.StudentID, filter.Page, filter.PageSize)
	var entry cached
	if s.cache != nil {
		if hit, _ := s.cache.Get(ctx, key, &entry); hit {
			return entry.Plans, &entry.Pagination, nil
		}
	}

	plans, total, err := s.plans.ListByStudent(ctx, filter.StudentID, filter.Page, filter.PageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list study plans")
	}
	pagination := models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	if pagination.Page < 1 {
		pagination.Page = 1
	}
	if pagination.PageSize <= 0 || pagination.PageSize > 100 {
		pagination.PageSize = 20
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, cached{Plans: plans, Pagination: pagination}, s.cacheTTL)
	}
	return plans, &pagination, nil
}

// Get returns a plan with its scheduled items.
func (s *StudyPlanService) Get(ctx context.Context, actor *models.JWTClaims, planID string) (*dto.StudyPlanDetailResponse, error) {
	plan, err := s.loadAuthorized(ctx, actor, planID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("study-plans:%s:detail:%s", plan.StudentID, planID)
	var detail dto.StudyPlanDetailResponse
	if s.cache != nil {
		if hit, _ := s.cache.Get(ctx, key, &detail); hit {
			return &detail, nil
		}
	}

	items, err := s.plans.ListItemDetails(ctx, planID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study plan items")
	}
	detail = dto.StudyPlanDetailResponse{Plan: *plan, Items: items}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, detail, s.cacheTTL)
	}
	return &detail, nil
}

// Delete removes a plan with its items.
func (s *StudyPlanService) Delete(ctx context.Context, actor *models.JWTClaims, planID string) error {
	plan, err := s.loadAuthorized(ctx, actor, planID)
	if err != nil {
		return err
	}
	affected, err := s.plans.Delete(ctx, planID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete study plan")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "study plan not found")
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, planCachePattern(plan.StudentID))
	}
	s.logger.Info("study plan deleted", zap.String("plan_id", planID), zap.String("student_id", plan.StudentID))
	return nil
}

// CompleteItem toggles the completion flag of one scheduled item.
func (s *StudyPlanService) CompleteItem(ctx context.Context, actor *models.JWTClaims, planID, itemID string, completed bool) error {
	plan, err := s.loadAuthorized(ctx, actor, planID)
	if err != nil {
		return err
	}
	lessonID, err := s.plans.SetItemCompleted(ctx, planID, itemID, completed)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update study plan item")
	}
	if lessonID == "" {
		return appErrors.Clone(appErrors.ErrNotFound, "study plan item not found")
	}
	if completed {
		if err := s.completions.MarkCompleted(ctx, plan.StudentID, lessonID); err != nil {
			s.logger.Warn("failed to record lesson completion", zap.Error(err))
		}
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, planCachePattern(plan.StudentID))
	}
	return nil
}

// ExportDataset flattens a plan into the tabular form shared by the CSV and
// PDF exporters.
func (s *StudyPlanService) ExportDataset(ctx context.Context, actor *models.JWTClaims, planID string) (string, export.Dataset, error) {
	detail, err := s.Get(ctx, actor, planID)
	if err != nil {
		return "", export.Dataset{}, err
	}

	dataset := export.Dataset{
		Headers: []string{"week", "discipline", "front", "module", "lesson", "minutes", "completed"},
	}
	for _, item := range detail.Items {
		minutes := ""
		if item.EstimatedMinutes != nil {
			minutes = fmt.Sprintf("%d", *item.EstimatedMinutes)
		}
		completed := "no"
		if item.Completed {
			completed = "yes"
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"week":       fmt.Sprintf("%d", item.WeekNumber),
			"discipline": item.DisciplineName,
			"front":      item.FrontName,
			"module":     item.ModuleName,
			"lesson":     item.LessonName,
			"minutes":    minutes,
			"completed":  completed,
		})
	}
	return detail.Plan.Name, dataset, nil
}

func (s *StudyPlanService) loadAuthorized(ctx context.Context, actor *models.JWTClaims, planID string) (*models.StudyPlan, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study plan")
	}
	if plan == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "study plan not found")
	}
	if !canAccess(actor, plan.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot access another student's plan")
	}
	return plan, nil
}

func parsePeriod(req dto.GenerateStudyPlanRequest) (time.Time, time.Time, []scheduler.Interval, error) {
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, nil, appErrors.Clone(appErrors.ErrValidation, "invalid start date")
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, nil, appErrors.Clone(appErrors.ErrValidation, "invalid end date")
	}
	if !endDate.After(startDate) {
		return time.Time{}, time.Time{}, nil, appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}

	vacations := make([]scheduler.Interval, 0, len(req.Vacations))
	for _, v := range req.Vacations {
		vStart, err := time.Parse(dateLayout, v.Start)
		if err != nil {
			return time.Time{}, time.Time{}, nil, appErrors.Clone(appErrors.ErrValidation, "invalid vacation start date")
		}
		vEnd, err := time.Parse(dateLayout, v.End)
		if err != nil {
			return time.Time{}, time.Time{}, nil, appErrors.Clone(appErrors.ErrValidation, "invalid vacation end date")
		}
		if vEnd.Before(vStart) {
			return time.Time{}, time.Time{}, nil, appErrors.Clone(appErrors.ErrValidation, "vacation end must not precede its start")
		}
		vacations = append(vacations, scheduler.Interval{Start: vStart, End: vEnd})
	}
	return startDate, endDate, vacations, nil
}

func buildStats(assignments []scheduler.Assignment, costed []scheduler.CostedLesson, weeks []scheduler.Week, totalCost float64) dto.StudyPlanStats {
	frontByLesson := make(map[string]string, len(costed))
	for _, lesson := range costed {
		frontByLesson[lesson.ID] = lesson.FrontID
	}
	frontsHit := make(map[string]bool)
	for _, a := range assignments {
		frontsHit[frontByLesson[a.LessonID]] = true
	}
	return dto.StudyPlanStats{
		TotalLessons:         len(assignments),
		TotalWeeks:           len(weeks),
		UsableWeeks:          len(scheduler.Usable(weeks)),
		TotalCapacityMinutes: scheduler.TotalCapacity(weeks),
		TotalCostMinutes:     totalCost,
		FrontsDistributed:    len(frontsHit),
	}
}

func buildPlanRecords(req dto.GenerateStudyPlanRequest, startDate, endDate time.Time, assignments []scheduler.Assignment, stats dto.StudyPlanStats) (*models.StudyPlan, []models.StudyPlanItem, error) {
	vacationsJSON, err := json.Marshal(req.Vacations)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode vacations")
	}
	disciplinesJSON, err := json.Marshal(req.DisciplineIDs)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode disciplines")
	}
	frontOrderJSON, err := json.Marshal(req.FrontOrder)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode front order")
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode stats")
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("Study plan %s to %s", req.StartDate, req.EndDate)
	}
	playbackSpeed := req.PlaybackSpeed
	if playbackSpeed <= 0 {
		playbackSpeed = 1.0
	}

	plan := &models.StudyPlan{
		StudentID:           req.StudentID,
		TargetCourseID:      req.TargetCourseID,
		Name:                name,
		StartDate:           startDate,
		EndDate:             endDate,
		HoursPerDay:         req.HoursPerDay,
		DaysPerWeek:         req.DaysPerWeek,
		MinPriority:         req.MinPriority,
		Mode:                models.StudyMode(req.Mode),
		PlaybackSpeed:       playbackSpeed,
		ExcludeCompleted:    excludeCompleted(req),
		Vacations:           types.JSONText(vacationsJSON),
		SelectedDisciplines: types.JSONText(disciplinesJSON),
		FrontOrder:          types.JSONText(frontOrderJSON),
		Stats:               types.JSONText(statsJSON),
	}

	items := make([]models.StudyPlanItem, len(assignments))
	for i, a := range assignments {
		items[i] = models.StudyPlanItem{
			LessonID:   a.LessonID,
			WeekNumber: a.WeekNumber,
			Position:   a.Position,
		}
	}
	return plan, items, nil
}

// excludeCompleted defaults to true when the flag is omitted.
func excludeCompleted(req dto.GenerateStudyPlanRequest) bool {
	return req.ExcludeCompleted == nil || *req.ExcludeCompleted
}

func planCachePattern(studentID string) string {
	return fmt.Sprintf("study-plans:%s:*", studentID)
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
