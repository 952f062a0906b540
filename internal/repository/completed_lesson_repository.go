package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// CompletedLessonRepository tracks which lessons a student has finished.
type CompletedLessonRepository struct {
	db *sqlx.DB
}

// NewCompletedLessonRepository creates the repository.
func NewCompletedLessonRepository(db *sqlx.DB) *CompletedLessonRepository {
	return &CompletedLessonRepository{db: db}
}

// ListCompletedLessonIDs returns the subset of the given lessons the student
// has already completed.
func (r *CompletedLessonRepository) ListCompletedLessonIDs(ctx context.Context, studentID string, lessonIDs []string) ([]string, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT lesson_id FROM lesson_completions WHERE student_id = $1 AND lesson_id = ANY($2)`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, studentID, pq.Array(lessonIDs)); err != nil {
		return nil, fmt.Errorf("list completed lessons: %w", err)
	}
	return ids, nil
}

// MarkCompleted records a finished lesson, ignoring repeats.
func (r *CompletedLessonRepository) MarkCompleted(ctx context.Context, studentID, lessonID string) error {
	const query = `INSERT INTO lesson_completions (id, student_id, lesson_id, completed_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (student_id, lesson_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), studentID, lessonID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark lesson completed: %w", err)
	}
	return nil
}
