package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-finance-api/internal/models"
)

// StudentRepository reads students and maintains their enrollment flag.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID fetches a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, full_name, class_id, active, has_active_enrollment, created_at, updated_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// CountEnrolled counts active students holding an active enrollment.
func (r *StudentRepository) CountEnrolled(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM students WHERE active = TRUE AND has_active_enrollment = TRUE`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count enrolled students: %w", err)
	}
	return total, nil
}

// SetActiveEnrollment updates the student's active enrollment flag.
func (r *StudentRepository) SetActiveEnrollment(ctx context.Context, id string, active bool) error {
	const query = `UPDATE students SET has_active_enrollment = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active); err != nil {
		return fmt.Errorf("update student enrollment flag: %w", err)
	}
	return nil
}
