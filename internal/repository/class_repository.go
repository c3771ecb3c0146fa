package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-finance-api/internal/models"
)

// ClassRepository reads classes for finance reporting.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// CountActive counts active classes.
func (r *ClassRepository) CountActive(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM classes WHERE active = TRUE`); err != nil {
		return 0, fmt.Errorf("count classes: %w", err)
	}
	return total, nil
}

// EnrollmentCounts returns the number of enrolled students per active class, skipping empty classes.
func (r *ClassRepository) EnrollmentCounts(ctx context.Context) ([]models.ClassEnrollmentCount, error) {
	const query = `SELECT c.id AS class_id, c.name AS class_name, COUNT(s.id) AS students
        FROM classes c
        JOIN students s ON s.class_id = c.id AND s.active = TRUE AND s.has_active_enrollment = TRUE
        WHERE c.active = TRUE
        GROUP BY c.id, c.name
        HAVING COUNT(s.id) > 0
        ORDER BY c.name ASC`
	var counts []models.ClassEnrollmentCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count class enrollments: %w", err)
	}
	return counts, nil
}
