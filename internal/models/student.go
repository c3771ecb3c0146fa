package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID                  string    `db:"id" json:"id"`
	FullName            string    `db:"full_name" json:"full_name"`
	ClassID             *string   `db:"class_id" json:"class_id,omitempty"`
	Active              bool      `db:"active" json:"active"`
	HasActiveEnrollment bool      `db:"has_active_enrollment" json:"has_active_enrollment"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}
