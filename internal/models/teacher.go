package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StaffProfile holds the employment data shared by every staff member.
type StaffProfile struct {
	Position   string          `db:"position" json:"position"`
	HireDate   *time.Time      `db:"hire_date" json:"hire_date,omitempty"`
	BaseSalary decimal.Decimal `db:"base_salary" json:"base_salary"`
}

// Teacher represents an instructor record. Employment fields live in the embedded profile.
type Teacher struct {
	ID       string `db:"id" json:"id"`
	Email    string `db:"email" json:"email"`
	FullName string `db:"full_name" json:"full_name"`
	Active   bool   `db:"active" json:"active"`
	StaffProfile
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
