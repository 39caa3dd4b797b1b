package models

import "time"

// ClassStatus tracks the approval state machine for submitted classes.
type ClassStatus string

const (
	ClassStatusPending  ClassStatus = "pending"
	ClassStatusApproved ClassStatus = "approved"
	ClassStatusDenied   ClassStatus = "denied"
)

// TransitionResult reports the outcome of a conditional status transition.
type TransitionResult string

const (
	TransitionApplied          TransitionResult = "transitioned"
	TransitionAlreadyProcessed TransitionResult = "already_processed"
	TransitionNotFound         TransitionResult = "not_found"
)

// Class represents an instructor-submitted class offering.
type Class struct {
	ID              string      `db:"id" json:"id"`
	Name            string      `db:"name" json:"name"`
	Image           string      `db:"image" json:"image"`
	InstructorName  string      `db:"instructor_name" json:"instructor_name"`
	InstructorEmail string      `db:"instructor_email" json:"instructor_email"`
	Price           float64     `db:"price" json:"price"`
	Seats           int         `db:"seats" json:"seats"`
	TotalStudents   int         `db:"total_students" json:"total_students"`
	Status          ClassStatus `db:"status" json:"status"`
	Feedback        *string     `db:"feedback" json:"feedback,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// ClassSnapshot carries the display fields captured into an enrollment at
// purchase time. Seats reflects the pre-decrement value.
type ClassSnapshot struct {
	Name            string  `db:"name" json:"name"`
	Image           string  `db:"image" json:"image"`
	InstructorName  string  `db:"instructor_name" json:"instructor_name"`
	InstructorEmail string  `db:"instructor_email" json:"instructor_email"`
	Price           float64 `db:"price" json:"price"`
	Seats           int     `db:"seats" json:"seats"`
}
