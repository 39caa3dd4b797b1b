package models

import "time"

// Enrollment snapshots class display data at purchase time for a student.
// Seats holds the pre-decrement seat count. Immutable after creation.
type Enrollment struct {
	ID              string    `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`
	PaymentID       string    `db:"payment_id" json:"payment_id"`
	ClassName       string    `db:"class_name" json:"class_name"`
	ClassImage      string    `db:"class_image" json:"class_image"`
	InstructorName  string    `db:"instructor_name" json:"instructor_name"`
	InstructorEmail string    `db:"instructor_email" json:"instructor_email"`
	Price           float64   `db:"price" json:"price"`
	Seats           int       `db:"seats" json:"seats"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
