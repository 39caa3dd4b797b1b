package models

import "time"

// Selection is a student's intent to purchase a class. Duplicate selections
// of the same class by the same student are allowed; downstream logic
// tolerates them.
type Selection struct {
	ID         string    `db:"id" json:"id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	SelectedBy string    `db:"selected_by" json:"selected_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// SelectionDetail joins a selection with the display fields of its class.
type SelectionDetail struct {
	Selection
	ClassName       string  `db:"class_name" json:"class_name"`
	ClassImage      string  `db:"class_image" json:"class_image"`
	InstructorName  string  `db:"instructor_name" json:"instructor_name"`
	InstructorEmail string  `db:"instructor_email" json:"instructor_email"`
	Price           float64 `db:"price" json:"price"`
	Seats           int     `db:"seats" json:"seats"`
}
