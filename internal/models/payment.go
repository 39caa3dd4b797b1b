package models

import "time"

// Payment is an immutable log entry for a completed transaction.
type Payment struct {
	ID            string    `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	Amount        float64   `db:"amount" json:"amount"`
	TransactionID string    `db:"transaction_id" json:"transaction_id"`
	SelectionID   string    `db:"selection_id" json:"selection_id"`
	ClassID       string    `db:"class_id" json:"class_id"`
	ClassName     string    `db:"class_name" json:"class_name"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// CheckoutResult aggregates the effects of the enrollment transaction.
type CheckoutResult struct {
	PaymentID        string `json:"payment_id"`
	EnrollmentID     string `json:"enrollment_id"`
	SelectionRemoved bool   `json:"selection_removed"`
	SeatsRemaining   int    `json:"seats_remaining"`
}
