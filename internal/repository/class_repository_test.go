package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseloop/marketplace-api/internal/models"
)

func classRows(id string, status models.ClassStatus, seats int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "name", "image", "instructor_name", "instructor_email", "price", "seats", "total_students", "status", "feedback", "created_at", "updated_at"}).
		AddRow(id, "Guitar 101", "guitar.png", "Ada", "ada@example.com", 49.99, seats, 3, string(status), nil, now, now)
}

func TestClassCreateForcesPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec("INSERT INTO classes").WillReturnResult(sqlmock.NewResult(1, 1))

	class := &models.Class{Name: "Guitar 101", InstructorEmail: "ada@example.com", Status: models.ClassStatusApproved}
	err := repo.Create(context.Background(), class)
	require.NoError(t, err)
	assert.Equal(t, models.ClassStatusPending, class.Status)
	assert.NotEmpty(t, class.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassTransitionApplied(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET status = $2, feedback = $3, updated_at = $4 WHERE id = $1 AND status = $5")).
		WithArgs("c1", string(models.ClassStatusApproved), nil, sqlmock.AnyArg(), string(models.ClassStatusPending)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := repo.Transition(context.Background(), "c1", models.ClassStatusApproved, nil)
	require.NoError(t, err)
	assert.Equal(t, models.TransitionApplied, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassTransitionAlreadyProcessed(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET status = $2, feedback = $3, updated_at = $4 WHERE id = $1 AND status = $5")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, image, instructor_name, instructor_email, price, seats, total_students, status, feedback, created_at, updated_at FROM classes WHERE id = $1 LIMIT 1")).
		WithArgs("c1").
		WillReturnRows(classRows("c1", models.ClassStatusApproved, 10))

	result, err := repo.Transition(context.Background(), "c1", models.ClassStatusDenied, nil)
	require.NoError(t, err)
	assert.Equal(t, models.TransitionAlreadyProcessed, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassTransitionNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET status = $2, feedback = $3, updated_at = $4 WHERE id = $1 AND status = $5")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, image, instructor_name, instructor_email, price, seats, total_students, status, feedback, created_at, updated_at FROM classes WHERE id = $1 LIMIT 1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	result, err := repo.Transition(context.Background(), "missing", models.ClassStatusApproved, nil)
	require.NoError(t, err)
	assert.Equal(t, models.TransitionNotFound, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassTransitionDenyStoresFeedback(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	feedback := "curriculum too thin"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET status = $2, feedback = $3, updated_at = $4 WHERE id = $1 AND status = $5")).
		WithArgs("c2", string(models.ClassStatusDenied), &feedback, sqlmock.AnyArg(), string(models.ClassStatusPending)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := repo.Transition(context.Background(), "c2", models.ClassStatusDenied, &feedback)
	require.NoError(t, err)
	assert.Equal(t, models.TransitionApplied, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassListByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, image, instructor_name, instructor_email, price, seats, total_students, status, feedback, created_at, updated_at FROM classes WHERE status = $1 ORDER BY created_at DESC")).
		WithArgs(string(models.ClassStatusApproved)).
		WillReturnRows(classRows("c1", models.ClassStatusApproved, 10))

	classes, err := repo.ListByStatus(context.Background(), models.ClassStatusApproved)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, models.ClassStatusApproved, classes[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassIncrementTotalStudents(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET total_students = total_students + 1, updated_at = $2 WHERE id = $1")).
		WithArgs("c1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.IncrementTotalStudents(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
