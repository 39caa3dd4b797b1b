package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseloop/marketplace-api/internal/models"
	"github.com/courseloop/marketplace-api/internal/service"
)

type classRepoStub struct {
	classes map[string]*models.Class
}

func (s *classRepoStub) Create(ctx context.Context, class *models.Class) error {
	if s.classes == nil {
		s.classes = make(map[string]*models.Class)
	}
	if class.ID == "" {
		class.ID = "generated"
	}
	class.Status = models.ClassStatusPending
	copy := *class
	s.classes[class.ID] = &copy
	return nil
}

func (s *classRepoStub) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := s.classes[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *classRepoStub) ListAll(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	for _, c := range s.classes {
		classes = append(classes, *c)
	}
	return classes, nil
}

func (s *classRepoStub) ListByStatus(ctx context.Context, status models.ClassStatus) ([]models.Class, error) {
	var classes []models.Class
	for _, c := range s.classes {
		if c.Status == status {
			classes = append(classes, *c)
		}
	}
	return classes, nil
}

func (s *classRepoStub) ListByInstructor(ctx context.Context, email string) ([]models.Class, error) {
	return nil, nil
}

func (s *classRepoStub) Transition(ctx context.Context, id string, target models.ClassStatus, feedback *string) (models.TransitionResult, error) {
	c, ok := s.classes[id]
	if !ok {
		return models.TransitionNotFound, nil
	}
	if c.Status != models.ClassStatusPending {
		return models.TransitionAlreadyProcessed, nil
	}
	c.Status = target
	c.Feedback = feedback
	return models.TransitionApplied, nil
}

func (s *classRepoStub) IncrementTotalStudents(ctx context.Context, id string) (int64, error) {
	if _, ok := s.classes[id]; !ok {
		return 0, nil
	}
	return 1, nil
}

func newClassHandler(repo *classRepoStub) *ClassHandler {
	cacheSvc := service.NewCacheService(nil, nil, time.Minute, nil, false)
	return NewClassHandler(service.NewClassService(repo, cacheSvc, nil, nil))
}

func TestApprovePendingClassTransitioned(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &classRepoStub{classes: map[string]*models.Class{
		"c1": {ID: "c1", Status: models.ClassStatusPending},
	}}
	handler := newClassHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/classes/c1/approve", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "classId", Value: "c1"}}

	handler.Approve(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(models.TransitionApplied))
	assert.Equal(t, models.ClassStatusApproved, repo.classes["c1"].Status)
}

func TestApproveDeniedClassAlreadyProcessed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &classRepoStub{classes: map[string]*models.Class{
		"c1": {ID: "c1", Status: models.ClassStatusDenied},
	}}
	handler := newClassHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/classes/c1/approve", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "classId", Value: "c1"}}

	handler.Approve(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(models.TransitionAlreadyProcessed))
	assert.Equal(t, models.ClassStatusDenied, repo.classes["c1"].Status)
}

func TestApproveMissingClassNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newClassHandler(&classRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/classes/ghost/approve", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "classId", Value: "ghost"}}

	handler.Approve(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDenyRequiresBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &classRepoStub{classes: map[string]*models.Class{
		"c1": {ID: "c1", Status: models.ClassStatusPending},
	}}
	handler := newClassHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(map[string]string{"feedback": "needs work"})
	req, _ := http.NewRequest(http.MethodPost, "/classes/c1/deny", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "classId", Value: "c1"}}

	handler.Deny(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, repo.classes["c1"].Feedback)
	assert.Equal(t, "needs work", *repo.classes["c1"].Feedback)
}

func TestSubmitClassCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &classRepoStub{}
	handler := newClassHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(service.SubmitClassRequest{
		Name:            "Guitar 101",
		InstructorName:  "Ada",
		InstructorEmail: "ada@example.com",
		Price:           49.99,
		Seats:           10,
	})
	req, _ := http.NewRequest(http.MethodPost, "/classes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.classes, 1)
	assert.Equal(t, models.ClassStatusPending, repo.classes["generated"].Status)
}
