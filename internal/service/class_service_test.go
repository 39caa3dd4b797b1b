package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseloop/marketplace-api/internal/models"
	appErrors "github.com/courseloop/marketplace-api/pkg/errors"
)

type mockClassRepo struct {
	classes        map[string]*models.Class
	createErr      error
	transitions    []models.ClassStatus
	listByStatusN  int
	incrementN     int64
	incrementCalls int
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.classes == nil {
		m.classes = make(map[string]*models.Class)
	}
	if class.ID == "" {
		class.ID = "generated"
	}
	class.Status = models.ClassStatusPending
	copy := *class
	m.classes[class.ID] = &copy
	return nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) ListAll(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	for _, c := range m.classes {
		classes = append(classes, *c)
	}
	return classes, nil
}

func (m *mockClassRepo) ListByStatus(ctx context.Context, status models.ClassStatus) ([]models.Class, error) {
	m.listByStatusN++
	var classes []models.Class
	for _, c := range m.classes {
		if c.Status == status {
			classes = append(classes, *c)
		}
	}
	return classes, nil
}

func (m *mockClassRepo) ListByInstructor(ctx context.Context, email string) ([]models.Class, error) {
	var classes []models.Class
	for _, c := range m.classes {
		if c.InstructorEmail == email {
			classes = append(classes, *c)
		}
	}
	return classes, nil
}

func (m *mockClassRepo) Transition(ctx context.Context, id string, target models.ClassStatus, feedback *string) (models.TransitionResult, error) {
	m.transitions = append(m.transitions, target)
	c, ok := m.classes[id]
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

func (m *mockClassRepo) IncrementTotalStudents(ctx context.Context, id string) (int64, error) {
	m.incrementCalls++
	return m.incrementN, nil
}

type mockCacheRepo struct {
	entries map[string][]byte
	deletes []string
}

func (m *mockCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *mockCacheRepo) Delete(ctx context.Context, key string) error {
	m.deletes = append(m.deletes, key)
	delete(m.entries, key)
	return nil
}

func newClassService(repo *mockClassRepo, cacheRepo *mockCacheRepo) *ClassService {
	var cacheSvc *CacheService
	if cacheRepo != nil {
		cacheSvc = NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	} else {
		cacheSvc = NewCacheService(nil, nil, time.Minute, nil, false)
	}
	return NewClassService(repo, cacheSvc, nil, nil)
}

func TestSubmitStartsPending(t *testing.T) {
	repo := &mockClassRepo{}
	svc := newClassService(repo, nil)

	class, err := svc.Submit(context.Background(), SubmitClassRequest{
		Name:            "Guitar 101",
		InstructorName:  "Ada",
		InstructorEmail: "ada@example.com",
		Price:           49.99,
		Seats:           10,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ClassStatusPending, class.Status)
}

func TestSubmitRejectsMissingInstructor(t *testing.T) {
	svc := newClassService(&mockClassRepo{}, nil)

	_, err := svc.Submit(context.Background(), SubmitClassRequest{Name: "Guitar 101"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestApprovePendingClass(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]*models.Class{
		"c1": {ID: "c1", Status: models.ClassStatusPending},
	}}
	cacheRepo := &mockCacheRepo{entries: map[string][]byte{approvedClassesCacheKey: []byte(`[]`)}}
	svc := newClassService(repo, cacheRepo)

	outcome, err := svc.Approve(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, models.TransitionApplied, outcome.Result)
	assert.Equal(t, models.ClassStatusApproved, repo.classes["c1"].Status)
	assert.Contains(t, cacheRepo.deletes, approvedClassesCacheKey)
}

func TestApproveAlreadyProcessedIsNoop(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]*models.Class{
		"c1": {ID: "c1", Status: models.ClassStatusDenied},
	}}
	cacheRepo := &mockCacheRepo{}
	svc := newClassService(repo, cacheRepo)

	outcome, err := svc.Approve(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, models.TransitionAlreadyProcessed, outcome.Result)
	assert.Equal(t, models.ClassStatusDenied, repo.classes["c1"].Status)
	assert.Empty(t, cacheRepo.deletes)
}

func TestApproveMissingClass(t *testing.T) {
	svc := newClassService(&mockClassRepo{}, nil)

	_, err := svc.Approve(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDenyStoresFeedback(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]*models.Class{
		"c1": {ID: "c1", Status: models.ClassStatusPending},
	}}
	svc := newClassService(repo, nil)

	outcome, err := svc.Deny(context.Background(), "c1", "needs a syllabus")
	require.NoError(t, err)
	assert.Equal(t, models.TransitionApplied, outcome.Result)
	require.NotNil(t, repo.classes["c1"].Feedback)
	assert.Equal(t, "needs a syllabus", *repo.classes["c1"].Feedback)
}

func TestListApprovedServedFromCache(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]*models.Class{
		"c1": {ID: "c1", Status: models.ClassStatusApproved},
	}}
	cacheRepo := &mockCacheRepo{}
	svc := newClassService(repo, cacheRepo)

	first, err := svc.ListApproved(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, repo.listByStatusN)

	second, err := svc.ListApproved(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, repo.listByStatusN)
}

func TestIncrementTotalStudentsMissingClass(t *testing.T) {
	svc := newClassService(&mockClassRepo{incrementN: 0}, nil)

	err := svc.IncrementTotalStudents(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
