package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/schoolter/internal/database"
	apierrors "github.com/stwalsh4118/schoolter/internal/errors"
	"github.com/stwalsh4118/schoolter/internal/logger"
	"github.com/stwalsh4118/schoolter/internal/middleware"
	"github.com/stwalsh4118/schoolter/internal/models"
	"github.com/stwalsh4118/schoolter/internal/repository"
	"github.com/stwalsh4118/schoolter/internal/services"
)

func testSchools() []*models.School {
	return []*models.School{
		{
			ID: 1, URN: "101600", Name: "Bickley Park Primary School", Borough: "Bromley",
			Phase: models.PhasePrimary, Sector: models.SectorState, Pupils: 450, OfstedRating: models.RatingGood,
		},
		{
			ID: 2, URN: "118000", Name: "Simon Langton Grammar School for Boys", Borough: "Canterbury",
			Phase: models.PhaseSecondary, Sector: models.SectorState, Pupils: 1200, OfstedRating: models.RatingOutstanding,
		},
		{
			ID: 3, URN: "118001", Name: "St Lawrence College", Borough: "Thanet",
			Phase: models.PhaseAllThrough, Sector: models.SectorPrivate, Pupils: 650, OfstedRating: models.RatingNotApplicable,
		},
	}
}

// setupSchoolRouter wires the handler to a real service over an in-memory
// SQLite store. publish controls whether a snapshot exists.
func setupSchoolRouter(t *testing.T, publish bool) *gin.Engine {
	t.Helper()

	db, err := database.NewSQLite(database.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := services.NewSchoolService(repository.NewSQLiteSchoolRepository(db), logger.Nop())
	if publish {
		schools := testSchools()
		snap := &models.Snapshot{
			RunID:       uuid.New(),
			Mode:        "quick",
			Records:     len(schools),
			Sources:     models.NewSourceMix(),
			GeneratedAt: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC),
			PublishedAt: time.Date(2025, 9, 1, 12, 0, 1, 0, time.UTC),
		}
		require.NoError(t, svc.Publish(context.Background(), snap, schools))
	}

	return newSchoolRouter(NewSchoolHandler(svc))
}

func newSchoolRouter(handler *SchoolHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Nop()))
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func decodeError(t *testing.T, body []byte) apierrors.ErrorDetail {
	t.Helper()
	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Error
}

func TestSchoolHandler_List(t *testing.T) {
	router := setupSchoolRouter(t, true)

	w := get(router, "/api/v1/schools?borough=bromley")
	require.Equal(t, http.StatusOK, w.Code)

	var res services.ListResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, services.DefaultLimit, res.Limit)
	require.Len(t, res.Schools, 1)
	assert.Equal(t, "101600", res.Schools[0].URN)

	w = get(router, "/api/v1/schools?sector=State&limit=1&offset=1")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Schools, 1)
	assert.Equal(t, "118000", res.Schools[0].URN)

	w = get(router, "/api/v1/schools?rating=N/A")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Total)
}

func TestSchoolHandler_List_Invalid(t *testing.T) {
	router := setupSchoolRouter(t, true)

	tests := []struct {
		name string
		url  string
		code string
	}{
		{"unknown phase", "/api/v1/schools?phase=Kindergarten", apierrors.ErrValidation},
		{"limit too large", "/api/v1/schools?limit=500", apierrors.ErrValidation},
		{"non-numeric limit", "/api/v1/schools?limit=many", apierrors.ErrBadRequest},
		{"unknown rating", "/api/v1/schools?rating=Satisfactory", apierrors.ErrBadRequest},
		{"inverted pupil range", "/api/v1/schools?minPupils=900&maxPupils=100", apierrors.ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, tt.url)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			detail := decodeError(t, w.Body.Bytes())
			assert.Equal(t, tt.code, detail.Code)
			assert.NotEmpty(t, detail.RequestID)
		})
	}
}

func TestSchoolHandler_Get(t *testing.T) {
	router := setupSchoolRouter(t, true)

	w := get(router, "/api/v1/schools/118001")
	require.Equal(t, http.StatusOK, w.Code)
	var res SchoolResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "St Lawrence College", res.School.Name)

	w = get(router, "/api/v1/schools/999999")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apierrors.ErrNotFound, decodeError(t, w.Body.Bytes()).Code)
}

func TestSchoolHandler_Compare(t *testing.T) {
	router := setupSchoolRouter(t, true)

	w := get(router, "/api/v1/compare?urns=118001,101600")
	require.Equal(t, http.StatusOK, w.Code)
	var res CompareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, "118001", res.Schools[0].URN)
	assert.Equal(t, "101600", res.Schools[1].URN)

	w = get(router, "/api/v1/compare?urns=101600")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = get(router, "/api/v1/compare")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apierrors.ErrValidation, decodeError(t, w.Body.Bytes()).Code)

	w = get(router, "/api/v1/compare?urns=101600,999999")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSchoolHandler_Snapshot(t *testing.T) {
	router := setupSchoolRouter(t, true)

	w := get(router, "/api/v1/snapshot")
	require.Equal(t, http.StatusOK, w.Code)
	var res SnapshotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 3, res.Snapshot.Records)
	assert.Equal(t, "quick", res.Snapshot.Mode)

	empty := setupSchoolRouter(t, false)
	w = get(empty, "/api/v1/snapshot")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, apierrors.ErrSnapshotUnavailable, decodeError(t, w.Body.Bytes()).Code)
}

// MockSchoolService is a mock implementation of SchoolService for testing
type MockSchoolService struct {
	mock.Mock
}

func (m *MockSchoolService) List(ctx context.Context, q services.ListQuery) (*services.ListResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ListResult), args.Error(1)
}

func (m *MockSchoolService) Get(ctx context.Context, urn string) (*models.School, error) {
	args := m.Called(ctx, urn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.School), args.Error(1)
}

func (m *MockSchoolService) Compare(ctx context.Context, urns []string) ([]*models.School, error) {
	args := m.Called(ctx, urns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.School), args.Error(1)
}

func (m *MockSchoolService) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Snapshot), args.Error(1)
}

func (m *MockSchoolService) Publish(ctx context.Context, snap *models.Snapshot, schools []*models.School) error {
	return m.Called(ctx, snap, schools).Error(0)
}

func TestSchoolHandler_InternalErrorHidesCause(t *testing.T) {
	svc := new(MockSchoolService)
	svc.On("Get", mock.Anything, "101600").Return(nil, errors.New("pq: password authentication failed"))
	router := newSchoolRouter(NewSchoolHandler(svc))

	w := get(router, "/api/v1/schools/101600")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	detail := decodeError(t, w.Body.Bytes())
	assert.Equal(t, apierrors.ErrInternalServer, detail.Code)
	assert.NotContains(t, w.Body.String(), "password")
	svc.AssertExpectations(t)
}

func TestSchoolHandler_ListPassesQuery(t *testing.T) {
	svc := new(MockSchoolService)
	want := services.ListQuery{Phase: models.PhaseSecondary, Name: "langton", MinPupils: 100, Limit: 10}
	svc.On("List", mock.Anything, want).Return(&services.ListResult{Schools: []*models.School{}, Limit: 10}, nil)
	router := newSchoolRouter(NewSchoolHandler(svc))

	w := get(router, "/api/v1/schools?phase=Secondary&q=langton&minPupils=100&limit=10")
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
