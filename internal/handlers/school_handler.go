package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/stwalsh4118/schoolter/internal/errors"
	"github.com/stwalsh4118/schoolter/internal/middleware"
	"github.com/stwalsh4118/schoolter/internal/models"
	"github.com/stwalsh4118/schoolter/internal/services"
)

// SchoolHandler serves the published school data.
type SchoolHandler struct {
	service services.SchoolService
}

// NewSchoolHandler creates a new SchoolHandler instance.
func NewSchoolHandler(service services.SchoolService) *SchoolHandler {
	return &SchoolHandler{
		service: service,
	}
}

// ListRequest represents the query parameters for the list endpoint.
// Ratings contain spaces, so they are checked by the service instead.
type ListRequest struct {
	Borough   string `form:"borough" binding:"omitempty,max=100"`
	Phase     string `form:"phase" binding:"omitempty,oneof=Nursery Primary Secondary All-Through Special 16-Plus"`
	Sector    string `form:"sector" binding:"omitempty,oneof=State Private"`
	Rating    string `form:"rating"`
	Query     string `form:"q" binding:"omitempty,max=100"`
	MinPupils int    `form:"minPupils" binding:"omitempty,min=0"`
	MaxPupils int    `form:"maxPupils" binding:"omitempty,min=0"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
}

// CompareRequest represents the query parameters for the compare endpoint.
type CompareRequest struct {
	URNs string `form:"urns" binding:"required"`
}

// SchoolResponse wraps a single school.
type SchoolResponse struct {
	School *models.School `json:"school"`
}

// CompareResponse lists compared schools in request order.
type CompareResponse struct {
	Schools []*models.School `json:"schools"`
	Count   int              `json:"count"`
}

// SnapshotResponse describes the published run.
type SnapshotResponse struct {
	Snapshot *models.Snapshot `json:"snapshot"`
}

// RegisterRoutes mounts the school endpoints on an API version group.
func (h *SchoolHandler) RegisterRoutes(v1 *gin.RouterGroup) {
	schools := v1.Group("/schools")
	{
		schools.GET("", h.List)
		schools.GET("/:urn", h.Get)
	}
	v1.GET("/compare", h.Compare)
	v1.GET("/snapshot", h.Snapshot)
}

// List handles GET /api/v1/schools.
func (h *SchoolHandler) List(c *gin.Context) {
	var req ListRequest
	if !bindQuery(c, &req) {
		return
	}

	res, err := h.service.List(c.Request.Context(), services.ListQuery{
		Borough:   req.Borough,
		Phase:     req.Phase,
		Sector:    req.Sector,
		Rating:    req.Rating,
		Name:      req.Query,
		MinPupils: req.MinPupils,
		MaxPupils: req.MaxPupils,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if err != nil {
		h.fail(c, err, "Failed to list schools")
		return
	}

	c.JSON(http.StatusOK, res)
}

// Get handles GET /api/v1/schools/:urn.
func (h *SchoolHandler) Get(c *gin.Context) {
	school, err := h.service.Get(c.Request.Context(), c.Param("urn"))
	if err != nil {
		h.fail(c, err, "Failed to query school")
		return
	}

	c.JSON(http.StatusOK, SchoolResponse{School: school})
}

// Compare handles GET /api/v1/compare?urns=a,b.
func (h *SchoolHandler) Compare(c *gin.Context) {
	var req CompareRequest
	if !bindQuery(c, &req) {
		return
	}

	urns := strings.Split(req.URNs, ",")
	if log := middleware.GetLogger(c); log != nil {
		log.Debug("Processing compare request", map[string]interface{}{
			"urns": urns,
		})
	}

	schools, err := h.service.Compare(c.Request.Context(), urns)
	if err != nil {
		h.fail(c, err, "Failed to compare schools")
		return
	}

	c.JSON(http.StatusOK, CompareResponse{Schools: schools, Count: len(schools)})
}

// Snapshot handles GET /api/v1/snapshot.
func (h *SchoolHandler) Snapshot(c *gin.Context) {
	snap, err := h.service.Snapshot(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to query snapshot")
		return
	}

	c.JSON(http.StatusOK, SnapshotResponse{Snapshot: snap})
}

// fail maps service errors onto the error envelope.
func (h *SchoolHandler) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrInvalidFilter), errors.Is(err, services.ErrInvalidComparison):
		apierrors.BadRequest(c, err.Error(), nil)
	case errors.Is(err, services.ErrSchoolNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNoSnapshot):
		apierrors.SnapshotUnavailable(c)
	default:
		apierrors.InternalServerError(c, message, err)
	}
}

// bindQuery binds query parameters into req, writing the error response
// and returning false when they are invalid.
func bindQuery(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindQuery(req)
	if err == nil {
		return true
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return false
	}
	apierrors.BadRequest(c, "Invalid query parameters", map[string]interface{}{
		"reason": err.Error(),
	})
	return false
}
