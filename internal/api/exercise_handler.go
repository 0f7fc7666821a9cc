package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"udec/workout-tracker/internal/domain"
	"udec/workout-tracker/internal/service"
)

// ExerciseHandler serves the shared exercise catalog.
type ExerciseHandler struct {
	catalogService service.CatalogService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(catalogService service.CatalogService) *ExerciseHandler {
	return &ExerciseHandler{catalogService: catalogService}
}

// --- Request/Response Structs ---

type ExerciseRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	ExerciseType string `json:"exerciseType" binding:"required,oneof=WEIGHT_BASED TIME_BASED"`
	MuscleGroup  string `json:"muscleGroup"`
	Equipment    string `json:"equipment"`
	Instructions string `json:"instructions"`
	IsActive     *bool  `json:"isActive"`
}

type ExerciseResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	ExerciseType string    `json:"exerciseType"`
	MuscleGroup  string    `json:"muscleGroup,omitempty"`
	Equipment    string    `json:"equipment,omitempty"`
	Instructions string    `json:"instructions,omitempty"`
	IsActive     bool      `json:"isActive"`
	HasVideo     bool      `json:"hasVideo"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type VideoUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type PresignedURLResponse struct {
	URL string `json:"url"`
}

// --- Handler Methods ---

// ListExercises returns a page of the active catalog, optionally filtered
// by muscle group.
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	exercises, err := h.catalogService.ListActive(c.Request.Context(), c.Query("muscleGroup"), skip, limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve exercises")
		return
	}
	c.JSON(http.StatusOK, MapExercisesToResponse(exercises))
}

// GetExercise returns a single catalog entry.
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	exerciseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	exercise, err := h.catalogService.GetExercise(c.Request.Context(), exerciseID)
	if err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve exercise")
		}
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// CreateExercise adds a catalog entry. Admin only.
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercise, err := h.catalogService.CreateExercise(c.Request.Context(), exerciseInputFromRequest(req))
	if err != nil {
		if errors.Is(err, service.ErrExerciseValidation) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create exercise")
		}
		return
	}
	c.JSON(http.StatusCreated, MapExerciseToResponse(exercise))
}

// UpdateExercise replaces a catalog entry's fields. Admin only.
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	exerciseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercise, err := h.catalogService.UpdateExercise(c.Request.Context(), exerciseID, exerciseInputFromRequest(req))
	if err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrExerciseValidation) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update exercise")
		}
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// DeleteExercise removes a catalog entry. Admin only.
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	exerciseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteExercise(c.Request.Context(), exerciseID); err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete exercise")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestVideoUpload returns a presigned PUT URL for the demo video. Admin only.
func (h *ExerciseHandler) RequestVideoUpload(c *gin.Context) {
	exerciseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req VideoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	url, err := h.catalogService.RequestVideoUpload(c.Request.Context(), exerciseID, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL")
		}
		return
	}
	c.JSON(http.StatusOK, PresignedURLResponse{URL: url})
}

// GetVideoDownloadURL returns a presigned GET URL for the demo video.
func (h *ExerciseHandler) GetVideoDownloadURL(c *gin.Context) {
	exerciseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	url, err := h.catalogService.GetVideoDownloadURL(c.Request.Context(), exerciseID)
	if err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) || errors.Is(err, service.ErrNoVideo) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to generate download URL")
		}
		return
	}
	c.JSON(http.StatusOK, PresignedURLResponse{URL: url})
}

// --- Mappers ---

func exerciseInputFromRequest(req ExerciseRequest) service.ExerciseInput {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	return service.ExerciseInput{
		Name:         req.Name,
		Description:  req.Description,
		ExerciseType: domain.ExerciseType(req.ExerciseType),
		MuscleGroup:  req.MuscleGroup,
		Equipment:    req.Equipment,
		Instructions: req.Instructions,
		IsActive:     isActive,
	}
}

// MapExerciseToResponse converts a domain Exercise to its DTO.
func MapExerciseToResponse(exercise *domain.Exercise) ExerciseResponse {
	if exercise == nil {
		return ExerciseResponse{}
	}
	return ExerciseResponse{
		ID:           exercise.ID.Hex(),
		Name:         exercise.Name,
		Description:  exercise.Description,
		ExerciseType: string(exercise.ExerciseType),
		MuscleGroup:  exercise.MuscleGroup,
		Equipment:    exercise.Equipment,
		Instructions: exercise.Instructions,
		IsActive:     exercise.IsActive,
		HasVideo:     exercise.VideoKey != "",
		CreatedAt:    exercise.CreatedAt,
		UpdatedAt:    exercise.UpdatedAt,
	}
}

// MapExercisesToResponse converts a slice of exercises to DTOs.
func MapExercisesToResponse(exercises []domain.Exercise) []ExerciseResponse {
	responses := make([]ExerciseResponse, len(exercises))
	for i := range exercises {
		responses[i] = MapExerciseToResponse(&exercises[i])
	}
	return responses
}
