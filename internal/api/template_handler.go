package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"udec/workout-tracker/internal/domain"
	"udec/workout-tracker/internal/service"
)

// TemplateHandler serves workout templates: public listing for users,
// full CRUD for admins.
type TemplateHandler struct {
	templateService service.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(templateService service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// --- Request/Response Structs ---

type TemplateExerciseRequest struct {
	ExerciseID        string   `json:"exerciseId" binding:"required"`
	OrderIndex        int      `json:"orderIndex"`
	SuggestedSets     *int     `json:"suggestedSets"`
	SuggestedReps     *int     `json:"suggestedReps"`
	SuggestedWeight   *float64 `json:"suggestedWeight"`
	SuggestedDuration *int     `json:"suggestedDuration"`
}

type TemplateRequest struct {
	Name        string                    `json:"name" binding:"required"`
	Description string                    `json:"description"`
	IsPublic    bool                      `json:"isPublic"`
	Exercises   []TemplateExerciseRequest `json:"exercises"`
}

type TemplateExerciseResponse struct {
	ID                string   `json:"id"`
	ExerciseID        string   `json:"exerciseId"`
	OrderIndex        int      `json:"orderIndex"`
	SuggestedSets     *int     `json:"suggestedSets,omitempty"`
	SuggestedReps     *int     `json:"suggestedReps,omitempty"`
	SuggestedWeight   *float64 `json:"suggestedWeight,omitempty"`
	SuggestedDuration *int     `json:"suggestedDuration,omitempty"`
}

type TemplateResponse struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	Description string                     `json:"description,omitempty"`
	CreatedBy   string                     `json:"createdBy"`
	IsPublic    bool                       `json:"isPublic"`
	Exercises   []TemplateExerciseResponse `json:"exercises"`
	CreatedAt   time.Time                  `json:"createdAt"`
	UpdatedAt   time.Time                  `json:"updatedAt"`
}

// --- Handler Methods ---

// ListTemplates returns the public templates visible to every user.
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	templates, err := h.templateService.ListPublic(c.Request.Context(), skip, limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve templates")
		return
	}
	c.JSON(http.StatusOK, MapTemplatesToResponse(templates))
}

// GetTemplate returns a template if it is public or owned by the requester.
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	templateID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token")
		return
	}

	tpl, err := h.templateService.GetTemplate(c.Request.Context(), templateID, userID)
	if err != nil {
		h.mapTemplateError(c, err, "Failed to retrieve template")
		return
	}
	c.JSON(http.StatusOK, MapTemplateToResponse(tpl))
}

// ListAllTemplates returns every template, public or not. Admin only.
func (h *TemplateHandler) ListAllTemplates(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	templates, err := h.templateService.ListAll(c.Request.Context(), skip, limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve templates")
		return
	}
	c.JSON(http.StatusOK, MapTemplatesToResponse(templates))
}

// CreateTemplate creates a template owned by the acting admin.
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token")
		return
	}

	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	input, err := templateInputFromRequest(req)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	tpl, err := h.templateService.CreateTemplate(c.Request.Context(), userID, *input)
	if err != nil {
		h.mapTemplateError(c, err, "Failed to create template")
		return
	}
	c.JSON(http.StatusCreated, MapTemplateToResponse(tpl))
}

// UpdateTemplate replaces template metadata. Admin only.
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	templateID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	tpl, err := h.templateService.UpdateTemplate(c.Request.Context(), templateID, service.TemplateInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		h.mapTemplateError(c, err, "Failed to update template")
		return
	}
	c.JSON(http.StatusOK, MapTemplateToResponse(tpl))
}

// DeleteTemplate removes a template. Admin only.
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	templateID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.templateService.DeleteTemplate(c.Request.Context(), templateID); err != nil {
		h.mapTemplateError(c, err, "Failed to delete template")
		return
	}
	c.Status(http.StatusNoContent)
}

// AddTemplateExercise appends an exercise entry to a template. Admin only.
func (h *TemplateHandler) AddTemplateExercise(c *gin.Context) {
	templateID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TemplateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	input, err := templateExerciseInputFromRequest(req)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	tpl, err := h.templateService.AddTemplateExercise(c.Request.Context(), templateID, *input)
	if err != nil {
		h.mapTemplateError(c, err, "Failed to add template exercise")
		return
	}
	c.JSON(http.StatusCreated, MapTemplateToResponse(tpl))
}

// RemoveTemplateExercise removes an exercise entry from a template. Admin only.
func (h *TemplateHandler) RemoveTemplateExercise(c *gin.Context) {
	templateID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	templateExerciseID, ok := parseIDParam(c, "teId")
	if !ok {
		return
	}

	if err := h.templateService.RemoveTemplateExercise(c.Request.Context(), templateID, templateExerciseID); err != nil {
		h.mapTemplateError(c, err, "Failed to remove template exercise")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TemplateHandler) mapTemplateError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrTemplateNotFound), errors.Is(err, service.ErrTemplateAccessDenied):
		// Private templates look nonexistent to everyone but their creator.
		abortWithError(c, http.StatusNotFound, service.ErrTemplateNotFound.Error())
	case errors.Is(err, service.ErrExerciseNotFound):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrTemplateValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}

// --- Mappers ---

func templateInputFromRequest(req TemplateRequest) (*service.TemplateInput, error) {
	exercises := make([]service.TemplateExerciseInput, 0, len(req.Exercises))
	for _, e := range req.Exercises {
		input, err := templateExerciseInputFromRequest(e)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, *input)
	}
	return &service.TemplateInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		Exercises:   exercises,
	}, nil
}

func templateExerciseInputFromRequest(req TemplateExerciseRequest) (*service.TemplateExerciseInput, error) {
	exerciseID, err := primitive.ObjectIDFromHex(req.ExerciseID)
	if err != nil {
		return nil, errors.New("invalid exerciseId format")
	}
	return &service.TemplateExerciseInput{
		ExerciseID:        exerciseID,
		OrderIndex:        req.OrderIndex,
		SuggestedSets:     req.SuggestedSets,
		SuggestedReps:     req.SuggestedReps,
		SuggestedWeight:   req.SuggestedWeight,
		SuggestedDuration: req.SuggestedDuration,
	}, nil
}

// MapTemplateToResponse converts a domain WorkoutTemplate to its DTO.
func MapTemplateToResponse(tpl *domain.WorkoutTemplate) TemplateResponse {
	if tpl == nil {
		return TemplateResponse{}
	}
	exercises := make([]TemplateExerciseResponse, len(tpl.Exercises))
	for i, te := range tpl.Exercises {
		exercises[i] = TemplateExerciseResponse{
			ID:                te.ID.Hex(),
			ExerciseID:        te.ExerciseID.Hex(),
			OrderIndex:        te.OrderIndex,
			SuggestedSets:     te.SuggestedSets,
			SuggestedReps:     te.SuggestedReps,
			SuggestedWeight:   te.SuggestedWeight,
			SuggestedDuration: te.SuggestedDuration,
		}
	}
	return TemplateResponse{
		ID:          tpl.ID.Hex(),
		Name:        tpl.Name,
		Description: tpl.Description,
		CreatedBy:   tpl.CreatedBy.Hex(),
		IsPublic:    tpl.IsPublic,
		Exercises:   exercises,
		CreatedAt:   tpl.CreatedAt,
		UpdatedAt:   tpl.UpdatedAt,
	}
}

// MapTemplatesToResponse converts a slice of templates to DTOs.
func MapTemplatesToResponse(templates []domain.WorkoutTemplate) []TemplateResponse {
	responses := make([]TemplateResponse, len(templates))
	for i := range templates {
		responses[i] = MapTemplateToResponse(&templates[i])
	}
	return responses
}
