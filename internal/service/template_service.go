package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"udec/workout-tracker/internal/domain"
	"udec/workout-tracker/internal/repository"
)

// --- Error Definitions ---
var (
	ErrTemplateNotFound     = errors.New("workout template not found")
	ErrTemplateValidation   = errors.New("template validation failed")
	ErrTemplateAccessDenied = errors.New("access denied to this template")
)

// TemplateExerciseInput carries one exercise entry of a template.
type TemplateExerciseInput struct {
	ExerciseID        primitive.ObjectID
	OrderIndex        int
	SuggestedSets     *int
	SuggestedReps     *int
	SuggestedWeight   *float64
	SuggestedDuration *int
}

// TemplateInput carries the admin-supplied fields of a template.
type TemplateInput struct {
	Name        string
	Description string
	IsPublic    bool
	Exercises   []TemplateExerciseInput
}

// TemplateService is the template store: admin-curated, reusable workout
// blueprints that users instantiate into sessions.
type TemplateService interface {
	// ListPublic returns the templates visible to every user.
	ListPublic(ctx context.Context, skip, limit int) ([]domain.WorkoutTemplate, error)
	// GetTemplate returns a template if it is public or owned by requester.
	GetTemplate(ctx context.Context, templateID, requesterID primitive.ObjectID) (*domain.WorkoutTemplate, error)

	// Admin operations.
	ListAll(ctx context.Context, skip, limit int) ([]domain.WorkoutTemplate, error)
	CreateTemplate(ctx context.Context, creatorID primitive.ObjectID, input TemplateInput) (*domain.WorkoutTemplate, error)
	UpdateTemplate(ctx context.Context, templateID primitive.ObjectID, input TemplateInput) (*domain.WorkoutTemplate, error)
	DeleteTemplate(ctx context.Context, templateID primitive.ObjectID) error
	AddTemplateExercise(ctx context.Context, templateID primitive.ObjectID, input TemplateExerciseInput) (*domain.WorkoutTemplate, error)
	RemoveTemplateExercise(ctx context.Context, templateID, templateExerciseID primitive.ObjectID) error
}

type templateService struct {
	templateRepo repository.TemplateRepository
	exerciseRepo repository.ExerciseRepository
}

// NewTemplateService creates a new template service.
func NewTemplateService(templateRepo repository.TemplateRepository, exerciseRepo repository.ExerciseRepository) TemplateService {
	return &templateService{
		templateRepo: templateRepo,
		exerciseRepo: exerciseRepo,
	}
}

func (s *templateService) ListPublic(ctx context.Context, skip, limit int) ([]domain.WorkoutTemplate, error) {
	return s.templateRepo.ListPublic(ctx, normalizeSkip(skip), normalizeLimit(limit))
}

func (s *templateService) GetTemplate(ctx context.Context, templateID, requesterID primitive.ObjectID) (*domain.WorkoutTemplate, error) {
	tpl, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	if !tpl.IsPublic && tpl.CreatedBy != requesterID {
		return nil, ErrTemplateAccessDenied
	}
	return tpl, nil
}

func (s *templateService) ListAll(ctx context.Context, skip, limit int) ([]domain.WorkoutTemplate, error) {
	return s.templateRepo.List(ctx, normalizeSkip(skip), normalizeLimit(limit))
}

func (s *templateService) CreateTemplate(ctx context.Context, creatorID primitive.ObjectID, input TemplateInput) (*domain.WorkoutTemplate, error) {
	if input.Name == "" || creatorID == primitive.NilObjectID {
		return nil, ErrTemplateValidation
	}

	exercises := make([]domain.TemplateExercise, 0, len(input.Exercises))
	for _, e := range input.Exercises {
		te, err := s.buildTemplateExercise(ctx, e)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, *te)
	}

	tpl := &domain.WorkoutTemplate{
		Name:        input.Name,
		Description: input.Description,
		CreatedBy:   creatorID,
		IsPublic:    input.IsPublic,
		Exercises:   exercises,
	}

	templateID, err := s.templateRepo.Create(ctx, tpl)
	if err != nil {
		return nil, err
	}
	tpl.ID = templateID
	return tpl, nil
}

// UpdateTemplate replaces template metadata; the exercise list is managed
// through AddTemplateExercise/RemoveTemplateExercise.
func (s *templateService) UpdateTemplate(ctx context.Context, templateID primitive.ObjectID, input TemplateInput) (*domain.WorkoutTemplate, error) {
	if input.Name == "" {
		return nil, ErrTemplateValidation
	}

	tpl, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	tpl.Name = input.Name
	tpl.Description = input.Description
	tpl.IsPublic = input.IsPublic

	if err := s.templateRepo.UpdateMeta(ctx, tpl); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return tpl, nil
}

func (s *templateService) DeleteTemplate(ctx context.Context, templateID primitive.ObjectID) error {
	if err := s.templateRepo.Delete(ctx, templateID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}
	return nil
}

func (s *templateService) AddTemplateExercise(ctx context.Context, templateID primitive.ObjectID, input TemplateExerciseInput) (*domain.WorkoutTemplate, error) {
	te, err := s.buildTemplateExercise(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.templateRepo.AddExercise(ctx, templateID, te); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	tpl, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

func (s *templateService) RemoveTemplateExercise(ctx context.Context, templateID, templateExerciseID primitive.ObjectID) error {
	if err := s.templateRepo.RemoveExercise(ctx, templateID, templateExerciseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}
	return nil
}

// buildTemplateExercise validates the referenced catalog entry is active
// and converts the input into an embedded template exercise.
func (s *templateService) buildTemplateExercise(ctx context.Context, input TemplateExerciseInput) (*domain.TemplateExercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, input.ExerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if !exercise.IsActive {
		return nil, ErrExerciseNotFound
	}

	return &domain.TemplateExercise{
		ID:                primitive.NewObjectID(),
		ExerciseID:        input.ExerciseID,
		OrderIndex:        input.OrderIndex,
		SuggestedSets:     input.SuggestedSets,
		SuggestedReps:     input.SuggestedReps,
		SuggestedWeight:   input.SuggestedWeight,
		SuggestedDuration: input.SuggestedDuration,
	}, nil
}

func normalizeSkip(skip int) int {
	if skip < 0 {
		return 0
	}
	return skip
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}
