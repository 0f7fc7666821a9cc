package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"udec/workout-tracker/internal/domain"
	"udec/workout-tracker/internal/repository"
	"udec/workout-tracker/internal/storage"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound   = errors.New("exercise not found")
	ErrExerciseValidation = errors.New("exercise validation failed")
	ErrNoVideo            = errors.New("exercise has no demo video")
)

// ExerciseInput carries the admin-supplied fields of a catalog entry.
type ExerciseInput struct {
	Name         string
	Description  string
	ExerciseType domain.ExerciseType
	MuscleGroup  string
	Equipment    string
	Instructions string
	IsActive     bool
}

// CatalogCache caches pages of the active catalog. Implemented by the
// Redis-backed cache; nil disables caching entirely.
type CatalogCache interface {
	GetPage(ctx context.Context, muscleGroup string, skip, limit int) ([]domain.Exercise, error)
	SetPage(ctx context.Context, muscleGroup string, skip, limit int, exercises []domain.Exercise) error
	Invalidate(ctx context.Context) error
}

// CatalogService is the catalog store: the shared, admin-written exercise
// library everyone reads from.
type CatalogService interface {
	ListActive(ctx context.Context, muscleGroup string, skip, limit int) ([]domain.Exercise, error)
	GetExercise(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	CreateExercise(ctx context.Context, input ExerciseInput) (*domain.Exercise, error)
	UpdateExercise(ctx context.Context, exerciseID primitive.ObjectID, input ExerciseInput) (*domain.Exercise, error)
	DeleteExercise(ctx context.Context, exerciseID primitive.ObjectID) error

	// RequestVideoUpload returns a presigned PUT URL for the exercise's
	// demo video and records the object key on the catalog entry.
	RequestVideoUpload(ctx context.Context, exerciseID primitive.ObjectID, contentType string) (string, error)
	// GetVideoDownloadURL returns a presigned GET URL for the demo video.
	GetVideoDownloadURL(ctx context.Context, exerciseID primitive.ObjectID) (string, error)
}

type catalogService struct {
	exerciseRepo repository.ExerciseRepository
	cache        CatalogCache
	fileStorage  storage.FileStorage
	logger       zerolog.Logger
}

// NewCatalogService creates a new catalog service. cache may be nil to
// serve every read from the database.
func NewCatalogService(exerciseRepo repository.ExerciseRepository, cache CatalogCache, fileStorage storage.FileStorage, logger zerolog.Logger) CatalogService {
	return &catalogService{
		exerciseRepo: exerciseRepo,
		cache:        cache,
		fileStorage:  fileStorage,
		logger:       logger,
	}
}

// ListActive serves the active catalog page, read-through cached. Cache
// failures degrade to a database read, never to a request failure.
func (s *catalogService) ListActive(ctx context.Context, muscleGroup string, skip, limit int) ([]domain.Exercise, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if skip < 0 {
		skip = 0
	}

	if s.cache != nil {
		exercises, err := s.cache.GetPage(ctx, muscleGroup, skip, limit)
		if err == nil {
			return exercises, nil
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn().Err(err).Msg("catalog cache read failed, falling back to database")
		}
	}

	exercises, err := s.exerciseRepo.ListActive(ctx, muscleGroup, skip, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetPage(ctx, muscleGroup, skip, limit, exercises); err != nil {
			s.logger.Warn().Err(err).Msg("catalog cache write failed")
		}
	}
	return exercises, nil
}

func (s *catalogService) GetExercise(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

func (s *catalogService) CreateExercise(ctx context.Context, input ExerciseInput) (*domain.Exercise, error) {
	if input.Name == "" || !input.ExerciseType.Valid() {
		return nil, ErrExerciseValidation
	}

	exercise := &domain.Exercise{
		Name:         input.Name,
		Description:  input.Description,
		ExerciseType: input.ExerciseType,
		MuscleGroup:  input.MuscleGroup,
		Equipment:    input.Equipment,
		Instructions: input.Instructions,
		IsActive:     input.IsActive,
	}

	exerciseID, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	exercise.ID = exerciseID
	s.invalidateCache(ctx)
	return exercise, nil
}

func (s *catalogService) UpdateExercise(ctx context.Context, exerciseID primitive.ObjectID, input ExerciseInput) (*domain.Exercise, error) {
	if input.Name == "" || !input.ExerciseType.Valid() {
		return nil, ErrExerciseValidation
	}

	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	exercise.Name = input.Name
	exercise.Description = input.Description
	exercise.ExerciseType = input.ExerciseType
	exercise.MuscleGroup = input.MuscleGroup
	exercise.Equipment = input.Equipment
	exercise.Instructions = input.Instructions
	exercise.IsActive = input.IsActive

	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	s.invalidateCache(ctx)
	return exercise, nil
}

func (s *catalogService) DeleteExercise(ctx context.Context, exerciseID primitive.ObjectID) error {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}

	if err := s.exerciseRepo.Delete(ctx, exerciseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}

	// Best effort: the catalog entry is gone either way.
	if exercise.VideoKey != "" && s.fileStorage != nil {
		if err := s.fileStorage.DeleteObject(ctx, exercise.VideoKey); err != nil {
			s.logger.Warn().Err(err).Str("key", exercise.VideoKey).Msg("failed to delete exercise video")
		}
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *catalogService) RequestVideoUpload(ctx context.Context, exerciseID primitive.ObjectID, contentType string) (string, error) {
	if s.fileStorage == nil {
		return "", errors.New("file storage is not configured")
	}
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrExerciseNotFound
		}
		return "", err
	}

	objectKey := fmt.Sprintf("exercise-videos/%s/%s", exerciseID.Hex(), uuid.NewString())
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", err
	}

	// Replace a previous video once the new key is recorded.
	oldKey := exercise.VideoKey
	exercise.VideoKey = objectKey
	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		return "", err
	}
	if oldKey != "" {
		if err := s.fileStorage.DeleteObject(ctx, oldKey); err != nil {
			s.logger.Warn().Err(err).Str("key", oldKey).Msg("failed to delete replaced exercise video")
		}
	}
	return uploadURL, nil
}

func (s *catalogService) GetVideoDownloadURL(ctx context.Context, exerciseID primitive.ObjectID) (string, error) {
	if s.fileStorage == nil {
		return "", ErrNoVideo
	}
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrExerciseNotFound
		}
		return "", err
	}
	if exercise.VideoKey == "" {
		return "", ErrNoVideo
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, exercise.VideoKey, storage.DefaultPresignedURLExpiry)
}

func (s *catalogService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}
