package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"udec/workout-tracker/internal/domain"
	"udec/workout-tracker/internal/repository"
)

// ---------------------------------------------------------------------------
// In-memory stub catalog cache
// ---------------------------------------------------------------------------

type stubCatalogCache struct {
	pages       map[string][]domain.Exercise
	gets, sets  int
	invalidates int
	failing     bool
}

func newStubCatalogCache() *stubCatalogCache {
	return &stubCatalogCache{pages: make(map[string][]domain.Exercise)}
}

func (c *stubCatalogCache) key(muscleGroup string, skip, limit int) string {
	return fmt.Sprintf("%s:%d:%d", muscleGroup, skip, limit)
}

func (c *stubCatalogCache) GetPage(_ context.Context, muscleGroup string, skip, limit int) ([]domain.Exercise, error) {
	c.gets++
	if c.failing {
		return nil, errors.New("cache backend down")
	}
	page, ok := c.pages[c.key(muscleGroup, skip, limit)]
	if !ok {
		return nil, repository.ErrCacheMiss
	}
	return page, nil
}

func (c *stubCatalogCache) SetPage(_ context.Context, muscleGroup string, skip, limit int, exercises []domain.Exercise) error {
	c.sets++
	if c.failing {
		return errors.New("cache backend down")
	}
	c.pages[c.key(muscleGroup, skip, limit)] = exercises
	return nil
}

func (c *stubCatalogCache) Invalidate(_ context.Context) error {
	c.invalidates++
	if c.failing {
		return errors.New("cache backend down")
	}
	c.pages = make(map[string][]domain.Exercise)
	return nil
}

func newCatalogFixture(cache CatalogCache) (CatalogService, *stubExerciseRepo) {
	repo := newStubExerciseRepo()
	return NewCatalogService(repo, cache, nil, zerolog.Nop()), repo
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestCatalogService_ListActiveReadThrough(t *testing.T) {
	cache := newStubCatalogCache()
	svc, repo := newCatalogFixture(cache)
	repo.add("Bench Press", domain.ExerciseWeightBased, true)
	repo.add("Plank", domain.ExerciseTimeBased, true)
	repo.add("Retired", domain.ExerciseWeightBased, false)

	first, err := svc.ListActive(context.Background(), "", 0, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("inactive entries must be filtered, got %d", len(first))
	}
	if cache.sets != 1 {
		t.Errorf("miss must populate the cache, sets=%d", cache.sets)
	}

	// Second read is served from the cache.
	repo.add("Added Behind The Cache", domain.ExerciseWeightBased, true)
	second, err := svc.ListActive(context.Background(), "", 0, 10)
	if err != nil {
		t.Fatalf("cached list failed: %v", err)
	}
	if len(second) != 2 {
		t.Errorf("second read must come from the cache, got %d entries", len(second))
	}
}

func TestCatalogService_CacheFailureFallsBackToRepo(t *testing.T) {
	cache := newStubCatalogCache()
	cache.failing = true
	svc, repo := newCatalogFixture(cache)
	repo.add("Bench Press", domain.ExerciseWeightBased, true)

	exercises, err := svc.ListActive(context.Background(), "", 0, 10)
	if err != nil {
		t.Fatalf("a broken cache must not fail the request: %v", err)
	}
	if len(exercises) != 1 {
		t.Errorf("expected the repo result, got %d entries", len(exercises))
	}
}

func TestCatalogService_NilCacheServesFromRepo(t *testing.T) {
	svc, repo := newCatalogFixture(nil)
	repo.add("Bench Press", domain.ExerciseWeightBased, true)

	exercises, err := svc.ListActive(context.Background(), "", 0, 10)
	if err != nil {
		t.Fatalf("list without cache failed: %v", err)
	}
	if len(exercises) != 1 {
		t.Errorf("expected 1 entry, got %d", len(exercises))
	}
}

func TestCatalogService_WritesInvalidateCache(t *testing.T) {
	cache := newStubCatalogCache()
	svc, _ := newCatalogFixture(cache)

	created, err := svc.CreateExercise(context.Background(), ExerciseInput{
		Name:         "Squat",
		ExerciseType: domain.ExerciseWeightBased,
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if cache.invalidates != 1 {
		t.Errorf("create must invalidate, got %d", cache.invalidates)
	}

	input := ExerciseInput{Name: "Back Squat", ExerciseType: domain.ExerciseWeightBased, IsActive: true}
	if _, err := svc.UpdateExercise(context.Background(), created.ID, input); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if err := svc.DeleteExercise(context.Background(), created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if cache.invalidates != 3 {
		t.Errorf("every admin write must invalidate, got %d", cache.invalidates)
	}
}

func TestCatalogService_CreateValidation(t *testing.T) {
	svc, _ := newCatalogFixture(nil)

	if _, err := svc.CreateExercise(context.Background(), ExerciseInput{ExerciseType: domain.ExerciseWeightBased}); !errors.Is(err, ErrExerciseValidation) {
		t.Errorf("empty name must be rejected, got %v", err)
	}
	if _, err := svc.CreateExercise(context.Background(), ExerciseInput{Name: "X", ExerciseType: "CARDIO"}); !errors.Is(err, ErrExerciseValidation) {
		t.Errorf("unknown exercise type must be rejected, got %v", err)
	}
}

func TestCatalogService_MuscleGroupFilter(t *testing.T) {
	svc, repo := newCatalogFixture(nil)
	chest := repo.add("Bench Press", domain.ExerciseWeightBased, true)
	repo.exercises[chest].MuscleGroup = "chest"
	legs := repo.add("Squat", domain.ExerciseWeightBased, true)
	repo.exercises[legs].MuscleGroup = "legs"

	exercises, err := svc.ListActive(context.Background(), "legs", 0, 10)
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if len(exercises) != 1 || exercises[0].Name != "Squat" {
		t.Errorf("muscle group filter must apply, got %+v", exercises)
	}
}

func TestCatalogService_VideoURLWithoutStorage(t *testing.T) {
	svc, repo := newCatalogFixture(nil)
	id := repo.add("Bench Press", domain.ExerciseWeightBased, true)

	if _, err := svc.GetVideoDownloadURL(context.Background(), id); !errors.Is(err, ErrNoVideo) {
		t.Errorf("no storage configured must read as no video, got %v", err)
	}
}
