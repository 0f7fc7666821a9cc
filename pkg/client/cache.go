package client

import (
	"context"
	"errors"
	"sync"
	"time"
)

// EventType classifies cache notifications.
type EventType int

const (
	// EventWorkoutChanged fires whenever the cached graph changes:
	// load, start, every merged mutation, completion and cancel.
	EventWorkoutChanged EventType = iota
	// EventTick fires once per second while a session is active.
	EventTick
)

// Event is delivered to subscribers. Workout is a deep copy and may be nil
// after a cancel; ElapsedSeconds is only meaningful for EventTick.
type Event struct {
	Type           EventType
	Workout        *Workout
	ElapsedSeconds int
}

// Observer receives cache events. Observers are called synchronously from
// the mutating goroutine (or the ticker goroutine for ticks) and must not
// block.
type Observer func(Event)

// SessionCache is a local mirror of the user's active workout. Every
// mutation goes through the API and the response is merged back into the
// cached graph by entity id, so the cache never refetches the full workout
// during a session. A one-second ticker recomputes elapsed time from
// StartedAt, so a missed tick never accumulates drift.
type SessionCache struct {
	client *Client

	mu        sync.RWMutex
	workout   *Workout
	elapsed   int
	observers map[int]Observer
	nextObsID int

	tickerStop chan struct{}
}

// NewSessionCache creates a cache over the given API client.
func NewSessionCache(c *Client) *SessionCache {
	return &SessionCache{
		client:    c,
		observers: make(map[int]Observer),
	}
}

// Subscribe registers an observer and returns its unsubscribe function.
func (s *SessionCache) Subscribe(obs Observer) func() {
	s.mu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = obs
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Load fetches the active workout from the server and starts the elapsed
// ticker. ErrNotFound clears the cache: having no session in progress is a
// normal state, not a failure.
func (s *SessionCache) Load(ctx context.Context) error {
	workout, err := s.client.ActiveWorkout(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.setWorkout(nil)
			return nil
		}
		return err
	}
	s.setWorkout(workout)
	return nil
}

// Start begins a new session and seeds the cache with it.
func (s *SessionCache) Start(ctx context.Context, req StartWorkoutRequest) (*Workout, error) {
	workout, err := s.client.StartWorkout(ctx, req)
	if err != nil {
		return nil, err
	}
	s.setWorkout(workout)
	return s.Workout(), nil
}

// Workout returns a deep copy of the cached workout, or nil.
func (s *SessionCache) Workout() *Workout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneWorkout(s.workout)
}

// Active reports whether a session is cached and still in progress.
func (s *SessionCache) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workout != nil && s.workout.Active
}

// ElapsedSeconds returns the seconds since the session started, as of the
// last tick.
func (s *SessionCache) ElapsedSeconds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elapsed
}

// --- Mutations (merged into the cached graph) ---

// AddExercise appends an exercise to the session and merges it in.
func (s *SessionCache) AddExercise(ctx context.Context, req AddExerciseRequest) (*WorkoutExercise, error) {
	workoutID, err := s.workoutID()
	if err != nil {
		return nil, err
	}
	we, err := s.client.AddExercise(ctx, workoutID, req)
	if err != nil {
		return nil, err
	}
	s.mergeExercise(we)
	return we, nil
}

// RemoveExercise removes an exercise and its sets from the session.
func (s *SessionCache) RemoveExercise(ctx context.Context, workoutExerciseID string) error {
	workoutID, err := s.workoutID()
	if err != nil {
		return err
	}
	if err := s.client.RemoveExercise(ctx, workoutID, workoutExerciseID); err != nil {
		return err
	}
	s.dropExercise(workoutExerciseID)
	return nil
}

// AddSet logs a set and merges it in.
func (s *SessionCache) AddSet(ctx context.Context, workoutExerciseID string, req AddSetRequest) (*ExerciseSet, error) {
	workoutID, err := s.workoutID()
	if err != nil {
		return nil, err
	}
	set, err := s.client.AddSet(ctx, workoutID, workoutExerciseID, req)
	if err != nil {
		return nil, err
	}
	s.mergeSet(workoutExerciseID, set)
	return set, nil
}

// UpdateSet applies a partial set update and merges the result in.
func (s *SessionCache) UpdateSet(ctx context.Context, workoutExerciseID, setID string, req UpdateSetRequest) (*ExerciseSet, error) {
	workoutID, err := s.workoutID()
	if err != nil {
		return nil, err
	}
	set, err := s.client.UpdateSet(ctx, workoutID, workoutExerciseID, setID, req)
	if err != nil {
		return nil, err
	}
	s.mergeSet(workoutExerciseID, set)
	return set, nil
}

// CompleteSet marks a set done and merges the result in.
func (s *SessionCache) CompleteSet(ctx context.Context, workoutExerciseID, setID string) (*ExerciseSet, error) {
	workoutID, err := s.workoutID()
	if err != nil {
		return nil, err
	}
	set, err := s.client.CompleteSet(ctx, workoutID, workoutExerciseID, setID)
	if err != nil {
		return nil, err
	}
	s.mergeSet(workoutExerciseID, set)
	return set, nil
}

// DeleteSet removes a set from the session.
func (s *SessionCache) DeleteSet(ctx context.Context, workoutExerciseID, setID string) error {
	workoutID, err := s.workoutID()
	if err != nil {
		return err
	}
	if err := s.client.DeleteSet(ctx, workoutID, workoutExerciseID, setID); err != nil {
		return err
	}
	s.dropSet(workoutExerciseID, setID)
	return nil
}

// UpdateWorkoutNotes replaces the workout notes and merges the result in.
func (s *SessionCache) UpdateWorkoutNotes(ctx context.Context, notes string) error {
	workoutID, err := s.workoutID()
	if err != nil {
		return err
	}
	workout, err := s.client.UpdateWorkoutNotes(ctx, workoutID, notes)
	if err != nil {
		return err
	}
	s.setWorkout(workout)
	return nil
}

// UpdateExerciseNotes replaces one exercise's notes and merges the result in.
func (s *SessionCache) UpdateExerciseNotes(ctx context.Context, workoutExerciseID, notes string) error {
	workoutID, err := s.workoutID()
	if err != nil {
		return err
	}
	we, err := s.client.UpdateExerciseNotes(ctx, workoutID, workoutExerciseID, notes)
	if err != nil {
		return err
	}
	s.mergeExercise(we)
	return nil
}

// Complete ends the session. The ticker stops; the completed workout stays
// cached for a final summary view.
func (s *SessionCache) Complete(ctx context.Context) (*Workout, error) {
	workoutID, err := s.workoutID()
	if err != nil {
		return nil, err
	}
	workout, err := s.client.CompleteWorkout(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	s.setWorkout(workout)
	return s.Workout(), nil
}

// Cancel discards the session on the server and clears the cache.
func (s *SessionCache) Cancel(ctx context.Context) error {
	workoutID, err := s.workoutID()
	if err != nil {
		return err
	}
	if err := s.client.CancelWorkout(ctx, workoutID); err != nil {
		return err
	}
	s.setWorkout(nil)
	return nil
}

// Close stops the ticker and drops all observers. The cache is unusable
// afterwards.
func (s *SessionCache) Close() {
	s.mu.Lock()
	s.stopTickerLocked()
	s.observers = make(map[int]Observer)
	s.workout = nil
	s.mu.Unlock()
}

// --- Internals ---

func (s *SessionCache) workoutID() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.workout == nil {
		return "", ErrNotFound
	}
	return s.workout.ID, nil
}

// setWorkout replaces the cached graph and manages the ticker lifecycle.
func (s *SessionCache) setWorkout(workout *Workout) {
	s.mu.Lock()
	s.workout = cloneWorkout(workout)
	if workout != nil && workout.Active {
		s.elapsed = int(time.Since(workout.StartedAt).Seconds())
		s.startTickerLocked()
	} else {
		s.elapsed = 0
		s.stopTickerLocked()
	}
	s.notifyLocked(Event{Type: EventWorkoutChanged, Workout: cloneWorkout(s.workout)})
	s.mu.Unlock()
}

func (s *SessionCache) mergeExercise(we *WorkoutExercise) {
	if we == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workout == nil {
		return
	}
	merged := false
	for i := range s.workout.Exercises {
		if s.workout.Exercises[i].ID == we.ID {
			s.workout.Exercises[i] = *cloneExercise(we)
			merged = true
			break
		}
	}
	if !merged {
		s.workout.Exercises = append(s.workout.Exercises, *cloneExercise(we))
	}
	s.notifyLocked(Event{Type: EventWorkoutChanged, Workout: cloneWorkout(s.workout)})
}

func (s *SessionCache) dropExercise(workoutExerciseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workout == nil {
		return
	}
	for i := range s.workout.Exercises {
		if s.workout.Exercises[i].ID == workoutExerciseID {
			s.workout.Exercises = append(s.workout.Exercises[:i], s.workout.Exercises[i+1:]...)
			break
		}
	}
	s.notifyLocked(Event{Type: EventWorkoutChanged, Workout: cloneWorkout(s.workout)})
}

func (s *SessionCache) mergeSet(workoutExerciseID string, set *ExerciseSet) {
	if set == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workout == nil {
		return
	}
	for i := range s.workout.Exercises {
		if s.workout.Exercises[i].ID != workoutExerciseID {
			continue
		}
		we := &s.workout.Exercises[i]
		merged := false
		for j := range we.Sets {
			if we.Sets[j].ID == set.ID {
				we.Sets[j] = *set
				merged = true
				break
			}
		}
		if !merged {
			we.Sets = append(we.Sets, *set)
		}
		break
	}
	s.notifyLocked(Event{Type: EventWorkoutChanged, Workout: cloneWorkout(s.workout)})
}

func (s *SessionCache) dropSet(workoutExerciseID, setID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workout == nil {
		return
	}
	for i := range s.workout.Exercises {
		if s.workout.Exercises[i].ID != workoutExerciseID {
			continue
		}
		we := &s.workout.Exercises[i]
		for j := range we.Sets {
			if we.Sets[j].ID == setID {
				we.Sets = append(we.Sets[:j], we.Sets[j+1:]...)
				break
			}
		}
		break
	}
	s.notifyLocked(Event{Type: EventWorkoutChanged, Workout: cloneWorkout(s.workout)})
}

func (s *SessionCache) notifyLocked(ev Event) {
	for _, obs := range s.observers {
		obs(ev)
	}
}

func (s *SessionCache) startTickerLocked() {
	if s.tickerStop != nil {
		return
	}
	stop := make(chan struct{})
	s.tickerStop = stop
	go s.runTicker(stop)
}

func (s *SessionCache) stopTickerLocked() {
	if s.tickerStop != nil {
		close(s.tickerStop)
		s.tickerStop = nil
	}
}

func (s *SessionCache) runTicker(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.workout == nil || !s.workout.Active {
				s.mu.Unlock()
				return
			}
			s.elapsed = int(time.Since(s.workout.StartedAt).Seconds())
			s.notifyLocked(Event{Type: EventTick, Workout: cloneWorkout(s.workout), ElapsedSeconds: s.elapsed})
			s.mu.Unlock()
		}
	}
}

// --- Copy Helpers ---

func cloneWorkout(w *Workout) *Workout {
	if w == nil {
		return nil
	}
	out := *w
	out.Exercises = make([]WorkoutExercise, len(w.Exercises))
	for i := range w.Exercises {
		out.Exercises[i] = *cloneExercise(&w.Exercises[i])
	}
	return &out
}

func cloneExercise(we *WorkoutExercise) *WorkoutExercise {
	out := *we
	out.Sets = make([]ExerciseSet, len(we.Sets))
	copy(out.Sets, we.Sets)
	return &out
}
