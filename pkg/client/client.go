// Package client is the Go client for the workout tracker API. It wraps
// the session engine endpoints, keeps a local mirror of the active workout
// (SessionCache) and debounces note autosaves (Coalescer).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// --- Error Definitions ---
var (
	// ErrUnauthorized means the token is missing, invalid or expired.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound covers unknown entities and entities owned by other users.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the request lost against the workout lifecycle: a
	// second active workout, or a mutation on a completed one.
	ErrConflict = errors.New("conflict")
)

// APIError carries the raw server response for non-2xx statuses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// Unwrap maps well-known statuses onto the package sentinel errors so
// callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	}
	return nil
}

// --- Wire Types ---

// ExerciseSet mirrors the server's set representation.
type ExerciseSet struct {
	ID           string   `json:"id"`
	SetNumber    int      `json:"setNumber"`
	Reps         *int     `json:"reps,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
	Duration     *int     `json:"duration,omitempty"`
	RestDuration *int     `json:"restDuration,omitempty"`
	Completed    bool     `json:"completed"`
	Notes        string   `json:"notes,omitempty"`
}

// WorkoutExercise mirrors the server's workout exercise representation.
type WorkoutExercise struct {
	ID         string        `json:"id"`
	ExerciseID string        `json:"exerciseId"`
	OrderIndex int           `json:"orderIndex"`
	Notes      string        `json:"notes,omitempty"`
	Sets       []ExerciseSet `json:"sets"`
}

// Workout mirrors the server's workout representation.
type Workout struct {
	ID          string            `json:"id"`
	Name        string            `json:"name,omitempty"`
	StartedAt   time.Time         `json:"startedAt"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
	Active      bool              `json:"active"`
	Notes       string            `json:"notes,omitempty"`
	TemplateID  *string           `json:"templateId,omitempty"`
	Exercises   []WorkoutExercise `json:"exercises"`
}

// --- Request Types ---

type StartWorkoutRequest struct {
	Name       string  `json:"name,omitempty"`
	Notes      string  `json:"notes,omitempty"`
	TemplateID *string `json:"templateId,omitempty"`
}

type AddExerciseRequest struct {
	ExerciseID string `json:"exerciseId"`
	OrderIndex int    `json:"orderIndex"`
	Notes      string `json:"notes,omitempty"`
}

type AddSetRequest struct {
	SetNumber    int      `json:"setNumber"`
	Reps         *int     `json:"reps,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
	Duration     *int     `json:"duration,omitempty"`
	RestDuration *int     `json:"restDuration,omitempty"`
	Completed    bool     `json:"completed"`
	Notes        string   `json:"notes,omitempty"`
}

// UpdateSetRequest is a partial update: nil fields are not sent.
type UpdateSetRequest struct {
	SetNumber    *int     `json:"setNumber,omitempty"`
	Reps         *int     `json:"reps,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
	Duration     *int     `json:"duration,omitempty"`
	RestDuration *int     `json:"restDuration,omitempty"`
	Completed    *bool    `json:"completed,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// --- Client ---

// Client talks to the workout tracker API with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// New creates a Client for the given base URL (scheme and host, no path)
// and bearer token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token, e.g. after a re-login.
func (c *Client) SetToken(token string) { c.token = token }

// --- Session Engine Operations ---

// StartWorkout starts a new session, blank or from a template.
func (c *Client) StartWorkout(ctx context.Context, req StartWorkoutRequest) (*Workout, error) {
	var workout Workout
	if err := c.do(ctx, http.MethodPost, "/api/v1/workouts", req, &workout); err != nil {
		return nil, err
	}
	return &workout, nil
}

// ActiveWorkout returns the session in progress, or ErrNotFound.
func (c *Client) ActiveWorkout(ctx context.Context) (*Workout, error) {
	var workout Workout
	if err := c.do(ctx, http.MethodGet, "/api/v1/workouts/active", nil, &workout); err != nil {
		return nil, err
	}
	return &workout, nil
}

// GetWorkout returns one workout, active or completed.
func (c *Client) GetWorkout(ctx context.Context, workoutID string) (*Workout, error) {
	var workout Workout
	if err := c.do(ctx, http.MethodGet, "/api/v1/workouts/"+workoutID, nil, &workout); err != nil {
		return nil, err
	}
	return &workout, nil
}

// History returns completed workouts, newest first.
func (c *Client) History(ctx context.Context, skip, limit int) ([]Workout, error) {
	var workouts []Workout
	path := fmt.Sprintf("/api/v1/workouts/history?skip=%d&limit=%d", skip, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

// AddExercise appends an exercise to the active workout.
func (c *Client) AddExercise(ctx context.Context, workoutID string, req AddExerciseRequest) (*WorkoutExercise, error) {
	var we WorkoutExercise
	if err := c.do(ctx, http.MethodPost, "/api/v1/workouts/"+workoutID+"/exercises", req, &we); err != nil {
		return nil, err
	}
	return &we, nil
}

// RemoveExercise removes an exercise and its sets.
func (c *Client) RemoveExercise(ctx context.Context, workoutID, workoutExerciseID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/workouts/"+workoutID+"/exercises/"+workoutExerciseID, nil, nil)
}

// AddSet logs a new set.
func (c *Client) AddSet(ctx context.Context, workoutID, workoutExerciseID string, req AddSetRequest) (*ExerciseSet, error) {
	var set ExerciseSet
	path := "/api/v1/workouts/" + workoutID + "/exercises/" + workoutExerciseID + "/sets"
	if err := c.do(ctx, http.MethodPost, path, req, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// UpdateSet applies a partial update to a set.
func (c *Client) UpdateSet(ctx context.Context, workoutID, workoutExerciseID, setID string, req UpdateSetRequest) (*ExerciseSet, error) {
	var set ExerciseSet
	path := "/api/v1/workouts/" + workoutID + "/exercises/" + workoutExerciseID + "/sets/" + setID
	if err := c.do(ctx, http.MethodPut, path, req, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// CompleteSet marks a set as done.
func (c *Client) CompleteSet(ctx context.Context, workoutID, workoutExerciseID, setID string) (*ExerciseSet, error) {
	var set ExerciseSet
	path := "/api/v1/workouts/" + workoutID + "/exercises/" + workoutExerciseID + "/sets/" + setID + "/complete"
	if err := c.do(ctx, http.MethodPut, path, nil, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// DeleteSet removes a set.
func (c *Client) DeleteSet(ctx context.Context, workoutID, workoutExerciseID, setID string) error {
	path := "/api/v1/workouts/" + workoutID + "/exercises/" + workoutExerciseID + "/sets/" + setID
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// CompleteWorkout ends the session.
func (c *Client) CompleteWorkout(ctx context.Context, workoutID string) (*Workout, error) {
	var workout Workout
	if err := c.do(ctx, http.MethodPut, "/api/v1/workouts/"+workoutID+"/complete", nil, &workout); err != nil {
		return nil, err
	}
	return &workout, nil
}

// CancelWorkout discards the active session entirely.
func (c *Client) CancelWorkout(ctx context.Context, workoutID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/workouts/"+workoutID, nil, nil)
}

// UpdateWorkoutNotes replaces the workout-level notes.
func (c *Client) UpdateWorkoutNotes(ctx context.Context, workoutID, notes string) (*Workout, error) {
	var workout Workout
	if err := c.do(ctx, http.MethodPut, "/api/v1/workouts/"+workoutID+"/notes", notesRequest{Notes: notes}, &workout); err != nil {
		return nil, err
	}
	return &workout, nil
}

// UpdateExerciseNotes replaces the notes on one workout exercise.
func (c *Client) UpdateExerciseNotes(ctx context.Context, workoutID, workoutExerciseID, notes string) (*WorkoutExercise, error) {
	var we WorkoutExercise
	path := "/api/v1/workouts/" + workoutID + "/exercises/" + workoutExerciseID + "/notes"
	if err := c.do(ctx, http.MethodPut, path, notesRequest{Notes: notes}, &we); err != nil {
		return nil, err
	}
	return &we, nil
}

// --- Transport ---

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		apiErr.Message = envelope.Error
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
