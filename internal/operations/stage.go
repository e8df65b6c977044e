package operations

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Step ids, in registration order
const (
	StepLocate    = "locate"
	StepDiff      = "diff"
	StepReconcile = "reconcile"
	StepVolume    = "volume"
	StepSummarize = "summarize"
)

// Step represents a single Step in the operation
type Step interface {
	// ID returns the unique identifier for this Step
	ID() string

	// Name returns the human-readable name for this Step
	Name() string

	// Execute runs the Step with the given context and operation state
	Execute(ctx context.Context, state *OperationState) error

	// Validate checks if the Step can be executed with the current state
	Validate(state *OperationState) error

	// GetDependencies returns the IDs of steps that must complete before this Step
	GetDependencies() []string
}

// StepStatus represents the current status of a Step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState represents the runtime state of a Step
type StepState struct {
	mu        sync.RWMutex
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Status    StepStatus     `json:"status"`
	StartTime *time.Time     `json:"start_time,omitempty"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
	Message   string         `json:"message,omitempty"`
	Error     error          `json:"-"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewStepState creates a new Step state with default values
func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:       id,
		Name:     name,
		Status:   StepStatusPending,
		Metadata: make(map[string]any),
	}
}

// Start marks the Step as active and sets the start time
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = &now
	s.Status = StepStatusActive
}

// Complete marks the Step as completed and sets the end time
func (s *StepState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusCompleted
}

// Fail marks the Step as failed with the given error
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusFailed
	s.Error = err
	if err != nil {
		s.Message = err.Error()
	}
}

// Skip marks the Step as skipped with the given reason
func (s *StepState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusSkipped
	s.Message = reason
}

// SetMetadata records a step counter such as rows produced
func (s *StepState) SetMetadata(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Metadata[key] = value
}

// GetStatus returns the current status
func (s *StepState) GetStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration returns the duration of the Step execution
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

// Snapshot returns a copy safe to serialize while the run continues
func (s *StepState) Snapshot() StepSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta := make(map[string]any, len(s.Metadata))
	for k, v := range s.Metadata {
		meta[k] = v
	}
	snap := StepSnapshot{
		ID:       s.ID,
		Name:     s.Name,
		Status:   s.Status,
		Message:  s.Message,
		Metadata: meta,
	}
	if s.StartTime != nil && s.EndTime != nil {
		snap.Duration = s.EndTime.Sub(*s.StartTime)
	}
	return snap
}

// StepSnapshot is an immutable view of a StepState
type StepSnapshot struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Status   StepStatus     `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration time.Duration  `json:"duration_ns"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// BaseStage provides common functionality for Step implementations
type BaseStage struct {
	id           string
	name         string
	dependencies []string
}

// NewBaseStage creates a new base Step
func NewBaseStage(id, name string, dependencies ...string) BaseStage {
	if dependencies == nil {
		dependencies = []string{}
	}
	return BaseStage{
		id:           id,
		name:         name,
		dependencies: dependencies,
	}
}

// ID returns the Step ID
func (b *BaseStage) ID() string {
	return b.id
}

// Name returns the Step name
func (b *BaseStage) Name() string {
	return b.name
}

// GetDependencies returns the Step dependencies
func (b *BaseStage) GetDependencies() []string {
	return b.dependencies
}

// Validate checks that every dependency completed
func (b *BaseStage) Validate(state *OperationState) error {
	if state == nil {
		return fmt.Errorf("operation state is nil")
	}
	for _, dep := range b.dependencies {
		st := state.GetStage(dep)
		if st == nil {
			return NewDependencyError(b.id, dep, "dependency never ran")
		}
		if status := st.GetStatus(); status != StepStatusCompleted && status != StepStatusSkipped {
			return NewDependencyError(b.id, dep, fmt.Sprintf("dependency is %s", status))
		}
	}
	return nil
}
