package operations

import (
	"sync"
	"time"

	"github.com/MMucahit/borsa/internal/dataprocessing"
	"github.com/MMucahit/borsa/internal/files"
	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// OperationStatus is the overall run status
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
	OperationStatusCancelled OperationStatus = "cancelled"
)

// OperationState is the complete state of one run. Steps hand their outputs
// to later steps through the typed fields, which are guarded by mu because
// steps on the same level run concurrently.
type OperationState struct {
	mu sync.RWMutex

	ID        string
	Status    OperationStatus
	StartTime time.Time
	EndTime   *time.Time
	Error     error

	Steps map[string]*StepState
	order []string

	Request        Request
	located        map[domain.SourceKind]*files.Located
	diff           *dataprocessing.DiffResult
	reconciliation *dataprocessing.Reconciliation
	volume         []domain.VolumeSummary
	summaries      []domain.InstitutionSummary
}

// NewOperationState creates a new operation state
func NewOperationState(id string, req Request) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
		Request:   req,
		located:   make(map[domain.SourceKind]*files.Located),
	}
}

// Start marks the operation as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the operation as completed
func (p *OperationState) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the operation as failed
func (p *OperationState) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// Cancel marks the operation as cancelled
func (p *OperationState) Cancel(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCancelled
	p.Error = err
}

// GetStatus returns the run status
func (p *OperationState) GetStatus() OperationStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status
}

// GetStage returns the state of a specific Step
func (p *OperationState) GetStage(stageID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Steps[stageID]
}

// SetStage registers the state of a specific Step
func (p *OperationState) SetStage(stageID string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.Steps[stageID]; !exists {
		p.order = append(p.order, stageID)
	}
	p.Steps[stageID] = state
}

// StepSnapshots returns every step state in registration order
func (p *OperationState) StepSnapshots() []StepSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]StepSnapshot, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.Steps[id].Snapshot())
	}
	return out
}

// Duration returns the duration of the operation execution
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}

// SetLocated stores the locator output for one source kind
func (p *OperationState) SetLocated(kind domain.SourceKind, located *files.Located) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.located[kind] = located
}

// Located returns the locator output for kind, or an empty result
func (p *OperationState) Located(kind domain.SourceKind) *files.Located {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if l, ok := p.located[kind]; ok {
		return l
	}
	return &files.Located{Kind: kind}
}

// SetDiff stores the Snapshot Differ output
func (p *OperationState) SetDiff(diff *dataprocessing.DiffResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.diff = diff
}

// Diff returns the Snapshot Differ output
func (p *OperationState) Diff() *dataprocessing.DiffResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.diff
}

// SetReconciliation stores the Transfer Reconciler output
func (p *OperationState) SetReconciliation(rec *dataprocessing.Reconciliation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reconciliation = rec
}

// Reconciliation returns the Transfer Reconciler output
func (p *OperationState) Reconciliation() *dataprocessing.Reconciliation {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reconciliation
}

// SetVolume stores the Volume Aggregator output
func (p *OperationState) SetVolume(volume []domain.VolumeSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
}

// Volume returns the Volume Aggregator output
func (p *OperationState) Volume() []domain.VolumeSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.volume
}

// SetSummaries stores the Institution Summary Builder output
func (p *OperationState) SetSummaries(summaries []domain.InstitutionSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summaries = summaries
}

// Summaries returns the Institution Summary Builder output
func (p *OperationState) Summaries() []domain.InstitutionSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.summaries
}
