package fleet

import (
	"sync"

	"fleetd/internal/model"
)

// ProgressTracker records the stage and counters of one funding run.
// The executor writes it batch by batch, the HTTP layer reads snapshots.
// Transitions are forward-only; Complete and Failed are terminal and
// freeze the state, and the processed count never decreases.
type ProgressTracker struct {
	mu    sync.Mutex
	state model.ProgressState
}

// NewProgressTracker creates a tracker in the Preparing stage.
func NewProgressTracker(totalBatches, totalCount int) *ProgressTracker {
	return &ProgressTracker{
		state: model.ProgressState{
			Stage:        model.StagePreparing,
			TotalBatches: totalBatches,
			TotalCount:   totalCount,
		},
	}
}

// Snapshot returns a copy of the current state.
func (t *ProgressTracker) Snapshot() model.ProgressState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// StartBatch marks the given batch as being processed.
func (t *ProgressTracker) StartBatch(index int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Stage.Terminal() {
		return
	}
	t.state.Stage = model.StageProcessing
	t.state.CurrentBatch = index
}

// Confirming marks the current batch's transaction as awaiting
// confirmation. Only reachable from Processing.
func (t *ProgressTracker) Confirming() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Stage != model.StageProcessing {
		return
	}
	t.state.Stage = model.StageConfirming
}

// BatchConfirmed adds the confirmed batch's account count to the
// processed total.
func (t *ProgressTracker) BatchConfirmed(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Stage.Terminal() || count <= 0 {
		return
	}
	t.state.ProcessedCount += count
}

// Complete marks the run as successfully finished.
func (t *ProgressTracker) Complete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Stage.Terminal() {
		return
	}
	t.state.Stage = model.StageComplete
}

// Fail marks the run as failed with the given terminal error.
func (t *ProgressTracker) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Stage.Terminal() {
		return
	}
	t.state.Stage = model.StageFailed
	t.state.LastError = err.Error()
}
