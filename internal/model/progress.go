package model

// Stage is the workflow stage of an in-flight funding run.
type Stage string

const (
	StagePreparing  Stage = "PREPARING"
	StageProcessing Stage = "PROCESSING"
	StageConfirming Stage = "CONFIRMING"
	StageComplete   Stage = "COMPLETE"
	StageFailed     Stage = "FAILED"
)

// Terminal reports whether the stage admits no further transitions.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageFailed
}

// ProgressState is a point-in-time snapshot of a funding run, read by
// the HTTP layer while the executor advances it batch by batch.
type ProgressState struct {
	Stage          Stage  `json:"stage"`
	CurrentBatch   int    `json:"currentBatch"`
	TotalBatches   int    `json:"totalBatches"`
	ProcessedCount int    `json:"processedCount"`
	TotalCount     int    `json:"totalCount"`
	LastError      string `json:"lastError,omitempty"`
}
