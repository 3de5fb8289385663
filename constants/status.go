package constants

// CandidateStatus is the terminal state of one candidate in a run.
type CandidateStatus string

// Stable values (these exact strings appear in the consolidated outputs).
const (
	StatusParsed  CandidateStatus = "PARSED"  // record extracted, scored
	StatusSkipped CandidateStatus = "SKIPPED" // folder had no usable file
	StatusFailed  CandidateStatus = "FAILED"  // extraction/classification error
)

// StageStatus tracks a candidate job through the pipeline stages.
type StageStatus string

const (
	StageQueued     StageStatus = "QUEUED"
	StageClassified StageStatus = "CLASSIFIED"
	StageExtracted  StageStatus = "EXTRACTED"
	StageScored     StageStatus = "SCORED"
	StageFilled     StageStatus = "FILLED"
	StageFailed     StageStatus = "FAILED"
)
