package constants

// IngestState is the canonical state of one receipt submission.
type IngestState string

// Stable values (reported in summaries and logs).
const (
	StateIdle                   IngestState = "IDLE"
	StateImageLoaded            IngestState = "IMAGE_LOADED"
	StateExtracting             IngestState = "EXTRACTING"
	StateEstablishmentResolved  IngestState = "ESTABLISHMENT_RESOLVED"
	StateEstablishmentRejected  IngestState = "ESTABLISHMENT_REJECTED"
	StateReconciliationInFlight IngestState = "RECONCILIATION_IN_PROGRESS"
	StateCompleted              IngestState = "COMPLETED"
	StateFailed                 IngestState = "FAILED"
)
