package entity

import (
	"github.com/despensa-app/despensa/constants"
)

// ItemFailure records one line item the reconciliation engine could not
// persist. Failures are collected, never raised mid-batch.
type ItemFailure struct {
	Item  LineItem `json:"item"`
	Error string   `json:"error"`
}

// IngestSummary is the user-facing result of one receipt submission.
type IngestSummary struct {
	State          constants.IngestState   `json:"state"`
	Establishment  constants.Establishment `json:"establishment"`
	ItemsExtracted int                     `json:"items_extracted"`
	SuccessCount   int                     `json:"success_count"`
	Failures       []ItemFailure           `json:"failures,omitempty"`
}
