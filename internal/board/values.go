package board

import "github.com/bossprank/github-workflow-manager/internal/workspace"

// FieldSummary carries one item's values for the managed logical fields.
type FieldSummary struct {
	Status      string
	Priority    string
	Size        string
	Estimate    float64
	HasEstimate bool
}

// SummarizeFields resolves the configured logical fields against the raw
// field values returned by the board scan. Unset fields stay empty.
func (item Item) SummarizeFields(fieldSettings workspace.BoardFieldsSettings) FieldSummary {
	fieldSummary := FieldSummary{
		Status:   item.Selections[fieldSettings.Status.FieldIdentifier],
		Priority: item.Selections[fieldSettings.Priority.FieldIdentifier],
		Size:     item.Selections[fieldSettings.Size.FieldIdentifier],
	}
	if estimateValue, hasEstimate := item.Numbers[fieldSettings.Estimate.FieldIdentifier]; hasEstimate {
		fieldSummary.Estimate = estimateValue
		fieldSummary.HasEstimate = true
	}
	return fieldSummary
}
