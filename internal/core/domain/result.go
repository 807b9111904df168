package domain

// ConversionResult is everything produced for one document.
type ConversionResult struct {
	DocumentID   string       `json:"document_id"`
	DocumentType DocumentType `json:"document_type"`

	// Record is the merged record after auto-corrections.
	Record *MergedRecord `json:"record,omitempty"`

	// Plan is the synthesized layout plan.
	Plan *LayoutPlan `json:"plan,omitempty"`

	// Issues are all issues found, corrected or not.
	Issues []ValidationIssue `json:"issues,omitempty"`

	// Unresolved are critical issues left for manual review.
	Unresolved []ValidationIssue `json:"unresolved,omitempty"`

	// Stats aggregates per-page parse counts.
	Stats ParseStats `json:"stats"`

	// Quality is the score recorded against the learned pattern.
	Quality float64 `json:"quality"`

	// PatternID is the pattern updated by this conversion.
	PatternID string `json:"pattern_id"`

	// LearningError is set when the outcome could not be persisted.
	LearningError string `json:"learning_error"`
}

// Warnings returns the non-critical issues.
func (r *ConversionResult) Warnings() []ValidationIssue {
	var out []ValidationIssue
	for _, is := range r.Issues {
		if !is.IsCritical() {
			out = append(out, is)
		}
	}
	return out
}
