// Package gate decides whether an extracted record is complete enough to present
// as parsed or should be handed to the user for manual entry.
package gate

import "github.com/jonathan/resume-importer/internal/types"

// Classification is the completeness verdict for a record.
type Classification string

const (
	Usable                 Classification = "usable"
	SparseNeedsManualEntry Classification = "sparse_needs_manual_entry"
)

// ManualEntryAdvisory is shown alongside sparse records.
const ManualEntryAdvisory = "Limited information could be extracted. Please review and complete the remaining fields manually."

// Classify returns Usable when the record has a name, an email or at least one skill.
func Classify(record *types.ResumeRecord) Classification {
	if types.HasMinimalInformation(record) {
		return Usable
	}
	return SparseNeedsManualEntry
}

// AdvisoryMessage returns the message to attach for a classification, or "".
func AdvisoryMessage(c Classification) string {
	if c == SparseNeedsManualEntry {
		return ManualEntryAdvisory
	}
	return ""
}
