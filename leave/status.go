package leave

import (
	"fmt"
	"strings"
)

// =============================================================================
// REVIEW - Pending -> Approved | Rejected
// =============================================================================
//
//   ┌─────────┐   approve   ┌──────────┐
//   │ Pending │ ──────────▶ │ Approved │
//   └─────────┘             └──────────┘
//        │        reject    ┌──────────┐
//        └────────────────▶ │ Rejected │  (notes required)
//                           └──────────┘
//
// Both targets are terminal. The backend is the source of truth; these
// checks only keep obviously invalid calls from leaving the portal.

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	return from == StatusPending && (to == StatusApproved || to == StatusRejected)
}

// Review is an administrator's decision on a pending record.
type Review struct {
	Status Status `json:"status"`
	Notes  string `json:"reviewNotes"`
}

// Check validates the decision against the record's current status.
// Rejection requires non-blank notes; approval does not.
func (r Review) Check(current Status) error {
	if !CanTransition(current, r.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, r.Status)
	}
	if r.Status == StatusRejected && strings.TrimSpace(r.Notes) == "" {
		return ErrReviewNotesRequired
	}
	return nil
}

// ReviewMessage is the confirmation text shown after a successful review.
func ReviewMessage(s Status) string {
	return fmt.Sprintf("Leave %s successfully.", strings.ToLower(string(s)))
}
