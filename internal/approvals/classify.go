// Package approvals classifies funds-pull pre-approvals and drives
// user-initiated status transitions.
package approvals

import (
	"time"

	"github.com/kestrelpay/kestrel/internal/models"
)

// Buckets partitions approvals for display: every input approval lands in
// exactly one bucket, in input order.
type Buckets struct {
	New     []models.Approval // pending, awaiting the user's decision
	Active  []models.Approval // valid and not yet expired
	History []models.Approval // rejected, revoked, expired, or otherwise settled
}

// Classify partitions approvals by status and wall-clock expiry. A valid
// approval whose scope expiration has passed is history, it never shows as
// active; expiry is computed here, not reported by the backend. The
// classification is recomputed from scratch on every refresh.
func Classify(approvals []models.Approval, now time.Time) Buckets {
	var b Buckets
	for _, a := range approvals {
		switch {
		case a.Status == models.ApprovalPending:
			b.New = append(b.New, a)
		case a.Active(now):
			b.Active = append(b.Active, a)
		default:
			b.History = append(b.History, a)
		}
	}
	return b
}
