package service

import (
	"time"

	"github.com/kingstar-club/membership-api/internal/models"
	appErrors "github.com/kingstar-club/membership-api/pkg/errors"
	"github.com/kingstar-club/membership-api/pkg/storage"
)

// legalTransitions is the approval state machine. Rejected is terminal for
// applicants but re-enterable through administrator action, so it appears as
// a source for both approval and payment resubmission.
var legalTransitions = map[models.MembershipStatus][]models.MembershipStatus{
	models.StatusRegistered:      {models.StatusPendingApproval, models.StatusRejected},
	models.StatusPendingApproval: {models.StatusPendingApproval, models.StatusApproved, models.StatusRejected},
	models.StatusApproved:        {models.StatusRejected},
	models.StatusRejected:        {models.StatusPendingApproval, models.StatusApproved},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to models.MembershipStatus) bool {
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// applyApproval performs the approve transition in memory: allocate the
// identifier when none is set, stamp the approval time, derive the expiry one
// calendar year out, and move to approved. A record that already carries an
// identifier keeps it, so reject-then-reapprove never reallocates.
func applyApproval(m *models.Member, membershipID string, now time.Time) error {
	if !m.HasProof() {
		return appErrors.ErrMissingProof
	}
	if !CanTransition(m.Status, models.StatusApproved) {
		return appErrors.Clone(appErrors.ErrConflict, "member cannot be approved from status "+string(m.Status))
	}
	if m.MembershipID == nil || *m.MembershipID == "" {
		if membershipID == "" {
			return appErrors.Clone(appErrors.ErrAllocationFailed, "no membership identifier supplied")
		}
		m.MembershipID = &membershipID
	}
	approvedAt := now.UTC()
	expiry := approvedAt.AddDate(1, 0, 0)
	m.ApprovedAt = &approvedAt
	m.ExpiryDate = &expiry
	m.Status = models.StatusApproved
	return nil
}

// applyRejection performs the reject transition. Identifier and approval
// timestamps are deliberately left untouched so the history stays auditable;
// a later re-approval reuses the same identifier.
func applyRejection(m *models.Member) error {
	if !CanTransition(m.Status, models.StatusRejected) {
		return appErrors.Clone(appErrors.ErrConflict, "member cannot be rejected from status "+string(m.Status))
	}
	m.Status = models.StatusRejected
	return nil
}

// applyPaymentProof attaches a payment-proof reference and moves the record
// into pending review. Resubmission after rejection is allowed.
func applyPaymentProof(m *models.Member, file *storage.StoredFile) error {
	if !CanTransition(m.Status, models.StatusPendingApproval) {
		return appErrors.Clone(appErrors.ErrConflict, "payment proof cannot be submitted from status "+string(m.Status))
	}
	m.PaymentProofURL = &file.URL
	m.PaymentProofID = &file.PublicID
	m.Status = models.StatusPendingApproval
	return nil
}
