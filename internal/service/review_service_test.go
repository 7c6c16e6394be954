package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingstar-club/membership-api/internal/dto"
	"github.com/kingstar-club/membership-api/internal/models"
	"github.com/kingstar-club/membership-api/internal/repository"
	appErrors "github.com/kingstar-club/membership-api/pkg/errors"
)

type auditFake struct {
	logs []*models.AuditLog
}

func (a *auditFake) Create(_ context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func (a *auditFake) ListRecent(_ context.Context, limit int) ([]models.AuditLog, error) {
	out := make([]models.AuditLog, 0, limit)
	for i := len(a.logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *a.logs[i])
	}
	return out, nil
}

type lockFake struct {
	err      error
	acquired int
	released int
}

func (l *lockFake) Acquire(_ context.Context) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func() { l.released++ }, nil
}

func newReviewFixture() (*ReviewService, *memberRepoFake, *auditFake, *lockFake, *storageFake) {
	repo := newMemberRepoFake()
	audit := &auditFake{}
	lock := &lockFake{}
	files := &storageFake{}
	allocator := NewIDAllocator(repo, "CLUB-", 4)
	svc := NewReviewService(repo, audit, allocator, lock, files, nil, nil, nil, 3)
	return svc, repo, audit, lock, files
}

func seedPending(repo *memberRepoFake, id string) *models.Member {
	m := memberWithProof(models.StatusPendingApproval)
	m.ID = id
	m.Phone = "9876543210"
	m.Version = 1
	repo.store[id] = m
	return m
}

func TestApproveAllocatesFirstIdentifier(t *testing.T) {
	svc, repo, audit, lock, _ := newReviewFixture()
	seedPending(repo, "m1")

	member, err := svc.Approve(context.Background(), "m1", AuditContext{Actor: "admin"})
	require.NoError(t, err)
	require.NotNil(t, member.MembershipID)
	assert.Equal(t, "CLUB-0001", *member.MembershipID)
	assert.Equal(t, models.StatusApproved, member.Status)
	require.NotNil(t, member.ApprovedAt)
	require.NotNil(t, member.ExpiryDate)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionApprove, audit.logs[0].Action)
	assert.Equal(t, 1, lock.acquired)
	assert.Equal(t, 1, lock.released)
}

func TestApproveSequenceIsStrictlyIncreasing(t *testing.T) {
	svc, repo, _, _, _ := newReviewFixture()
	for _, id := range []string{"m1", "m2", "m3"} {
		seedPending(repo, id)
	}

	issued := make(map[string]bool)
	for _, id := range []string{"m1", "m2", "m3"} {
		member, err := svc.Approve(context.Background(), id, AuditContext{})
		require.NoError(t, err)
		require.False(t, issued[*member.MembershipID], "identifier %s issued twice", *member.MembershipID)
		issued[*member.MembershipID] = true
	}
	assert.True(t, issued["CLUB-0001"])
	assert.True(t, issued["CLUB-0002"])
	assert.True(t, issued["CLUB-0003"])
}

func TestApproveWithoutProofLeavesStatus(t *testing.T) {
	svc, repo, audit, _, _ := newReviewFixture()
	m := seedPending(repo, "m1")
	m.PaymentProofID = nil

	_, err := svc.Approve(context.Background(), "m1", AuditContext{})
	var apiErr *appErrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, appErrors.ErrMissingProof.Code, apiErr.Code)
	assert.Equal(t, models.StatusPendingApproval, repo.store["m1"].Status)
	assert.Empty(t, audit.logs)
}

func TestApproveRetriesOnIdentifierCollision(t *testing.T) {
	svc, repo, _, _, _ := newReviewFixture()
	seedPending(repo, "m1")
	repo.updateErrs = []error{repository.ErrDuplicateMembershipID}

	member, err := svc.Approve(context.Background(), "m1", AuditContext{})
	require.NoError(t, err)
	assert.Equal(t, "CLUB-0001", *member.MembershipID)
}

func TestApproveGivesUpAfterRetryBudget(t *testing.T) {
	svc, repo, _, _, _ := newReviewFixture()
	seedPending(repo, "m1")
	repo.updateErrs = []error{
		repository.ErrDuplicateMembershipID,
		repository.ErrDuplicateMembershipID,
		repository.ErrDuplicateMembershipID,
	}

	_, err := svc.Approve(context.Background(), "m1", AuditContext{})
	var apiErr *appErrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, appErrors.ErrAllocationFailed.Code, apiErr.Code)
}

func TestApproveWhenLockHeldElsewhere(t *testing.T) {
	svc, repo, _, lock, _ := newReviewFixture()
	seedPending(repo, "m1")
	lock.err = repository.ErrLockNotAcquired

	_, err := svc.Approve(context.Background(), "m1", AuditContext{})
	var apiErr *appErrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, appErrors.ErrConflict.Code, apiErr.Code)
}

func TestRejectThenReapproveKeepsIdentifier(t *testing.T) {
	svc, repo, _, _, _ := newReviewFixture()
	seedPending(repo, "m1")

	approved, err := svc.Approve(context.Background(), "m1", AuditContext{})
	require.NoError(t, err)
	first := *approved.MembershipID

	rejected, err := svc.Reject(context.Background(), "m1", AuditContext{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.MembershipID)
	assert.Equal(t, first, *rejected.MembershipID)

	reapproved, err := svc.Approve(context.Background(), "m1", AuditContext{})
	require.NoError(t, err)
	assert.Equal(t, first, *reapproved.MembershipID)
}

func TestRejectFromRegistered(t *testing.T) {
	svc, repo, audit, _, _ := newReviewFixture()
	m := seedPending(repo, "m1")
	m.Status = models.StatusRegistered

	rejected, err := svc.Reject(context.Background(), "m1", AuditContext{Actor: "admin"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionReject, audit.logs[0].Action)
}

func TestEditWhitelistedFields(t *testing.T) {
	svc, repo, _, _, _ := newReviewFixture()
	m := seedPending(repo, "m1")
	m.MembershipID = strPtr("CLUB-0009")

	name := "Renamed Member"
	phone := "+91 91234 56789"
	updated, err := svc.Edit(context.Background(), "m1", dto.EditMemberRequest{
		FullName: &name,
		Phone:    &phone,
	}, AuditContext{})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Member", updated.FullName)
	assert.Equal(t, "9123456789", updated.Phone)
	// untouched by edits
	assert.Equal(t, "CLUB-0009", *updated.MembershipID)
	assert.Equal(t, models.StatusPendingApproval, updated.Status)
}

func TestEditDuplicatePhone(t *testing.T) {
	svc, repo, _, _, _ := newReviewFixture()
	seedPending(repo, "m1")
	other := seedPending(repo, "m2")
	other.Phone = "9123456789"

	phone := "9123456789"
	_, err := svc.Edit(context.Background(), "m1", dto.EditMemberRequest{Phone: &phone}, AuditContext{})
	var apiErr *appErrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, appErrors.ErrDuplicatePhone.Code, apiErr.Code)
}

func TestDeleteReleasesAttachments(t *testing.T) {
	svc, repo, audit, _, files := newReviewFixture()
	seedPending(repo, "m1")

	require.NoError(t, svc.Delete(context.Background(), "m1", AuditContext{Actor: "admin"}))
	assert.Empty(t, repo.store)
	assert.Contains(t, files.deleted, "members/photos/p1.jpg")
	assert.Contains(t, files.deleted, "members/payment-proofs/pp1.jpg")
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionDelete, audit.logs[0].Action)
}

func TestDeleteUnknownMember(t *testing.T) {
	svc, _, _, _, _ := newReviewFixture()

	err := svc.Delete(context.Background(), "missing", AuditContext{})
	var apiErr *appErrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, apiErr.Code)
}

func TestListPendingIncludesRegisteredAndPending(t *testing.T) {
	svc, repo, _, _, _ := newReviewFixture()
	seedPending(repo, "m1")
	registered := seedPending(repo, "m2")
	registered.Status = models.StatusRegistered
	approved := seedPending(repo, "m3")
	approved.Status = models.StatusApproved

	members, pagination, err := svc.ListPending(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Len(t, members, 2)
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestExportRosterRendersCSV(t *testing.T) {
	svc, repo, _, _, _ := newReviewFixture()
	m := seedPending(repo, "m1")
	m.FullName = "Arun Kumar"
	m.MembershipID = strPtr("CLUB-0001")

	data, err := svc.ExportRoster(context.Background())
	require.NoError(t, err)

	out := string(data)
	assert.True(t, strings.HasPrefix(out, "membership_id,"))
	assert.Contains(t, out, "Arun Kumar")
	assert.Contains(t, out, "CLUB-0001")
}

func TestRecentActivityReturnsNewestFirst(t *testing.T) {
	svc, repo, _, _, _ := newReviewFixture()
	seedPending(repo, "m1")

	_, err := svc.Approve(context.Background(), "m1", AuditContext{Actor: "admin"})
	require.NoError(t, err)
	_, err = svc.Reject(context.Background(), "m1", AuditContext{Actor: "admin"})
	require.NoError(t, err)

	logs, err := svc.RecentActivity(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "reject", logs[0].Action)
	assert.Equal(t, "approve", logs[1].Action)
}

func TestRecentActivityClampsLimit(t *testing.T) {
	svc, repo, _, _, _ := newReviewFixture()
	seedPending(repo, "m1")
	_, err := svc.Approve(context.Background(), "m1", AuditContext{Actor: "admin"})
	require.NoError(t, err)

	logs, err := svc.RecentActivity(context.Background(), -5)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
