package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingstar-club/membership-api/internal/dto"
	"github.com/kingstar-club/membership-api/internal/models"
	"github.com/kingstar-club/membership-api/internal/repository"
	appErrors "github.com/kingstar-club/membership-api/pkg/errors"
	"github.com/kingstar-club/membership-api/pkg/storage"
)

// memberRepoFake is an in-memory stand-in for the member repository. Update
// honours the optimistic version check the way the real repository does, and
// updateErrs lets tests inject one-shot failures.
type memberRepoFake struct {
	store      map[string]*models.Member
	seq        int
	createErr  error
	updateErrs []error
}

func newMemberRepoFake() *memberRepoFake {
	return &memberRepoFake{store: make(map[string]*models.Member)}
}

func (f *memberRepoFake) FindByID(_ context.Context, id string) (*models.Member, error) {
	m, ok := f.store[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *m
	return &copy, nil
}

func (f *memberRepoFake) FindByCredentials(_ context.Context, phone, membershipID string) (*models.Member, error) {
	for _, m := range f.store {
		if m.Phone == phone && m.MembershipID != nil && *m.MembershipID == membershipID {
			copy := *m
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *memberRepoFake) ExistsByPhone(_ context.Context, phone, excludeID string) (bool, error) {
	for _, m := range f.store {
		if m.Phone == phone && m.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *memberRepoFake) Create(_ context.Context, member *models.Member) error {
	if f.createErr != nil {
		return f.createErr
	}
	if member.ID == "" {
		f.seq++
		member.ID = fmt.Sprintf("member-%d", f.seq)
	}
	member.Version = 1
	copy := *member
	f.store[member.ID] = &copy
	return nil
}

func (f *memberRepoFake) Update(_ context.Context, member *models.Member) error {
	if len(f.updateErrs) > 0 {
		err := f.updateErrs[0]
		f.updateErrs = f.updateErrs[1:]
		if err != nil {
			return err
		}
	}
	current, ok := f.store[member.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if current.Version != member.Version {
		return repository.ErrVersionConflict
	}
	member.Version++
	copy := *member
	f.store[member.ID] = &copy
	return nil
}

func (f *memberRepoFake) Delete(_ context.Context, id string) error {
	if _, ok := f.store[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.store, id)
	return nil
}

func (f *memberRepoFake) IssuedIdentifiers(_ context.Context, prefix string) ([]string, error) {
	var ids []string
	for _, m := range f.store {
		if m.MembershipID != nil && strings.HasPrefix(*m.MembershipID, prefix) {
			ids = append(ids, *m.MembershipID)
		}
	}
	return ids, nil
}

func (f *memberRepoFake) List(_ context.Context, filter models.MemberFilter) ([]models.Member, int, error) {
	var result []models.Member
	for _, m := range f.store {
		if len(filter.Statuses) > 0 {
			matched := false
			for _, s := range filter.Statuses {
				if m.Status == s {
					matched = true
				}
			}
			if !matched {
				continue
			}
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(m.FullName), strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, *m)
	}
	total := len(result)
	if filter.Page > 1 {
		result = nil
	}
	return result, total, nil
}

// storageFake records uploads and deletions; failAfter makes the n+1-th
// upload fail.
type storageFake struct {
	seq       int
	failAfter int
	uploads   []string
	deleted   []string
}

func (f *storageFake) Upload(_ context.Context, _ []byte, folder, filename string) (*storage.StoredFile, error) {
	if f.failAfter > 0 && f.seq >= f.failAfter {
		return nil, errors.New("disk full")
	}
	f.seq++
	publicID := fmt.Sprintf("%s/file-%d", folder, f.seq)
	f.uploads = append(f.uploads, publicID)
	return &storage.StoredFile{URL: "http://localhost/uploads/" + publicID, PublicID: publicID}, nil
}

func (f *storageFake) Delete(_ context.Context, publicID string) error {
	f.deleted = append(f.deleted, publicID)
	return nil
}

func validRegistration() dto.RegisterRequest {
	return dto.RegisterRequest{
		FullName:   "Arun Kumar",
		Nickname:   "Arun",
		Phone:      "+91 98765 43210",
		Age:        25,
		BloodGroup: "o+",
		Address:    "Eriyapady",
	}
}

func upload(name string) *dto.FileUpload {
	return &dto.FileUpload{Data: []byte("fake-image"), Filename: name, ContentType: "image/jpeg"}
}

func TestRegisterWithoutProofStaysRegistered(t *testing.T) {
	repo := newMemberRepoFake()
	svc := NewMemberService(repo, &storageFake{}, UploadPolicy{}, nil, nil)

	member, err := svc.Register(context.Background(), validRegistration(), upload("photo.jpg"), nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRegistered, member.Status)
	assert.Equal(t, "9876543210", member.Phone)
	assert.Equal(t, "O+", member.BloodGroup)
	assert.NotNil(t, member.PhotoID)
	assert.Nil(t, member.PaymentProofID)
}

func TestRegisterWithProofGoesPending(t *testing.T) {
	repo := newMemberRepoFake()
	svc := NewMemberService(repo, &storageFake{}, UploadPolicy{}, nil, nil)

	member, err := svc.Register(context.Background(), validRegistration(), upload("photo.jpg"), upload("proof.jpg"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingApproval, member.Status)
	assert.True(t, member.HasProof())
}

func TestRegisterDuplicatePhone(t *testing.T) {
	repo := newMemberRepoFake()
	svc := NewMemberService(repo, &storageFake{}, UploadPolicy{}, nil, nil)

	_, err := svc.Register(context.Background(), validRegistration(), nil, nil)
	require.NoError(t, err)

	second := validRegistration()
	second.FullName = "Someone Else"
	second.Phone = "98765 43210" // normalises to the same number
	_, err = svc.Register(context.Background(), second, nil, nil)

	var apiErr *appErrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, appErrors.ErrDuplicatePhone.Code, apiErr.Code)
}

func TestRegisterRollsBackUploadsOnStorageFailure(t *testing.T) {
	repo := newMemberRepoFake()
	files := &storageFake{failAfter: 1} // photo succeeds, proof fails
	svc := NewMemberService(repo, files, UploadPolicy{}, nil, nil)

	_, err := svc.Register(context.Background(), validRegistration(), upload("photo.jpg"), upload("proof.jpg"))
	var apiErr *appErrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, appErrors.ErrStorageFailure.Code, apiErr.Code)
	assert.Equal(t, files.uploads, files.deleted)
	assert.Empty(t, repo.store)
}

func TestRegisterRejectsOversizedUpload(t *testing.T) {
	svc := NewMemberService(newMemberRepoFake(), &storageFake{}, UploadPolicy{MaxFileSize: 4}, nil, nil)

	_, err := svc.Register(context.Background(), validRegistration(), upload("photo.jpg"), nil)
	var apiErr *appErrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, appErrors.ErrValidation.Code, apiErr.Code)
}

func TestRegisterRejectsUnsupportedMIME(t *testing.T) {
	svc := NewMemberService(newMemberRepoFake(), &storageFake{}, UploadPolicy{AllowedMIMEs: []string{"image/png"}}, nil, nil)

	file := upload("photo.jpg")
	file.ContentType = "application/pdf"
	_, err := svc.Register(context.Background(), validRegistration(), file, nil)
	require.Error(t, err)
}

func TestRegisterRequiresAgeOrDateOfBirth(t *testing.T) {
	svc := NewMemberService(newMemberRepoFake(), &storageFake{}, UploadPolicy{}, nil, nil)

	req := validRegistration()
	req.Age = 0
	_, err := svc.Register(context.Background(), req, nil, nil)
	require.Error(t, err)

	req.DateOfBirth = "2000-05-20"
	member, err := svc.Register(context.Background(), req, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, member.DateOfBirth)
}

func TestRegisterInvalidBloodGroup(t *testing.T) {
	svc := NewMemberService(newMemberRepoFake(), &storageFake{}, UploadPolicy{}, nil, nil)

	req := validRegistration()
	req.BloodGroup = "Z+"
	_, err := svc.Register(context.Background(), req, nil, nil)
	require.Error(t, err)
}

func TestRegisterAcceptsNilBloodGroup(t *testing.T) {
	svc := NewMemberService(newMemberRepoFake(), &storageFake{}, UploadPolicy{}, nil, nil)

	req := validRegistration()
	req.BloodGroup = "nil"
	member, err := svc.Register(context.Background(), req, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.BloodGroupNil, member.BloodGroup)
}

func TestSubmitPaymentMovesToPendingAndReplacesProof(t *testing.T) {
	repo := newMemberRepoFake()
	files := &storageFake{}
	svc := NewMemberService(repo, files, UploadPolicy{}, nil, nil)

	member, err := svc.Register(context.Background(), validRegistration(), upload("photo.jpg"), upload("proof.jpg"))
	require.NoError(t, err)
	firstProof := *member.PaymentProofID

	updated, err := svc.SubmitPayment(context.Background(), member.ID, upload("proof2.jpg"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingApproval, updated.Status)
	assert.NotEqual(t, firstProof, *updated.PaymentProofID)
	assert.Contains(t, files.deleted, firstProof)
}

func TestSubmitPaymentFromApprovedConflicts(t *testing.T) {
	repo := newMemberRepoFake()
	repo.store["m1"] = &models.Member{ID: "m1", Status: models.StatusApproved, Version: 1}
	files := &storageFake{}
	svc := NewMemberService(repo, files, UploadPolicy{}, nil, nil)

	_, err := svc.SubmitPayment(context.Background(), "m1", upload("proof.jpg"))
	var apiErr *appErrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, appErrors.ErrConflict.Code, apiErr.Code)
	assert.Empty(t, files.uploads)
}

func TestSubmitPaymentUnknownMember(t *testing.T) {
	svc := NewMemberService(newMemberRepoFake(), &storageFake{}, UploadPolicy{}, nil, nil)

	_, err := svc.SubmitPayment(context.Background(), "missing", upload("proof.jpg"))
	var apiErr *appErrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, apiErr.Code)
}

func TestSubmitPaymentDeletesUploadOnVersionConflict(t *testing.T) {
	repo := newMemberRepoFake()
	repo.store["m1"] = &models.Member{ID: "m1", Status: models.StatusRegistered, Version: 1}
	repo.updateErrs = []error{repository.ErrVersionConflict}
	files := &storageFake{}
	svc := NewMemberService(repo, files, UploadPolicy{}, nil, nil)

	_, err := svc.SubmitPayment(context.Background(), "m1", upload("proof.jpg"))
	require.Error(t, err)
	assert.Equal(t, files.uploads, files.deleted)
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"9876543210", "9876543210", false},
		{"+91-98765-43210", "9876543210", false},
		{"0 98765 43210", "9876543210", false},
		{"1234567890", "", true}, // must start with 6-9
		{"98765", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := normalizePhone(tc.in)
		if tc.wantErr {
			assert.Errorf(t, err, "input %q", tc.in)
			continue
		}
		require.NoErrorf(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got)
	}
}
