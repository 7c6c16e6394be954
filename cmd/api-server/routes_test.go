package main

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingstar-club/membership-api/internal/dto"
	"github.com/kingstar-club/membership-api/internal/handler"
	"github.com/kingstar-club/membership-api/internal/models"
	"github.com/kingstar-club/membership-api/internal/service"
	"github.com/kingstar-club/membership-api/pkg/config"
	"github.com/kingstar-club/membership-api/pkg/storage"
)

type memberServiceStub struct {
	submittedID string
}

func (s *memberServiceStub) Register(_ context.Context, _ dto.RegisterRequest, _, _ *dto.FileUpload) (*models.Member, error) {
	return &models.Member{ID: "m1", Status: models.StatusRegistered}, nil
}

func (s *memberServiceStub) Get(_ context.Context, id string) (*models.Member, error) {
	return &models.Member{ID: id, Status: models.StatusRegistered}, nil
}

func (s *memberServiceStub) SubmitPayment(_ context.Context, id string, _ *dto.FileUpload) (*models.Member, error) {
	s.submittedID = id
	return &models.Member{ID: id, Status: models.StatusPendingApproval}, nil
}

type reviewServiceStub struct{}

func (reviewServiceStub) ListPending(_ context.Context, _, _ int) ([]models.Member, *models.Pagination, error) {
	return nil, &models.Pagination{}, nil
}

func (reviewServiceStub) ListAll(_ context.Context, _ string, _, _ int) ([]models.Member, *models.Pagination, error) {
	return nil, &models.Pagination{}, nil
}

func (reviewServiceStub) Approve(_ context.Context, id string, _ service.AuditContext) (*models.Member, error) {
	return &models.Member{ID: id}, nil
}

func (reviewServiceStub) Reject(_ context.Context, id string, _ service.AuditContext) (*models.Member, error) {
	return &models.Member{ID: id}, nil
}

func (reviewServiceStub) Edit(_ context.Context, id string, _ dto.EditMemberRequest, _ service.AuditContext) (*models.Member, error) {
	return &models.Member{ID: id}, nil
}

func (reviewServiceStub) Delete(_ context.Context, _ string, _ service.AuditContext) error {
	return nil
}

func (reviewServiceStub) ExportRoster(_ context.Context) ([]byte, error) {
	return []byte("membership_id\n"), nil
}

func (reviewServiceStub) RecentActivity(_ context.Context, _ int) ([]models.AuditLog, error) {
	return nil, nil
}

type cardServiceStub struct{}

func (cardServiceStub) Render(_ context.Context, _ string) (*service.MembershipCard, error) {
	return &service.MembershipCard{Filename: "card.pdf", Data: []byte("%PDF")}, nil
}

type authRepoStub struct{}

func (authRepoStub) FindByCredentials(_ context.Context, _, _ string) (*models.Member, error) {
	return nil, io.EOF
}

func newTestRouter(t *testing.T) (*gin.Engine, *memberServiceStub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	files, err := storage.NewLocalProvider(t.TempDir(), "/uploads")
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Minute)

	authSvc := service.NewAuthService(authRepoStub{}, service.NewStaticCredentialStore("admin", ""), nil, nil, service.AuthConfig{
		Secret:           "test-secret",
		AdminExpiration:  time.Hour,
		MemberExpiration: time.Hour,
		Issuer:           "test",
	})

	members := &memberServiceStub{}
	r := gin.New()
	registerRoutes(r, &config.Config{Env: config.EnvProduction, APIPrefix: "/api"}, authSvc, routeHandlers{
		auth:       handler.NewAuthHandler(authSvc),
		member:     handler.NewMemberHandler(members, 1<<20),
		admin:      handler.NewAdminHandler(reviewServiceStub{}),
		card:       handler.NewCardHandler(cardServiceStub{}),
		attachment: handler.NewAttachmentHandler(nil, files, signer),
		metrics:    handler.NewMetricsHandler(nil, func() error { return nil }),
	})
	return r, members
}

func TestPaymentProofUploadServedWithoutToken(t *testing.T) {
	r, members := newTestRouter(t)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("paymentProof", "proof.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("proof-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/user/m1/payment-proof", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "m1", members.submittedID)
	assert.Contains(t, w.Body.String(), `"pending_approval"`)
}

func TestStatusReadServedWithoutToken(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user/m1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"m1"`)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, target := range []string{"/api/admin/pending-users", "/api/admin/all-users", "/api/admin/export"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, target)
	}
}

func TestMembershipCardRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/membership-card/m1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
