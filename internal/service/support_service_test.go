package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"dealership/internal/model"
	"dealership/internal/repository"
	"dealership/internal/websocket"
	"dealership/pkg/apperror"
	"dealership/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newSupportFixture(t *testing.T) (*supportService, *mockSupportRepo, *auditRecorder, *publisherRecorder) {
	repo := &mockSupportRepo{}
	audit := &auditRecorder{}
	pub := &publisherRecorder{}
	svc := NewSupportService(repo, audit, &fakeTx{}, Effects{Publisher: pub, Log: logger.NewTest(t)}).(*supportService)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, audit, pub
}

func TestSupportCreate(t *testing.T) {
	svc, repo, _, pub := newSupportFixture(t)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(r *model.SupportRequest) bool {
		return r.Email == "raj@x.com" && r.Subject == "Payment" && !r.IsResolved
	})).Return(nil)

	sr, err := svc.Create(context.Background(), CreateSupportRequest{
		Name: "Raj", Email: " Raj@X.com ", Subject: "Payment ", Message: "Where do I pay?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Raj", sr.Name)
	assert.Equal(t, []string{websocket.EventSupportCreated}, pub.types())
}

func TestSupportCreate_Validation(t *testing.T) {
	svc, repo, _, _ := newSupportFixture(t)

	_, err := svc.Create(context.Background(), CreateSupportRequest{Name: "Raj", Email: "nope"})
	require.ErrorIs(t, err, apperror.ErrValidation)
	fields := apperror.FieldsOf(err)
	assert.Equal(t, "Invalid email address", fields["email"])
	assert.Contains(t, fields, "subject")
	assert.Contains(t, fields, "message")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSupportCreate_RejectsDisplayNameAddress(t *testing.T) {
	svc, repo, _, _ := newSupportFixture(t)

	_, err := svc.Create(context.Background(), CreateSupportRequest{
		Name: "Raj", Email: "Raj Kumar <raj@x.com>", Subject: "Payment", Message: "Where do I pay?",
	})
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, map[string]string{"email": "Invalid email address"}, apperror.FieldsOf(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSupportCreate_SubjectTooLong(t *testing.T) {
	svc, _, _, _ := newSupportFixture(t)

	_, err := svc.Create(context.Background(), CreateSupportRequest{
		Name: "Raj", Email: "raj@x.com", Subject: strings.Repeat("s", 201), Message: "Hi",
	})
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, "Subject must be at most 200 characters", apperror.FieldsOf(err)["subject"])
}

func TestSupportResolve(t *testing.T) {
	svc, repo, audit, _ := newSupportFixture(t)
	sr := &model.SupportRequest{ID: uuid.New(), Subject: "Payment"}
	repo.On("FindByID", mock.Anything, sr.ID).Return(sr, nil)
	repo.On("Update", mock.Anything, sr).Return(nil)

	got, err := svc.Resolve(adminCtx(), sr.ID.String(), ResolveSupportRequest{IsResolved: true})
	require.NoError(t, err)
	assert.True(t, got.IsResolved)
	require.NotNil(t, got.ResolvedAt)
	assert.Equal(t, fixedNow, *got.ResolvedAt)
	assert.Equal(t, []string{model.ActionResolveSupport}, audit.actions())

	got, err = svc.Resolve(adminCtx(), sr.ID.String(), ResolveSupportRequest{IsResolved: false})
	require.NoError(t, err)
	assert.False(t, got.IsResolved)
	assert.Nil(t, got.ResolvedAt)
}

func TestSupportGet_NotFound(t *testing.T) {
	svc, repo, _, _ := newSupportFixture(t)
	id := uuid.New()
	repo.On("FindByID", mock.Anything, id).Return(nil, apperror.NotFound("support request"))

	_, err := svc.Get(context.Background(), id.String())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSupportList_ResolvedFilter(t *testing.T) {
	svc, repo, _, _ := newSupportFixture(t)
	unresolved := false
	repo.On("List", mock.Anything, repository.SupportFilter{Resolved: &unresolved, Offset: 0, Limit: 20}).
		Return([]model.SupportRequest{{Subject: "Help"}}, int64(1), nil)

	reqs, total, err := svc.List(context.Background(), SupportFilter{Resolved: &unresolved})
	require.NoError(t, err)
	assert.Len(t, reqs, 1)
	assert.Equal(t, int64(1), total)
}
