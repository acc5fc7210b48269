package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"dealership/internal/model"
	"dealership/pkg/apperror"
	"dealership/pkg/logger"
	"dealership/pkg/pagination"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	objects map[string][]byte
	err     error
}

func (m *memoryStore) Put(_ context.Context, key string, body []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.objects[key] = body
	return "mem://" + key, nil
}

func newLetterFixture(t *testing.T) (*approvalLetterService, *mockLetterRepo, *mockAppRepo, *memoryStore, *cacheRecorder) {
	letters := &mockLetterRepo{}
	apps := &mockAppRepo{}
	store := &memoryStore{objects: map[string][]byte{}}
	c := newCacheRecorder()
	svc := NewApprovalLetterService(letters, apps, &auditRecorder{}, &fakeTx{}, store, Effects{Cache: c, Log: logger.NewTest(t)}).(*approvalLetterService)
	svc.now = func() time.Time { return fixedNow }
	return svc, letters, apps, store, c
}

func TestDealershipID(t *testing.T) {
	assert.Equal(t, "DEALER-0A1B2C3D", DealershipID("DLR-0A1B2C3D"))
}

func TestGenerateLetter(t *testing.T) {
	svc, letters, apps, store, c := newLetterFixture(t)
	app := appAt(model.StatusApproved)
	apps.On("FindByIDForUpdate", mock.Anything, app.ID).Return(app, nil)
	apps.On("Update", mock.Anything, app).Return(nil)
	letters.On("ExistsForApplication", mock.Anything, app.ID).Return(false, nil)
	letters.On("Create", mock.Anything, mock.AnythingOfType("*model.ApprovalLetter")).Return(nil)

	letter, err := svc.Generate(adminCtx(), app.ID.String())
	require.NoError(t, err)

	key := "approvals/DLR-0A1B2C3D-approval.txt"
	assert.Equal(t, "DEALER-0A1B2C3D", letter.DealershipID)
	assert.Equal(t, "mem://"+key, letter.FilePath)
	assert.Equal(t, letter.FilePath, app.ApprovalLetterURL)
	require.Contains(t, store.objects, key)
	body := string(store.objects[key])
	assert.Contains(t, body, "Dear Raj Kumar")
	assert.Contains(t, body, "DEALER-0A1B2C3D")
	assert.Contains(t, body, "INR 25000.00")
	assert.Contains(t, body, "14 March 2026")
	assert.Equal(t, []string{app.TrackingID}, c.invalidated)
}

func TestGenerateLetter_Preconditions(t *testing.T) {
	t.Run("not approved", func(t *testing.T) {
		svc, _, apps, _, _ := newLetterFixture(t)
		app := appAt(model.StatusUnderReview)
		apps.On("FindByIDForUpdate", mock.Anything, app.ID).Return(app, nil)

		_, err := svc.Generate(adminCtx(), app.ID.String())
		assert.ErrorIs(t, err, apperror.ErrMissingPrecondition)
	})

	t.Run("already issued", func(t *testing.T) {
		svc, letters, apps, store, _ := newLetterFixture(t)
		app := appAt(model.StatusPaymentVerified)
		apps.On("FindByIDForUpdate", mock.Anything, app.ID).Return(app, nil)
		letters.On("ExistsForApplication", mock.Anything, app.ID).Return(true, nil)

		_, err := svc.Generate(adminCtx(), app.ID.String())
		assert.ErrorIs(t, err, apperror.ErrConflict)
		assert.Empty(t, store.objects)
	})

	t.Run("storage failure", func(t *testing.T) {
		svc, letters, apps, store, _ := newLetterFixture(t)
		store.err = errors.New("bucket gone")
		app := appAt(model.StatusApproved)
		apps.On("FindByIDForUpdate", mock.Anything, app.ID).Return(app, nil)
		letters.On("ExistsForApplication", mock.Anything, app.ID).Return(false, nil)

		_, err := svc.Generate(adminCtx(), app.ID.String())
		assert.Error(t, err)
		letters.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestGetLetter(t *testing.T) {
	svc, letters, _, _, _ := newLetterFixture(t)
	id := uuid.New()
	letters.On("FindByApplicationID", mock.Anything, id).Return(nil, apperror.NotFound("approval letter"))

	_, err := svc.Get(context.Background(), id.String())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListLetters(t *testing.T) {
	svc, letters, _, _, _ := newLetterFixture(t)
	letters.On("List", mock.Anything, 20, 20).Return([]model.ApprovalLetter{{DealershipID: "DEALER-1"}}, int64(21), nil)

	out, total, err := svc.List(context.Background(), pagination.New(2, 20))
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, int64(21), total)
}
