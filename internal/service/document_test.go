package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stroketraining/internal/model"
	"stroketraining/internal/repository"
)

func sampleDoc(status model.Status) *model.Document {
	return &model.Document{
		ID:          "doc_1700000000000_a1b2c3d4e",
		Title:       "Protocole thrombolyse",
		Category:    model.CategoryClinicalGuidelines,
		Status:      status,
		StoragePath: "documents/clinical-guidelines/doc_1700000000000_a1b2c3d4e/1/protocole.pdf",
		CreatedBy:   "u1",
	}
}

func TestGet(t *testing.T) {
	svc, _, repo := newTestService(t)
	doc := sampleDoc(model.StatusApproved)
	repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()

	got, err := svc.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestGetNotFound(t *testing.T) {
	svc, _, repo := newTestService(t)
	repo.On("FindByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows).Once()

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetEmptyID(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrIDRequired)
}

func TestListDefaultsAndCap(t *testing.T) {
	svc, _, repo := newTestService(t)

	repo.On("List", mock.Anything, repository.ListFilter{Limit: 20}).
		Return([]model.Document{}, nil).Once()
	repo.On("List", mock.Anything, repository.ListFilter{Limit: 100}).
		Return([]model.Document{}, nil).Once()

	_, err := svc.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	_, err = svc.List(context.Background(), ListOptions{Limit: 5000})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestListFilters(t *testing.T) {
	svc, _, repo := newTestService(t)

	want := repository.ListFilter{
		Category:  model.CategoryVideos,
		Status:    model.StatusApproved,
		CreatedBy: "u1",
		Limit:     10,
	}
	repo.On("List", mock.Anything, want).Return([]model.Document{*sampleDoc(model.StatusApproved)}, nil).Once()

	docs, err := svc.List(context.Background(), ListOptions{
		Category:  model.CategoryVideos,
		Status:    model.StatusApproved,
		CreatedBy: "u1",
		Limit:     10,
	})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestUpdateStatusAllowed(t *testing.T) {
	svc, _, repo := newTestService(t)
	doc := sampleDoc(model.StatusDraft)

	repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()
	repo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(u repository.StatusUpdate) bool {
		return u.ID == doc.ID &&
			u.From == model.StatusDraft &&
			u.To == model.StatusPendingReview &&
			u.ActorID == "u2" &&
			!u.Approve
	})).Return(true, nil).Once()

	err := svc.UpdateStatus(context.Background(), doc.ID, model.StatusPendingReview, Actor{ID: "u2", Role: model.RoleSpecialist})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	svc, _, repo := newTestService(t)
	doc := sampleDoc(model.StatusDraft)
	repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()

	err := svc.UpdateStatus(context.Background(), doc.ID, model.StatusApproved, Actor{ID: "u2", Role: model.RoleAdmin})

	var terr *InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, model.StatusDraft, terr.From)
	assert.Equal(t, model.StatusApproved, terr.To)
	repo.AssertNotCalled(t, "UpdateStatus")
}

func TestUpdateStatusApproveNeedsPermission(t *testing.T) {
	svc, _, repo := newTestService(t)
	doc := sampleDoc(model.StatusPendingReview)
	repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()

	err := svc.UpdateStatus(context.Background(), doc.ID, model.StatusApproved, Actor{ID: "u2", Role: model.RoleSpecialist})

	var perr *PermissionError
	require.ErrorAs(t, err, &perr)
	repo.AssertNotCalled(t, "UpdateStatus")
}

func TestUpdateStatusApproveStampsApprover(t *testing.T) {
	svc, _, repo := newTestService(t)
	doc := sampleDoc(model.StatusPendingReview)

	repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()
	repo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(u repository.StatusUpdate) bool {
		return u.Approve && u.To == model.StatusApproved && u.ActorID == "admin1"
	})).Return(true, nil).Once()

	err := svc.UpdateStatus(context.Background(), doc.ID, model.StatusApproved, Actor{ID: "admin1", Role: model.RoleAdmin})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpdateStatusStaleRead(t *testing.T) {
	svc, _, repo := newTestService(t)
	doc := sampleDoc(model.StatusDraft)

	// Status moved between the read and the conditional write.
	repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Twice()
	repo.On("UpdateStatus", mock.Anything, mock.Anything).Return(false, nil).Once()

	err := svc.UpdateStatus(context.Background(), doc.ID, model.StatusPendingReview, Actor{ID: "u2", Role: model.RoleAdmin})

	var terr *InvalidTransitionError
	assert.ErrorAs(t, err, &terr)
}

func TestUpdateStatusUnknownTarget(t *testing.T) {
	svc, _, repo := newTestService(t)

	err := svc.UpdateStatus(context.Background(), "doc_1_abc", model.Status("published"), Actor{ID: "u2", Role: model.RoleAdmin})

	var terr *InvalidTransitionError
	assert.ErrorAs(t, err, &terr)
	repo.AssertNotCalled(t, "FindByID")
}

func TestDeleteStorageFirst(t *testing.T) {
	svc, store, repo := newTestService(t)
	doc := sampleDoc(model.StatusArchived)

	repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()
	store.On("DeleteAll", mock.Anything, "documents/clinical-guidelines/"+doc.ID+"/").
		Return(nil).Once()
	repo.On("Delete", mock.Anything, doc.ID).Return(nil).Once()

	err := svc.Delete(context.Background(), doc.ID, Actor{ID: "admin1", Role: model.RoleAdmin})
	require.NoError(t, err)
	store.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestDeleteStorageFailureKeepsRecord(t *testing.T) {
	svc, store, repo := newTestService(t)
	doc := sampleDoc(model.StatusArchived)

	repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()
	store.On("DeleteAll", mock.Anything, mock.Anything).
		Return(errors.New("minio unavailable")).Once()

	err := svc.Delete(context.Background(), doc.ID, Actor{ID: "admin1", Role: model.RoleAdmin})
	require.Error(t, err)
	repo.AssertNotCalled(t, "Delete")
}

func TestDeletePermission(t *testing.T) {
	svc, _, repo := newTestService(t)

	err := svc.Delete(context.Background(), "doc_1_abc", Actor{ID: "u1", Role: model.RoleSpecialist})

	var perr *PermissionError
	require.ErrorAs(t, err, &perr)
	repo.AssertNotCalled(t, "FindByID")
}

func TestDownloadURLCached(t *testing.T) {
	svc, store, repo := newTestService(t)
	doc := sampleDoc(model.StatusApproved)

	repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()
	store.On("PresignGet", mock.Anything, doc.StoragePath, mock.Anything).
		Return("https://minio.local/signed", nil).Once()

	u1, err := svc.DownloadURL(context.Background(), doc.ID)
	require.NoError(t, err)
	u2, err := svc.DownloadURL(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, u1, u2)
	// Second call served from cache.
	store.AssertNumberOfCalls(t, "PresignGet", 1)
	repo.AssertNumberOfCalls(t, "FindByID", 1)
}

func TestRecordViewSwallowsError(t *testing.T) {
	svc, _, repo := newTestService(t)
	repo.On("IncrementCounter", mock.Anything, "doc_1_abc", repository.CounterView).
		Return(errors.New("db down")).Once()

	svc.RecordView(context.Background(), "doc_1_abc")
	repo.AssertExpectations(t)
}

func TestRate(t *testing.T) {
	svc, _, repo := newTestService(t)
	repo.On("AddRating", mock.Anything, "doc_1_abc", 4).Return(nil).Once()

	require.NoError(t, svc.Rate(context.Background(), "doc_1_abc", 4))
	repo.AssertExpectations(t)
}

func TestRateOutOfRange(t *testing.T) {
	svc, _, repo := newTestService(t)

	for _, stars := range []int{0, 6, -1} {
		err := svc.Rate(context.Background(), "doc_1_abc", stars)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "stars %d", stars)
	}
	repo.AssertNotCalled(t, "AddRating")
}

func TestRateUnknownDocument(t *testing.T) {
	svc, _, repo := newTestService(t)
	repo.On("AddRating", mock.Anything, "missing", 3).Return(sql.ErrNoRows).Once()

	err := svc.Rate(context.Background(), "missing", 3)
	assert.ErrorIs(t, err, ErrNotFound)
}
