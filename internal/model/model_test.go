package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"draft to pending-review", StatusDraft, StatusPendingReview, true},
		{"draft to approved skips review", StatusDraft, StatusApproved, false},
		{"pending-review to approved", StatusPendingReview, StatusApproved, true},
		{"pending-review to rejected", StatusPendingReview, StatusRejected, true},
		{"approved to under-revision", StatusApproved, StatusUnderRevision, true},
		{"approved to archived", StatusApproved, StatusArchived, true},
		{"approved to draft", StatusApproved, StatusDraft, false},
		{"approved to rejected", StatusApproved, StatusRejected, false},
		{"rejected to draft", StatusRejected, StatusDraft, true},
		{"rejected to under-revision", StatusRejected, StatusUnderRevision, true},
		{"rejected to approved", StatusRejected, StatusApproved, false},
		{"under-revision to pending-review", StatusUnderRevision, StatusPendingReview, true},
		{"under-revision to approved", StatusUnderRevision, StatusApproved, false},
		{"archived re-activates only to draft", StatusArchived, StatusDraft, true},
		{"archived to approved", StatusArchived, StatusApproved, false},
		{"no self transition", StatusDraft, StatusDraft, false},
		{"unknown source", Status("bogus"), StatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestEveryNonArchivedStateCanArchive(t *testing.T) {
	for from := range statusTransitions {
		if from == StatusArchived {
			continue
		}
		assert.True(t, CanTransition(from, StatusArchived), "%s should archive", from)
	}
}

func TestPriorityOrdering(t *testing.T) {
	assert.Less(t, PriorityLow.Weight(), PriorityNormal.Weight())
	assert.Less(t, PriorityNormal.Weight(), PriorityHigh.Weight())
	assert.Less(t, PriorityHigh.Weight(), PriorityCritical.Weight())
	assert.Zero(t, Priority("bogus").Weight())
}

func TestPermissionsFor(t *testing.T) {
	admin := PermissionsFor(RoleAdmin)
	assert.True(t, admin.CanUpload)
	assert.True(t, admin.CanApprove)
	assert.True(t, admin.MayAssignCategory(CategoryPolicyDocuments))

	spec := PermissionsFor(RoleSpecialist)
	assert.True(t, spec.CanUpload)
	assert.False(t, spec.CanApprove)
	assert.False(t, spec.MayAssignCategory(CategoryPolicyDocuments))
	assert.True(t, spec.MayAssignCategory(CategoryVideos))

	assert.False(t, PermissionsFor(RoleAttendee).CanUpload)
	assert.False(t, PermissionsFor(RoleStakeholder).CanUpload)
	assert.False(t, PermissionsFor(Role("bogus")).CanUpload)
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidRole(RoleSpecialist))
	assert.False(t, ValidRole(Role("root")))
	assert.True(t, ValidCategory(CategoryCaseStudies))
	assert.False(t, ValidCategory(Category("memes")))
	assert.True(t, ValidStatus(StatusUnderRevision))
	assert.False(t, ValidStatus(Status("published")))
	assert.True(t, ValidPriority(PriorityCritical))
	assert.False(t, ValidPriority(Priority("urgent")))
}
