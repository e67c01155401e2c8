// Package model contains the domain model of the platform: document categories,
// user roles and their permissions, the document status workflow and priorities.
// No business logic beyond the closed enumerations and the transition table.
package model

// Role is a user class from the identity provider. It controls upload
// permission, size ceilings and the categories a user may assign.
type Role string

const (
	RoleAttendee    Role = "attendee"
	RoleSpecialist  Role = "specialist"
	RoleAdmin       Role = "admin"
	RoleStakeholder Role = "stakeholder"
)

// ValidRole reports whether r is a member of the closed role set.
func ValidRole(r Role) bool {
	switch r {
	case RoleAttendee, RoleSpecialist, RoleAdmin, RoleStakeholder:
		return true
	}
	return false
}

// Category is a document category from a fixed enumeration.
type Category string

const (
	CategoryClinicalGuidelines Category = "clinical-guidelines"
	CategoryTrainingMaterials  Category = "training-materials"
	CategoryCaseStudies        Category = "case-studies"
	CategoryBestPractices      Category = "best-practices"
	CategoryResearchPapers     Category = "research-papers"
	CategoryPolicyDocuments    Category = "policy-documents"
	CategoryPresentations      Category = "presentations"
	CategoryVideos             Category = "videos"
	CategoryInfographics       Category = "infographics"
	CategoryAssessments        Category = "assessments"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryClinicalGuidelines,
	CategoryTrainingMaterials,
	CategoryCaseStudies,
	CategoryBestPractices,
	CategoryResearchPapers,
	CategoryPolicyDocuments,
	CategoryPresentations,
	CategoryVideos,
	CategoryInfographics,
	CategoryAssessments,
}

// ValidCategory reports whether c is a member of the closed category set.
func ValidCategory(c Category) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Status is a document workflow state.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusPendingReview Status = "pending-review"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
	StatusUnderRevision Status = "under-revision"
	StatusArchived      Status = "archived"
)

// statusTransitions is the allowed-transition table of the workflow.
// Any state not listed as a target of the current state is an illegal move.
// Every non-archived state may be archived; archived only re-activates to draft.
var statusTransitions = map[Status][]Status{
	StatusDraft:         {StatusPendingReview, StatusArchived},
	StatusPendingReview: {StatusApproved, StatusRejected, StatusUnderRevision, StatusDraft, StatusArchived},
	StatusApproved:      {StatusUnderRevision, StatusArchived},
	StatusRejected:      {StatusDraft, StatusUnderRevision, StatusArchived},
	StatusUnderRevision: {StatusPendingReview, StatusDraft, StatusArchived},
	StatusArchived:      {StatusDraft},
}

// ValidStatus reports whether s is a member of the closed status set.
func ValidStatus(s Status) bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransition reports whether the workflow allows moving from one status
// to another. A status never transitions to itself.
func CanTransition(from, to Status) bool {
	for _, t := range statusTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Priority is an ordered document priority.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var priorityWeights = map[Priority]int{
	PriorityLow:      1,
	PriorityNormal:   2,
	PriorityHigh:     3,
	PriorityCritical: 4,
}

// Weight returns the ordering weight of the priority, 0 for unknown values.
func (p Priority) Weight() int {
	return priorityWeights[p]
}

// ValidPriority reports whether p is a member of the closed priority set.
func ValidPriority(p Priority) bool {
	_, ok := priorityWeights[p]
	return ok
}

// Permissions describe what a role may do with documents.
type Permissions struct {
	CanUpload         bool
	CanEdit           bool
	CanDelete         bool
	CanApprove        bool
	MaxFileSizeMB     int64
	AllowedCategories []Category
}

// rolePermissions is the role permission matrix. Attendees and stakeholders
// are read-only.
var rolePermissions = map[Role]Permissions{
	RoleAttendee: {},
	RoleSpecialist: {
		CanUpload:     true,
		CanEdit:       true,
		MaxFileSizeMB: 100,
		AllowedCategories: []Category{
			CategoryClinicalGuidelines,
			CategoryTrainingMaterials,
			CategoryCaseStudies,
			CategoryBestPractices,
			CategoryResearchPapers,
			CategoryPresentations,
			CategoryVideos,
			CategoryInfographics,
		},
	},
	RoleAdmin: {
		CanUpload:         true,
		CanEdit:           true,
		CanDelete:         true,
		CanApprove:        true,
		MaxFileSizeMB:     500,
		AllowedCategories: Categories,
	},
	RoleStakeholder: {},
}

// PermissionsFor returns the permission set of a role. Unknown roles get the
// empty (deny-all) permission set.
func PermissionsFor(r Role) Permissions {
	return rolePermissions[r]
}

// MayAssignCategory reports whether the permission set allows assigning the
// given category.
func (p Permissions) MayAssignCategory(c Category) bool {
	for _, v := range p.AllowedCategories {
		if v == c {
			return true
		}
	}
	return false
}
