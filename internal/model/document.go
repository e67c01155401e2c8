package model

import "time"

// Access holds the access-control attributes of a document.
type Access struct {
	IsPublic         bool       `json:"is_public"`
	AllowedRoles     []Role     `json:"allowed_roles"`
	RequiresApproval bool       `json:"requires_approval"`
	EmbargoUntil     *time.Time `json:"embargo_until,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

// Document represents a titled, categorized, access-controlled content record
// plus its stored binary file. This is a pure domain model with no
// database-specific dependencies or tags; it is shared across the HTTP,
// service and storage layers.
//
// The ID is generated before any I/O and joins the metadata record with the
// stored object. It never changes once the document is created.
type Document struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Summary     string   `json:"summary,omitempty"`
	Category    Category `json:"category"`
	Tags        []string `json:"tags"`
	Keywords    []string `json:"keywords"`
	Priority    Priority `json:"priority"`
	Language    string   `json:"language"`
	CMECredits  int      `json:"cme_credits"`

	// File attributes. StoragePath is deterministic
	// (documents/<category>/<id>/<version>/<stored filename>) so it can be
	// reconstructed from metadata alone when deleting.
	OriginalFilename string `json:"original_filename"`
	StoredFilename   string `json:"stored_filename"`
	ContentType      string `json:"content_type"`
	Size             int64  `json:"size"`
	StoragePath      string `json:"storage_path"`
	DownloadURL      string `json:"download_url"`
	Version          int    `json:"version"`

	Access Access `json:"access"`

	// Workflow attributes.
	Status     Status     `json:"status"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedBy  string     `json:"updated_by,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
	ApprovedBy string     `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`

	// Engagement counters, non-decreasing except on record deletion.
	ViewCount     int64 `json:"view_count"`
	DownloadCount int64 `json:"download_count"`
	RatingSum     int64 `json:"rating_sum"`
	RatingCount   int64 `json:"rating_count"`
}
