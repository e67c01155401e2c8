// Package validate holds the pure pre-flight checks run before any network
// operation: file type, role-dependent file size and metadata field bounds.
// Violations are reported per field, never as an opaque failure.
package validate

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"stroketraining/internal/model"
)

const (
	// MinFileSize rejects empty and near-empty files.
	MinFileSize = 1024 // 1 KiB

	TitleMinLength       = 5
	TitleMaxLength       = 200
	DescriptionMinLength = 20
	DescriptionMaxLength = 1000
	SummaryMaxLength     = 300
	MaxTags              = 10
	MaxKeywords          = 20
	TagMaxLength         = 50
	KeywordMaxLength     = 50
	MaxCMECredits        = 50
)

// supportedTypes is the closed set of accepted MIME types. Unknown types are
// rejected, never guessed from content.
var supportedTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-powerpoint":                                             true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"image/jpeg": true,
	"image/png":  true,
	"video/mp4":  true,
	"video/webm": true,
}

// FileType reports whether the declared MIME type is supported.
func FileType(contentType string) bool {
	return supportedTypes[contentType]
}

// videoSizeLimitsMB and sizeLimitsMB are the per-role ceilings in MB. Video
// content gets a larger ceiling than documents and images at every tier.
var (
	sizeLimitsMB = map[model.Role]int64{
		model.RoleAdmin:      500,
		model.RoleSpecialist: 100,
	}
	videoSizeLimitsMB = map[model.Role]int64{
		model.RoleAdmin:      500,
		model.RoleSpecialist: 200,
	}
	defaultSizeLimitMB      int64 = 10
	defaultVideoSizeLimitMB int64 = 50
)

// MaxFileSize returns the byte ceiling for a role and content type.
func MaxFileSize(contentType string, role model.Role) int64 {
	limits, def := sizeLimitsMB, defaultSizeLimitMB
	if strings.HasPrefix(contentType, "video/") {
		limits, def = videoSizeLimitsMB, defaultVideoSizeLimitMB
	}
	mb, ok := limits[role]
	if !ok {
		mb = def
	}
	return mb * 1024 * 1024
}

// FileSize checks the 1 KiB floor and the role/content-type ceiling.
// The returned error carries a human-readable reason; an oversize file is an
// expected condition, not a panic.
func FileSize(size int64, contentType string, role model.Role) error {
	if size < MinFileSize {
		return fmt.Errorf("le fichier doit faire au moins 1KB")
	}
	if max := MaxFileSize(contentType, role); size > max {
		return fmt.Errorf("le fichier ne peut pas dépasser %dMB", max/(1024*1024))
	}
	return nil
}

// FieldError is a single per-field validation violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors aggregates per-field violations. A nil/empty slice means valid.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

func (e *FieldErrors) add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Metadata is the descriptive metadata subject to field-level validation.
type Metadata struct {
	Title        string
	Description  string
	Summary      string
	Category     model.Category
	Tags         []string
	Keywords     []string
	Priority     model.Priority
	Language     string
	CMECredits   int
	EmbargoUntil *time.Time
	ExpiresAt    *time.Time
}

// supportedLanguages is the closed language set of the platform.
var supportedLanguages = map[string]bool{"fr": true, "en": true}

// Fields checks every metadata field bound and returns the violations.
func Fields(m Metadata) FieldErrors {
	var errs FieldErrors

	// Bounds are in characters, not bytes; accented text must not
	// shorten the budget.
	title := utf8.RuneCountInString(strings.TrimSpace(m.Title))
	if title < TitleMinLength {
		errs.add("title", fmt.Sprintf("le titre doit contenir au moins %d caractères", TitleMinLength))
	} else if title > TitleMaxLength {
		errs.add("title", fmt.Sprintf("le titre ne peut pas dépasser %d caractères", TitleMaxLength))
	}

	desc := utf8.RuneCountInString(strings.TrimSpace(m.Description))
	if desc < DescriptionMinLength {
		errs.add("description", fmt.Sprintf("la description doit contenir au moins %d caractères", DescriptionMinLength))
	} else if desc > DescriptionMaxLength {
		errs.add("description", fmt.Sprintf("la description ne peut pas dépasser %d caractères", DescriptionMaxLength))
	}

	if utf8.RuneCountInString(m.Summary) > SummaryMaxLength {
		errs.add("summary", fmt.Sprintf("le résumé ne peut pas dépasser %d caractères", SummaryMaxLength))
	}

	if !model.ValidCategory(m.Category) {
		errs.add("category", "catégorie invalide")
	}

	if len(m.Tags) > MaxTags {
		errs.add("tags", fmt.Sprintf("maximum %d tags", MaxTags))
	}
	for _, tag := range m.Tags {
		if tag == "" || utf8.RuneCountInString(tag) > TagMaxLength {
			errs.add("tags", fmt.Sprintf("chaque tag doit faire entre 1 et %d caractères", TagMaxLength))
			break
		}
	}

	if len(m.Keywords) > MaxKeywords {
		errs.add("keywords", fmt.Sprintf("maximum %d mots-clés", MaxKeywords))
	}
	for _, kw := range m.Keywords {
		if kw == "" || utf8.RuneCountInString(kw) > KeywordMaxLength {
			errs.add("keywords", fmt.Sprintf("chaque mot-clé doit faire entre 1 et %d caractères", KeywordMaxLength))
			break
		}
	}

	if !model.ValidPriority(m.Priority) {
		errs.add("priority", "priorité invalide")
	}

	if !supportedLanguages[m.Language] {
		errs.add("language", "langue non supportée")
	}

	if m.CMECredits < 0 || m.CMECredits > MaxCMECredits {
		errs.add("cme_credits", fmt.Sprintf("les crédits doivent être entre 0 et %d", MaxCMECredits))
	}

	// The embargo must precede the expiry when both are set.
	if m.EmbargoUntil != nil && m.ExpiresAt != nil && !m.EmbargoUntil.Before(*m.ExpiresAt) {
		errs.add("embargo_until", "l'embargo doit précéder l'expiration")
	}

	return errs
}
