package storage

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"stroketraining/internal/model"
)

var (
	unsafeChars   = regexp.MustCompile(`[^a-z0-9.-]`)
	repeatedScore = regexp.MustCompile(`_+`)
)

// SanitizeFileName produces a storage-safe, collision-resistant file name:
// lower-cased, disallowed characters replaced with a single underscore, and a
// millisecond timestamp token appended before the extension so two concurrent
// uploads of the same name never collide at the same path.
func SanitizeFileName(originalName string) string {
	safe := strings.ToLower(originalName)
	safe = unsafeChars.ReplaceAllString(safe, "_")
	safe = repeatedScore.ReplaceAllString(safe, "_")
	safe = strings.Trim(safe, "_")

	stamp := time.Now().UnixMilli()

	if dot := strings.LastIndex(safe, "."); dot > 0 {
		base := strings.TrimRight(safe[:dot], "_")
		if base == "" {
			base = "fichier"
		}
		return fmt.Sprintf("%s_%d%s", base, stamp, safe[dot:])
	}
	if safe == "" {
		safe = "fichier"
	}
	return fmt.Sprintf("%s_%d", safe, stamp)
}

// DocumentPath is the deterministic location of a document file, derivable
// from metadata alone so deletion can reconstruct it.
func DocumentPath(category model.Category, documentID string, version int, fileName string) string {
	return fmt.Sprintf("documents/%s/%s/%d/%s", category, documentID, version, fileName)
}

// DocumentPrefix covers every version of a document, for whole-document deletes.
func DocumentPrefix(category model.Category, documentID string) string {
	return fmt.Sprintf("documents/%s/%s/", category, documentID)
}
