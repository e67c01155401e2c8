package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"stroketraining/internal/model"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFileName(t *testing.T) {
	re := regexp.MustCompile(`^[a-z0-9._-]+$`)

	t.Run("replaces and collapses unsafe characters", func(t *testing.T) {
		got := SanitizeFileName("Protocole AVC (v2) !!.PDF")
		assert.True(t, re.MatchString(got), got)
		assert.True(t, strings.HasSuffix(got, ".pdf"), got)
		assert.NotContains(t, got, "__")
		assert.False(t, strings.HasPrefix(got, "_"))
	})

	t.Run("appends uniqueness token before extension", func(t *testing.T) {
		got := SanitizeFileName("cours.mp4")
		assert.Regexp(t, `^cours_\d+\.mp4$`, got)
	})

	t.Run("handles names without extension", func(t *testing.T) {
		got := SanitizeFileName("README")
		assert.Regexp(t, `^readme_\d+$`, got)
	})

	t.Run("never returns empty", func(t *testing.T) {
		got := SanitizeFileName("???")
		assert.NotEmpty(t, got)
		assert.True(t, re.MatchString(got), got)
	})
}

func TestDocumentPath(t *testing.T) {
	p := DocumentPath(model.CategoryVideos, "doc_123_abc", 2, "cours_17.mp4")
	assert.Equal(t, "documents/videos/doc_123_abc/2/cours_17.mp4", p)

	prefix := DocumentPrefix(model.CategoryVideos, "doc_123_abc")
	assert.Equal(t, "documents/videos/doc_123_abc/", prefix)
	assert.True(t, strings.HasPrefix(p, prefix))
}

func TestProgressReader(t *testing.T) {
	t.Run("tracks bytes and reports terminal snapshot", func(t *testing.T) {
		data := strings.Repeat("x", 4096)
		var events []Progress
		pr := newProgressReader(strings.NewReader(data), int64(len(data)), func(p Progress) {
			events = append(events, p)
		})

		buf := make([]byte, 1024)
		for {
			_, err := pr.Read(buf)
			if err != nil {
				break
			}
		}

		assert.Equal(t, int64(len(data)), pr.transferred)

		// Callbacks are throttled: four instant reads yield at most the
		// initial token's worth of events.
		assert.LessOrEqual(t, len(events), 2)

		done := pr.completed()
		assert.Equal(t, int64(len(data)), done.BytesTransferred)
		assert.Equal(t, float64(100), done.Percentage)
		assert.Zero(t, done.ETASeconds)
	})

	t.Run("snapshot percentage and eta", func(t *testing.T) {
		pr := newProgressReader(strings.NewReader(""), 1000, nil)
		pr.transferred = 250
		pr.start = time.Now().Add(-1 * time.Second)

		s := pr.snapshot()
		assert.Equal(t, int64(250), s.BytesTransferred)
		assert.InDelta(t, 25.0, s.Percentage, 0.01)
		// 250 B/s with 750 remaining: about 3 seconds.
		assert.InDelta(t, 3, s.ETASeconds, 1)
	})

	t.Run("nil callback is safe", func(t *testing.T) {
		pr := newProgressReader(strings.NewReader("hello"), 5, nil)
		buf := make([]byte, 16)
		_, err := pr.Read(buf)
		require.NoError(t, err)
	})
}

func TestClassifyTransfer(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind TransferKind
	}{
		{"context canceled", context.Canceled, TransferCanceled},
		{"wrapped cancellation", fmt.Errorf("put: %w", context.Canceled), TransferCanceled},
		{"deadline folds into unknown", context.DeadlineExceeded, TransferUnknown},
		{"access denied", minio.ErrorResponse{Code: "AccessDenied"}, TransferUnauthorized},
		{"bad digest", minio.ErrorResponse{Code: "BadDigest"}, TransferIntegrity},
		{"slow down", minio.ErrorResponse{Code: "SlowDown"}, TransferRetryLimit},
		{"unmapped code", minio.ErrorResponse{Code: "NoSuchBucket"}, TransferUnknown},
		{"plain error", errors.New("boom"), TransferUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := classifyTransfer(tt.err)
			require.NotNil(t, te)
			assert.Equal(t, tt.kind, te.Kind)
			assert.ErrorIs(t, te, tt.err)
		})
	}
}

func TestTransferKindMessage(t *testing.T) {
	assert.Equal(t, "Téléchargement annulé", TransferCanceled.Message())
	assert.Equal(t, "Non autorisé à télécharger ce fichier", TransferUnauthorized.Message())
	assert.Equal(t, "Fichier corrompu", TransferIntegrity.Message())
	assert.Equal(t, "Limite de tentatives dépassée", TransferRetryLimit.Message())
	assert.Equal(t, "Erreur inconnue lors du téléchargement", TransferKind("bogus").Message())
}
