package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"stroketraining/internal/model"
	"stroketraining/internal/repository"
	"stroketraining/internal/storage"
	"stroketraining/internal/validate"
)

// Actor is the authenticated caller, threaded explicitly into every
// operation instead of being read from ambient state.
type Actor struct {
	ID            string
	Role          model.Role
	EmailVerified bool
}

// ListOptions are the service-level listing filters (conjunction).
type ListOptions struct {
	Category  model.Category
	Status    model.Status
	CreatedBy string
	Limit     int
}

// DocumentService defines the use cases for handling documents: the upload
// pipeline, the status workflow and the read side.
type DocumentService interface {
	// UploadBatch drives 1..N files through validate, transfer and persist,
	// independently per file. Per-file failures do not abort siblings;
	// partial success is a normal outcome. The returned error is non-nil
	// only for whole-batch prechecks (permission, batch size, metadata).
	UploadBatch(ctx context.Context, actor Actor, meta DocumentInput, files []FileUpload, onProgress ProgressFunc) (*BatchResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// List returns documents matching the filters, newest first.
	List(ctx context.Context, opts ListOptions) ([]model.Document, error)

	// UpdateStatus moves a document through the workflow. This service is
	// the single authority for transition validation; approval stamps
	// approver identity and time atomically with the status change.
	UpdateStatus(ctx context.Context, id string, to model.Status, actor Actor) error

	// Delete removes the stored objects of every version before the
	// metadata record. A storage failure blocks the record delete.
	Delete(ctx context.Context, id string, actor Actor) error

	// DownloadURL issues a time-limited retrieval URL for the document file.
	DownloadURL(ctx context.Context, id string) (string, error)

	// RecordView and RecordDownload bump engagement counters. Best-effort:
	// failures are logged and swallowed, never surfaced.
	RecordView(ctx context.Context, id string)
	RecordDownload(ctx context.Context, id string)

	// Rate folds a 1..5 star rating into the document's rating counters.
	Rate(ctx context.Context, id string, stars int) error
}

// Options tune the service. Zero values fall back to defaults.
type Options struct {
	MaxBatchFiles int
	PresignExpiry time.Duration
	URLCacheSize  int
	URLCacheTTL   time.Duration
	UploadTimeout time.Duration
}

const (
	defaultMaxBatchFiles = 10
	defaultPresignExpiry = time.Hour
	defaultURLCacheSize  = 512
	defaultURLCacheTTL   = 10 * time.Minute
)

type documentService struct {
	store storage.Storage
	repo  repository.DocumentRepository
	opts  Options

	// urlCache keeps presigned URLs so repeated views of the same document
	// don't re-sign. TTL stays below the presign expiry.
	urlCache *expirable.LRU[string, string]
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, opts Options) DocumentService {
	if opts.MaxBatchFiles <= 0 {
		opts.MaxBatchFiles = defaultMaxBatchFiles
	}
	if opts.PresignExpiry <= 0 {
		opts.PresignExpiry = defaultPresignExpiry
	}
	if opts.URLCacheSize <= 0 {
		opts.URLCacheSize = defaultURLCacheSize
	}
	if opts.URLCacheTTL <= 0 || opts.URLCacheTTL >= opts.PresignExpiry {
		opts.URLCacheTTL = defaultURLCacheTTL
		if opts.URLCacheTTL >= opts.PresignExpiry {
			opts.URLCacheTTL = opts.PresignExpiry / 2
		}
	}
	return &documentService{
		store:    store,
		repo:     repo,
		opts:     opts,
		urlCache: expirable.NewLRU[string, string](opts.URLCacheSize, nil, opts.URLCacheTTL),
	}
}

// Get returns a document by ID. Absence is ErrNotFound.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// List returns documents matching all provided filters, newest first.
func (s *documentService) List(ctx context.Context, opts ListOptions) ([]model.Document, error) {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	return s.repo.List(ctx, repository.ListFilter{
		Category:  opts.Category,
		Status:    opts.Status,
		CreatedBy: opts.CreatedBy,
		Limit:     opts.Limit,
	})
}

// UpdateStatus validates the transition against the workflow table and
// performs the conditional write. The write is conditional on the status
// observed here, so a concurrent move cannot smuggle in an illegal
// transition.
func (s *documentService) UpdateStatus(ctx context.Context, id string, to model.Status, actor Actor) error {
	if id == "" {
		return ErrIDRequired
	}
	if !model.ValidStatus(to) {
		return &InvalidTransitionError{To: to}
	}

	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	approve := to == model.StatusApproved
	if approve && !model.PermissionsFor(actor.Role).CanApprove {
		return &PermissionError{Role: actor.Role, Op: "approve documents"}
	}
	if !model.CanTransition(doc.Status, to) {
		return &InvalidTransitionError{From: doc.Status, To: to}
	}

	updated, err := s.repo.UpdateStatus(ctx, repository.StatusUpdate{
		ID:      id,
		From:    doc.Status,
		To:      to,
		ActorID: actor.ID,
		At:      time.Now().UTC(),
		Approve: approve,
	})
	if err != nil {
		return err
	}
	if !updated {
		// The record moved (or vanished) between the read and the write.
		if _, ferr := s.repo.FindByID(ctx, id); errors.Is(ferr, sql.ErrNoRows) {
			return ErrNotFound
		}
		return &InvalidTransitionError{From: doc.Status, To: to}
	}
	return nil
}

// Delete removes every stored version before the metadata record. If the
// storage delete fails, the record stays intact so the caller can retry;
// a dangling storage path must never outlive its objects.
func (s *documentService) Delete(ctx context.Context, id string, actor Actor) error {
	if id == "" {
		return ErrIDRequired
	}
	if !model.PermissionsFor(actor.Role).CanDelete {
		return &PermissionError{Role: actor.Role, Op: "delete documents"}
	}

	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	prefix := storage.DocumentPrefix(doc.Category, doc.ID)
	if err := s.store.DeleteAll(ctx, prefix); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.urlCache.Remove(id)
	return nil
}

// DownloadURL returns a presigned retrieval URL, cached per document.
func (s *documentService) DownloadURL(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", ErrIDRequired
	}
	if u, ok := s.urlCache.Get(id); ok {
		return u, nil
	}

	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}

	u, err := s.store.PresignGet(ctx, doc.StoragePath, s.opts.PresignExpiry)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	s.urlCache.Add(id, u)
	return u, nil
}

// RecordView bumps the view counter; failures never block the viewing flow.
func (s *documentService) RecordView(ctx context.Context, id string) {
	if err := s.repo.IncrementCounter(ctx, id, repository.CounterView); err != nil {
		logNonCritical("view_count_increment_failed", id, err)
	}
}

// RecordDownload bumps the download counter; failures never block the flow.
func (s *documentService) RecordDownload(ctx context.Context, id string) {
	if err := s.repo.IncrementCounter(ctx, id, repository.CounterDownload); err != nil {
		logNonCritical("download_count_increment_failed", id, err)
	}
}

// Rate folds one star rating into the document's rating counters.
func (s *documentService) Rate(ctx context.Context, id string, stars int) error {
	if id == "" {
		return ErrIDRequired
	}
	if stars < 1 || stars > 5 {
		return &ValidationError{Fields: validate.FieldErrors{
			{Field: "rating", Message: "la note doit être entre 1 et 5"},
		}}
	}
	if err := s.repo.AddRating(ctx, id, stars); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// logNonCritical writes a one-line JSON log for swallowed errors, matching
// the request logger's output shape.
func logNonCritical(event, documentID string, err error) {
	entry := map[string]any{
		"ts":          time.Now().UTC().Format(time.RFC3339Nano),
		"level":       "warn",
		"event":       event,
		"document_id": documentID,
		"error":       err.Error(),
	}
	if b, mErr := json.Marshal(entry); mErr == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
