package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"stroketraining/internal/model"
	"stroketraining/internal/storage"
	"stroketraining/internal/validate"
)

// DocumentInput is the user-supplied descriptive metadata of an upload batch.
// It is validated once at ingress; all files of a batch share it.
type DocumentInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Summary     string         `json:"summary"`
	Category    model.Category `json:"category"`
	Tags        []string       `json:"tags"`
	Keywords    []string       `json:"keywords"`
	Priority    model.Priority `json:"priority"`
	Language    string         `json:"language"`
	CMECredits  int            `json:"cme_credits"`
	Access      model.Access   `json:"access"`
}

// FileUpload is one file of a batch. TaskID keys progress updates; when
// empty the orchestrator assigns one.
type FileUpload struct {
	TaskID      string
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// TaskStatus is the terminal-or-transient state of one upload task.
type TaskStatus string

const (
	TaskUploading  TaskStatus = "uploading"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskError      TaskStatus = "error"
)

// UploadTask tracks one file mid-flight. It exists only for the lifetime of
// one batch; each task reaches exactly one terminal state (completed or
// error).
type UploadTask struct {
	ID         string           `json:"id"`
	Filename   string           `json:"filename"`
	Status     TaskStatus       `json:"status"`
	Progress   storage.Progress `json:"progress"`
	DocumentID string           `json:"document_id,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// ProgressFunc relays per-file transfer progress, keyed by task ID because
// files in a batch carry no ordering guarantee relative to each other.
type ProgressFunc func(taskID string, p storage.Progress)

// BatchResult is the consolidated outcome of one upload batch.
type BatchResult struct {
	DocumentIDs []string     `json:"document_ids"`
	Tasks       []UploadTask `json:"tasks"`
}

// NewDocumentID generates the identifier joining a storage object with its
// metadata record: doc_<millisecond-timestamp>_<random-base36-suffix>.
func NewDocumentID() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	var buf [9]byte
	_, _ = rand.Read(buf[:])
	suffix := make([]byte, len(buf))
	for i, b := range buf {
		suffix[i] = alphabet[int(b)%len(alphabet)]
	}
	return fmt.Sprintf("doc_%d_%s", time.Now().UnixMilli(), suffix)
}

// UploadBatch drives the batch through validate, transfer and persist.
//
// Whole-batch prechecks (permission, batch size, metadata fields) fail before
// any I/O. After that each file is processed independently: a failure marks
// its task as error and the batch continues; siblings that succeeded are not
// rolled back. Within one file, the transfer must have completed before the
// metadata record is written, so a record never references an object that is
// not durably stored.
func (s *documentService) UploadBatch(ctx context.Context, actor Actor, meta DocumentInput, files []FileUpload, onProgress ProgressFunc) (*BatchResult, error) {
	perm := model.PermissionsFor(actor.Role)
	if !perm.CanUpload {
		return nil, &PermissionError{Role: actor.Role, Op: "upload documents"}
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if len(files) > s.opts.MaxBatchFiles {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(files), s.opts.MaxBatchFiles)
	}
	if !perm.MayAssignCategory(meta.Category) {
		return nil, &PermissionError{Role: actor.Role, Op: fmt.Sprintf("assign category %q", meta.Category)}
	}
	if ferrs := validate.Fields(validate.Metadata{
		Title:        meta.Title,
		Description:  meta.Description,
		Summary:      meta.Summary,
		Category:     meta.Category,
		Tags:         meta.Tags,
		Keywords:     meta.Keywords,
		Priority:     meta.Priority,
		Language:     meta.Language,
		CMECredits:   meta.CMECredits,
		EmbargoUntil: meta.Access.EmbargoUntil,
		ExpiresAt:    meta.Access.ExpiresAt,
	}); len(ferrs) > 0 {
		return nil, &ValidationError{Fields: ferrs}
	}

	res := &BatchResult{DocumentIDs: make([]string, 0, len(files))}
	for _, f := range files {
		task := s.uploadOne(ctx, actor, meta, f, onProgress)
		if task.Status == TaskCompleted {
			res.DocumentIDs = append(res.DocumentIDs, task.DocumentID)
		}
		res.Tasks = append(res.Tasks, task)
	}
	return res, nil
}

// uploadOne runs one file's pipeline to its single terminal state.
func (s *documentService) uploadOne(ctx context.Context, actor Actor, meta DocumentInput, f FileUpload, onProgress ProgressFunc) UploadTask {
	task := UploadTask{
		ID:       f.TaskID,
		Filename: f.Filename,
		Status:   TaskUploading,
		Progress: storage.Progress{TotalBytes: f.Size},
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	fail := func(msg string) UploadTask {
		task.Status = TaskError
		task.Error = msg
		return task
	}

	// Pre-flight checks, no network.
	if !validate.FileType(f.ContentType) {
		return fail("Type de fichier non supporté")
	}
	if err := validate.FileSize(f.Size, f.ContentType, actor.Role); err != nil {
		return fail(err.Error())
	}
	if f.Content == nil {
		return fail("Fichier illisible")
	}

	docID := NewDocumentID()
	storedName := storage.SanitizeFileName(f.Filename)
	const version = 1
	path := storage.DocumentPath(meta.Category, docID, version, storedName)

	putCtx := ctx
	if s.opts.UploadTimeout > 0 {
		var cancel context.CancelFunc
		putCtx, cancel = context.WithTimeout(ctx, s.opts.UploadTimeout)
		defer cancel()
	}

	info, err := s.store.Put(putCtx, path, f.Content, storage.PutObjectOptions{
		Size:        f.Size,
		ContentType: f.ContentType,
		Metadata: map[string]string{
			"original-filename": f.Filename,
			"document-id":       docID,
			"uploaded-by":       actor.ID,
		},
		OnProgress: func(p storage.Progress) {
			task.Progress = p
			if onProgress != nil {
				onProgress(task.ID, p)
			}
		},
	})
	if err != nil {
		var te *storage.TransferError
		if errors.As(err, &te) {
			return fail(te.Kind.Message())
		}
		return fail(storage.TransferUnknown.Message())
	}

	// Transfer confirmed durable; now persist metadata.
	task.Status = TaskProcessing

	url, err := s.store.PresignGet(ctx, path, s.opts.PresignExpiry)
	if err != nil {
		// No retrieval URL means the document would be unreachable. Remove
		// the object rather than leaving an orphan.
		s.rollbackObject(ctx, path)
		return fail(storage.TransferUnknown.Message())
	}

	doc := &model.Document{
		ID:               docID,
		Title:            meta.Title,
		Description:      meta.Description,
		Summary:          meta.Summary,
		Category:         meta.Category,
		Tags:             meta.Tags,
		Keywords:         meta.Keywords,
		Priority:         meta.Priority,
		Language:         meta.Language,
		CMECredits:       meta.CMECredits,
		OriginalFilename: f.Filename,
		StoredFilename:   storedName,
		ContentType:      f.ContentType,
		Size:             info.Size,
		StoragePath:      path,
		DownloadURL:      url,
		Version:          version,
		Access:           meta.Access,
		Status:           model.StatusDraft,
		CreatedBy:        actor.ID,
		CreatedAt:        time.Now().UTC(),
	}

	if _, err := s.repo.Create(ctx, doc); err != nil {
		s.rollbackObject(ctx, path)
		return fail("Échec de l'enregistrement du document")
	}

	s.urlCache.Add(docID, url)
	task.Status = TaskCompleted
	task.DocumentID = docID
	return task
}

// rollbackObject deletes an object whose metadata write failed; a leftover
// error is logged only, the original failure is what the caller sees.
func (s *documentService) rollbackObject(ctx context.Context, path string) {
	if err := s.store.Delete(ctx, path); err != nil {
		logNonCritical("upload_rollback_failed", path, err)
	}
}
