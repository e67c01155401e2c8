package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stroketraining/internal/model"
	"stroketraining/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of
// repository.DocumentRepository. It uses database/sql with parameterized
// queries and contains no business logic. Tags, keywords and allowed roles
// are stored as JSONB.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `
	id, title, description, summary, category, tags, keywords, priority,
	language, cme_credits, original_filename, stored_filename, content_type,
	size, storage_path, download_url, version, is_public, allowed_roles,
	requires_approval, embargo_until, expires_at, status, created_by,
	created_at, updated_by, updated_at, approved_by, approved_at,
	view_count, download_count, rating_sum, rating_count`

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	tags, err := json.Marshal(orEmpty(doc.Tags))
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	keywords, err := json.Marshal(orEmpty(doc.Keywords))
	if err != nil {
		return nil, fmt.Errorf("marshal keywords: %w", err)
	}
	roles := doc.Access.AllowedRoles
	if roles == nil {
		roles = []model.Role{}
	}
	allowedRoles, err := json.Marshal(roles)
	if err != nil {
		return nil, fmt.Errorf("marshal allowed roles: %w", err)
	}

	q := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27,
			$28, $29, $30, $31, $32, $33)
		RETURNING ` + documentColumns

	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Title,
		doc.Description,
		doc.Summary,
		doc.Category,
		tags,
		keywords,
		doc.Priority,
		doc.Language,
		doc.CMECredits,
		doc.OriginalFilename,
		doc.StoredFilename,
		doc.ContentType,
		doc.Size,
		doc.StoragePath,
		doc.DownloadURL,
		doc.Version,
		doc.Access.IsPublic,
		allowedRoles,
		doc.Access.RequiresApproval,
		doc.Access.EmbargoUntil,
		doc.Access.ExpiresAt,
		doc.Status,
		doc.CreatedBy,
		doc.CreatedAt,
		doc.UpdatedBy,
		doc.UpdatedAt,
		doc.ApprovedBy,
		doc.ApprovedAt,
		doc.ViewCount,
		doc.DownloadCount,
		doc.RatingSum,
		doc.RatingCount,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// List returns documents matching the filter, newest-created-first.
// Filters are combined as a conjunction; zero values are skipped.
func (r *DocumentPostgres) List(ctx context.Context, f repository.ListFilter) ([]model.Document, error) {
	var (
		conds []string
		args  []any
	)
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.CreatedBy != "" {
		args = append(args, f.CreatedBy)
		conds = append(conds, fmt.Sprintf("created_by = $%d", len(args)))
	}

	q := `SELECT ` + documentColumns + ` FROM documents`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, f.Limit)
	q += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateStatus writes the new status conditionally on the previously observed
// one, stamping actor/time and (for approvals) the approval fields in the same
// statement.
func (r *DocumentPostgres) UpdateStatus(ctx context.Context, u repository.StatusUpdate) (bool, error) {
	const q = `
		UPDATE documents
		SET status = $1,
		    updated_by = $2,
		    updated_at = $3,
		    approved_by = CASE WHEN $4 THEN $2 ELSE approved_by END,
		    approved_at = CASE WHEN $4 THEN $3 ELSE approved_at END
		WHERE id = $5 AND status = $6
	`
	res, err := r.db.ExecContext(ctx, q, u.To, u.ActorID, u.At, u.Approve, u.ID, u.From)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IncrementCounter bumps the counter atomically server-side; a retried call
// observes the already-applied increment instead of a stale read.
func (r *DocumentPostgres) IncrementCounter(ctx context.Context, id string, c repository.Counter) error {
	var col string
	switch c {
	case repository.CounterView:
		col = "view_count"
	case repository.CounterDownload:
		col = "download_count"
	default:
		return fmt.Errorf("unknown counter %q", c)
	}
	q := fmt.Sprintf(`UPDATE documents SET %s = %s + 1 WHERE id = $1`, col, col)
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddRating folds one star rating into the running sum and count.
func (r *DocumentPostgres) AddRating(ctx context.Context, id string, stars int) error {
	const q = `
		UPDATE documents
		SET rating_sum = rating_sum + $1, rating_count = rating_count + 1
		WHERE id = $2
	`
	res, err := r.db.ExecContext(ctx, q, stars, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a document row by ID. It does not return an error if the
// row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d            model.Document
		tags         []byte
		keywords     []byte
		allowedRoles []byte
		embargoUntil sql.NullTime
		expiresAt    sql.NullTime
		updatedAt    sql.NullTime
		approvedAt   sql.NullTime
	)
	if err := row.Scan(
		&d.ID,
		&d.Title,
		&d.Description,
		&d.Summary,
		&d.Category,
		&tags,
		&keywords,
		&d.Priority,
		&d.Language,
		&d.CMECredits,
		&d.OriginalFilename,
		&d.StoredFilename,
		&d.ContentType,
		&d.Size,
		&d.StoragePath,
		&d.DownloadURL,
		&d.Version,
		&d.Access.IsPublic,
		&allowedRoles,
		&d.Access.RequiresApproval,
		&embargoUntil,
		&expiresAt,
		&d.Status,
		&d.CreatedBy,
		&d.CreatedAt,
		&d.UpdatedBy,
		&updatedAt,
		&d.ApprovedBy,
		&approvedAt,
		&d.ViewCount,
		&d.DownloadCount,
		&d.RatingSum,
		&d.RatingCount,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(tags, &d.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if err := json.Unmarshal(keywords, &d.Keywords); err != nil {
		return nil, fmt.Errorf("unmarshal keywords: %w", err)
	}
	if err := json.Unmarshal(allowedRoles, &d.Access.AllowedRoles); err != nil {
		return nil, fmt.Errorf("unmarshal allowed roles: %w", err)
	}

	d.Access.EmbargoUntil = timePtr(embargoUntil)
	d.Access.ExpiresAt = timePtr(expiresAt)
	d.UpdatedAt = timePtr(updatedAt)
	d.ApprovedAt = timePtr(approvedAt)

	return &d, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
