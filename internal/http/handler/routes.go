package handler

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"regexp"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stroketraining/internal/http/middleware"
	"stroketraining/internal/model"
	"stroketraining/internal/service"
)

// documentIDPattern matches the identifiers issued at upload time.
var documentIDPattern = regexp.MustCompile(`^doc_[0-9]+_[a-z0-9]+$`)

// UploadObserver records upload outcomes for metrics. May be nil.
type UploadObserver interface {
	ObserveUpload(outcome string, bytes int64)
}

// HealthCheck reports readiness by pinging the database.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness endpoint with no dependency checks.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListDocuments returns documents filtered by category, status and creator.
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := 0
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
			}
			limit = n
		}

		opts := service.ListOptions{
			Category:  model.Category(c.Query("category")),
			Status:    model.Status(c.Query("status")),
			CreatedBy: c.Query("created_by"),
			Limit:     limit,
		}
		if opts.Category != "" && !model.ValidCategory(opts.Category) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_CATEGORY", "unknown category")
		}
		if opts.Status != "" && !model.ValidStatus(opts.Status) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_STATUS", "unknown status")
		}

		docs, err := svc.List(c.UserContext(), opts)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"items": docs, "count": len(docs)})
	}
}

// UploadDocuments accepts a multipart batch: a "metadata" form field holding
// the shared document metadata as JSON, plus one or more "files" parts.
// Partial failure is a normal response, not an error status: each file's
// outcome is reported in the returned task list.
func UploadDocuments(svc service.DocumentService, obs UploadObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FORM", "multipart form expected")
		}

		var meta service.DocumentInput
		metaVals := form.Value["metadata"]
		if len(metaVals) == 0 {
			return writeError(c, fiber.StatusBadRequest, "METADATA_REQUIRED", "metadata field is required")
		}
		if err := json.Unmarshal([]byte(metaVals[0]), &meta); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_METADATA", "metadata is not valid JSON")
		}

		fhs := form.File["files"]
		if len(fhs) == 0 {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "at least one file is required")
		}

		files := make([]service.FileUpload, 0, len(fhs))
		closers := make([]func() error, 0, len(fhs))
		defer func() {
			for _, cl := range closers {
				_ = cl()
			}
		}()
		for _, fh := range fhs {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			closers = append(closers, f.Close)

			ct := fh.Header.Get(fiber.HeaderContentType)
			if ct == "" {
				ct = fiber.MIMEOctetStream
			}
			files = append(files, service.FileUpload{
				Filename:    fh.Filename,
				ContentType: ct,
				Size:        fh.Size,
				Content:     f,
			})
		}

		actor := middleware.ActorFromCtx(c)
		res, err := svc.UploadBatch(c.UserContext(), actor, meta, files, nil)
		if err != nil {
			return writeServiceError(c, err)
		}

		if obs != nil {
			for i, task := range res.Tasks {
				obs.ObserveUpload(string(task.Status), fhs[i].Size)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// GetDocument returns a document by ID.
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if !documentIDPattern.MatchString(id) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument removes a document's stored objects and metadata record.
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if !documentIDPattern.MatchString(id) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id, middleware.ActorFromCtx(c)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UpdateDocumentStatus moves a document through the review workflow.
func UpdateDocumentStatus(svc service.DocumentService) fiber.Handler {
	type statusRequest struct {
		Status model.Status `json:"status"`
	}
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if !documentIDPattern.MatchString(id) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body statusRequest
		if err := c.BodyParser(&body); err != nil || body.Status == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_STATUS", "status field is required")
		}
		if err := svc.UpdateStatus(c.UserContext(), id, body.Status, middleware.ActorFromCtx(c)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DownloadDocument redirects to a time-limited retrieval URL and records the
// download. The counter bump is best-effort and never blocks the redirect.
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if !documentIDPattern.MatchString(id) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		url, err := svc.DownloadURL(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		svc.RecordDownload(c.UserContext(), id)
		return c.Redirect(url, fiber.StatusFound)
	}
}

// TrackView records one view of a document.
func TrackView(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if !documentIDPattern.MatchString(id) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		svc.RecordView(c.UserContext(), id)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// RateDocument folds one star rating into the document's rating counters.
func RateDocument(svc service.DocumentService) fiber.Handler {
	type ratingRequest struct {
		Rating int `json:"rating"`
	}
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if !documentIDPattern.MatchString(id) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body ratingRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_RATING", "rating field is required")
		}
		if err := svc.Rate(c.UserContext(), id, body.Rating); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

//go:embed openapi.yaml
var openapiSpec []byte

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.DocumentService, obs UploadObserver) {
	// Serve the OpenAPI spec and Swagger UI.
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.Send(openapiSpec)
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/documents", ListDocuments(svc))
	app.Post("/documents", UploadDocuments(svc, obs))
	app.Get("/documents/:id", GetDocument(svc))
	app.Delete("/documents/:id", DeleteDocument(svc))
	app.Patch("/documents/:id/status", UpdateDocumentStatus(svc))
	app.Get("/documents/:id/download", DownloadDocument(svc))
	app.Post("/documents/:id/view", TrackView(svc))
	app.Post("/documents/:id/rating", RateDocument(svc))
}
