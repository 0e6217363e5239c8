package handler

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docingest/internal/http/middleware"
	"docingest/internal/model"
	"docingest/internal/service"
	"docingest/internal/storage"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers only translate between HTTP and IngestService.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.IngestService, log *zap.Logger) {
	app.Get("/docs", DocsPage())
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	upload := middleware.RequireMultipart()
	app.Post("/prescriptions", upload, CreateDocument(svc, model.KindPrescription, log))
	app.Post("/prescriptions/:id/images", upload, AppendImages(svc, model.KindPrescription, log))
	app.Post("/reports", upload, CreateDocument(svc, model.KindReport, log))
	app.Post("/reports/:id/images", upload, AppendImages(svc, model.KindReport, log))
	app.Post("/profile/image", upload, UploadProfileImage(svc, log))

	app.Get("/shared", SharedDocuments(svc, log))
	app.Get("/"+storage.CollectionUploads+"/:name", ServeFile(svc, storage.CollectionUploads, log))
	app.Get("/"+storage.CollectionProfiles+"/:name", ServeFile(svc, storage.CollectionProfiles, log))
}

// HealthCheck reports whether the database answers.
//
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
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

// LivenessProbe is a simple liveness probe.
//
// @Summary Liveness probe
// @Tags health
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

type documentResponse struct {
	Message    string                  `json:"message"`
	DocumentID int64                   `json:"document_id"`
	Kind       model.Kind              `json:"kind"`
	Fields     map[model.Field]*string `json:"auto_filled_data"`
	AutoFilled []model.Field           `json:"auto_filled_fields"`
	Images     []model.ImageRecord     `json:"images"`
}

type appendResponse struct {
	Message    string              `json:"message"`
	DocumentID int64               `json:"document_id"`
	Kind       model.Kind          `json:"kind"`
	Images     []model.ImageRecord `json:"images"`
}

// CreateDocument handles a batch upload that creates a new document of kind.
// Multipart fields: accessToken, member_id, image (repeated) and the optional
// document fields of kind.
//
// @Summary Upload a new prescription or report
// @Description Every image is classified; the batch is stored only when all of them match the document type. Empty schema fields are filled from the classifier consensus, "null" clears a field.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param accessToken formData string false "Access token, or use the Authorization header"
// @Param member_id formData int true "Family member id"
// @Param image formData file true "Document image (repeatable)"
// @Param title formData string false "Title"
// @Param shared formData boolean false "Shared with the family"
// @Param department formData string false "Prescription department"
// @Param doctor_name formData string false "Prescription doctor"
// @Param visited_date formData string false "Prescription visit date (YYYY-MM-DD)"
// @Param test_name formData string false "Report test name"
// @Param deliveryDate formData string false "Report delivery date (YYYY-MM-DD)"
// @Param normal_or_not formData string false "Report result flag"
// @Param prescription_id formData int false "Parent prescription of a report"
// @Success 201 {object} documentResponse
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /prescriptions [post]
// @Router /reports [post]
func CreateDocument(svc service.IngestService, kind model.Kind, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := parseUpload(c)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		fields, err := parseFields(kind, form.values)
		if err != nil {
			return writeServiceError(c, log, err)
		}

		res, err := svc.IngestNewDocument(c.UserContext(), service.NewDocumentRequest{
			Token:    form.token,
			MemberID: form.memberID,
			Kind:     kind,
			Fields:   fields,
			Images:   form.images,
		})
		if err != nil {
			return writeServiceError(c, log, err)
		}

		data := make(map[model.Field]*string)
		for _, f := range kind.Fields() {
			data[f] = res.Fields.Values[f]
		}
		autoFilled := res.AutoFilled
		if autoFilled == nil {
			autoFilled = []model.Field{}
		}
		return c.Status(fiber.StatusCreated).JSON(documentResponse{
			Message:    kindTitle(kind) + " uploaded successfully.",
			DocumentID: res.DocumentID,
			Kind:       kind,
			Fields:     data,
			AutoFilled: autoFilled,
			Images:     res.Images,
		})
	}
}

// AppendImages handles a batch upload appended to document :id of kind.
//
// @Summary Append images to an existing document
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Document id"
// @Param accessToken formData string false "Access token, or use the Authorization header"
// @Param member_id formData int true "Family member id"
// @Param image formData file true "Document image (repeatable)"
// @Success 201 {object} appendResponse
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /prescriptions/{id}/images [post]
// @Router /reports/{id}/images [post]
func AppendImages(svc service.IngestService, kind model.Kind, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || id <= 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		form, err := parseUpload(c)
		if err != nil {
			return writeServiceError(c, log, err)
		}

		res, err := svc.IngestAppendImages(c.UserContext(), service.AppendRequest{
			Token:      form.token,
			MemberID:   form.memberID,
			Kind:       kind,
			DocumentID: id,
			Images:     form.images,
		})
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(appendResponse{
			Message:    "Images appended successfully to " + string(kind) + ".",
			DocumentID: res.DocumentID,
			Kind:       kind,
			Images:     res.Images,
		})
	}
}

type sharedResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	model.SharedDocuments
}

// SharedDocuments resolves ?token= into the member's shared documents.
//
// @Summary List shared documents
// @Tags sharing
// @Produce json
// @Param token query string true "Share token"
// @Success 200 {object} sharedResponse
// @Failure 403 {object} errorPayload
// @Router /shared [get]
func SharedDocuments(svc service.IngestService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.SharedDocuments(c.UserContext(), c.Query("token"))
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(sharedResponse{
			AccessToken:     res.FileToken,
			ExpiresAt:       res.ExpiresAt,
			SharedDocuments: res.Documents,
		})
	}
}

// UploadProfileImage replaces the member's profile picture with the single
// uploaded image.
//
// @Summary Replace the profile picture
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Param accessToken formData string false "Access token, or use the Authorization header"
// @Param member_id formData int true "Family member id"
// @Param image formData file true "Profile image"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Router /profile/image [post]
func UploadProfileImage(svc service.IngestService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := parseUpload(c)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		if len(form.images) != 1 {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "exactly one image is required")
		}

		res, err := svc.UploadProfileImage(c.UserContext(), service.ProfileRequest{
			Token:    form.token,
			MemberID: form.memberID,
			Image:    form.images[0],
		})
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(fiber.Map{
			"message":           "Profile picture uploaded successfully.",
			"profile_image_url": res.ProfileImageURL,
		})
	}
}

// ServeFile streams /<collection>/:name to holders of a valid token, passed
// as ?token= or in the Authorization header.
//
// @Summary Download a stored image
// @Tags files
// @Produce png
// @Param name path string true "File name"
// @Param token query string false "Access or file token"
// @Success 200 {file} binary
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /uploads/{name} [get]
// @Router /profiles/{name} [get]
func ServeFile(svc service.IngestService, collection string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			token = c.Get(fiber.HeaderAuthorization)
		}
		rc, info, err := svc.OpenFile(c.UserContext(), token, storage.PublicPath(storage.Key(collection, c.Params("name"))))
		if err != nil {
			return writeServiceError(c, log, err)
		}
		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		c.Set(fiber.HeaderCacheControl, "private, max-age=300")
		size := -1
		if info.Size > 0 {
			size = int(info.Size)
		}
		return c.SendStream(rc, size)
	}
}

func kindTitle(k model.Kind) string {
	s := string(k)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
