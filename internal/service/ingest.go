package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docingest/internal/auth"
	"docingest/internal/classifier"
	"docingest/internal/events"
	"docingest/internal/metadata"
	"docingest/internal/metrics"
	"docingest/internal/model"
	"docingest/internal/repository"
	"docingest/internal/storage"
)

// Default upload limits.
const (
	DefaultMaxFiles    = 10
	DefaultMaxFileSize = 10 << 20
	DefaultConcurrency = 4
)

const dateLayout = "2006-01-02"

var allowedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// canonicalMediaType lowercases mt, drops any parameters and maps the
// non-standard image/jpg onto image/jpeg.
func canonicalMediaType(mt string) string {
	mt = strings.ToLower(strings.TrimSpace(mt))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "image/jpg" {
		return "image/jpeg"
	}
	return mt
}

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".webp": true,
}

const reasonUndecodable = "file is not a readable image"

// Pipeline states, logged as a batch moves through them.
const (
	stateReceived    = "received"
	stateProcessing  = "processing"
	stateValidating  = "validating"
	stateAggregating = "aggregating"
	statePersisting  = "persisting"
	stateCommitted   = "committed"
	stateRolledBack  = "rolled_back"
)

// Generator produces the stored derivatives of an image.
// *derivative.Generator satisfies it.
type Generator interface {
	Generate(input model.ImageInput, ownerID int64) (*model.DerivativeSet, error)
	Normalize(input model.ImageInput, ownerID int64) (*model.Derivative, error)
}

// Classifier labels one image. *classifier.Adapter satisfies it.
type Classifier interface {
	Classify(ctx context.Context, data []byte, mediaType string) model.Verdict
}

// FileTokens issues and checks file-access tokens. *auth.JWT satisfies it.
type FileTokens interface {
	IssueFileToken(userID int64, ttl time.Duration) (string, error)
	VerifyFileToken(token string) (int64, error)
}

// NewDocumentRequest asks for a new document built from a batch of images.
type NewDocumentRequest struct {
	Token    string
	MemberID int64
	Kind     model.Kind
	Fields   model.DocumentFields
	Images   []model.ImageInput
}

// IngestResult describes a committed new document.
type IngestResult struct {
	DocumentID int64
	Kind       model.Kind
	Fields     model.DocumentFields
	AutoFilled []model.Field
	Images     []model.ImageRecord
}

// AppendRequest asks for images to be added to an existing document.
type AppendRequest struct {
	Token      string
	MemberID   int64
	Kind       model.Kind
	DocumentID int64
	Images     []model.ImageInput
}

// AppendResult describes images committed to an existing document.
type AppendResult struct {
	DocumentID int64
	Kind       model.Kind
	Images     []model.ImageRecord
}

// IngestService defines the ingestion use cases.
type IngestService interface {
	// IngestNewDocument classifies every image of the batch and, if all of
	// them match req.Kind, stores a new document with the images. Fields the
	// caller left absent are filled from the batch when the images agree.
	IngestNewDocument(ctx context.Context, req NewDocumentRequest) (*IngestResult, error)

	// IngestAppendImages adds a batch to an existing document of the member.
	IngestAppendImages(ctx context.Context, req AppendRequest) (*AppendResult, error)

	// SharedDocuments resolves a share token into the member's shared documents.
	SharedDocuments(ctx context.Context, token string) (*SharedResult, error)

	// UploadProfileImage replaces the member's profile picture.
	UploadProfileImage(ctx context.Context, req ProfileRequest) (*ProfileResult, error)

	// OpenFile streams a stored derivative to a holder of a valid token.
	OpenFile(ctx context.Context, token, publicPath string) (io.ReadCloser, storage.ObjectInfo, error)
}

// Limits bound the size of a batch and the per-batch parallelism.
type Limits struct {
	MaxFiles    int
	MaxFileSize int64
	Concurrency int
}

// Deps are the collaborators of the ingestion service.
type Deps struct {
	Generator  Generator
	Classifier Classifier
	Store      repository.Store
	Files      storage.Storage
	Auth       auth.Authenticator
	Tokens     FileTokens
	Events     events.Publisher
	Metrics    *metrics.Ingestion
	Log        *zap.Logger
}

// ingestService is the concrete implementation of IngestService. It keeps no
// per-batch state.
type ingestService struct {
	gen        Generator
	classifier Classifier
	store      repository.Store
	files      storage.Storage
	auth       auth.Authenticator
	tokens     FileTokens
	events     events.Publisher
	metrics    *metrics.Ingestion
	log        *zap.Logger
	tracer     trace.Tracer
	limits     Limits
	now        func() time.Time
}

// NewIngestService constructs a new IngestService. Zero limits take defaults.
func NewIngestService(d Deps, l Limits) IngestService {
	if l.MaxFiles <= 0 {
		l.MaxFiles = DefaultMaxFiles
	}
	if l.MaxFileSize <= 0 {
		l.MaxFileSize = DefaultMaxFileSize
	}
	if l.Concurrency <= 0 {
		l.Concurrency = DefaultConcurrency
	}
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &ingestService{
		gen:        d.Generator,
		classifier: d.Classifier,
		store:      d.Store,
		files:      d.Files,
		auth:       d.Auth,
		tokens:     d.Tokens,
		events:     d.Events,
		metrics:    d.Metrics,
		log:        d.Log,
		tracer:     otel.Tracer("docingest/service"),
		limits:     l,
		now:        time.Now,
	}
}

func (s *ingestService) IngestNewDocument(ctx context.Context, req NewDocumentRequest) (*IngestResult, error) {
	const op = "ingest new document"
	ctx, span := s.tracer.Start(ctx, "service.IngestNewDocument", trace.WithAttributes(
		attribute.String("kind", string(req.Kind)),
		attribute.Int64("member_id", req.MemberID),
		attribute.Int("images", len(req.Images)),
	))
	defer span.End()

	start := s.now()
	log := s.log.With(zap.String("op", op), zap.String("kind", string(req.Kind)), zap.Int64("member_id", req.MemberID))
	log.Debug("batch state", zap.String("state", stateReceived), zap.Int("images", len(req.Images)))

	if err := s.validateBatch(req.Kind, req.MemberID, req.Images); err != nil {
		return nil, err
	}
	if err := validateFields(req.Kind, req.Fields); err != nil {
		return nil, err
	}
	id, err := s.authenticate(ctx, op, req.Token, req.MemberID)
	if err != nil {
		return nil, err
	}
	if req.Kind == model.KindReport && req.Fields.PrescriptionID != nil {
		if _, err := s.ownedDocument(ctx, op, model.KindPrescription, *req.Fields.PrescriptionID, req.MemberID); err != nil {
			return nil, err
		}
	}

	log.Debug("batch state", zap.String("state", stateProcessing))
	results := s.process(ctx, id.UserID, req.Images)

	log.Debug("batch state", zap.String("state", stateValidating))
	sets, verdicts, rejection := partition(req.Kind, req.Images, results)
	if rejection != nil {
		s.finish(log, req.Kind, metrics.OutcomeRejected, start)
		return nil, rejection
	}

	log.Debug("batch state", zap.String("state", stateAggregating))
	aggregated := metadata.Aggregate(req.Kind, verdicts)
	fields := metadata.Merge(req.Kind, req.Fields, aggregated)
	autoFilled := metadata.AutoFilled(req.Kind, req.Fields, aggregated)

	log.Debug("batch state", zap.String("state", statePersisting))
	docID, images, err := s.persist(ctx, op, target{kind: req.Kind, memberID: req.MemberID, fields: fields}, sets)
	if err != nil {
		span.RecordError(err)
		s.finish(log, req.Kind, metrics.OutcomeRolledBack, start)
		return nil, err
	}
	s.finish(log, req.Kind, metrics.OutcomeCommitted, start)
	s.metrics.ImagesStored(string(req.Kind), len(images))
	s.announce(ctx, log, req.Kind, docID, req.MemberID, images, false)

	return &IngestResult{
		DocumentID: docID,
		Kind:       req.Kind,
		Fields:     fields,
		AutoFilled: autoFilled,
		Images:     images,
	}, nil
}

func (s *ingestService) IngestAppendImages(ctx context.Context, req AppendRequest) (*AppendResult, error) {
	const op = "append images"
	ctx, span := s.tracer.Start(ctx, "service.IngestAppendImages", trace.WithAttributes(
		attribute.String("kind", string(req.Kind)),
		attribute.Int64("member_id", req.MemberID),
		attribute.Int64("document_id", req.DocumentID),
		attribute.Int("images", len(req.Images)),
	))
	defer span.End()

	start := s.now()
	log := s.log.With(zap.String("op", op), zap.String("kind", string(req.Kind)),
		zap.Int64("member_id", req.MemberID), zap.Int64("document_id", req.DocumentID))
	log.Debug("batch state", zap.String("state", stateReceived), zap.Int("images", len(req.Images)))

	if err := s.validateBatch(req.Kind, req.MemberID, req.Images); err != nil {
		return nil, err
	}
	if req.DocumentID <= 0 {
		return nil, invalid("document id must be a positive integer")
	}
	id, err := s.authenticate(ctx, op, req.Token, req.MemberID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedDocument(ctx, op, req.Kind, req.DocumentID, req.MemberID); err != nil {
		return nil, err
	}

	log.Debug("batch state", zap.String("state", stateProcessing))
	results := s.process(ctx, id.UserID, req.Images)

	log.Debug("batch state", zap.String("state", stateValidating))
	sets, _, rejection := partition(req.Kind, req.Images, results)
	if rejection != nil {
		s.finish(log, req.Kind, metrics.OutcomeRejected, start)
		return nil, rejection
	}

	log.Debug("batch state", zap.String("state", statePersisting))
	docID, images, err := s.persist(ctx, op, target{kind: req.Kind, memberID: req.MemberID, documentID: req.DocumentID}, sets)
	if err != nil {
		span.RecordError(err)
		s.finish(log, req.Kind, metrics.OutcomeRolledBack, start)
		return nil, err
	}
	s.finish(log, req.Kind, metrics.OutcomeCommitted, start)
	s.metrics.ImagesStored(string(req.Kind), len(images))
	s.announce(ctx, log, req.Kind, docID, req.MemberID, images, true)

	return &AppendResult{DocumentID: docID, Kind: req.Kind, Images: images}, nil
}

func (s *ingestService) validateBatch(kind model.Kind, memberID int64, images []model.ImageInput) error {
	if !kind.Storable() {
		return invalid("unsupported document kind %q", kind)
	}
	if memberID <= 0 {
		return invalid("member_id must be a positive integer")
	}
	if len(images) == 0 {
		return invalid("no files uploaded")
	}
	if len(images) > s.limits.MaxFiles {
		return invalid("you can only upload a maximum of %d files", s.limits.MaxFiles)
	}
	for _, img := range images {
		if err := s.validateImage(img); err != nil {
			return err
		}
	}
	return nil
}

func (s *ingestService) validateImage(img model.ImageInput) error {
	if len(img.Data) == 0 {
		return invalid("file %q is empty", img.OriginalName)
	}
	if int64(len(img.Data)) > s.limits.MaxFileSize {
		return invalid("file %q exceeds the %d MB limit", img.OriginalName, s.limits.MaxFileSize>>20)
	}
	if !allowedMediaTypes[canonicalMediaType(img.MediaType)] {
		return invalid("file %q: only jpeg, jpg, png and webp images are allowed", img.OriginalName)
	}
	if ext := strings.ToLower(filepath.Ext(img.OriginalName)); ext != "" && !allowedExtensions[ext] {
		return invalid("file %q: only jpeg, jpg, png and webp images are allowed", img.OriginalName)
	}
	return nil
}

// validateFields checks the caller-supplied document fields of kind.
func validateFields(kind model.Kind, f model.DocumentFields) error {
	for field, v := range f.Values {
		if !kind.HasField(field) {
			return invalid("field %s does not apply to a %s", field, kind)
		}
		if v == nil {
			continue
		}
		switch field {
		case model.FieldVisitedDate, model.FieldDeliveryDate:
			if _, err := time.Parse(dateLayout, *v); err != nil {
				return invalid("%s must be a date in YYYY-MM-DD format", field)
			}
		case model.FieldNormalOrNot:
			if *v != model.NormalityNormal && *v != model.NormalityAbnormal {
				return invalid("normal_or_not must be %q or %q", model.NormalityNormal, model.NormalityAbnormal)
			}
		}
	}
	if f.Title != nil && kind == model.KindReport && strings.TrimSpace(*f.Title) == "" {
		return invalid("title must not be blank")
	}
	if f.PrescriptionID != nil {
		if kind != model.KindReport {
			return invalid("prescription_id only applies to reports")
		}
		if *f.PrescriptionID <= 0 {
			return invalid("prescription_id must be a positive integer")
		}
	}
	return nil
}

func (s *ingestService) authenticate(ctx context.Context, op, token string, memberID int64) (*auth.Identity, error) {
	id, err := s.auth.Authenticate(ctx, token, memberID)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			return nil, wrapError(op, ErrAuth, nil)
		}
		return nil, wrapError(op, ErrStorage, err)
	}
	return id, nil
}

// ownedDocument loads a live document of kind and checks that memberID owns it.
func (s *ingestService) ownedDocument(ctx context.Context, op string, kind model.Kind, id, memberID int64) (*model.DocumentRecord, error) {
	doc, err := s.store.FindDocument(ctx, kind, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wrapError(op, ErrNotFound, fmt.Errorf("%s %d", kind, id))
		}
		return nil, wrapError(op, ErrStorage, err)
	}
	if doc.OwnerID != memberID {
		return nil, wrapError(op, ErrOwnership, fmt.Errorf("%s %d", kind, id))
	}
	return doc, nil
}

// outcome is the processing result of one image.
type outcome struct {
	set     *model.DerivativeSet
	verdict model.Verdict
}

// process generates derivatives and classifies every image, at most
// s.limits.Concurrency at a time. Results keep upload order. A per-image
// failure never stops the others.
func (s *ingestService) process(ctx context.Context, ownerID int64, images []model.ImageInput) []outcome {
	out := make([]outcome, len(images))
	var g errgroup.Group
	g.SetLimit(s.limits.Concurrency)
	for i, img := range images {
		g.Go(func() error {
			set, err := s.gen.Generate(img, ownerID)
			if err != nil {
				s.log.Info("image could not be decoded",
					zap.Int("index", i), zap.String("file", img.OriginalName), zap.Error(err))
				out[i] = outcome{verdict: model.FallbackVerdict(reasonUndecodable)}
				s.metrics.Verdict(string(model.KindOther), true)
				return nil
			}
			v := s.classifier.Classify(ctx, img.Data, canonicalMediaType(img.MediaType))
			s.metrics.Verdict(string(v.Kind), classifier.IsFallback(v))
			out[i] = outcome{set: set, verdict: v}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// partition applies the admission policy: every image must have been decoded
// and classified as kind. On success it returns the derivative sets and
// verdicts in upload order; otherwise a RejectionError listing every
// offending image.
func partition(kind model.Kind, images []model.ImageInput, results []outcome) ([]*model.DerivativeSet, []model.Verdict, *RejectionError) {
	var (
		sets     = make([]*model.DerivativeSet, 0, len(results))
		verdicts = make([]model.Verdict, 0, len(results))
		invalids []model.InvalidFile
	)
	for i, r := range results {
		if r.set != nil && r.verdict.Kind == kind {
			sets = append(sets, r.set)
			verdicts = append(verdicts, r.verdict)
			continue
		}
		reason := r.verdict.Reason
		if reason == "" {
			reason = fmt.Sprintf("classified as %s, expected %s", r.verdict.Kind, kind)
		}
		invalids = append(invalids, model.InvalidFile{
			Index:        i,
			OriginalName: images[i].OriginalName,
			ClassifiedAs: r.verdict.Kind,
			Reason:       reason,
		})
	}
	if len(invalids) > 0 {
		return nil, nil, &RejectionError{Report: model.RejectionReport{Kind: kind, InvalidFiles: invalids}}
	}
	return sets, verdicts, nil
}

func (s *ingestService) finish(log *zap.Logger, kind model.Kind, outcome string, start time.Time) {
	took := s.now().Sub(start)
	s.metrics.Batch(string(kind), outcome, took)
	switch outcome {
	case metrics.OutcomeCommitted:
		log.Info("batch committed", zap.String("state", stateCommitted), zap.Duration("took", took))
	case metrics.OutcomeRejected:
		log.Info("batch rejected", zap.String("state", stateRolledBack), zap.Duration("took", took))
	default:
		log.Warn("batch rolled back", zap.String("state", stateRolledBack), zap.Duration("took", took))
	}
}

// announce publishes the ingestion event. Failures are logged only.
func (s *ingestService) announce(ctx context.Context, log *zap.Logger, kind model.Kind, docID, memberID int64, images []model.ImageRecord, appended bool) {
	ids := make([]int64, len(images))
	for i, img := range images {
		ids[i] = img.ID
	}
	err := s.events.PublishIngested(context.WithoutCancel(ctx), events.Ingested{
		Kind:       kind,
		DocumentID: docID,
		MemberID:   memberID,
		ImageIDs:   ids,
		Appended:   appended,
		At:         s.now().UTC(),
	})
	if err != nil {
		log.Warn("publish ingested event", zap.Int64("document_id", docID), zap.Error(err))
	}
}
