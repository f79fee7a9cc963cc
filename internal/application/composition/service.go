// Package composition provides the application service that turns a filled-in
// entry form into a persisted perovskite composition document.
package composition

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	domain "github.com/turtacn/perovskite-json/internal/domain/composition"
	"github.com/turtacn/perovskite-json/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/perovskite-json/pkg/errors"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

// Service defines the composition application operations.
type Service interface {
	Compose(ctx context.Context, input *ComposeInput) (*ComposeResult, error)
	Render(ctx context.Context, req ptypes.Request) (*ComposeResult, error)
	ReadDocument(ctx context.Context, location string) (*ptypes.Document, error)
	ListIons(ctx context.Context, site ptypes.Site) ([]string, error)
	Dimensionalities() []string
}

// ReferenceData resolves ion metadata and lists known abbreviations.  It is
// satisfied by *reference.Enricher.
type ReferenceData interface {
	domain.MetadataSource
	Abbreviations(ctx context.Context, site ptypes.Site) ([]string, error)
}

// Metrics receives composition telemetry.  *prometheus.AppMetrics satisfies
// it, including a nil *AppMetrics.
type Metrics interface {
	RecordComposition(status string, duration time.Duration)
	RecordReferenceLookups(site string, matched, unmatched int)
	RecordDocumentWrite(backend string, duration time.Duration, err error)
	RecordError(component, errorCode string)
}

type noopMetrics struct{}

func (noopMetrics) RecordComposition(string, time.Duration)          {}
func (noopMetrics) RecordReferenceLookups(string, int, int)          {}
func (noopMetrics) RecordDocumentWrite(string, time.Duration, error) {}
func (noopMetrics) RecordError(string, string)                       {}

// ComposeInput is a cleaned request plus where to write it.
type ComposeInput struct {
	Request     ptypes.Request
	Destination ptypes.Destination
}

// ComposeResult describes a built (and, for Compose, written) document.
type ComposeResult struct {
	RequestID           string              `json:"request_id"`
	Family              string              `json:"family"`
	Formula             string              `json:"formula"`
	Location            string              `json:"location,omitempty"`
	FileName            string              `json:"file_name,omitempty"`
	Unmatched           map[string][]string `json:"unmatched,omitempty"`
	IonCount            int                 `json:"ion_count"`
	KnownDimensionality bool                `json:"known_dimensionality"`
	Document            ptypes.Document     `json:"document"`
	Encoded             []byte              `json:"-"`
}

// Default ion suggestions shown before any reference-table entry.
var defaultIons = map[ptypes.Site][]string{
	ptypes.SiteA: {"Cs", "FA", "MA"},
	ptypes.SiteB: {"Pb", "Sn"},
	ptypes.SiteC: {"Br", "I"},
}

// Options wires the service's collaborators.
type Options struct {
	Reference  ReferenceData
	Repository domain.DocumentRepository
	// Backend labels document-write metrics, e.g. "filesystem".
	Backend string
	Metrics Metrics
	Logger  logging.Logger
}

type serviceImpl struct {
	reference ReferenceData
	repo      domain.DocumentRepository
	backend   string
	metrics   Metrics
	logger    logging.Logger
}

// NewService creates a composition Service.
func NewService(opts Options) (Service, error) {
	if opts.Reference == nil {
		return nil, errors.InvalidParam("reference data is required")
	}
	if opts.Repository == nil {
		return nil, errors.InvalidParam("document repository is required")
	}
	s := &serviceImpl{
		reference: opts.Reference,
		repo:      opts.Repository,
		backend:   opts.Backend,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	if s.backend == "" {
		s.backend = "unknown"
	}
	s.logger = s.logger.Named("composition")
	return s, nil
}

// Compose builds, validates and writes one composition document.
func (s *serviceImpl) Compose(ctx context.Context, input *ComposeInput) (*ComposeResult, error) {
	if input == nil {
		return nil, errors.InvalidParam("compose input cannot be nil")
	}
	start := time.Now()

	dest := input.Destination
	fileName, err := domain.NormalizeFileName(dest.FileName)
	if err != nil {
		return nil, s.fail(start, err)
	}
	dest.FileName = fileName

	res, err := s.build(ctx, input.Request)
	if err != nil {
		return nil, s.fail(start, err)
	}
	log := s.logger.With(logging.String("request_id", res.RequestID))

	writeStart := time.Now()
	location, err := s.repo.Save(ctx, dest, res.Encoded)
	s.metrics.RecordDocumentWrite(s.backend, time.Since(writeStart), err)
	if err != nil {
		log.Error("failed to write composition document",
			logging.String("file_name", fileName), logging.Err(err))
		return nil, s.fail(start, err)
	}
	res.Location = location
	res.FileName = fileName

	s.metrics.RecordComposition("success", time.Since(start))
	log.Info("composition document written",
		logging.String("family", res.Family),
		logging.String("formula", res.Formula),
		logging.String("location", location),
		logging.Duration("elapsed", time.Since(start)))
	return res, nil
}

// Render builds and validates a document without writing it.
func (s *serviceImpl) Render(ctx context.Context, req ptypes.Request) (*ComposeResult, error) {
	start := time.Now()
	res, err := s.build(ctx, req)
	if err != nil {
		return nil, s.fail(start, err)
	}
	s.metrics.RecordComposition("rendered", time.Since(start))
	return res, nil
}

func (s *serviceImpl) build(ctx context.Context, req ptypes.Request) (*ComposeResult, error) {
	requestID := uuid.NewString()
	log := s.logger.With(logging.String("request_id", requestID))

	comp, err := domain.Build(ctx, req, s.reference)
	if err != nil {
		log.Warn("composition rejected", logging.Err(err))
		return nil, err
	}

	unmatched := comp.Unmatched()
	for _, site := range ptypes.Sites {
		n := comp.Group(site).Len()
		if n == 0 {
			continue
		}
		missed := len(unmatched[site])
		s.metrics.RecordReferenceLookups(string(site), n-missed, missed)
	}

	known := ptypes.IsKnownDimensionality(comp.Dimensionality())
	if !known && comp.Dimensionality() != "" {
		log.Warn("unknown dimensionality label", logging.String("dimensionality", comp.Dimensionality()))
	}

	doc := comp.Document()
	data, err := domain.EncodeDocument(doc)
	if err != nil {
		return nil, err
	}
	if err := ValidateDocument(data); err != nil {
		log.Error("built document failed validation", logging.Err(err))
		return nil, err
	}

	res := &ComposeResult{
		RequestID:           requestID,
		Family:              comp.Family(),
		Formula:             comp.Formula(),
		IonCount:            comp.IonCount(),
		KnownDimensionality: known,
		Document:            doc,
		Encoded:             data,
	}
	if len(unmatched) > 0 {
		res.Unmatched = make(map[string][]string, len(unmatched))
		for site, ions := range unmatched {
			res.Unmatched[string(site)] = ions
		}
	}
	log.Debug("composition built",
		logging.String("family", res.Family),
		logging.Int("ions", res.IonCount))
	return res, nil
}

func (s *serviceImpl) fail(start time.Time, err error) error {
	s.metrics.RecordComposition("failure", time.Since(start))
	s.metrics.RecordError("composition", string(errors.GetCode(err)))
	return err
}

// ReadDocument loads a written document and validates it against the schema.
func (s *serviceImpl) ReadDocument(ctx context.Context, location string) (*ptypes.Document, error) {
	data, err := s.repo.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	doc, err := domain.DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListIons returns the default symbols for site followed by the sorted table
// abbreviations not already among them.  An unreadable table degrades to the
// defaults alone.
func (s *serviceImpl) ListIons(ctx context.Context, site ptypes.Site) ([]string, error) {
	if !site.IsValid() {
		return nil, errors.Newf(errors.ErrCodeInvalidSite, "unknown ion site %q", site)
	}
	defaults := defaultIons[site]
	out := append([]string{}, defaults...)

	abbrevs, err := s.reference.Abbreviations(ctx, site)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("reference table unavailable, listing default ions only",
			logging.String("site", string(site)), logging.Err(err))
		return out, nil
	}

	seen := make(map[string]bool, len(defaults))
	for _, d := range defaults {
		seen[d] = true
	}
	extra := make([]string, 0, len(abbrevs))
	for _, a := range abbrevs {
		if !seen[a] {
			seen[a] = true
			extra = append(extra, a)
		}
	}
	sort.Strings(extra)
	return append(out, extra...), nil
}

// Dimensionalities returns the advisory dimensionality labels.
func (s *serviceImpl) Dimensionalities() []string {
	return append([]string{}, ptypes.Dimensionalities...)
}
