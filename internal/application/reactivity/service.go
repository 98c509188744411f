// Package reactivity is the application service behind every SynthonScope
// surface.  It turns a mapped reaction SMILES into a reactive-site report and
// takes care of caching, persistence, completion events and metrics around
// the domain extractor.
//
// Every collaborator except the converter is optional; the CLI runs the
// service with none of them.
package reactivity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/SynthonScope/internal/application/conversion"
	"github.com/turtacn/SynthonScope/internal/config"
	"github.com/turtacn/SynthonScope/internal/domain/molecule"
	"github.com/turtacn/SynthonScope/internal/domain/reaction"
	"github.com/turtacn/SynthonScope/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SynthonScope/pkg/errors"
	"github.com/turtacn/SynthonScope/pkg/types/chem"
	"github.com/turtacn/SynthonScope/pkg/types/common"
)

// Service analyses mapped reactions.
type Service interface {
	Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalysisResult, error)
	Classify(ctx context.Context, req *ClassifyRequest) (*ClassifyResult, error)
	GetAnalysis(ctx context.Context, id string) (*AnalysisResult, error)
	ListAnalyses(ctx context.Context, limit int) ([]*AnalysisResult, error)
}

// Deps wires the service.  Converter is created when nil; the rest may be
// left nil.
type Deps struct {
	Converter  *conversion.Converter
	Cache      Cache
	Repository reaction.AnalysisRepository
	Publisher  Publisher
	Metrics    Metrics
	Logger     logging.Logger

	Config config.AnalysisConfig
	Topics kafka.Topics
	// Source names the emitting process in completion events.
	Source string
}

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

type serviceImpl struct {
	converter  *conversion.Converter
	extractor  *reaction.Extractor
	cache      Cache
	repo       reaction.AnalysisRepository
	publisher  Publisher
	metrics    Metrics
	logger     logging.Logger
	atomFilter chem.AtomFilter
	bondFilter chem.BondFilter
	cacheTTL   time.Duration
	maxLen     int
	topics     kafka.Topics
	source     string
}

// NewService builds the service.  It fails when the configured default
// filters name unknown properties.
func NewService(deps Deps) (Service, error) {
	af, err := deps.Config.AtomFilter()
	if err != nil {
		return nil, err
	}
	bf, err := deps.Config.BondFilter()
	if err != nil {
		return nil, err
	}

	logger := logging.OrNop(deps.Logger).Named("reactivity")
	converter := deps.Converter
	if converter == nil {
		converter = conversion.NewConverter(logger)
	}
	source := deps.Source
	if source == "" {
		source = "synscope"
	}
	ttl := deps.Config.CacheTTL
	if ttl <= 0 {
		ttl = config.DefaultAnalysisCacheTTL
	}

	return &serviceImpl{
		converter:  converter,
		extractor:  reaction.NewExtractor(reaction.WithConcurrency(deps.Config.Concurrency)),
		cache:      deps.Cache,
		repo:       deps.Repository,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
		logger:     logger,
		atomFilter: af,
		bondFilter: bf,
		cacheTTL:   ttl,
		maxLen:     deps.Config.MaxSMILESLen,
		topics:     deps.Topics,
		source:     source,
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Analyze
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalysisResult, error) {
	start := time.Now()

	if req == nil {
		return nil, errors.InvalidParam("analyze request is nil")
	}
	rxnSMILES := strings.TrimSpace(req.ReactionSMILES)
	if err := s.checkInput("reaction_smiles", rxnSMILES); err != nil {
		s.observe(OutcomeRejected, start)
		return nil, err
	}
	af, bf, err := s.resolveFilters(req.AtomProperties, req.BondProperties)
	if err != nil {
		s.observe(OutcomeRejected, start)
		return nil, err
	}

	key := AnalysisCacheKey(rxnSMILES, af, bf)
	if cached, ok := s.lookup(ctx, key); ok {
		cached.Cached = true
		s.observe(OutcomeCached, start)
		s.logger.Debug("analysis served from cache", logging.String("analysis_id", cached.ID))
		s.publish(ctx, req.RequestID, cached)
		return cached, nil
	}

	rxn, err := s.converter.ReactionFromSMILES(rxnSMILES)
	if err != nil {
		s.observe(OutcomeRejected, start)
		return nil, err
	}

	report, err := s.extractor.Extract(ctx, rxn.Reactants, rxn.Products, af, bf)
	if err != nil {
		s.observe(OutcomeFailed, start)
		if ctx.Err() != nil {
			return nil, errors.Wrap(err, errors.ErrCodeTimeout, "analysis interrupted")
		}
		return nil, errors.Wrap(err, errors.ErrCodeAnalysisFailed, "extraction failed")
	}
	if err := report.Validate(); err != nil {
		s.observe(OutcomeFailed, start)
		s.logger.Error("inconsistent report", logging.String("reaction", rxnSMILES), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeAnalysisFailed, "report failed validation")
	}

	compounds, err := s.converter.ExtractCompounds(rxnSMILES)
	if err != nil {
		// The reaction parsed above, so this only fails on a reader bug.
		s.logger.Warn("compound listing failed", logging.Err(err))
	}

	result := &AnalysisResult{
		ID:             uuid.New().String(),
		ReactionSMILES: rxnSMILES,
		AtomFilter:     atomFilterNames(af),
		BondFilter:     bondFilterNames(bf),
		Products:       summarize(report),
		Report:         report,
		Compounds:      compounds,
		CreatedAt:      time.Now().UTC(),
	}

	result.Persisted = s.persist(ctx, result)
	s.store(ctx, key, result)
	s.publish(ctx, req.RequestID, result)

	s.observe(OutcomeSuccess, start)
	if s.metrics != nil {
		s.metrics.ObserveSynthons(result.SynthonCount())
	}
	s.logger.Info("reaction analysed",
		logging.String("analysis_id", result.ID),
		logging.Int("reactants", len(rxn.Reactants)),
		logging.Int("products", len(rxn.Products)),
		logging.Int("synthons", result.SynthonCount()),
		logging.Duration("elapsed", time.Since(start)))
	return result, nil
}

func (s *serviceImpl) checkInput(field, value string) error {
	if value == "" {
		return errors.New(errors.ErrCodeEmptyInput, "empty SMILES").WithDetail(field)
	}
	if s.maxLen > 0 && len(value) > s.maxLen {
		return errors.Newf(errors.ErrCodeBadRequest, "%s exceeds %d characters", field, s.maxLen)
	}
	return nil
}

// resolveFilters applies the configured defaults to nil property lists.
func (s *serviceImpl) resolveFilters(atoms, bonds []string) (chem.AtomFilter, chem.BondFilter, error) {
	af, bf := s.atomFilter, s.bondFilter
	var err error
	if atoms != nil {
		if af, err = chem.ParseAtomFilter(atoms); err != nil {
			return af, bf, err
		}
	}
	if bonds != nil {
		if bf, err = chem.ParseBondFilter(bonds); err != nil {
			return af, bf, err
		}
	}
	return af, bf, nil
}

func (s *serviceImpl) lookup(ctx context.Context, key string) (*AnalysisResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	var out AnalysisResult
	err := s.cache.Get(ctx, key, &out)
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(err == nil)
	}
	if err != nil {
		if !errors.IsNotFound(err) {
			s.logger.Warn("cache lookup failed", logging.String("key", key), logging.Err(err))
		}
		return nil, false
	}
	return &out, true
}

func (s *serviceImpl) store(ctx context.Context, key string, result *AnalysisResult) {
	if s.cache == nil {
		return
	}
	for _, k := range []string{key, AnalysisIDCacheKey(result.ID)} {
		if err := s.cache.Set(ctx, k, result, s.cacheTTL); err != nil {
			s.logger.Warn("cache store failed", logging.String("key", k), logging.Err(err))
			return
		}
	}
}

func (s *serviceImpl) persist(ctx context.Context, result *AnalysisResult) bool {
	if s.repo == nil {
		return false
	}
	err := s.repo.Save(ctx, &reaction.Analysis{
		ID:             result.ID,
		ReactionSMILES: result.ReactionSMILES,
		AtomFilter:     result.AtomFilter,
		BondFilter:     result.BondFilter,
		Report:         result.Report,
		CreatedAt:      result.CreatedAt,
	})
	if err != nil {
		s.logger.Warn("analysis not persisted", logging.String("analysis_id", result.ID), logging.Err(err))
		return false
	}
	return true
}

func (s *serviceImpl) publish(ctx context.Context, requestID string, result *AnalysisResult) {
	if s.publisher == nil {
		return
	}
	msg, err := CompletedMessage(s.topics, s.source, &kafka.AnalysisCompletedPayload{
		RequestID:       requestID,
		AnalysisID:      result.ID,
		ReactionSMILES:  result.ReactionSMILES,
		ProductSynthons: result.ProductSynthons(),
		CompletedAt:     result.CreatedAt,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, msg)
	}
	if err != nil {
		s.logger.Warn("completion event not published", logging.String("analysis_id", result.ID), logging.Err(err))
	}
}

// CompletedMessage wraps payload in an AnalysisCompleted envelope addressed
// to the completion topic.  Records are keyed by request id when present so
// a requester's events stay ordered.
func CompletedMessage(topics kafka.Topics, source string, payload *kafka.AnalysisCompletedPayload) (*common.ProducerMessage, error) {
	env, err := kafka.NewEventEnvelope(kafka.EventAnalysisCompleted, source, payload)
	if err != nil {
		return nil, err
	}
	key := payload.RequestID
	if key == "" {
		key = payload.AnalysisID
	}
	return env.ToMessage(topics.Completed(), key)
}

func (s *serviceImpl) observe(outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveAnalysis(outcome, time.Since(start))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Classify
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) Classify(ctx context.Context, req *ClassifyRequest) (*ClassifyResult, error) {
	if req == nil {
		return nil, errors.InvalidParam("classify request is nil")
	}
	reactantSMILES := strings.TrimSpace(req.ReactantSMILES)
	productSMILES := strings.TrimSpace(req.ProductSMILES)
	if err := s.checkInput("reactant_smiles", reactantSMILES); err != nil {
		return nil, err
	}
	if err := s.checkInput("product_smiles", productSMILES); err != nil {
		return nil, err
	}
	if strings.Contains(reactantSMILES, ">") || strings.Contains(productSMILES, ">") {
		return nil, errors.InvalidParam("classify takes single molecules; use analyze for reactions")
	}
	af, bf, err := s.resolveFilters(req.AtomProperties, req.BondProperties)
	if err != nil {
		return nil, err
	}

	r, err := s.converter.MoleculeFromSMILES(reactantSMILES)
	if err != nil {
		return nil, err
	}
	p, err := s.converter.MoleculeFromSMILES(productSMILES)
	if err != nil {
		return nil, err
	}

	report, err := s.extractor.Extract(ctx, []*molecule.MappedMolecule{r}, []*molecule.MappedMolecule{p}, af, bf)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTimeout, "classification interrupted")
	}
	rs, _ := report.Reactant(0, 0)
	ps, _ := report.Product(0)

	return &ClassifyResult{
		Synthons:         nonNil(rs.Synthons),
		ReactantReactive: nonNil(rs.ReactiveSites),
		ProductReactive:  nonNil(ps.ReactiveSites),
		SynthonIndexMap:  rs.SynthonIndexMap,
		AtomFilter:       atomFilterNames(af),
		BondFilter:       bondFilterNames(bf),
	}, nil
}

func nonNil(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

// ─────────────────────────────────────────────────────────────────────────────
// Lookup
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) GetAnalysis(ctx context.Context, id string) (*AnalysisResult, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.InvalidParam("analysis id must be a UUID").WithDetail(id)
	}

	if cached, ok := s.lookup(ctx, AnalysisIDCacheKey(id)); ok {
		cached.Cached = true
		return cached, nil
	}
	if s.repo == nil {
		return nil, errors.New(errors.ErrCodeAnalysisNotFound, "analysis not found").WithDetail(id)
	}

	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := s.fromAnalysis(a)
	s.store(ctx, AnalysisIDCacheKey(id), result)
	return result, nil
}

func (s *serviceImpl) ListAnalyses(ctx context.Context, limit int) ([]*AnalysisResult, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if s.repo == nil {
		return []*AnalysisResult{}, nil
	}
	items, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*AnalysisResult, 0, len(items))
	for _, a := range items {
		out = append(out, s.fromAnalysis(a))
	}
	return out, nil
}

// fromAnalysis rebuilds a result from its stored form.  Compounds are not
// stored and are derived again from the reaction text.
func (s *serviceImpl) fromAnalysis(a *reaction.Analysis) *AnalysisResult {
	result := &AnalysisResult{
		ID:             a.ID,
		ReactionSMILES: a.ReactionSMILES,
		AtomFilter:     a.AtomFilter,
		BondFilter:     a.BondFilter,
		Report:         a.Report,
		CreatedAt:      a.CreatedAt,
		Persisted:      true,
	}
	if a.Report != nil {
		result.Products = summarize(a.Report)
	}
	if compounds, err := s.converter.ExtractCompounds(a.ReactionSMILES); err == nil {
		result.Compounds = compounds
	}
	return result
}

//Personal.AI order the ending
