// Package worker turns analysis requests read from Kafka into service calls.
package worker

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/SynthonScope/internal/application/reactivity"
	"github.com/turtacn/SynthonScope/internal/infrastructure/database/redis"
	"github.com/turtacn/SynthonScope/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SynthonScope/pkg/errors"
	"github.com/turtacn/SynthonScope/pkg/types/common"
)

// Job outcomes recorded on the worker_jobs_total counter.
const (
	JobSuccess   = "success"
	JobRejected  = "rejected"
	JobDuplicate = "duplicate"
	JobInvalid   = "invalid"
	JobFailed    = "failed"
)

// Claimer hands out per-request locks.  *redis.LockFactory satisfies it.
type Claimer interface {
	NewMutex(name string, opts ...redis.LockOption) redis.Lock
}

// HandlerConfig carries the settings of an AnalysisJobHandler.
type HandlerConfig struct {
	Topics  kafka.Topics
	Source  string
	LockTTL time.Duration
}

// AnalysisJobHandler runs one AnalysisRequested event through the service.
//
// Successful analyses publish their completion event from inside the
// service.  Rejected reactions publish an errored completion here and are
// committed without retry.  Infrastructure failures are returned so the
// consumer retries and eventually dead-letters them.
type AnalysisJobHandler struct {
	service   reactivity.Service
	publisher reactivity.Publisher
	locks     Claimer
	metrics   *prometheus.AppMetrics
	cfg       HandlerConfig
	logger    logging.Logger
}

// NewAnalysisJobHandler builds the handler.  locks and metrics may be nil.
func NewAnalysisJobHandler(
	service reactivity.Service,
	publisher reactivity.Publisher,
	locks Claimer,
	metrics *prometheus.AppMetrics,
	cfg HandlerConfig,
	log logging.Logger,
) *AnalysisJobHandler {
	if cfg.Source == "" {
		cfg.Source = "synscope-worker"
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	return &AnalysisJobHandler{
		service:   service,
		publisher: publisher,
		locks:     locks,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logging.OrNop(log).Named("analysis_job"),
	}
}

// Topic is the topic the handler consumes.
func (h *AnalysisJobHandler) Topic() string { return h.cfg.Topics.Requested() }

// Handle satisfies common.MessageHandler.
func (h *AnalysisJobHandler) Handle(ctx context.Context, msg *common.Message) error {
	start := time.Now()

	payload, err := decodeRequest(msg)
	if err != nil {
		h.logger.Warn("malformed analysis request",
			logging.String("topic", msg.Topic),
			logging.Int64("offset", msg.Offset),
			logging.Err(err))
		if dlqErr := h.deadLetter(ctx, msg, err); dlqErr != nil {
			return dlqErr
		}
		h.record(JobInvalid, start)
		return nil
	}

	requestID := payload.RequestID
	if requestID == "" {
		requestID = string(msg.Key)
	}
	log := h.logger.With(logging.String("request_id", requestID))

	lock, claimed := h.claim(ctx, requestID, log)
	if lock != nil && !claimed {
		log.Info("request already claimed; skipping")
		h.record(JobDuplicate, start)
		return nil
	}

	result, err := h.service.Analyze(ctx, &reactivity.AnalyzeRequest{
		ReactionSMILES: payload.ReactionSMILES,
		AtomProperties: payload.AtomProperties,
		BondProperties: payload.BondProperties,
		RequestID:      requestID,
	})
	if err != nil {
		h.release(lock, log)
		code := errors.GetCode(err)
		if errors.IsClientError(code) {
			log.Info("reaction rejected", logging.String("code", string(code)), logging.Err(err))
			if pubErr := h.publishRejection(ctx, requestID, payload.ReactionSMILES, err); pubErr != nil {
				return pubErr
			}
			h.record(JobRejected, start)
			return nil
		}
		log.Error("analysis failed", logging.Err(err))
		h.record(JobFailed, start)
		if h.metrics != nil {
			prometheus.RecordError(h.metrics, "worker", string(code))
		}
		return err
	}

	log.Debug("analysis completed",
		logging.String("analysis_id", result.ID),
		logging.Bool("cached", result.Cached),
		logging.Duration("elapsed", time.Since(start)))
	h.record(JobSuccess, start)
	return nil
}

func decodeRequest(msg *common.Message) (*kafka.AnalysisRequestedPayload, error) {
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return nil, err
	}
	if env.EventType != kafka.EventAnalysisRequested {
		return nil, errors.Newf(errors.ErrCodeValidation, "unexpected event type %q", env.EventType)
	}
	var payload kafka.AnalysisRequestedPayload
	if err := env.DecodePayload(&payload); err != nil {
		return nil, err
	}
	if strings.TrimSpace(payload.ReactionSMILES) == "" {
		return nil, errors.New(errors.ErrCodeValidation, "reaction_smiles is required")
	}
	return &payload, nil
}

// claim takes the request lock.  A nil lock means no deduplication; a Redis
// error is logged and the job proceeds unguarded.
func (h *AnalysisJobHandler) claim(ctx context.Context, requestID string, log logging.Logger) (redis.Lock, bool) {
	if h.locks == nil || requestID == "" {
		return nil, false
	}
	lock := h.locks.NewMutex("analysis:"+requestID, redis.WithLockTTL(h.cfg.LockTTL))
	ok, err := lock.TryLock(ctx)
	if err != nil {
		log.Warn("request lock unavailable", logging.Err(err))
		return nil, false
	}
	return lock, ok
}

// release frees a claim after a failed attempt so a retry can take it.  A
// successful claim is kept until its TTL so redeliveries are skipped.
func (h *AnalysisJobHandler) release(lock redis.Lock, log logging.Logger) {
	if lock == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := lock.Unlock(ctx); err != nil {
		log.Warn("request lock not released", logging.Err(err))
	}
}

func (h *AnalysisJobHandler) publishRejection(ctx context.Context, requestID, smiles string, cause error) error {
	if h.publisher == nil {
		return nil
	}
	detail := &common.ErrorDetail{
		Code:    string(errors.GetCode(cause)),
		Message: cause.Error(),
	}
	var appErr *errors.AppError
	if errors.As(cause, &appErr) {
		detail.Message = appErr.Message
		detail.Detail = appErr.Detail
	}
	msg, err := reactivity.CompletedMessage(h.cfg.Topics, h.cfg.Source, &kafka.AnalysisCompletedPayload{
		RequestID:      requestID,
		ReactionSMILES: smiles,
		Error:          detail,
		CompletedAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return h.publisher.Publish(ctx, msg)
}

func (h *AnalysisJobHandler) deadLetter(ctx context.Context, msg *common.Message, cause error) error {
	if h.publisher == nil {
		return nil
	}
	headers := make(map[string]string, len(msg.Headers)+2)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["original_topic"] = msg.Topic
	headers["error_message"] = cause.Error()
	return h.publisher.Publish(ctx, &common.ProducerMessage{
		Topic:     kafka.DeadLetter(msg.Topic),
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Timestamp: time.Now().UTC(),
	})
}

func (h *AnalysisJobHandler) record(status string, start time.Time) {
	if h.metrics != nil {
		prometheus.RecordJob(h.metrics, status, time.Since(start))
	}
}

//Personal.AI order the ending
