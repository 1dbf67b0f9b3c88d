package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/internal/observability"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/models"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/providers"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/routing"
)

// Recorder receives one usage record per finished call. Recording is a side
// channel: failures to record never affect the call outcome.
type Recorder interface {
	RecordUsage(record *models.UsageRecord)
}

// Options tunes the orchestrator.
type Options struct {
	// DefaultMaxRetries is the per-candidate retry budget for routed
	// requests that do not set their own. Pinned requests default to 0.
	DefaultMaxRetries int

	// RetryBaseDelay is the base for the jittered delay between transient
	// retries against the same candidate.
	RetryBaseDelay time.Duration

	// Metrics and Recorder are optional side channels.
	Metrics  *observability.Metrics
	Recorder Recorder
}

// Service is the fallback orchestrator. One instance serves arbitrarily many
// concurrent calls: the routing table and availability registry are read-only
// from its point of view, and all per-call state lives on the stack.
type Service struct {
	table        *routing.Table
	availability *routing.AvailabilityRegistry
	registry     *providers.Registry
	logger       *zap.Logger

	defaultMaxRetries int
	retryBaseDelay    time.Duration
	metrics           *observability.Metrics
	recorder          Recorder

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates the orchestrator.
func New(table *routing.Table, availability *routing.AvailabilityRegistry, registry *providers.Registry, logger *zap.Logger, opts Options) *Service {
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 250 * time.Millisecond
	}
	return &Service{
		table:             table,
		availability:      availability,
		registry:          registry,
		logger:            logger,
		defaultMaxRetries: opts.DefaultMaxRetries,
		retryBaseDelay:    opts.RetryBaseDelay,
		metrics:           opts.Metrics,
		recorder:          opts.Recorder,
		sleep:             sleepContext,
	}
}

// CallWithFallback executes the request against its candidate chain and
// returns the first success or a terminal aggregate error. A request yields
// exactly one Response or one error, never both.
func (s *Service) CallWithFallback(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	// One snapshot per call: a consistent availability view even if
	// configuration changes mid-flight.
	snapshot := s.availability.Snapshot()
	chain := s.resolveChain(req)
	if len(chain) == 0 {
		err := &GatewayError{
			Code:    CodeNoProviderAvailable,
			Type:    providers.ErrorUnknown,
			Message: fmt.Sprintf("no candidates configured for task %q priority %q", req.TaskType, req.priorityOrDefault()),
		}
		s.finish(req, nil, err, start, nil)
		return nil, err
	}

	retries := req.retryBudget(s.defaultMaxRetries)
	path := make([]FallbackHop, 0, len(chain))
	attempted := 0

	for _, candidate := range chain {
		if ctx.Err() != nil {
			err := &GatewayError{
				Code:         CodeCanceled,
				Type:         providers.ErrorUnknown,
				Message:      "request canceled before chain completed",
				FallbackPath: path,
				Cause:        ctx.Err(),
			}
			s.finish(req, nil, err, start, path)
			return nil, err
		}

		if !snapshot.Available(candidate.Provider) {
			s.logger.Debug("skipping unavailable provider",
				zap.String("request_id", req.RequestID),
				zap.String("provider", candidate.Provider),
				zap.String("model", candidate.Model))
			path = s.recordHop(path, candidate, ReasonProviderUnavailable)
			continue
		}

		provider, err := s.registry.Get(candidate.Provider)
		if err != nil {
			// Routed to a provider with no registered adapter: a
			// configuration gap, handled like unavailability.
			s.logger.Warn("no adapter registered for routed provider",
				zap.String("request_id", req.RequestID),
				zap.String("provider", candidate.Provider))
			path = s.recordHop(path, candidate, ReasonProviderUnavailable)
			continue
		}

		resp, attempts, attemptErr := s.attemptCandidate(ctx, provider, candidate, req, retries)
		attempted += attempts

		if attemptErr == nil {
			resp.RequestID = req.RequestID
			resp.LatencyMs = time.Since(start).Milliseconds()
			resp.FallbackPath = path
			s.logger.Info("llm_success",
				zap.String("request_id", req.RequestID),
				zap.String("provider", candidate.Provider),
				zap.String("model", candidate.Model),
				zap.Int("attempts", resp.Attempts),
				zap.Int("fallback_hops", len(path)),
				zap.Int64("latency_ms", resp.LatencyMs))
			s.finish(req, resp, nil, start, path)
			return resp, nil
		}

		if ge, ok := AsGatewayError(attemptErr); ok && ge.Code == CodeCanceled {
			ge.FallbackPath = path
			s.finish(req, nil, ge, start, path)
			return nil, ge
		}

		path = s.recordHop(path, candidate, string(providers.Classify(attemptErr)))
	}

	var err *GatewayError
	if attempted == 0 {
		// Every candidate was skipped without a network call: the chain
		// was unusable by configuration, not by backend behavior.
		err = &GatewayError{
			Code:         CodeNoProviderAvailable,
			Type:         providers.ErrorUnknown,
			Message:      fmt.Sprintf("no provider available for task %q", req.TaskType),
			FallbackPath: path,
		}
	} else {
		err = &GatewayError{
			Code:         CodeAllCandidatesFailed,
			Type:         providers.ErrorUnknown,
			Message:      fmt.Sprintf("all %d candidates failed", len(chain)),
			FallbackPath: path,
		}
	}
	s.logger.Warn("chain exhausted",
		zap.String("request_id", req.RequestID),
		zap.String("code", string(err.Code)),
		zap.Int("candidates", len(chain)),
		zap.Int("attempts", attempted))
	s.finish(req, nil, err, start, path)
	return nil, err
}

// resolveChain returns the candidate chain: a pinned request yields exactly
// one candidate and never consults the routing table.
func (s *Service) resolveChain(req *Request) []routing.Candidate {
	if req.Pinned() {
		return []routing.Candidate{{Provider: req.PinnedProvider, Model: req.PinnedModel}}
	}
	return s.table.Resolve(req.TaskType, req.priorityOrDefault())
}

func (r *Request) priorityOrDefault() string {
	if r.Priority == "" {
		return routing.DefaultPriority
	}
	return r.Priority
}

// attemptCandidate tries one candidate up to retries+1 times. Transient
// failures (timeout, rate_limited) are retried with a jittered delay;
// terminal ones (bad_request, unknown) abandon the candidate immediately.
// It returns the number of attempts actually made.
func (s *Service) attemptCandidate(ctx context.Context, provider providers.Provider, candidate routing.Candidate, req *Request, retries int) (*Response, int, error) {
	providerReq := &providers.CompletionRequest{
		RequestID:   req.RequestID,
		Model:       candidate.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Timeout:     req.Timeout,
	}

	var lastErr error
	for attempt := 1; attempt <= retries+1; attempt++ {
		s.logger.Info("llm_attempt",
			zap.String("request_id", req.RequestID),
			zap.String("provider", candidate.Provider),
			zap.String("model", candidate.Model),
			zap.Int("attempt", attempt))

		resp, err := provider.Complete(ctx, providerReq)
		if err == nil {
			s.observeAttempt(candidate, "success")
			return &Response{
				Provider:     candidate.Provider,
				Model:        candidate.Model,
				Content:      resp.Content,
				InputTokens:  resp.PromptTokens,
				OutputTokens: resp.CompletionTokens,
				Attempts:     attempt,
			}, attempt, nil
		}

		errType := providers.Classify(err)
		lastErr = err
		s.logger.Warn("llm_failure",
			zap.String("request_id", req.RequestID),
			zap.String("provider", candidate.Provider),
			zap.String("model", candidate.Model),
			zap.Int("attempt", attempt),
			zap.String("error_type", string(errType)),
			zap.Error(err))
		s.observeAttempt(candidate, string(errType))

		if ctx.Err() != nil {
			return nil, attempt, &GatewayError{
				Code:    CodeCanceled,
				Type:    providers.ErrorUnknown,
				Message: "request canceled during attempt",
				Cause:   ctx.Err(),
			}
		}
		if !errType.Transient() {
			return nil, attempt, lastErr
		}
		if attempt <= retries {
			if err := s.sleep(ctx, s.retryDelay(attempt)); err != nil {
				return nil, attempt, &GatewayError{
					Code:    CodeCanceled,
					Type:    providers.ErrorUnknown,
					Message: "request canceled while waiting to retry",
					Cause:   err,
				}
			}
		}
	}
	return nil, retries + 1, lastErr
}

// retryDelay returns the jittered backoff before retrying the same
// candidate. Jitter avoids synchronized retry storms across workers.
func (s *Service) retryDelay(attempt int) time.Duration {
	base := s.retryBaseDelay * time.Duration(attempt)
	jitter := time.Duration(rand.Int63n(int64(s.retryBaseDelay)))
	return base + jitter
}

func (s *Service) recordHop(path []FallbackHop, candidate routing.Candidate, reason string) []FallbackHop {
	if s.metrics != nil {
		s.metrics.ObserveFallback(candidate.Provider, reason)
	}
	return append(path, FallbackHop{
		Provider: candidate.Provider,
		Model:    candidate.Model,
		Reason:   reason,
	})
}

func (s *Service) observeAttempt(candidate routing.Candidate, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveAttempt(candidate.Provider, candidate.Model, outcome)
	}
}

// finish emits the per-call metrics and the usage record.
func (s *Service) finish(req *Request, resp *Response, callErr *GatewayError, start time.Time, path []FallbackHop) {
	outcome := models.UsageOutcomeSuccess
	if callErr != nil {
		switch callErr.Code {
		case CodeNoProviderAvailable:
			outcome = models.UsageOutcomeNoProviderAvailable
		case CodeCanceled:
			outcome = models.UsageOutcomeCanceled
		default:
			outcome = models.UsageOutcomeAllFailed
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveRequest(string(outcome), time.Since(start))
	}
	if s.recorder == nil {
		return
	}

	record := models.NewUsageRecord(req.RequestID, outcome)
	record.TaskType = req.TaskType
	record.Priority = req.priorityOrDefault()
	record.Purpose = req.Purpose
	record.LatencyMs = time.Since(start).Milliseconds()
	record.FallbackHops = len(path)
	if resp != nil {
		record.Provider = resp.Provider
		record.Model = resp.Model
		record.PromptTokens = resp.InputTokens
		record.CompletionTokens = resp.OutputTokens
		record.Attempts = resp.Attempts
	}
	s.recorder.RecordUsage(record)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
