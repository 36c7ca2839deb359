package diagnosis

import (
	"context"
	"errors"
	"time"

	"github.com/kamilpajak/medguide/internal/config"
	"github.com/kamilpajak/medguide/internal/llm"
	"github.com/kamilpajak/medguide/internal/metrics"
	"go.uber.org/zap"
)

// Service runs diagnosis requests against one provider and always produces
// a well-formed Result.
type Service struct {
	provider llm.Provider
	setupErr error
	logger   *zap.Logger
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSetupError records why no provider is available, for logging.
func WithSetupError(err error) ServiceOption {
	return func(s *Service) {
		s.setupErr = err
	}
}

// NewService creates a Service. provider may be nil when no provider could
// be configured; every request then gets the insufficient result.
func NewService(provider llm.Provider, opts ...ServiceOption) *Service {
	s := &Service{provider: provider, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromConfig resolves the configured provider and builds a Service around
// it. A configuration problem does not fail; it yields a Service without a
// provider.
func FromConfig(cfg *config.Config, logger *zap.Logger, opts ...llm.Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	pc, err := cfg.Provider()
	if err != nil {
		logger.Warn("AI provider not configured, diagnoses will be insufficient", zap.Error(err))
		return NewService(nil, WithLogger(logger), WithSetupError(err))
	}

	provider, err := llm.New(pc, append(opts, llm.WithLogger(logger))...)
	if err != nil {
		logger.Warn("AI provider unavailable, diagnoses will be insufficient", zap.Error(err))
		return NewService(nil, WithLogger(logger), WithSetupError(err))
	}

	logger.Info("AI provider configured",
		zap.String("provider", string(pc.Kind)),
		zap.String("model", provider.Model()),
	)
	return NewService(provider, WithLogger(logger))
}

// Provider returns the provider in use, or nil.
func (s *Service) Provider() llm.Provider {
	return s.provider
}

// Diagnose sends req to the provider and normalizes the reply. It never
// fails: configuration, provider, transport and parse errors are logged
// and turned into the insufficient result.
func (s *Service) Diagnose(ctx context.Context, req llm.Request) *Result {
	if s.provider == nil {
		s.logger.Warn("using insufficient fallback", zap.String("reason", "no provider"), zap.Error(s.setupErr))
		metrics.DiagnosesTotal.WithLabelValues("none", metrics.OutcomeNotConfigured).Inc()
		return Insufficient()
	}

	kind := string(s.provider.Kind())
	logger := s.logger.With(zap.String("provider", kind), zap.String("model", s.provider.Model()))

	start := time.Now()
	text, err := s.provider.Send(ctx, req)
	metrics.ProviderRequestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := classify(err)
		logger.Error("AI diagnosis failed, using insufficient fallback",
			zap.String("outcome", outcome),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		metrics.DiagnosesTotal.WithLabelValues(kind, outcome).Inc()
		return Insufficient()
	}

	result, err := Parse(text)
	if err != nil {
		logger.Error("AI response could not be parsed, using insufficient fallback",
			zap.Error(err),
			zap.Int("response_chars", len(text)),
		)
		metrics.DiagnosesTotal.WithLabelValues(kind, metrics.OutcomeParseError).Inc()
		return Insufficient()
	}

	outcome := metrics.OutcomeDiagnosed
	if result.Insufficient {
		outcome = metrics.OutcomeInsufficient
	}
	metrics.DiagnosesTotal.WithLabelValues(kind, outcome).Inc()

	logger.Info("AI diagnosis completed",
		zap.Int("conditions", len(result.Conditions)),
		zap.Float64("max_confidence", result.MaxConfidence()),
		zap.Bool("insufficient", result.Insufficient),
		zap.Duration("duration", time.Since(start)),
	)
	return result
}

func classify(err error) string {
	var pErr *llm.ProviderError
	var cfgErr *config.ConfigurationError
	var parseErr *ParseError
	switch {
	case errors.As(err, &pErr):
		return metrics.OutcomeProviderError
	case errors.As(err, &cfgErr):
		return metrics.OutcomeNotConfigured
	case errors.As(err, &parseErr):
		return metrics.OutcomeParseError
	}
	return metrics.OutcomeTransportError
}
