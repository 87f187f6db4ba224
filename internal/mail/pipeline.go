package mail

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/event-registration/internal/config"
	"github.com/spec-kit/event-registration/internal/observability"
	apperrors "github.com/spec-kit/event-registration/pkg/util/errorutil"
)

// Transport delivers a message through one provider or SMTP endpoint.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg *Message) error
}

// Pipeline walks the configured transports in priority order, giving each
// a small retry budget for transient failures. All state is injected at
// construction; nothing global, so tests swap in fake transports.
type Pipeline struct {
	enabled    bool
	transports []Transport
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
	metrics    *observability.Metrics
	sleep      func(time.Duration)
}

// NewPipeline builds the transport chain from configuration: the API
// provider first (when a key is present), then one SMTP transport per
// configured port.
func NewPipeline(cfg config.MailConfig, logger *zap.Logger, metrics *observability.Metrics) *Pipeline {
	var transports []Transport
	for _, provider := range cfg.Providers {
		switch provider {
		case config.MailProviderAPI:
			if cfg.APIKey == "" {
				logger.Warn("mail api provider configured without MAIL_API_KEY; skipping")
				continue
			}
			transports = append(transports, NewAPITransport(cfg.APIBaseURL, cfg.APIKey, cfg.From, cfg.FromName, cfg.Timeout()))
		case config.MailProviderSMTP:
			for _, port := range cfg.SMTPPorts {
				transports = append(transports, NewSMTPTransport(cfg.SMTPHost, port, cfg.SMTPUsername, cfg.SMTPPassword, cfg.From, cfg.FromName, cfg.Timeout()))
			}
		}
	}
	return NewPipelineWithTransports(cfg, transports, logger, metrics)
}

// NewPipelineWithTransports wires an explicit transport chain.
func NewPipelineWithTransports(cfg config.MailConfig, transports []Transport, logger *zap.Logger, metrics *observability.Metrics) *Pipeline {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &Pipeline{
		enabled:    cfg.Enabled,
		transports: transports,
		maxRetries: maxRetries,
		backoff:    cfg.RetryBackoff(),
		logger:     logger,
		metrics:    metrics,
		sleep:      time.Sleep,
	}
}

// Send walks transports until one delivers. Transient errors retry with
// linear backoff within the transport's budget; non-transient errors move
// to the next transport immediately. Exhausting everything returns
// DELIVERY_FAILED carrying the last error.
func (p *Pipeline) Send(ctx context.Context, msg *Message) error {
	if !p.enabled {
		p.logger.Info("mail disabled; suppressing send",
			zap.String("to", msg.To), zap.String("subject", msg.Subject))
		return nil
	}

	var lastErr error
	for _, transport := range p.transports {
		for attempt := 1; attempt <= p.maxRetries; attempt++ {
			err := transport.Send(ctx, msg)
			if err == nil {
				p.metrics.RecordMailDelivery(transport.Name(), "sent")
				p.logger.Info("ticket email delivered",
					zap.String("transport", transport.Name()),
					zap.String("to", msg.To),
					zap.Int("attempt", attempt))
				return nil
			}
			lastErr = err
			p.metrics.RecordMailDelivery(transport.Name(), "error")

			if !IsTransient(err) {
				p.logger.Warn("non-transient mail error; trying next transport",
					zap.String("transport", transport.Name()), zap.Error(err))
				break
			}
			p.logger.Warn("transient mail error",
				zap.String("transport", transport.Name()),
				zap.Int("attempt", attempt),
				zap.Error(err))
			if attempt < p.maxRetries {
				p.sleep(time.Duration(attempt) * p.backoff)
			}
		}
	}
	return apperrors.NewDeliveryFailed(lastErr)
}
