package sms

import (
	"context"

	"go.uber.org/zap"
)

// Provider delivers a one-time code to a mobile number. Code generation
// and caching stay with the caller; the provider is transport only.
type Provider interface {
	Send(ctx context.Context, mobile, code string) error
}

// LocalProvider logs codes instead of sending them. Used in development
// and as the default when no upstream gateway is configured.
type LocalProvider struct {
	logger *zap.Logger
}

// NewLocalProvider returns a log-only SMS provider.
func NewLocalProvider(logger *zap.Logger) *LocalProvider {
	return &LocalProvider{logger: logger}
}

func (p *LocalProvider) Send(ctx context.Context, mobile, code string) error {
	p.logger.Info("sms code issued (local provider, not delivered)",
		zap.String("mobile", mobile),
		zap.String("code", code),
	)
	return nil
}
