package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const summaryPrompt = `You are a legal document assistant. Summarize the following document in plain language: state what kind of document it is, the parties involved, the key obligations and deadlines, and anything unusual a reader should review. Keep it under 300 words.

Document (%s):
%s`

type InvokerConfig struct {
	Model         string
	Timeout       time.Duration
	MaxInputChars int
}

// Invoker sends extracted document text to the configured provider under
// an explicit timeout budget. A client disconnect must not abandon a
// call already paid for, so the budget context is derived from
// context.Background rather than the request context.
type Invoker struct {
	provider IProvider
	cfg      InvokerConfig
}

func NewInvoker(provider IProvider, cfg InvokerConfig) *Invoker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &Invoker{provider: provider, cfg: cfg}
}

func (i *Invoker) Summarize(ctx context.Context, text string, fileName string) (string, error) {
	if i.cfg.MaxInputChars > 0 {
		runes := []rune(text)
		if len(runes) > i.cfg.MaxInputChars {
			runes = runes[:i.cfg.MaxInputChars]
			text = string(runes)
		}
	}
	logger := logutil.GetLogger(ctx).With(
		zap.String("provider", i.provider.Name()),
		zap.String("model", i.cfg.Model),
		zap.Int("input_chars", len(text)),
	)

	callCtx, cancel := context.WithTimeout(context.Background(), i.cfg.Timeout)
	defer cancel()

	start := time.Now()
	summary, err := i.provider.Generate(callCtx, i.cfg.Model, fmt.Sprintf(summaryPrompt, fileName, text))
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() != nil {
			logger.Warn("ai call timed out", zap.Duration("elapsed", elapsed))
			return "", fmt.Errorf("%w: %v", ErrTimedOut, err)
		}
		logger.Error("ai call failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return "", err
	}
	if summary == "" {
		logger.Warn("ai call returned empty summary", zap.Duration("elapsed", elapsed))
		return "", fmt.Errorf("provider returned empty summary")
	}
	logger.Info("ai call completed", zap.Duration("elapsed", elapsed))
	return summary, nil
}
