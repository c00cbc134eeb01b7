package ai

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	generate func(ctx context.Context, model, prompt string) (string, error)
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Generate(ctx context.Context, model, prompt string) (string, error) {
	return s.generate(ctx, model, prompt)
}

func TestSummarizeTruncatesInput(t *testing.T) {
	var gotPrompt string
	provider := &stubProvider{generate: func(ctx context.Context, model, prompt string) (string, error) {
		gotPrompt = prompt
		return "ok", nil
	}}
	invoker := NewInvoker(provider, InvokerConfig{Model: "m", MaxInputChars: 100})

	_, err := invoker.Summarize(context.Background(), strings.Repeat("x", 500), "contract.txt")
	require.NoError(t, err)
	require.Contains(t, gotPrompt, "contract.txt")
	require.NotContains(t, gotPrompt, strings.Repeat("x", 101))
	require.Contains(t, gotPrompt, strings.Repeat("x", 100))
}

func TestSummarizeTimeoutClassified(t *testing.T) {
	provider := &stubProvider{generate: func(ctx context.Context, model, prompt string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	invoker := NewInvoker(provider, InvokerConfig{Model: "m", Timeout: 20 * time.Millisecond})

	_, err := invoker.Summarize(context.Background(), "some document text", "contract.txt")
	require.ErrorIs(t, err, ErrTimedOut)
}

func TestSummarizeCallerCancelDoesNotCancelCall(t *testing.T) {
	provider := &stubProvider{generate: func(ctx context.Context, model, prompt string) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(30 * time.Millisecond):
			return "finished anyway", nil
		}
	}}
	invoker := NewInvoker(provider, InvokerConfig{Model: "m", Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := invoker.Summarize(ctx, "some document text", "contract.txt")
	require.NoError(t, err)
	require.Equal(t, "finished anyway", summary)
}

func TestSummarizeProviderErrorPassedThrough(t *testing.T) {
	provider := &stubProvider{generate: func(ctx context.Context, model, prompt string) (string, error) {
		return "", fmt.Errorf("status 500")
	}}
	invoker := NewInvoker(provider, InvokerConfig{Model: "m", Timeout: time.Second})

	_, err := invoker.Summarize(context.Background(), "some document text", "contract.txt")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrTimedOut)
}

func TestSummarizeEmptySummaryIsError(t *testing.T) {
	provider := &stubProvider{generate: func(ctx context.Context, model, prompt string) (string, error) {
		return "", nil
	}}
	invoker := NewInvoker(provider, InvokerConfig{Model: "m", Timeout: time.Second})

	_, err := invoker.Summarize(context.Background(), "some document text", "contract.txt")
	require.Error(t, err)
}
