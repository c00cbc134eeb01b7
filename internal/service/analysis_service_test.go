package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexbrief/lexbrief/internal/ai"
	"github.com/lexbrief/lexbrief/internal/model"
	appErr "github.com/lexbrief/lexbrief/internal/pkg/errors"
)

type fakeQuota struct {
	mu    sync.Mutex
	count int64
	limit int64
}

func (f *fakeQuota) Get(ctx context.Context, callerID string) (*model.UsageProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &model.UsageProfile{CallerID: callerID, DocumentCount: f.count, DocumentLimit: f.limit}, nil
}

func (f *fakeQuota) ConsumeQuota(ctx context.Context, callerID string, mtime int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.count >= f.limit {
		return appErr.ErrQuotaExceeded
	}
	f.count++
	return nil
}

func (f *fakeQuota) ReleaseQuota(ctx context.Context, callerID string, mtime int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.count > 0 {
		f.count--
	}
	return nil
}

type fakeAnalyses struct {
	mu        sync.Mutex
	created   []*model.Analysis
	finalized []*model.Analysis
	createErr error
}

func (f *fakeAnalyses) Create(ctx context.Context, analysis *model.Analysis) error {
	if f.createErr != nil {
		return f.createErr
	}
	copied := *analysis
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, &copied)
	return nil
}

func (f *fakeAnalyses) Finalize(ctx context.Context, analysis *model.Analysis) error {
	copied := *analysis
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalized = append(f.finalized, &copied)
	return nil
}

func (f *fakeAnalyses) GetByID(ctx context.Context, callerID, analysisID string) (*model.Analysis, error) {
	return nil, appErr.ErrNotFound
}

func (f *fakeAnalyses) List(ctx context.Context, callerID string, limit, offset uint) ([]model.Analysis, error) {
	return nil, nil
}

type fakeUsageLogs struct {
	mu      sync.Mutex
	entries []*model.UsageLog
}

func (f *fakeUsageLogs) Append(ctx context.Context, entry *model.UsageLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

type fakeToucher struct {
	touched []string
}

func (f *fakeToucher) TouchUsage(ctx context.Context, keyID string, usedAt int64) error {
	f.touched = append(f.touched, keyID)
	return nil
}

type fakeAccounts struct {
	email string
}

func (f *fakeAccounts) GetByID(ctx context.Context, accountID string) (*model.Account, error) {
	return &model.Account{ID: accountID, Email: f.email}, nil
}

type fakeSummarizer struct {
	calls int
	fn    func(text string) (string, error)
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string, fileName string) (string, error) {
	f.calls++
	if f.fn != nil {
		return f.fn(text)
	}
	return "summary of " + fileName, nil
}

type fakeMailer struct {
	sent []string
}

func (f *fakeMailer) Send(to, subject, body string) error {
	f.sent = append(f.sent, to)
	return nil
}

type analysisFixture struct {
	svc       *AnalysisService
	quota     *fakeQuota
	analyses  *fakeAnalyses
	logs      *fakeUsageLogs
	toucher   *fakeToucher
	summarize *fakeSummarizer
	mail      *fakeMailer
}

func newAnalysisFixture(limit int64) *analysisFixture {
	f := &analysisFixture{
		quota:     &fakeQuota{limit: limit},
		analyses:  &fakeAnalyses{},
		logs:      &fakeUsageLogs{},
		toucher:   &fakeToucher{},
		summarize: &fakeSummarizer{},
		mail:      &fakeMailer{},
	}
	f.svc = NewAnalysisService(
		f.quota,
		f.analyses,
		f.logs,
		f.toucher,
		&fakeAccounts{email: "user@example.com"},
		f.summarize,
		nil,
		f.mail,
		50*1024*1024,
	)
	return f
}

const longText = "This agreement is entered into between the parties named below " +
	"and sets forth the terms of the engagement in full detail."

func textUpload(name, text string) Upload {
	return Upload{
		FileName: name,
		MimeType: "text/plain",
		Size:     int64(len(text)),
		Data:     []byte(text),
		Endpoint: "/api/v1/documents/analyze",
	}
}

func sessionIdentity() Identity {
	return Identity{CallerID: "caller-1", Scheme: AuthSchemeSession}
}

func TestAnalyzeCompleted(t *testing.T) {
	f := newAnalysisFixture(25)

	analysis, err := f.svc.Analyze(context.Background(), sessionIdentity(), textUpload("contract.txt", longText))
	require.NoError(t, err)
	require.Equal(t, model.AnalysisStatusCompleted, analysis.Status)
	require.Equal(t, "summary of contract.txt", analysis.Summary)
	require.Empty(t, analysis.FailureClass)
	require.Equal(t, int64(1), f.quota.count)

	require.Len(t, f.analyses.created, 1)
	require.Equal(t, model.AnalysisStatusPending, f.analyses.created[0].Status)
	require.Len(t, f.analyses.finalized, 1)
	require.Equal(t, model.AnalysisStatusCompleted, f.analyses.finalized[0].Status)

	require.Len(t, f.logs.entries, 1)
	require.Equal(t, model.AnalysisStatusCompleted, f.logs.entries[0].Outcome)
}

func TestAnalyzeQuotaDeniedBeforeAICall(t *testing.T) {
	f := newAnalysisFixture(3)
	f.quota.count = 3

	_, err := f.svc.Analyze(context.Background(), sessionIdentity(), textUpload("contract.txt", longText))
	require.ErrorIs(t, err, appErr.ErrQuotaExceeded)
	require.Zero(t, f.summarize.calls)
	require.Empty(t, f.analyses.created)

	require.Len(t, f.logs.entries, 1)
	require.Equal(t, "quota_denied", f.logs.entries[0].Outcome)
}

func TestAnalyzeRejectedUploadSkipsQuota(t *testing.T) {
	f := newAnalysisFixture(25)

	_, err := f.svc.Analyze(context.Background(), sessionIdentity(), Upload{
		FileName: "shot.png",
		MimeType: "image/png",
		Size:     100,
		Data:     []byte("not a document"),
	})
	require.ErrorIs(t, err, appErr.ErrUnsupportedType)
	require.Zero(t, f.quota.count)
	require.Len(t, f.logs.entries, 1)
	require.Equal(t, "rejected", f.logs.entries[0].Outcome)
}

func TestAnalyzeAIFailureYieldsFallback(t *testing.T) {
	f := newAnalysisFixture(25)
	f.summarize.fn = func(string) (string, error) {
		return "", fmt.Errorf("provider returned status 500")
	}

	analysis, err := f.svc.Analyze(context.Background(), sessionIdentity(), textUpload("contract.txt", longText))
	require.NoError(t, err)
	require.Equal(t, model.AnalysisStatusFallback, analysis.Status)
	require.Equal(t, string(FailureOther), analysis.FailureClass)
	require.Contains(t, analysis.Summary, "AI processing failed")
	require.Contains(t, analysis.Summary, "This agreement is entered into")

	// The attempt still consumed a quota unit.
	require.Equal(t, int64(1), f.quota.count)
}

func TestAnalyzeTimeoutClassified(t *testing.T) {
	f := newAnalysisFixture(25)
	f.summarize.fn = func(string) (string, error) {
		return "", fmt.Errorf("%w: context deadline exceeded", ai.ErrTimedOut)
	}

	analysis, err := f.svc.Analyze(context.Background(), sessionIdentity(), textUpload("contract.txt", longText))
	require.NoError(t, err)
	require.Equal(t, model.AnalysisStatusFallback, analysis.Status)
	require.Equal(t, string(FailureTimedOut), analysis.FailureClass)
	require.Contains(t, analysis.Summary, "processing time limit")
}

func TestAnalyzeUnparseableDocxSkipsAI(t *testing.T) {
	f := newAnalysisFixture(25)

	upload := Upload{
		FileName: "contract.docx",
		MimeType: "application/octet-stream",
		Size:     64,
		Data:     []byte{0x00, 0x01, 0x02, 0x03, 0xff, 0xfe},
	}
	analysis, err := f.svc.Analyze(context.Background(), sessionIdentity(), upload)
	require.NoError(t, err)
	require.Equal(t, model.AnalysisStatusFallback, analysis.Status)
	require.Equal(t, string(FailureUnparseable), analysis.FailureClass)
	require.Contains(t, analysis.Summary, "Word document")
	require.Zero(t, f.summarize.calls)
}

func TestAnalyzeShortTextSkipsAI(t *testing.T) {
	f := newAnalysisFixture(25)

	analysis, err := f.svc.Analyze(context.Background(), sessionIdentity(), textUpload("tiny.txt", "too short"))
	require.NoError(t, err)
	require.Equal(t, model.AnalysisStatusFallback, analysis.Status)
	require.Equal(t, string(FailureInsufficientText), analysis.FailureClass)
	require.Zero(t, f.summarize.calls)
}

func TestAnalyzeAPIKeyIdentityTouchesKey(t *testing.T) {
	f := newAnalysisFixture(25)

	identity := Identity{CallerID: "caller-1", Scheme: AuthSchemeAPIKey, APIKeyID: "key-9"}
	_, err := f.svc.Analyze(context.Background(), identity, textUpload("contract.txt", longText))
	require.NoError(t, err)
	require.Equal(t, []string{"key-9"}, f.toucher.touched)
}

func TestAnalyzeRepeatedContentHitsCache(t *testing.T) {
	f := newAnalysisFixture(25)

	_, err := f.svc.Analyze(context.Background(), sessionIdentity(), textUpload("a.txt", longText))
	require.NoError(t, err)
	_, err = f.svc.Analyze(context.Background(), sessionIdentity(), textUpload("b.txt", longText))
	require.NoError(t, err)

	require.Equal(t, 1, f.summarize.calls)
	require.Equal(t, int64(2), f.quota.count)
}

func TestAnalyzeQuotaWarningSentOnceAtThreshold(t *testing.T) {
	f := newAnalysisFixture(5)
	f.quota.count = 2

	// Third unit lands at 3 of 5, below the 80% mark.
	_, err := f.svc.Analyze(context.Background(), sessionIdentity(), textUpload("a.txt", longText))
	require.NoError(t, err)
	require.Empty(t, f.mail.sent)

	// Fourth unit crosses 80%.
	_, err = f.svc.Analyze(context.Background(), sessionIdentity(), textUpload("b.txt", longText))
	require.NoError(t, err)
	require.Equal(t, []string{"user@example.com"}, f.mail.sent)

	// Fifth unit is past the crossing; no second mail.
	_, err = f.svc.Analyze(context.Background(), sessionIdentity(), textUpload("c.txt", longText))
	require.NoError(t, err)
	require.Len(t, f.mail.sent, 1)
}

func TestAnalyzeConcurrentRequestsAtLastUnit(t *testing.T) {
	f := newAnalysisFixture(25)
	f.quota.count = 24

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			upload := textUpload("contract.txt", longText+" request copy "+strconv.Itoa(i))
			_, results[i] = f.svc.Analyze(context.Background(), sessionIdentity(), upload)
		}(i)
	}
	wg.Wait()

	// The single conditional increment lets exactly one request claim the
	// final unit; the other is denied before any AI call.
	var succeeded, denied int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, appErr.ErrQuotaExceeded):
			denied++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, denied)
	require.Equal(t, int64(25), f.quota.count)
}

func TestAnalyzeCreateFailureReleasesQuota(t *testing.T) {
	f := newAnalysisFixture(25)
	f.analyses.createErr = fmt.Errorf("db down")

	_, err := f.svc.Analyze(context.Background(), sessionIdentity(), textUpload("contract.txt", longText))
	require.ErrorIs(t, err, appErr.ErrInternal)
	require.Zero(t, f.quota.count)
	require.Zero(t, f.summarize.calls)
}
