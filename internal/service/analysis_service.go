package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/lexbrief/lexbrief/internal/ai"
	"github.com/lexbrief/lexbrief/internal/extract"
	"github.com/lexbrief/lexbrief/internal/filestore"
	"github.com/lexbrief/lexbrief/internal/model"
	appErr "github.com/lexbrief/lexbrief/internal/pkg/errors"
	"github.com/lexbrief/lexbrief/internal/pkg/timeutil"
)

// Extractions shorter than this go straight to the insufficient-text
// fallback instead of wasting an AI call.
const minExtractedChars = 40

const (
	AuthSchemeSession = "session"
	AuthSchemeAPIKey  = "api_key"
)

// Identity is the resolved caller of one request. APIKeyID is set only
// on the API-key path.
type Identity struct {
	CallerID string
	Scheme   string
	APIKeyID string
}

// Upload is the transient payload of one analyze call.
type Upload struct {
	FileName  string
	MimeType  string
	Size      int64
	Data      []byte
	ClientIP  string
	UserAgent string
	Endpoint  string
}

type QuotaStore interface {
	Get(ctx context.Context, callerID string) (*model.UsageProfile, error)
	ConsumeQuota(ctx context.Context, callerID string, mtime int64) error
	ReleaseQuota(ctx context.Context, callerID string, mtime int64) error
}

type AnalysisStore interface {
	Create(ctx context.Context, analysis *model.Analysis) error
	Finalize(ctx context.Context, analysis *model.Analysis) error
	GetByID(ctx context.Context, callerID, analysisID string) (*model.Analysis, error)
	List(ctx context.Context, callerID string, limit, offset uint) ([]model.Analysis, error)
}

type UsageLogStore interface {
	Append(ctx context.Context, entry *model.UsageLog) error
}

type APIKeyToucher interface {
	TouchUsage(ctx context.Context, keyID string, usedAt int64) error
}

type AccountGetter interface {
	GetByID(ctx context.Context, accountID string) (*model.Account, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, text string, fileName string) (string, error)
}

type AnalysisService struct {
	profiles  QuotaStore
	analyses  AnalysisStore
	usageLogs UsageLogStore
	apiKeys   APIKeyToucher
	accounts  AccountGetter
	invoker   Summarizer
	archive   filestore.Store
	mail      EmailSender
	maxSize   int64
	cache     *expirable.LRU[string, string]
}

func NewAnalysisService(
	profiles QuotaStore,
	analyses AnalysisStore,
	usageLogs UsageLogStore,
	apiKeys APIKeyToucher,
	accounts AccountGetter,
	invoker Summarizer,
	archive filestore.Store,
	mail EmailSender,
	maxSize int64,
) *AnalysisService {
	cache := expirable.NewLRU[string, string](2048, nil, 2*time.Hour)
	return &AnalysisService{
		profiles:  profiles,
		analyses:  analyses,
		usageLogs: usageLogs,
		apiKeys:   apiKeys,
		accounts:  accounts,
		invoker:   invoker,
		archive:   archive,
		mail:      mail,
		maxSize:   maxSize,
		cache:     cache,
	}
}

// Analyze runs the full pipeline for one uploaded document: validate,
// reserve quota, extract, summarize, and persist. AI failures never
// surface as errors; they resolve to a fallback summary on a normally
// completed analysis. Returned errors are therefore only validation,
// auth-adjacent lookup or storage failures from before any AI cost.
func (s *AnalysisService) Analyze(ctx context.Context, identity Identity, upload Upload) (*model.Analysis, error) {
	logger := logutil.GetLogger(ctx).With(
		zap.String("caller_id", identity.CallerID),
		zap.String("file_name", upload.FileName),
		zap.Int64("file_size", upload.Size),
		zap.String("mime_type", upload.MimeType),
	)
	start := time.Now()

	if err := ValidateUpload(upload.FileName, upload.MimeType, upload.Size, s.maxSize); err != nil {
		logger.Warn("upload rejected", zap.Error(err))
		s.recordUsage(ctx, identity, upload, "rejected", time.Since(start))
		return nil, err
	}

	// Quota is reserved with one conditional increment before the AI
	// call, so a caller at their ceiling never incurs external cost and
	// two concurrent requests cannot both slip through.
	if err := s.profiles.ConsumeQuota(ctx, identity.CallerID, timeutil.NowUnix()); err != nil {
		logger.Warn("quota reservation failed", zap.Error(err))
		s.recordUsage(ctx, identity, upload, "quota_denied", time.Since(start))
		return nil, err
	}

	now := timeutil.NowUnix()
	analysis := &model.Analysis{
		ID:       newID(),
		CallerID: identity.CallerID,
		FileName: upload.FileName,
		FileKey:  buildFileKey(identity.CallerID, upload.FileName),
		Status:   model.AnalysisStatusPending,
		Ctime:    now,
		Mtime:    now,
	}
	if err := s.analyses.Create(ctx, analysis); err != nil {
		logger.Error("persist pending analysis failed", zap.Error(err))
		// The reservation was made but nothing will run; hand the unit back.
		if relErr := s.profiles.ReleaseQuota(ctx, identity.CallerID, timeutil.NowUnix()); relErr != nil {
			logger.Error("release reserved quota failed", zap.Error(relErr))
		}
		return nil, appErr.ErrInternal
	}

	s.archiveOriginal(ctx, analysis.FileKey, upload.Data)

	summary, status, class := s.summarize(ctx, upload)

	analysis.Status = status
	analysis.Summary = summary
	analysis.FailureClass = string(class)
	analysis.ProcessingMs = time.Since(start).Milliseconds()
	analysis.Mtime = timeutil.NowUnix()
	if err := s.analyses.Finalize(ctx, analysis); err != nil {
		// The caller still gets their summary; the stale row is swept by
		// the cleanup job.
		logger.Error("finalize analysis failed", zap.Error(err))
	}

	s.recordUsage(ctx, identity, upload, status, time.Since(start))
	s.maybeWarnQuota(ctx, identity.CallerID)

	logger.Info("analysis finished",
		zap.String("analysis_id", analysis.ID),
		zap.String("status", status),
		zap.String("failure_class", string(class)),
		zap.Int64("processing_ms", analysis.ProcessingMs),
	)
	return analysis, nil
}

// summarize extracts text and invokes the AI provider, converting every
// failure into a fallback summary. It always produces non-empty text.
func (s *AnalysisService) summarize(ctx context.Context, upload Upload) (summary, status string, class FailureClass) {
	logger := logutil.GetLogger(ctx)

	text, err := extract.Text(upload.FileName, upload.Data)
	if err != nil {
		class = classifyExtractError(err)
		logger.Warn("text extraction failed", zap.Error(err), zap.String("class", string(class)))
		return FallbackSummary(class, upload.FileName, ""), model.AnalysisStatusFallback, class
	}
	if len(collapseWhitespace(text)) < minExtractedChars {
		class = FailureInsufficientText
		return FallbackSummary(class, upload.FileName, text), model.AnalysisStatusFallback, class
	}

	cacheKey := contentHash(text)
	if cached, ok := s.cache.Get(cacheKey); ok {
		logger.Debug("summary cache hit")
		return cached, model.AnalysisStatusCompleted, FailureNone
	}

	summary, err = s.invoker.Summarize(ctx, text, upload.FileName)
	if err != nil {
		class = classifyInvokeError(err)
		logger.Warn("ai summarization failed", zap.Error(err), zap.String("class", string(class)))
		return FallbackSummary(class, upload.FileName, text), model.AnalysisStatusFallback, class
	}
	s.cache.Add(cacheKey, summary)
	return summary, model.AnalysisStatusCompleted, FailureNone
}

func classifyExtractError(err error) FailureClass {
	switch {
	case errors.Is(err, extract.ErrUnparseable):
		return FailureUnparseable
	case errors.Is(err, extract.ErrNoText):
		return FailureOther
	default:
		return FailureOther
	}
}

func classifyInvokeError(err error) FailureClass {
	if errors.Is(err, ai.ErrTimedOut) {
		return FailureTimedOut
	}
	return FailureOther
}

func (s *AnalysisService) archiveOriginal(ctx context.Context, key string, data []byte) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Save(ctx, key, data); err != nil {
		logutil.GetLogger(ctx).Warn("archive original failed", zap.String("file_key", key), zap.Error(err))
	}
}

// recordUsage appends the audit entry and bumps API-key counters.
// Best-effort: by the time it runs the caller already has their answer,
// so failures are logged and swallowed.
func (s *AnalysisService) recordUsage(ctx context.Context, identity Identity, upload Upload, outcome string, elapsed time.Duration) {
	logger := logutil.GetLogger(ctx).With(zap.String("caller_id", identity.CallerID))
	now := timeutil.NowUnix()
	entry := &model.UsageLog{
		ID:             newID(),
		CallerID:       identity.CallerID,
		Endpoint:       upload.Endpoint,
		Outcome:        outcome,
		ResponseTimeMs: elapsed.Milliseconds(),
		ClientIP:       upload.ClientIP,
		UserAgent:      upload.UserAgent,
		Ctime:          now,
	}
	if err := s.usageLogs.Append(ctx, entry); err != nil {
		logger.Warn("append usage log failed", zap.Error(err))
	}
	if identity.Scheme == AuthSchemeAPIKey && identity.APIKeyID != "" {
		if err := s.apiKeys.TouchUsage(ctx, identity.APIKeyID, now); err != nil {
			logger.Warn("touch api key usage failed", zap.Error(err))
		}
	}
}

// maybeWarnQuota emails the caller once their usage crosses 80% of the
// plan limit. Crossing is detected on the unit that tipped over, so the
// mail goes out at most once per period.
func (s *AnalysisService) maybeWarnQuota(ctx context.Context, callerID string) {
	if s.mail == nil || s.accounts == nil {
		return
	}
	logger := logutil.GetLogger(ctx).With(zap.String("caller_id", callerID))
	profile, err := s.profiles.Get(ctx, callerID)
	if err != nil {
		logger.Warn("quota warning lookup failed", zap.Error(err))
		return
	}
	count, limit := profile.DocumentCount, profile.DocumentLimit
	if limit <= 0 || count*5 < limit*4 || (count-1)*5 >= limit*4 {
		return
	}
	account, err := s.accounts.GetByID(ctx, callerID)
	if err != nil {
		logger.Warn("quota warning account lookup failed", zap.Error(err))
		return
	}
	body := "You have used " + strconv.FormatInt(count, 10) + " of " + strconv.FormatInt(limit, 10) +
		" document analyses in your current billing period. Upgrade your plan to raise the limit."
	if err := s.mail.Send(account.Email, "You are nearing your document limit", body); err != nil {
		logger.Warn("quota warning email failed", zap.Error(err))
	}
}

func (s *AnalysisService) GetAnalysis(ctx context.Context, callerID, analysisID string) (*model.Analysis, error) {
	return s.analyses.GetByID(ctx, callerID, analysisID)
}

func (s *AnalysisService) ListAnalyses(ctx context.Context, callerID string, limit, offset uint) ([]model.Analysis, error) {
	return s.analyses.List(ctx, callerID, limit, offset)
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func buildFileKey(callerID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return callerID + "_" + newID() + ext
}
