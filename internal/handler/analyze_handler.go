package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexbrief/lexbrief/internal/model"
	appErr "github.com/lexbrief/lexbrief/internal/pkg/errors"
	"github.com/lexbrief/lexbrief/internal/pkg/response"
	"github.com/lexbrief/lexbrief/internal/service"
)

type AnalyzeHandler struct {
	analysis *service.AnalysisService
}

func NewAnalyzeHandler(analysis *service.AnalysisService) *AnalyzeHandler {
	return &AnalyzeHandler{analysis: analysis}
}

type analyzeResponse struct {
	Status           string `json:"status"`
	AnalysisID       string `json:"analysis_id"`
	Summary          string `json:"summary"`
	FailureClass     string `json:"failure_class,omitempty"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

// Analyze accepts a multipart upload in field "file" and runs the
// document through the analysis pipeline. AI failures still return 200
// with a fallback summary; only validation, auth, quota and storage
// problems map to error statuses.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		handleError(c, appErr.ErrNoFile)
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_file", "failed to open file")
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(opened)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_file", "failed to read file")
		return
	}

	upload := service.Upload{
		FileName:  file.Filename,
		MimeType:  file.Header.Get("Content-Type"),
		Size:      file.Size,
		Data:      data,
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Endpoint:  c.FullPath(),
	}
	analysis, err := h.analysis.Analyze(c.Request.Context(), identityFromContext(c), upload)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, toAnalyzeResponse(analysis))
}

func toAnalyzeResponse(analysis *model.Analysis) analyzeResponse {
	return analyzeResponse{
		Status:           analysis.Status,
		AnalysisID:       analysis.ID,
		Summary:          analysis.Summary,
		FailureClass:     analysis.FailureClass,
		ProcessingTimeMs: analysis.ProcessingMs,
	}
}
