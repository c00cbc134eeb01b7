package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"

	"github.com/lexbrief/lexbrief/internal/pkg/response"
	"github.com/lexbrief/lexbrief/internal/service"
)

type AnalysisHandler struct {
	analysis *service.AnalysisService
}

func NewAnalysisHandler(analysis *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis}
}

func (h *AnalysisHandler) List(c *gin.Context) {
	limit, _ := strconv.ParseUint(c.DefaultQuery("limit", "20"), 10, 32)
	offset, _ := strconv.ParseUint(c.DefaultQuery("offset", "0"), 10, 32)
	analyses, err := h.analysis.ListAnalyses(c.Request.Context(), getCallerID(c), uint(limit), uint(offset))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, analyses)
}

func (h *AnalysisHandler) Get(c *gin.Context) {
	analysis, err := h.analysis.GetAnalysis(c.Request.Context(), getCallerID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, analysis)
}

// Export renders the stored summary markdown as a standalone HTML page.
func (h *AnalysisHandler) Export(c *gin.Context) {
	analysis, err := h.analysis.GetAnalysis(c.Request.Context(), getCallerID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(analysis.Summary), &body); err != nil {
		handleError(c, err)
		return
	}
	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	page.WriteString(htmlEscape(analysis.FileName))
	page.WriteString("</title></head><body>\n")
	page.Write(body.Bytes())
	page.WriteString("\n</body></html>")
	c.Data(http.StatusOK, "text/html; charset=utf-8", page.Bytes())
}

func htmlEscape(s string) string {
	var out bytes.Buffer
	for _, r := range s {
		switch r {
		case '<':
			out.WriteString("&lt;")
		case '>':
			out.WriteString("&gt;")
		case '&':
			out.WriteString("&amp;")
		case '"':
			out.WriteString("&quot;")
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}
