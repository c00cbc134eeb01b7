package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/lexbrief/lexbrief/internal/pkg/response"
	"github.com/lexbrief/lexbrief/internal/service"
)

type UsageHandler struct {
	usage *service.UsageService
}

func NewUsageHandler(usage *service.UsageService) *UsageHandler {
	return &UsageHandler{usage: usage}
}

func (h *UsageHandler) Overview(c *gin.Context) {
	overview, err := h.usage.Overview(c.Request.Context(), getCallerID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, overview)
}
