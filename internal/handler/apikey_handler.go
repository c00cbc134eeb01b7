package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lexbrief/lexbrief/internal/pkg/response"
	"github.com/lexbrief/lexbrief/internal/service"
)

type APIKeyHandler struct {
	keys *service.APIKeyService
}

func NewAPIKeyHandler(keys *service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{keys: keys}
}

type createKeyRequest struct {
	Name string `json:"name"`
}

func (h *APIKeyHandler) Create(c *gin.Context) {
	var req createKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "default"
	}
	key, err := h.keys.Issue(c.Request.Context(), getCallerID(c), name)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, key)
}

func (h *APIKeyHandler) List(c *gin.Context) {
	keys, err := h.keys.List(c.Request.Context(), getCallerID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, keys)
}

func (h *APIKeyHandler) Revoke(c *gin.Context) {
	if err := h.keys.Revoke(c.Request.Context(), getCallerID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"revoked": true})
}
