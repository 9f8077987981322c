package handler

import (
	"botdeck/backend/internal/model"
	"botdeck/backend/internal/service"
	"botdeck/backend/internal/util"

	"github.com/gin-gonic/gin"
)

// CredentialHandler handles exchange credential endpoints
type CredentialHandler struct {
	credService *service.CredentialService
}

// NewCredentialHandler creates a new credential handler
func NewCredentialHandler(credService *service.CredentialService) *CredentialHandler {
	return &CredentialHandler{
		credService: credService,
	}
}

// Connect handles POST /api/v1/credentials
func (h *CredentialHandler) Connect(c *gin.Context) {
	var req model.CredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	resp, err := h.credService.Connect(c.Request.Context(), userID, &req)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendCreated(c, resp, "Exchange credentials connected")
}

// Status handles GET /api/v1/credentials
func (h *CredentialHandler) Status(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	resp, err := h.credService.Status(c.Request.Context(), userID)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, resp)
}

// Disconnect handles DELETE /api/v1/credentials
func (h *CredentialHandler) Disconnect(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.credService.Disconnect(c.Request.Context(), userID); err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccessWithMessage(c, nil, "Exchange credentials disconnected")
}

// Wallet handles GET /api/v1/credentials/wallet
func (h *CredentialHandler) Wallet(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	info, err := h.credService.Wallet(c.Request.Context(), userID)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, info)
}
