package handler

import (
	"strconv"

	"botdeck/backend/internal/model"
	"botdeck/backend/internal/service"
	"botdeck/backend/internal/util"

	"github.com/gin-gonic/gin"
)

// BotHandler handles bot lifecycle endpoints
type BotHandler struct {
	botService *service.BotService
}

// NewBotHandler creates a new bot handler
func NewBotHandler(botService *service.BotService) *BotHandler {
	return &BotHandler{
		botService: botService,
	}
}

func currentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		util.SendError(c, util.ErrUnauthorized("User not authenticated"))
		return "", false
	}
	return userID.(string), true
}

func botIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		util.SendError(c, util.ErrBadRequest("Invalid bot ID"))
		return 0, false
	}
	return id, true
}

// CreateBot handles POST /api/v1/bots
func (h *BotHandler) CreateBot(c *gin.Context) {
	var req model.BotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	bot, err := h.botService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendCreated(c, bot, "Bot created successfully")
}

// ListBots handles GET /api/v1/bots
func (h *BotHandler) ListBots(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	bots, err := h.botService.List(c.Request.Context(), userID)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, bots)
}

// GetBot handles GET /api/v1/bots/:id
func (h *BotHandler) GetBot(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := botIDParam(c)
	if !ok {
		return
	}

	bot, err := h.botService.Get(c.Request.Context(), userID, id)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, bot)
}

// UpdateBot handles PUT /api/v1/bots/:id
func (h *BotHandler) UpdateBot(c *gin.Context) {
	var req model.BotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := botIDParam(c)
	if !ok {
		return
	}

	bot, err := h.botService.Update(c.Request.Context(), userID, id, &req)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, bot)
}

// DeleteBot handles DELETE /api/v1/bots/:id
func (h *BotHandler) DeleteBot(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := botIDParam(c)
	if !ok {
		return
	}

	if err := h.botService.Delete(c.Request.Context(), userID, id); err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccessWithMessage(c, nil, "Bot deleted successfully")
}

// PauseBot handles POST /api/v1/bots/:id/pause
func (h *BotHandler) PauseBot(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := botIDParam(c)
	if !ok {
		return
	}

	bot, err := h.botService.Pause(c.Request.Context(), userID, id)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, bot)
}

// StartBot handles POST /api/v1/bots/:id/start
func (h *BotHandler) StartBot(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := botIDParam(c)
	if !ok {
		return
	}

	bot, err := h.botService.Start(c.Request.Context(), userID, id)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, bot)
}

// PanicBot handles POST /api/v1/bots/:id/panic
func (h *BotHandler) PanicBot(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := botIDParam(c)
	if !ok {
		return
	}

	bot, err := h.botService.Panic(c.Request.Context(), userID, id)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, bot)
}

// DuplicateBot handles POST /api/v1/bots/:id/duplicate
func (h *BotHandler) DuplicateBot(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		util.SendValidationError(c, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := botIDParam(c)
	if !ok {
		return
	}

	bot, err := h.botService.Duplicate(c.Request.Context(), userID, id, req.Name)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendCreated(c, bot, "Bot duplicated successfully")
}

// ListDeals handles GET /api/v1/bots/:id/deals
func (h *BotHandler) ListDeals(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := botIDParam(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	deals, err := h.botService.Deals(c.Request.Context(), userID, id, limit, offset)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendPaginated(c, deals, util.Pagination{
		Limit:  limit,
		Offset: offset,
		Total:  int64(len(deals)),
	})
}

// GetPerformance handles GET /api/v1/bots/:id/performance
func (h *BotHandler) GetPerformance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := botIDParam(c)
	if !ok {
		return
	}

	report, err := h.botService.Performance(c.Request.Context(), userID, id)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, report)
}

// GetBotSummary handles GET /api/v1/bots/:id/summary
func (h *BotHandler) GetBotSummary(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := botIDParam(c)
	if !ok {
		return
	}

	summary, err := h.botService.Summary(c.Request.Context(), userID, id)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, summary)
}
