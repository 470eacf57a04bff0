package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ukmadlz/infobip-talk-quiz-whatsapp-bot/internal/repository"
	"github.com/ukmadlz/infobip-talk-quiz-whatsapp-bot/internal/service"
)

// MessageHandler handles the inbound webhook and the admin triggers
type MessageHandler struct {
	inbound   service.InboundService
	broadcast service.BroadcastService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(inbound service.InboundService, broadcast service.BroadcastService) *MessageHandler {
	return &MessageHandler{inbound: inbound, broadcast: broadcast}
}

// Inbound receives a webhook delivery batch. The batch is always acknowledged
// with 200 once processing finishes; a per-event error is reported in the
// body for visibility but never crashes the delivery.
func (h *MessageHandler) Inbound(c *gin.Context) {
	var req struct {
		Results []service.InboundEvent `json:"results" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.inbound.ProcessBatch(c.Request.Context(), req.Results); err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Question triggers a question broadcast to every registered contact.
func (h *MessageHandler) Question(c *gin.Context) {
	questionID, err := strconv.Atoi(c.Param("questionId"))
	if err != nil || questionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "questionId must be a positive integer"})
		return
	}

	result, err := h.broadcast.BroadcastQuestion(c.Request.Context(), questionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "question not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to broadcast question"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"question": result.Question.ID,
		"answers":  result.Buttons,
	})
}

// Coupons triggers the coupon distribution run.
func (h *MessageHandler) Coupons(c *gin.Context) {
	assigned, err := h.broadcast.BroadcastCoupons(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "assigned": assigned})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "assigned": assigned})
}

// Index renders the admin command list: one trigger link per question plus
// the coupon run.
func (h *MessageHandler) Index(c *gin.Context) {
	questions, err := h.broadcast.Questions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list questions"})
		return
	}

	var items strings.Builder
	for _, q := range questions {
		items.WriteString(fmt.Sprintf(`<li style="font-size: 3em;"><a href="/message/question/%d" target="_blank">%s</a></li>`, q.ID, q.Text))
	}
	items.WriteString(`<li style="font-size: 3em;"><a href="/message/coupons" target="_blank">Coupons</a></li>`)

	html := fmt.Sprintf(`<html><head><title>Commands</title></head><body><ul>%s</ul></body></html>`, items.String())
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// RegisterMessageRoutes registers the webhook and admin trigger routes
func (h *MessageHandler) RegisterMessageRoutes(r *gin.Engine) {
	r.GET("/", h.Index)
	messageGroup := r.Group("/message")
	{
		messageGroup.POST("/inbound", h.Inbound)
		messageGroup.GET("/question/:questionId", h.Question)
		messageGroup.GET("/coupons", h.Coupons)
	}
}
