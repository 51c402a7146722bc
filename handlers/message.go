package handlers

import (
	"net/http"

	"sponsorly/middleware"
	"sponsorly/models"
	"sponsorly/services/message"

	"github.com/gin-gonic/gin"
)

// MessageHandler backs the contact dialogs and the inbox.
type MessageHandler struct {
	Service message.MessageService
}

// SendHandler handles POST /api/messages.
func (h *MessageHandler) SendHandler(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	msg, err := h.Service.Send(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		fail(c, "send message", err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) InboxHandler(c *gin.Context) {
	resp, err := h.Service.Inbox(c.Request.Context(), middleware.UserID(c), pageParams(c))
	if err != nil {
		fail(c, "inbox", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MessageHandler) SentHandler(c *gin.Context) {
	resp, err := h.Service.Sent(c.Request.Context(), middleware.UserID(c), pageParams(c))
	if err != nil {
		fail(c, "sent messages", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MessageHandler) UnreadHandler(c *gin.Context) {
	n, err := h.Service.CountUnread(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, "count unread", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}

// MarkReadHandler handles POST /api/messages/:id/read.
func (h *MessageHandler) MarkReadHandler(c *gin.Context) {
	if err := h.Service.MarkRead(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		fail(c, "mark message read", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "read": true})
}
