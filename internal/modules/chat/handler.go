package chat

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mqxu/campus-api/internal/middleware"
	"github.com/mqxu/campus-api/internal/pkg/response"
)

// Handler exposes the chat endpoints. All routes require authentication.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	chat := rg.Group("/chat", authMW)

	chat.GET("/models", h.models)
	chat.POST("/sessions", h.createSession)
	chat.GET("/sessions", h.listSessions)
	chat.PUT("/sessions/:id", h.renameSession)
	chat.DELETE("/sessions/:id", h.deleteSession)
	chat.GET("/sessions/:id/messages", h.listMessages)
	chat.POST("/sessions/:id/messages", h.sendMessage)
}

func (h *Handler) models(c *gin.Context) {
	response.OK(c, h.svc.Models())
}

func (h *Handler) createSession(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}
	var dto CreateSessionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	session, err := h.svc.CreateSession(c.Request.Context(), userID, &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, session)
}

func (h *Handler) listSessions(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}
	sessions, err := h.svc.ListSessions(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, sessions)
}

func (h *Handler) renameSession(c *gin.Context) {
	userID, sessionID, ok := h.scope(c)
	if !ok {
		return
	}
	var dto RenameSessionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.RenameSession(c.Request.Context(), userID, sessionID, dto.Title); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *Handler) deleteSession(c *gin.Context) {
	userID, sessionID, ok := h.scope(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteSession(c.Request.Context(), userID, sessionID); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *Handler) listMessages(c *gin.Context) {
	userID, sessionID, ok := h.scope(c)
	if !ok {
		return
	}
	messages, err := h.svc.ListMessages(c.Request.Context(), userID, sessionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, messages)
}

func (h *Handler) sendMessage(c *gin.Context) {
	userID, sessionID, ok := h.scope(c)
	if !ok {
		return
	}
	var dto SendMessageDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	reply, err := h.svc.SendMessage(c.Request.Context(), userID, sessionID, dto.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, reply)
}

func (h *Handler) scope(c *gin.Context) (userID, sessionID int64, ok bool) {
	userID, authed := middleware.CurrentUserID(c)
	if !authed {
		response.Unauthorized(c)
		return 0, 0, false
	}
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		response.BadRequest(c, "无效的会话 ID")
		return 0, 0, false
	}
	return userID, sessionID, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errSessionNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, errNoProvider):
		response.Fail(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
