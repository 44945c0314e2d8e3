package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/mqxu/campus-api/internal/middleware"
	"github.com/mqxu/campus-api/internal/pkg/response"
)

// Handler exposes the auth endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	a := rg.Group("/auth")

	a.POST("/login", h.login)
	a.POST("/sms/send", h.sendSmsCode)
	a.POST("/sms/login", h.smsLogin)
	a.POST("/wechat/login", h.wechatLogin)
	a.POST("/logout", h.logout)
	a.POST("/mobile/bind", authMW, h.bindMobile)
	a.POST("/mobile/change", authMW, h.changeMobile)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.svc.Login(c.Request.Context(), dto.Username, dto.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, result)
}

func (h *Handler) sendSmsCode(c *gin.Context) {
	var dto SendSmsCodeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.SendSmsCode(c.Request.Context(), dto.Mobile); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *Handler) smsLogin(c *gin.Context) {
	var dto SmsLoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.svc.SmsLogin(c.Request.Context(), dto.Mobile, dto.Code)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, result)
}

func (h *Handler) wechatLogin(c *gin.Context) {
	var dto WechatLoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.svc.WechatLogin(c.Request.Context(), dto.Code)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, result)
}

// logout revokes the presented token. Always succeeds: an absent or
// unparseable token is already logged out.
func (h *Handler) logout(c *gin.Context) {
	token := middleware.ExtractToken(c)
	if err := h.svc.Logout(c.Request.Context(), token); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *Handler) bindMobile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}
	var dto BindMobileDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.BindMobile(c.Request.Context(), userID, dto.Mobile, dto.Code); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *Handler) changeMobile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}
	var dto ChangeMobileDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.ChangeMobile(c.Request.Context(), userID, &dto); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, nil)
}

// fail maps service errors to the response envelope. Business failures keep
// their message; anything else is a 500.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrCodeExpired),
		errors.Is(err, ErrCodeMismatch),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrMobileTaken),
		errors.Is(err, ErrOldMobileMismatch),
		errors.Is(err, ErrSendFailed),
		errors.Is(err, ErrProviderError):
		response.Fail(c, err.Error())
	case errors.Is(err, ErrAccountDisabled):
		response.Forbidden(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
