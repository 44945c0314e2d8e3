package user

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mqxu/campus-api/internal/middleware"
	authmod "github.com/mqxu/campus-api/internal/modules/auth"
	"github.com/mqxu/campus-api/internal/pkg/pagination"
	"github.com/mqxu/campus-api/internal/pkg/response"
)

// Handler exposes profile endpoints and the user admin surface.
type Handler struct {
	svc  *Service
	auth *authmod.Service
}

func NewHandler(svc *Service, auth *authmod.Service) *Handler {
	return &Handler{svc: svc, auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	me := rg.Group("/user", authMW)
	me.GET("/me", h.me)
	me.PUT("/me", h.updateMe)

	admin := rg.Group("/admin/users", authMW)
	admin.GET("", h.list)
	admin.POST("", h.create)
	admin.GET("/:id", h.get)
	admin.PUT("/:id", h.update)
	admin.PUT("/:id/status", h.setStatus)
	admin.PUT("/:id/password", h.resetPassword)
	admin.DELETE("/:id", h.delete)
}

func (h *Handler) me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}
	u, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, u)
}

func (h *Handler) updateMe(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}
	var dto UpdateProfileDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.UpdateProfile(c.Request.Context(), userID, &dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, u)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	users, total, err := h.svc.List(c.Request.Context(), q, c.Query("keyword"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   q.TotalPages(total),
		Size:        q.Size,
		List:        users,
	})
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.Create(c.Request.Context(), &dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, u)
}

func (h *Handler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	u, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, u)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var dto UpdateProfileDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.UpdateProfile(c.Request.Context(), id, &dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, u)
}

// setStatus toggles the account. Disabling also revokes the live session so
// the gate stops accepting the user's token immediately.
func (h *Handler) setStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var dto SetStatusDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.SetStatus(c.Request.Context(), id, dto.Status); err != nil {
		h.fail(c, err)
		return
	}
	if dto.Status == 0 {
		if err := h.auth.LogoutUser(c.Request.Context(), id); err != nil {
			response.InternalError(c, err)
			return
		}
	}
	response.OK(c, nil)
}

func (h *Handler) resetPassword(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var dto ResetPasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), id, dto.Password); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.auth.LogoutUser(c.Request.Context(), id); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errUserNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, errUsernameTaken):
		response.Fail(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的用户 ID")
		return 0, false
	}
	return id, true
}
