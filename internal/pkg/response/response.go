package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Result is the uniform envelope all endpoints return.
type Result struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Pagination metadata returned with paginated responses.
type Pagination struct {
	Total       int64       `json:"total"`
	CurrentPage int         `json:"current_page"`
	TotalPage   int         `json:"total_page"`
	Size        int         `json:"size"`
	List        interface{} `json:"list"`
}

// OK sends a 200 envelope.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Result{Code: http.StatusOK, Message: "操作成功", Data: data})
}

// Paged sends a paginated 200 envelope.
func Paged(c *gin.Context, p Pagination) {
	c.JSON(http.StatusOK, Result{Code: http.StatusOK, Message: "操作成功", Data: p})
}

// Fail sends a business failure with HTTP 200 and a non-200 envelope code.
func Fail(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Result{Code: http.StatusInternalServerError, Message: message})
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Result{Code: http.StatusBadRequest, Message: message})
}

// Unauthorized sends a 401 error response.
func Unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Result{Code: http.StatusUnauthorized, Message: "未认证"})
}

// Forbidden sends a 403 error response.
func Forbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, Result{Code: http.StatusForbidden, Message: message})
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusNotFound, Result{Code: http.StatusNotFound, Message: message})
}

// InternalError sends a 500 error response.
func InternalError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, Result{Code: http.StatusInternalServerError, Message: err.Error()})
}
