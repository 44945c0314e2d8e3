package oss

import (
	"github.com/gin-gonic/gin"
	"github.com/mqxu/campus-api/internal/pkg/response"
)

const maxUploadBytes = 20 << 20

// Handler exposes the upload endpoint. A nil uploader means object storage
// is not configured; the endpoint then reports a business failure.
type Handler struct {
	uploader *Uploader
}

func NewHandler(uploader *Uploader) *Handler {
	return &Handler{uploader: uploader}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/oss", authMW)
	g.POST("/upload", h.upload)
}

func (h *Handler) upload(c *gin.Context) {
	if h.uploader == nil {
		response.Fail(c, "对象存储未配置")
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "缺少上传文件")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		response.BadRequest(c, "文件过大")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	defer f.Close()

	url, err := h.uploader.Upload(
		c.Request.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		f,
		fileHeader.Size,
	)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"url": url})
}
