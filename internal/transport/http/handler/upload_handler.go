package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quartz-storefront/internal/core/errs"
	"quartz-storefront/internal/media"
	resp "quartz-storefront/internal/transport/http/response"
)

type UploadHandler struct {
	up       media.Uploader
	folder   string
	maxBytes int64
	guard    []gin.HandlerFunc
	log      *zap.Logger
}

// NewUploadHandler mounts POST /upload behind guard on the API surface. The
// admin surface is already guarded.
func NewUploadHandler(up media.Uploader, defaultFolder string, maxBytes int64, l *zap.Logger, guard ...gin.HandlerFunc) *UploadHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &UploadHandler{up: up, folder: defaultFolder, maxBytes: maxBytes, guard: guard, log: l}
}

func (h *UploadHandler) Priority() int { return 50 }

func (h *UploadHandler) MountAPI(g *gin.RouterGroup) {
	g.POST("/upload", append(append([]gin.HandlerFunc{}, h.guard...), h.upload)...)
}

func (h *UploadHandler) MountAdmin(g *gin.RouterGroup) {
	g.POST("/upload", h.upload)
}

func (h *UploadHandler) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			resp.Abort(c, h.log, errs.Validation("file too large"))
			return
		}
		resp.Abort(c, h.log, errs.Validation("no file provided"))
		return
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		resp.Abort(c, h.log, errs.Validation("file too large"))
		return
	}
	folder, err := media.CleanFolder(c.PostForm("folder"), h.folder)
	if err != nil {
		resp.Abort(c, h.log, errs.Validation(err.Error()))
		return
	}

	f, err := fh.Open()
	if err != nil {
		resp.Abort(c, h.log, errs.Validation("unreadable file"))
		return
	}
	defer f.Close()

	ct, body, err := media.Sniff(f)
	if err != nil {
		resp.Abort(c, h.log, errs.Validation("unreadable file"))
		return
	}
	if !media.Accept(ct) {
		resp.Abort(c, h.log, errs.Validation(media.ErrBadType.Error()))
		return
	}

	asset, err := h.up.Upload(c.Request.Context(), ct, body, folder)
	if err != nil {
		h.log.Error("media upload failed",
			zap.String("rid", c.GetString(resp.KeyRequestID)),
			zap.String("folder", folder),
			zap.String("contentType", ct),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, resp.Fail(errs.UpstreamFailure.String(), "upload failed"))
		return
	}
	resp.JSON(c, http.StatusOK, asset)
}
