package handlers

import (
	"errors"
	"net/http"

	"owner-console/editor"

	"github.com/gin-gonic/gin"
)

// PreviewHandler serves the bytes behind a pending upload so the console can
// render it before submission.
type PreviewHandler struct {
	Store editor.PreviewStore
}

func (h *PreviewHandler) ServePreview(c *gin.Context) {
	handle := c.Param("handle")

	pv, err := h.Store.Stat(c.Request.Context(), handle)
	if err != nil {
		if errors.Is(err, editor.ErrPreviewNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Preview not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load preview"})
		return
	}

	rc, err := h.Store.Open(c.Request.Context(), handle)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Preview not found"})
		return
	}
	defer rc.Close()

	contentType := pv.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, pv.Size, contentType, rc, map[string]string{
		"Cache-Control":          "private, no-store",
		"X-Content-Type-Options": "nosniff",
	})
}
