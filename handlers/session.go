package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"owner-console/console"
	"owner-console/dtos"
	"owner-console/editor"
	"owner-console/mapping"
	"owner-console/middleware"
	"owner-console/ownerapi"
	"owner-console/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SessionHandler struct {
	Console *console.Service
	Log     *zap.Logger
}

// ownerContext carries the caller's bearer token through to the owner API.
func ownerContext(c *gin.Context) context.Context {
	return ownerapi.WithToken(c.Request.Context(), c.GetString(middleware.OwnerTokenKey))
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return uuid.Nil, false
	}
	return id, true
}

func intParam(c *gin.Context, name, label string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + label})
		return 0, false
	}
	return n, true
}

func (h *SessionHandler) respond(c *gin.Context, okStatus int, view console.View, err error) {
	if err == nil {
		c.JSON(okStatus, view)
		return
	}

	status := statusFor(err)
	msg := err.Error()
	switch {
	case isRemote(err) && view.Message != "":
		msg = view.Message
	case errors.Is(err, console.ErrBlankQuery):
		msg = console.MsgBlankQuery
	}

	body := gin.H{"error": msg}
	if view.ID != uuid.Nil {
		body["session"] = view
	}
	var fieldErr *mapping.FieldError
	if errors.As(err, &fieldErr) {
		body["field"] = fieldErr.Field
		body["variantId"] = fieldErr.VariantID
	}

	if status >= http.StatusInternalServerError {
		h.Log.Error("session request failed",
			zap.String("path", c.FullPath()),
			zap.String("session", view.ID.String()),
			zap.Error(err),
		)
	}
	c.JSON(status, body)
}

func (h *SessionHandler) OpenSession(c *gin.Context) {
	var req dtos.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	view, err := h.Console.Open(c.Request.Context(), console.Kind(req.Kind))
	h.respond(c, http.StatusCreated, view, err)
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	view, err := h.Console.Get(c.Request.Context(), id)
	h.respond(c, http.StatusOK, view, err)
}

func (h *SessionHandler) DiscardSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.Console.Discard(c.Request.Context(), id); err != nil {
		h.respond(c, http.StatusOK, console.View{}, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session discarded"})
}

func (h *SessionHandler) UpdateProductDetails(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req dtos.ProductDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	view, err := h.Console.UpdateDetails(c.Request.Context(), id, req.Patch())
	h.respond(c, http.StatusOK, view, err)
}

func (h *SessionHandler) AddVariant(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	view, err := h.Console.AddVariant(c.Request.Context(), id)
	h.respond(c, http.StatusCreated, view, err)
}

func (h *SessionHandler) UpdateVariant(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	variantID, ok := intParam(c, "variantId", "variant ID")
	if !ok {
		return
	}
	var req dtos.VariantFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	view, err := h.Console.UpdateVariantField(c.Request.Context(), id, variantID, req.Field, req.Value)
	h.respond(c, http.StatusOK, view, err)
}

func (h *SessionHandler) RemoveVariant(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	variantID, ok := intParam(c, "variantId", "variant ID")
	if !ok {
		return
	}
	view, err := h.Console.RemoveVariant(c.Request.Context(), id, variantID)
	h.respond(c, http.StatusOK, view, err)
}

func (h *SessionHandler) AddVariantImages(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	variantID, ok := intParam(c, "variantId", "variant ID")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form"})
		return
	}
	headers := form.File["images"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one image is required"})
		return
	}

	files := make([]editor.File, 0, len(headers))
	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, fh := range headers {
		// Validate file upload (content type + size)
		if err := utils.ValidateFileUpload(fh); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image"})
			return
		}
		opened = append(opened, f)
		files = append(files, editor.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     f,
		})
	}

	view, err := h.Console.AddVariantImages(c.Request.Context(), id, variantID, files)
	h.respond(c, http.StatusCreated, view, err)
}

func (h *SessionHandler) RemoveVariantImage(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	variantID, ok := intParam(c, "variantId", "variant ID")
	if !ok {
		return
	}
	index, ok := intParam(c, "index", "image index")
	if !ok {
		return
	}
	view, err := h.Console.RemoveVariantImage(c.Request.Context(), id, variantID, index)
	h.respond(c, http.StatusOK, view, err)
}

func (h *SessionHandler) SetInvoice(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("invoice")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invoice file is required"})
		return
	}
	if err := utils.ValidateInvoiceUpload(fh); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice"})
		return
	}
	defer f.Close()

	view, err := h.Console.SetInvoice(c.Request.Context(), id, editor.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     f,
	})
	h.respond(c, http.StatusOK, view, err)
}

func (h *SessionHandler) ClearInvoice(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	view, err := h.Console.ClearInvoice(c.Request.Context(), id)
	h.respond(c, http.StatusOK, view, err)
}

func (h *SessionHandler) Submit(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	view, err := h.Console.Submit(ownerContext(c), id)
	h.respond(c, http.StatusCreated, view, err)
}

func (h *SessionHandler) Search(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req dtos.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	view, err := h.Console.Search(ownerContext(c), id, req.Query)
	h.respond(c, http.StatusOK, view, err)
}

func (h *SessionHandler) Update(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	view, err := h.Console.Update(ownerContext(c), id)
	h.respond(c, http.StatusOK, view, err)
}

func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req dtos.DeleteProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	view, err := h.Console.Delete(ownerContext(c), id, req.Confirmed)
	h.respond(c, http.StatusOK, view, err)
}
