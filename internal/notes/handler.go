package notes

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"note-backend/internal/shared/server/middleware"
	"note-backend/internal/shared/server/respond"
)

const maxUploadSize = 30 << 20 // 30MB across all images of one note

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches note routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/notes", h.create)
	rg.GET("/notes", h.list)
	rg.GET("/notes/:noteId", h.detail)
	rg.DELETE("/notes/:noteId", h.remove)
	rg.GET("/notes/:noteId/images/:imageId", h.image)
}

func (h *Handler) create(c *gin.Context) {
	memberID := middleware.MemberIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	title := strings.TrimSpace(c.PostForm("title"))
	content := c.PostForm("content")
	if title == "" {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "title is required", nil)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid multipart form", nil)
		return
	}

	var uploads []ImageUpload
	var closers []io.Closer
	defer func() {
		for _, cl := range closers {
			cl.Close()
		}
	}()
	for _, fh := range form.File["images"] {
		f, err := fh.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, ErrorCodeUpload, "unable to read image", nil)
			return
		}
		closers = append(closers, f)
		uploads = append(uploads, ImageUpload{FileName: fh.Filename, Reader: f})
	}

	note, imgs, err := h.Svc.Create(c.Request.Context(), memberID, title, content, uploads)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, err.Error(), nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "member not found", nil)
		case errors.Is(err, ErrUploadFailed):
			respond.Error(c, http.StatusInternalServerError, ErrorCodeUpload, "failed to store image", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to create note", nil)
		}
		return
	}

	c.Set("noteId", note.ID)
	respond.JSON(c, http.StatusCreated, toNoteView(note, imgs))
}

func (h *Handler) list(c *gin.Context) {
	memberID := middleware.MemberIDFromContext(c)

	list, err := h.Svc.List(c.Request.Context(), memberID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to list notes", nil)
		return
	}
	respond.OK(c, gin.H{"notes": toNoteSummaries(list)})
}

func (h *Handler) detail(c *gin.Context) {
	noteID := c.Param("noteId")
	c.Set("noteId", noteID)

	note, imgs, err := h.Svc.Detail(c.Request.Context(), noteID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "note not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to load note", nil)
		}
		return
	}

	if note.MemberID != middleware.MemberIDFromContext(c) {
		respond.Error(c, http.StatusForbidden, ErrorCodeForbidden, "not the note owner", nil)
		return
	}

	respond.OK(c, toNoteView(note, imgs))
}

func (h *Handler) remove(c *gin.Context) {
	noteID := c.Param("noteId")
	c.Set("noteId", noteID)
	memberID := middleware.MemberIDFromContext(c)

	err := h.Svc.Delete(c.Request.Context(), noteID, memberID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "note not found", nil)
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, ErrorCodeForbidden, "not the note owner", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to delete note", nil)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) image(c *gin.Context) {
	noteID := c.Param("noteId")
	imageID := c.Param("imageId")
	c.Set("noteId", noteID)

	note, err := h.Svc.Repo.GetNote(c.Request.Context(), noteID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "note not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to load note", nil)
		return
	}
	if note.MemberID != middleware.MemberIDFromContext(c) {
		respond.Error(c, http.StatusForbidden, ErrorCodeForbidden, "not the note owner", nil)
		return
	}

	rc, err := h.Svc.OpenImage(c.Request.Context(), noteID, imageID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "image not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to open image", nil)
		return
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to read image", nil)
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}
