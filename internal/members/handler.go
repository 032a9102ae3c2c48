package members

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"note-backend/internal/shared/server/middleware"
	"note-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/members/me", h.me)
}

func (h *Handler) me(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	memberID := middleware.MemberIDFromContext(c)
	member, err := h.Svc.GetByID(c.Request.Context(), memberID)
	if err != nil {
		if err == ErrNotFound {
			respond.Error(c, http.StatusNotFound, "not_found", "member not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load member", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"id":         member.ID,
		"email":      member.Email,
		"name":       member.Name,
		"pictureUrl": member.PictureURL,
	})
}
