package stats

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"library-backend/internal/platform/apperr"
	"library-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

// RegisterRoutes: RequireAuth の後ろに置く。利用者別以外は管理者のみ
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	admin := auth.RequireRole(auth.RoleAdmin)
	r.GET("/stats/overview", admin, h.Overview)
	r.GET("/stats/monthly", admin, h.Monthly)
	r.GET("/stats/popular", admin, h.Popular)
	r.GET("/stats/user/:user_id", h.User)
}

func (h *Handler) Overview(c *gin.Context) {
	res, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Monthly(c *gin.Context) {
	now := h.svc.now().UTC()
	year, err := intParam(c.Query("year"), now.Year(), "year")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	month, err := intParam(c.Query("month"), int(now.Month()), "month")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	res, err := h.svc.Monthly(c.Request.Context(), year, month)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Popular(c *gin.Context) {
	limit, err := intParam(c.Query("limit"), DefaultPopularLimit, "limit")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	res, err := h.svc.Popular(c.Request.Context(), limit)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": res})
}

func (h *Handler) User(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		apperr.Respond(c, apperr.Invalid("invalid user_id"))
		return
	}
	if id, _ := auth.Current(c); !id.IsAdmin() && id.UserID != userID {
		apperr.Respond(c, apperr.Forbidden("not allowed to view other users' statistics"))
		return
	}
	res, err := h.svc.User(c.Request.Context(), userID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
