package users

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"library-backend/internal/platform/apperr"
	"library-backend/internal/platform/auth"
	"library-backend/internal/platform/paging"
)

type Handler struct{ svc *Service }

// RegisterRoutes: すべて管理者用。RequireRole(admin) の後ろに置く
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/users", h.List)
	r.GET("/users/:id", h.Get)
	r.POST("/users", h.Create)
	r.PUT("/users/:id", h.Update)
	r.DELETE("/users/:id", h.Delete)
	r.PUT("/users/:id/role", h.SetRole)
}

func userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apperr.Respond(c, apperr.Invalid("invalid user id"))
		return 0, false
	}
	return id, true
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "invalid request"))
}

func (h *Handler) List(c *gin.Context) {
	p, err := paging.Parse(c.Query("page"), c.Query("limit"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	res, err := h.svc.List(c.Request.Context(), Query{Q: c.Query("q"), Role: c.Query("role")}, p)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	res, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": res})
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": res})
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	res, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": res})
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	// 自分自身は削除させない
	if me, _ := auth.Current(c); me.UserID == id {
		apperr.Respond(c, apperr.Conflict("cannot delete yourself"))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

func (h *Handler) SetRole(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if me, _ := auth.Current(c); me.UserID == id && req.Role != auth.RoleAdmin {
		apperr.Respond(c, apperr.Conflict("cannot remove your own admin role"))
		return
	}
	res, err := h.svc.SetRole(c.Request.Context(), id, req.Role)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": res})
}
