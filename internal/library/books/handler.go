package books

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"library-backend/internal/platform/apperr"
	"library-backend/internal/platform/paging"
)

type Handler struct{ svc *Service }

// RegisterRoutes: 参照系（ログイン済みなら誰でも）
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/books", h.List)
	r.GET("/books/:id", h.Get)
}

// RegisterAdminRoutes: RequireRole(admin) の後ろに置く
func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/books", h.Create)
	r.PUT("/books/:id", h.Update)
	r.DELETE("/books/:id", h.Delete)
	r.PUT("/books/:id/status", h.SetStatus)
}

func bookID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apperr.Respond(c, apperr.Invalid("invalid book id"))
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
	res, err := h.svc.List(c.Request.Context(), Query{Q: c.Query("q"), Status: c.Query("status")}, p)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	res, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": res})
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"book": res})
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	var req UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	res, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": res})
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "book deleted"})
}

func (h *Handler) SetStatus(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	res, err := h.svc.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": res})
}
