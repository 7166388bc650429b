package checkouts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"library-backend/internal/platform/apperr"
	"library-backend/internal/platform/auth"
	"library-backend/internal/platform/paging"
)

type Handler struct{ svc *Service }

// RegisterRoutes: RequireAuth の後ろに置く
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/checkouts", h.Create)
	r.GET("/checkouts", h.List)
	r.GET("/checkouts/overdue", h.ListOverdue)
	r.GET("/checkouts/overdue.csv", auth.RequireRole(auth.RoleAdmin), h.ExportOverdue)
	r.GET("/checkouts/user/:user_id", h.ListByUser)
	r.GET("/checkouts/:id", h.Get)
	r.PUT("/checkouts/:id/return", h.Return)
}

func parseID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid(fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

func parsePage(c *gin.Context) (paging.Page, error) {
	return paging.Parse(c.Query("page"), c.Query("limit"))
}

// 一般利用者は自分の貸出のみ操作・参照できる
func ownOrAdmin(id auth.Identity, userID int64) error {
	if id.IsAdmin() || id.UserID == userID {
		return nil
	}
	return apperr.Forbidden("not allowed to access other users' checkouts")
}

func (h *Handler) Create(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "invalid request"))
		return
	}
	id, _ := auth.Current(c)
	if err := ownOrAdmin(id, req.UserID); err != nil {
		apperr.Respond(c, err)
		return
	}
	res, err := h.svc.Checkout(c.Request.Context(), req)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"checkout": res})
}

func (h *Handler) Return(c *gin.Context) {
	checkoutID, err := parseID(c, "id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	var req ReturnRequest
	// ボディは省略可（chunked で長さ不明の場合も読む）
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, apperr.Body(apperr.CodeInvalidArgument, "invalid request"))
			return
		}
	}

	ctx := c.Request.Context()
	id, _ := auth.Current(c)
	if !id.IsAdmin() {
		cur, err := h.svc.Get(ctx, checkoutID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		if err := ownOrAdmin(id, cur.UserID); err != nil {
			apperr.Respond(c, err)
			return
		}
	}

	res, err := h.svc.ReturnBook(ctx, checkoutID, req)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkout": res})
}

func (h *Handler) Get(c *gin.Context) {
	checkoutID, err := parseID(c, "id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	res, err := h.svc.Get(c.Request.Context(), checkoutID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	id, _ := auth.Current(c)
	if err := ownOrAdmin(id, res.UserID); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkout": res})
}

func (h *Handler) List(c *gin.Context) {
	p, err := parsePage(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	f := Filter{Status: c.Query("status")}
	if v := c.Query("user_id"); v != "" {
		if f.UserID, err = strconv.ParseInt(v, 10, 64); err != nil || f.UserID <= 0 {
			apperr.Respond(c, apperr.Invalid("invalid user_id"))
			return
		}
	}
	if v := c.Query("book_id"); v != "" {
		if f.BookID, err = strconv.ParseInt(v, 10, 64); err != nil || f.BookID <= 0 {
			apperr.Respond(c, apperr.Invalid("invalid book_id"))
			return
		}
	}

	id, _ := auth.Current(c)
	if !id.IsAdmin() {
		if f.UserID != 0 && f.UserID != id.UserID {
			apperr.Respond(c, apperr.Forbidden("not allowed to access other users' checkouts"))
			return
		}
		f.UserID = id.UserID
	}

	res, err := h.svc.List(c.Request.Context(), f, p)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListByUser(c *gin.Context) {
	userID, err := parseID(c, "user_id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	id, _ := auth.Current(c)
	if err := ownOrAdmin(id, userID); err != nil {
		apperr.Respond(c, err)
		return
	}
	p, err := parsePage(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	res, err := h.svc.ListByUser(c.Request.Context(), userID, p)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListOverdue(c *gin.Context) {
	p, err := parsePage(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	var res ListResponse
	// 一般利用者は自分の延滞分のみ
	if id, _ := auth.Current(c); id.IsAdmin() {
		res, err = h.svc.ListOverdue(c.Request.Context(), p)
	} else {
		res, err = h.svc.List(c.Request.Context(), Filter{Status: StatusOverdue, UserID: id.UserID}, p)
	}
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ExportOverdue(c *gin.Context) {
	// 書き込み途中で失敗した時にエラーJSONを返せるよう一旦バッファする
	var buf bytes.Buffer
	if _, err := h.svc.ExportOverdueCSV(c.Request.Context(), &buf); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="overdue.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=Shift_JIS", buf.Bytes())
}
