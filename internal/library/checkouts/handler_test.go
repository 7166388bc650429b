package checkouts

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/platform/auth"
)

func newTestRouter(t *testing.T, as auth.Identity) (*gin.Engine, *fakeClock) {
	t.Helper()
	svc, _, clk := newLedger(t)
	return routerFor(svc, as), clk
}

func routerFor(svc *Service, as auth.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v2", auth.RequireAuth(auth.ResolverFunc(func(*http.Request) (auth.Identity, error) {
		return as, nil
	})))
	RegisterRoutes(g, svc)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var (
	admin = auth.Identity{UserID: 1, Role: auth.RoleAdmin}
	bob   = auth.Identity{UserID: 2, Role: auth.RoleUser}
)

func TestHandler_CheckoutAndReturn(t *testing.T) {
	r, _ := newTestRouter(t, bob)

	w := do(r, http.MethodPost, "/api/v2/checkouts", `{"book_id":1,"user_id":2}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Checkout CheckoutResponse `json:"checkout"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, StatusBorrowed, created.Checkout.Status)
	assert.Equal(t, int64(2), created.Checkout.User.ID)

	w = do(r, http.MethodPost, "/api/v2/checkouts", `{"book_id":1,"user_id":2}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"CONFLICT"`)

	w = do(r, http.MethodPut, "/api/v2/checkouts/1/return", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"returned"`)

	w = do(r, http.MethodPut, "/api/v2/checkouts/1/return", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_ReturnReadsChunkedBody(t *testing.T) {
	r, clk := newTestRouter(t, bob)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/v2/checkouts", `{"book_id":1,"user_id":2}`).Code)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/v2/checkouts", `{"book_id":2,"user_id":2}`).Code)
	clk.Advance(3 * 24 * time.Hour)

	returnedAt := t0.Add(24 * time.Hour)
	req := httptest.NewRequest(http.MethodPut, "/api/v2/checkouts/1/return",
		strings.NewReader(fmt.Sprintf(`{"return_date":%q}`, returnedAt.Format(time.RFC3339))))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got struct {
		Checkout CheckoutResponse `json:"checkout"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.NotNil(t, got.Checkout.ReturnDate)
	assert.True(t, returnedAt.Equal(*got.Checkout.ReturnDate))

	// 空のボディは省略扱い
	req = httptest.NewRequest(http.MethodPut, "/api/v2/checkouts/2/return", strings.NewReader(""))
	req.ContentLength = -1
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestHandler_CheckoutForOtherUserForbidden(t *testing.T) {
	r, _ := newTestRouter(t, bob)
	w := do(r, http.MethodPost, "/api/v2/checkouts", `{"book_id":1,"user_id":1}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"FORBIDDEN"`)
}

func TestHandler_BadInput(t *testing.T) {
	r, _ := newTestRouter(t, admin)

	tests := []struct {
		name, method, path, body string
		status                   int
	}{
		{"malformed json", http.MethodPost, "/api/v2/checkouts", `{"book_id":`, http.StatusBadRequest},
		{"missing user", http.MethodPost, "/api/v2/checkouts", `{"book_id":1}`, http.StatusBadRequest},
		{"non-numeric id", http.MethodGet, "/api/v2/checkouts/abc", "", http.StatusBadRequest},
		{"bad page", http.MethodGet, "/api/v2/checkouts/overdue?page=0", "", http.StatusBadRequest},
		{"limit too large", http.MethodGet, "/api/v2/checkouts/overdue?limit=101", "", http.StatusBadRequest},
		{"unknown status", http.MethodGet, "/api/v2/checkouts?status=lost", "", http.StatusBadRequest},
		{"missing checkout", http.MethodGet, "/api/v2/checkouts/42", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestHandler_LimitExceeded(t *testing.T) {
	r, _ := newTestRouter(t, bob)
	for b := 1; b <= 5; b++ {
		w := do(r, http.MethodPost, "/api/v2/checkouts", fmt.Sprintf(`{"book_id":%d,"user_id":2}`, b))
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := do(r, http.MethodPost, "/api/v2/checkouts", `{"book_id":6,"user_id":2}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"LIMIT_EXCEEDED"`)
}

func TestHandler_OverdueList(t *testing.T) {
	r, clk := newTestRouter(t, admin)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/v2/checkouts", `{"book_id":1,"user_id":2}`).Code)
	clk.Advance(15 * 24 * time.Hour)

	w := do(r, http.MethodGet, "/api/v2/checkouts/overdue?page=1&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var res ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Checkouts, 1)
	assert.True(t, res.Checkouts[0].Overdue)
	assert.Equal(t, int64(1), res.Pagination.Total)
	assert.Equal(t, 5, res.Pagination.Limit)
	assert.Equal(t, 1, res.Pagination.TotalPages)

	w = do(r, http.MethodGet, "/api/v2/checkouts/overdue.csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=Shift_JIS", w.Header().Get("Content-Type"))
}

func TestHandler_OwnershipScoping(t *testing.T) {
	svc, _, _ := newLedger(t)
	asAdmin := routerFor(svc, admin)
	asBob := routerFor(svc, bob)

	require.Equal(t, http.StatusCreated, do(asAdmin, http.MethodPost, "/api/v2/checkouts", `{"book_id":1,"user_id":1}`).Code)
	require.Equal(t, http.StatusCreated, do(asAdmin, http.MethodPost, "/api/v2/checkouts", `{"book_id":2,"user_id":2}`).Code)

	// 一般利用者の一覧は自分の分だけ
	w := do(asBob, http.MethodGet, "/api/v2/checkouts", "")
	require.Equal(t, http.StatusOK, w.Code)
	var res ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Checkouts, 1)
	assert.Equal(t, int64(2), res.Checkouts[0].UserID)

	assert.Equal(t, http.StatusForbidden, do(asBob, http.MethodGet, "/api/v2/checkouts?user_id=1", "").Code)
	assert.Equal(t, http.StatusForbidden, do(asBob, http.MethodGet, "/api/v2/checkouts/1", "").Code)
	assert.Equal(t, http.StatusForbidden, do(asBob, http.MethodGet, "/api/v2/checkouts/user/1", "").Code)
	assert.Equal(t, http.StatusForbidden, do(asBob, http.MethodPut, "/api/v2/checkouts/1/return", "").Code)
	assert.Equal(t, http.StatusForbidden, do(asBob, http.MethodGet, "/api/v2/checkouts/overdue.csv", "").Code)

	assert.Equal(t, http.StatusOK, do(asBob, http.MethodGet, "/api/v2/checkouts/user/2", "").Code)
	assert.Equal(t, http.StatusOK, do(asAdmin, http.MethodGet, "/api/v2/checkouts/user/2", "").Code)
}

func TestHandler_OverdueScopedForUsers(t *testing.T) {
	svc, _, clk := newLedger(t)
	asAdmin := routerFor(svc, admin)
	asBob := routerFor(svc, bob)

	require.Equal(t, http.StatusCreated, do(asAdmin, http.MethodPost, "/api/v2/checkouts", `{"book_id":1,"user_id":1}`).Code)
	require.Equal(t, http.StatusCreated, do(asAdmin, http.MethodPost, "/api/v2/checkouts", `{"book_id":2,"user_id":2}`).Code)
	clk.Advance(15 * 24 * time.Hour)

	var all, own ListResponse
	w := do(asAdmin, http.MethodGet, "/api/v2/checkouts/overdue", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Equal(t, int64(2), all.Pagination.Total)

	w = do(asBob, http.MethodGet, "/api/v2/checkouts/overdue", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &own))
	require.Len(t, own.Checkouts, 1)
	assert.Equal(t, int64(2), own.Checkouts[0].UserID)
	assert.True(t, own.Checkouts[0].Overdue)
}

func TestHandler_OverdueForUserSoonestDueFirst(t *testing.T) {
	r, clk := newTestRouter(t, bob)

	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/v2/checkouts", `{"book_id":1,"user_id":2}`).Code)
	clk.Advance(time.Minute)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/v2/checkouts", `{"book_id":2,"user_id":2}`).Code)
	clk.Advance(20 * 24 * time.Hour)

	w := do(r, http.MethodGet, "/api/v2/checkouts/overdue", "")
	require.Equal(t, http.StatusOK, w.Code)
	var res ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Checkouts, 2)
	assert.Equal(t, int64(1), res.Checkouts[0].BookID)
	assert.Equal(t, int64(2), res.Checkouts[1].BookID)
	assert.True(t, res.Checkouts[0].DueDate.Before(res.Checkouts[1].DueDate))
}
