package checkouts

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"library-backend/internal/platform/apperr"
	"library-backend/internal/platform/paging"
)

// memRepo is an in-memory Repository. InTx serialises transactions behind one
// mutex and works on a copy of the state, so a failing fn leaves nothing behind.
type memRepo struct {
	mu    sync.Mutex
	state memState
	// failInsert を立てると InsertCheckout が失敗する（ロールバック確認用）
	failInsert error
}

type memBook struct {
	ID        int64
	Title     string
	Author    string
	ISBN      string
	Status    string
	DeletedAt *time.Time
}

type memUser struct {
	ID        int64
	Name      string
	Email     string
	DeletedAt *time.Time
}

type memState struct {
	books     map[int64]memBook
	users     map[int64]memUser
	checkouts map[int64]Checkout
	nextID    int64
}

func (s memState) clone() memState {
	c := memState{
		books:     make(map[int64]memBook, len(s.books)),
		users:     make(map[int64]memUser, len(s.users)),
		checkouts: make(map[int64]Checkout, len(s.checkouts)),
		nextID:    s.nextID,
	}
	for k, v := range s.books {
		c.books[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.checkouts {
		c.checkouts[k] = v
	}
	return c
}

func newMemRepo() *memRepo {
	return &memRepo{state: memState{
		books:     map[int64]memBook{},
		users:     map[int64]memUser{},
		checkouts: map[int64]Checkout{},
	}}
}

func (r *memRepo) addBook(id int64, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.books[id] = memBook{ID: id, Title: title, Author: "author", Status: BookAvailable}
}

func (r *memRepo) addUser(id int64, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.users[id] = memUser{ID: id, Name: name, Email: name + "@example.com"}
}

// forceBookStatus writes the status column directly, bypassing the ledger.
func (r *memRepo) forceBookStatus(id int64, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.state.books[id]
	b.Status = status
	r.state.books[id] = b
}

func (r *memRepo) bookStatus(id int64) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.books[id].Status
}

func (r *memRepo) openFor(pred func(Checkout) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.state.checkouts {
		if c.Status == StatusBorrowed && pred(c) {
			n++
		}
	}
	return n
}

func (r *memRepo) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	work := r.state.clone()
	if err := fn(ctx, &memTx{s: &work, failInsert: r.failInsert}); err != nil {
		return err
	}
	r.state = work
	return nil
}

func (r *memRepo) detail(c Checkout) CheckoutDetail {
	b := r.state.books[c.BookID]
	u := r.state.users[c.UserID]
	d := CheckoutDetail{Checkout: c, BookTitle: b.Title, BookAuthor: b.Author, UserName: u.Name, UserEmail: u.Email}
	if b.ISBN != "" {
		d.BookISBN = sql.NullString{String: b.ISBN, Valid: true}
	}
	return d
}

func (r *memRepo) Get(_ context.Context, id int64) (*CheckoutDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.state.checkouts[id]
	if !ok {
		return nil, apperr.NotFound("checkout not found")
	}
	d := r.detail(c)
	return &d, nil
}

func (r *memRepo) selectRows(pred func(Checkout) bool, less func(a, b Checkout) bool) []CheckoutDetail {
	var cs []Checkout
	for _, c := range r.state.checkouts {
		if pred(c) {
			cs = append(cs, c)
		}
	}
	sort.Slice(cs, func(i, j int) bool { return less(cs[i], cs[j]) })
	out := make([]CheckoutDetail, 0, len(cs))
	for _, c := range cs {
		out = append(out, r.detail(c))
	}
	return out
}

func pageOf(rows []CheckoutDetail, p paging.Page) []CheckoutDetail {
	start := p.Offset()
	if start >= len(rows) {
		return []CheckoutDetail{}
	}
	end := start + p.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

func (r *memRepo) List(_ context.Context, f Filter, now time.Time, p paging.Page) ([]CheckoutDetail, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.selectRows(func(c Checkout) bool {
		switch f.Status {
		case StatusOverdue:
			if !c.OverdueAt(now) {
				return false
			}
		case "":
		default:
			if c.Status != f.Status {
				return false
			}
		}
		return (f.UserID == 0 || c.UserID == f.UserID) && (f.BookID == 0 || c.BookID == f.BookID)
	}, func(a, b Checkout) bool {
		if f.Status == StatusOverdue {
			return overdueFirst(a, b)
		}
		if !a.BorrowedDate.Equal(b.BorrowedDate) {
			return a.BorrowedDate.After(b.BorrowedDate)
		}
		return a.ID > b.ID
	})
	return pageOf(rows, p), int64(len(rows)), nil
}

func overdueFirst(a, b Checkout) bool {
	if !a.DueDate.Equal(b.DueDate) {
		return a.DueDate.Before(b.DueDate)
	}
	return a.ID < b.ID
}

func (r *memRepo) overdue(now time.Time) []CheckoutDetail {
	return r.selectRows(func(c Checkout) bool { return c.OverdueAt(now) }, overdueFirst)
}

func (r *memRepo) ListOverdue(_ context.Context, now time.Time, p paging.Page) ([]CheckoutDetail, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.overdue(now)
	return pageOf(rows, p), int64(len(rows)), nil
}

func (r *memRepo) AllOverdue(_ context.Context, now time.Time) ([]CheckoutDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overdue(now), nil
}

func (r *memRepo) SoftDeleteBook(_ context.Context, id int64, at time.Time) (DeleteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.state.books[id]
	if !ok || b.DeletedAt != nil {
		return Missing, nil
	}
	if b.Status == BookBorrowed {
		return Blocked, nil
	}
	for _, c := range r.state.checkouts {
		if c.BookID == id && c.Status == StatusBorrowed {
			return Blocked, nil
		}
	}
	b.DeletedAt = &at
	r.state.books[id] = b
	return Deleted, nil
}

func (r *memRepo) SoftDeleteUser(_ context.Context, id int64, at time.Time) (DeleteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.state.users[id]
	if !ok || u.DeletedAt != nil {
		return Missing, nil
	}
	for _, c := range r.state.checkouts {
		if c.UserID == id && c.Status == StatusBorrowed {
			return Blocked, nil
		}
	}
	u.DeletedAt = &at
	r.state.users[id] = u
	return Deleted, nil
}

type memTx struct {
	s          *memState
	failInsert error
}

func (t *memTx) LockBook(_ context.Context, id int64) (*BookRow, error) {
	b, ok := t.s.books[id]
	if !ok || b.DeletedAt != nil {
		return nil, nil
	}
	return &BookRow{ID: b.ID, Status: b.Status}, nil
}

func (t *memTx) LockUser(_ context.Context, id int64) (*UserRow, error) {
	u, ok := t.s.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, nil
	}
	return &UserRow{ID: u.ID, Role: "user"}, nil
}

func (t *memTx) LockCheckout(_ context.Context, id int64) (*Checkout, error) {
	c, ok := t.s.checkouts[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (t *memTx) CountOpenByUser(_ context.Context, userID int64) (int, error) {
	n := 0
	for _, c := range t.s.checkouts {
		if c.UserID == userID && c.Status == StatusBorrowed {
			n++
		}
	}
	return n, nil
}

func (t *memTx) InsertCheckout(_ context.Context, c *Checkout) error {
	t.s.nextID++
	c.ID = t.s.nextID
	t.s.checkouts[c.ID] = *c
	return t.failInsert
}

func (t *memTx) TransitionBook(_ context.Context, bookID int64, from, to string) (bool, error) {
	b, ok := t.s.books[bookID]
	if !ok || b.DeletedAt != nil || b.Status != from {
		return false, nil
	}
	b.Status = to
	t.s.books[bookID] = b
	return true, nil
}

func (t *memTx) CloseCheckout(_ context.Context, id int64, at time.Time) (bool, error) {
	c, ok := t.s.checkouts[id]
	if !ok || c.Status != StatusBorrowed {
		return false, nil
	}
	c.Status = StatusReturned
	c.ReturnDate = sql.NullTime{Time: at, Valid: true}
	c.UpdatedAt = at
	t.s.checkouts[id] = c
	return true, nil
}
