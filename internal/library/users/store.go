package users

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"library-backend/internal/platform/db"
	"library-backend/internal/platform/paging"
	"library-backend/internal/platform/textnorm"
)

type Store interface {
	Get(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByExternalUID(ctx context.Context, uid string) (*User, error)
	List(ctx context.Context, q Query, p paging.Page) ([]User, int64, error)
	Create(ctx context.Context, u *User, passwordHash sql.NullString) error
	Update(ctx context.Context, u *User) (bool, error)
	UpdateRole(ctx context.Context, id int64, role string) (bool, error)
	// LinkExternal sets external_uid only when it is still unset.
	LinkExternal(ctx context.Context, id int64, uid string) (bool, error)
}

type sqlStore struct{ db *sqlx.DB }

func NewStore(conn *sqlx.DB) Store { return &sqlStore{db: conn} }

var userCols = []any{"id", "name", "email", "student_id", "role", "external_uid", "created_at", "updated_at"}

func (s *sqlStore) base() *goqu.SelectDataset {
	return db.Dialect.From("users").Select(userCols...).Where(db.Live("users"))
}

// 見つからない場合は (nil, nil)
func (s *sqlStore) getWhere(ctx context.Context, cond goqu.Expression) (*User, error) {
	q, args, err := s.base().Where(cond).Limit(1).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	var u User
	if err := s.db.GetContext(ctx, &u, q, args...); err != nil {
		if db.NoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *sqlStore) Get(ctx context.Context, id int64) (*User, error) {
	return s.getWhere(ctx, goqu.C("id").Eq(id))
}

func (s *sqlStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.getWhere(ctx, goqu.C("email").Eq(email))
}

func (s *sqlStore) GetByExternalUID(ctx context.Context, uid string) (*User, error) {
	return s.getWhere(ctx, goqu.C("external_uid").Eq(uid))
}

func (s *sqlStore) List(ctx context.Context, f Query, p paging.Page) ([]User, int64, error) {
	ds := s.base()
	if f.Q != "" {
		pat := textnorm.Contains(f.Q)
		ds = ds.Where(goqu.Or(
			goqu.C("name").Like(pat),
			goqu.C("email").Like(pat),
			goqu.C("student_id").Like(pat),
		))
	}
	if f.Role != "" {
		ds = ds.Where(goqu.C("role").Eq(f.Role))
	}
	ds = ds.Order(goqu.C("created_at").Desc(), goqu.C("id").Desc())

	rows := []User{}
	total, err := db.SelectPage(ctx, s.db, &rows, ds, p)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *sqlStore) Create(ctx context.Context, u *User, passwordHash sql.NullString) error {
	q, args, err := db.Dialect.Insert("users").Rows(goqu.Record{
		"name":          u.Name,
		"email":         u.Email,
		"password_hash": passwordHash,
		"student_id":    u.StudentID,
		"role":          u.Role,
		"external_uid":  u.ExternalUID,
		"created_at":    u.CreatedAt,
		"updated_at":    u.UpdatedAt,
	}).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return db.MapError(err, "email or student_id")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (s *sqlStore) Update(ctx context.Context, u *User) (bool, error) {
	return s.update(ctx, u.ID, goqu.Record{
		"name":       u.Name,
		"email":      u.Email,
		"student_id": u.StudentID,
		"updated_at": u.UpdatedAt,
	}, nil)
}

func (s *sqlStore) UpdateRole(ctx context.Context, id int64, role string) (bool, error) {
	return s.update(ctx, id, goqu.Record{"role": role}, nil)
}

func (s *sqlStore) LinkExternal(ctx context.Context, id int64, uid string) (bool, error) {
	return s.update(ctx, id, goqu.Record{"external_uid": uid}, goqu.C("external_uid").IsNull())
}

func (s *sqlStore) update(ctx context.Context, id int64, rec goqu.Record, extra goqu.Expression) (bool, error) {
	conds := []goqu.Expression{goqu.C("id").Eq(id), db.Live("users")}
	if extra != nil {
		conds = append(conds, extra)
	}
	q, args, err := db.Dialect.Update("users").Set(rec).Where(conds...).Prepared(true).ToSQL()
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, db.MapError(err, "email or student_id")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
