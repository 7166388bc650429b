package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/platform/apperr"
)

type fakeVerifier map[string]*fbauth.Token

func (f fakeVerifier) VerifyIDToken(_ context.Context, tok string) (*fbauth.Token, error) {
	if t, ok := f[tok]; ok {
		return t, nil
	}
	return nil, errors.New("ID token has invalid signature")
}

type fakeDirectory struct {
	byEmail map[string]Identity
	next    int64
}

func (d *fakeDirectory) EnsureExternal(_ context.Context, _, email, _ string) (Identity, error) {
	if id, ok := d.byEmail[email]; ok {
		return id, nil
	}
	d.next++
	id := Identity{UserID: d.next, Role: RoleUser}
	d.byEmail[email] = id
	return id, nil
}

func TestFirebaseResolver(t *testing.T) {
	v := fakeVerifier{
		"good":     {UID: "uid-1", Claims: map[string]any{"email": "hanako@example.com", "email_verified": true, "name": "Hanako"}},
		"no-email": {UID: "uid-2", Claims: map[string]any{}},
		"unverified-admin": {UID: "uid-3", Claims: map[string]any{
			"email": "admin@example.com", "email_verified": false,
		}},
		"verified-claim-missing": {UID: "uid-4", Claims: map[string]any{"email": "taro@example.com"}},
	}
	dir := &fakeDirectory{byEmail: map[string]Identity{"admin@example.com": {UserID: 100, Role: RoleAdmin}}}
	res := NewFirebaseResolver(v, dir)

	req := func(tok string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+tok)
		return r
	}

	first, err := res.Resolve(req("good"))
	require.NoError(t, err)
	assert.Equal(t, RoleUser, first.Role)

	// 2回目のサインインでは同じユーザーに解決される
	again, err := res.Resolve(req("good"))
	require.NoError(t, err)
	assert.Equal(t, first, again)

	_, err = res.Resolve(req("forged"))
	assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))

	_, err = res.Resolve(req("no-email"))
	assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))

	// 他人のメールアドレスを未確認のまま使っても管理者にはなれない
	id, err := res.Resolve(req("unverified-admin"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))
	assert.Equal(t, Identity{}, id)

	_, err = res.Resolve(req("verified-claim-missing"))
	assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))
	_, created := dir.byEmail["taro@example.com"]
	assert.False(t, created)
}
