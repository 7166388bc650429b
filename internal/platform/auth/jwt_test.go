package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/platform/apperr"
)

var testSecret = []byte("test-secret")

func TestJWT_IssueAndResolve(t *testing.T) {
	j := NewJWT(testSecret, time.Hour)
	tok, err := j.Issue(42, RoleAdmin)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+tok)

	id, err := j.Resolve(r)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 42, Role: RoleAdmin}, id)
	assert.True(t, id.IsAdmin())
}

func TestJWT_Rejects(t *testing.T) {
	j := NewJWT(testSecret, time.Hour)

	expired := NewJWT(testSecret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	oldTok, err := expired.Issue(1, RoleUser)
	require.NoError(t, err)

	otherTok, err := NewJWT([]byte("other"), time.Hour).Issue(1, RoleUser)
	require.NoError(t, err)

	hs384, err := jwt.NewWithClaims(jwt.SigningMethodHS384, jwt.MapClaims{
		"sub": "1", "role": RoleUser, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "role": "root", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "role": RoleUser,
	}).SignedString(testSecret)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"expired":      oldTok,
		"other secret": otherTok,
		"hs384":        hs384,
		"bad role":     badRole,
		"no exp":       noExp,
		"garbage":      "abc.def.ghi",
	} {
		_, err := j.Parse(tok)
		assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated), name)
	}
}

func TestBearerToken(t *testing.T) {
	for _, h := range []string{"", "Basic abc", "Bearer", "Bearer   "} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if h != "" {
			r.Header.Set("Authorization", h)
		}
		_, err := bearerToken(r)
		assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated), "%q", h)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "bearer tok")
	tok, err := bearerToken(r)
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
}
