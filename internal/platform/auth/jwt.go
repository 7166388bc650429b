package auth

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"library-backend/internal/platform/apperr"
)

// JWT issues and verifies HS256 tokens carrying sub (user id) and role.
type JWT struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWT(secret []byte, ttl time.Duration) *JWT {
	return &JWT{secret: secret, ttl: ttl, now: time.Now}
}

func (j *JWT) Issue(userID int64, role string) (string, error) {
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(j.ttl).Unix(),
	})
	return token.SignedString(j.secret)
}

func (j *JWT) Resolve(r *http.Request) (Identity, error) {
	tokenStr, err := bearerToken(r)
	if err != nil {
		return Identity{}, err
	}
	return j.Parse(tokenStr)
}

func (j *JWT) Parse(tokenStr string) (Identity, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		// alg 固定（none攻撃とか回避）
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil || token == nil || !token.Valid {
		return Identity{}, apperr.Unauthenticated("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, apperr.Unauthenticated("invalid claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, apperr.Unauthenticated("missing sub")
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return Identity{}, apperr.Unauthenticated("invalid sub")
	}

	role, _ := claims["role"].(string)
	if role != RoleUser && role != RoleAdmin {
		return Identity{}, apperr.Unauthenticated("invalid role")
	}
	return Identity{UserID: userID, Role: role}, nil
}
