package auth

import (
	"context"
	"fmt"
	"log"
	"net/http"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"library-backend/internal/platform/apperr"
	"library-backend/internal/platform/config"
)

// IDTokenVerifier is the part of *fbauth.Client the resolver needs.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// Directory maps an external account to a local user, creating it on first sign-in.
type Directory interface {
	EnsureExternal(ctx context.Context, uid, email, name string) (Identity, error)
}

// FirebaseResolver resolves requests carrying a Firebase ID token.
type FirebaseResolver struct {
	verifier IDTokenVerifier
	dir      Directory
}

func NewFirebaseResolver(v IDTokenVerifier, dir Directory) *FirebaseResolver {
	return &FirebaseResolver{verifier: v, dir: dir}
}

// NewFirebaseClient initialises the admin SDK. Without a credentials file the
// application default credentials are used.
func NewFirebaseClient(ctx context.Context, c config.FirebaseConfig) (*fbauth.Client, error) {
	var opts []option.ClientOption
	if c.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: c.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app の初期化に失敗: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth の初期化に失敗: %w", err)
	}
	return client, nil
}

func (f *FirebaseResolver) Resolve(r *http.Request) (Identity, error) {
	tokenStr, err := bearerToken(r)
	if err != nil {
		return Identity{}, err
	}
	tok, err := f.verifier.VerifyIDToken(r.Context(), tokenStr)
	if err != nil {
		log.Printf("[WARN] firebase token rejected: %v", err)
		return Identity{}, apperr.Unauthenticated("invalid token")
	}

	email, _ := tok.Claims["email"].(string)
	if email == "" {
		return Identity{}, apperr.Unauthenticated("token has no email")
	}
	// 未確認のメールで既存アカウントに紐付けない
	if verified, _ := tok.Claims["email_verified"].(bool); !verified {
		return Identity{}, apperr.Unauthenticated("email is not verified")
	}
	name, _ := tok.Claims["name"].(string)
	if name == "" {
		name = email
	}
	return f.dir.EnsureExternal(r.Context(), tok.UID, email, name)
}
