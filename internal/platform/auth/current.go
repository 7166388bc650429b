package auth

import (
	"net/http"

	"library-backend/internal/platform/apperr"
)

// AccountResolver resolves a token, then reads the account it names so that a
// role change or deletion applies to tokens that are still unexpired.
type AccountResolver struct {
	tokens   Resolver
	accounts AccountStore
}

func NewAccountResolver(tokens Resolver, accounts AccountStore) *AccountResolver {
	return &AccountResolver{tokens: tokens, accounts: accounts}
}

func (a *AccountResolver) Resolve(r *http.Request) (Identity, error) {
	id, err := a.tokens.Resolve(r)
	if err != nil {
		return Identity{}, err
	}
	acct, err := a.accounts.GetByID(r.Context(), id.UserID)
	if err != nil {
		return Identity{}, err
	}
	// 論理削除済み
	if acct == nil {
		return Identity{}, apperr.Unauthenticated("account no longer exists")
	}
	return Identity{UserID: acct.ID, Role: acct.Role}, nil
}
