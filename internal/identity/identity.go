package identity

import (
	"context"
	"errors"
	"strings"
)

// ErrNoIdentity means nobody is signed in, or the session can no longer be
// used.
var ErrNoIdentity = errors.New("no signed-in user")

// Identity is the operator submissions are attributed to.
type Identity struct {
	UserID string
	Email  string
}

// Provider resolves the current operator.
type Provider interface {
	CurrentUser(ctx context.Context) (Identity, error)
}

// Static always returns the same identity. An empty UserID behaves as signed
// out.
type Static struct {
	Identity Identity
}

// CurrentUser implements Provider.
func (s Static) CurrentUser(context.Context) (Identity, error) {
	if strings.TrimSpace(s.Identity.UserID) == "" {
		return Identity{}, ErrNoIdentity
	}
	return s.Identity, nil
}

// AccessToken implements remote.TokenSource with no token.
func (Static) AccessToken(context.Context) (string, error) {
	return "", nil
}
