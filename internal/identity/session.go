package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pelletier/go-toml/v2"

	"github.com/SantanaDZ/cad-social/internal/clock"
)

// Session is the persisted sign-in state written by `cadsocial session set`.
type Session struct {
	AccessToken string `toml:"access_token"`
	Email       string `toml:"email,omitempty"`
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SessionProvider reads the operator's session file on every call, so a
// session refreshed by another process is picked up without a restart.
type SessionProvider struct {
	path   string
	secret []byte
	clock  clock.Clock
}

// NewSessionProvider reads sessions from path. When secret is non-empty the
// token signature is verified with HS256; otherwise only its claims are read.
func NewSessionProvider(path, secret string, c clock.Clock) *SessionProvider {
	if c == nil {
		c = clock.Real{}
	}
	var key []byte
	if s := strings.TrimSpace(secret); s != "" {
		key = []byte(s)
	}
	return &SessionProvider{path: path, secret: key, clock: c}
}

// CurrentUser implements Provider.
func (p *SessionProvider) CurrentUser(context.Context) (Identity, error) {
	session, err := LoadSession(p.path)
	if err != nil {
		return Identity{}, err
	}
	parsed, err := p.parse(session.AccessToken)
	if err != nil {
		return Identity{}, err
	}
	email := parsed.Email
	if email == "" {
		email = session.Email
	}
	return Identity{UserID: parsed.Subject, Email: email}, nil
}

// AccessToken returns the session token, or an empty token when there is no
// usable session so callers can fall back to the project key. An unreadable
// or malformed session file counts as no session.
func (p *SessionProvider) AccessToken(context.Context) (string, error) {
	session, err := LoadSession(p.path)
	if err != nil {
		if !errors.Is(err, ErrNoIdentity) {
			slog.Warn("session file unusable; using project key",
				slog.String("path", p.path),
				slog.String("error", err.Error()),
			)
		}
		return "", nil
	}
	if _, err := p.parse(session.AccessToken); err != nil {
		return "", nil
	}
	return session.AccessToken, nil
}

func (p *SessionProvider) parse(token string) (*claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNoIdentity
	}

	var parsed claims
	if p.secret != nil {
		_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenUnverifiable
			}
			return p.secret, nil
		}, jwt.WithTimeFunc(p.clock.Now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return nil, fmt.Errorf("%w: session expired", ErrNoIdentity)
			}
			return nil, fmt.Errorf("%w: invalid session token: %w", ErrNoIdentity, err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, &parsed); err != nil {
			return nil, fmt.Errorf("%w: invalid session token: %w", ErrNoIdentity, err)
		}
		if parsed.ExpiresAt != nil && !p.clock.Now().Before(parsed.ExpiresAt.Time) {
			return nil, fmt.Errorf("%w: session expired", ErrNoIdentity)
		}
	}

	if strings.TrimSpace(parsed.Subject) == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrNoIdentity)
	}
	return &parsed, nil
}

// LoadSession reads the session file. A missing file yields ErrNoIdentity.
func LoadSession(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, ErrNoIdentity
		}
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := toml.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("parse session: %w", err)
	}
	s.AccessToken = strings.TrimSpace(s.AccessToken)
	s.Email = strings.TrimSpace(s.Email)
	return s, nil
}

// SaveSession writes s to path with owner-only permissions.
func SaveSession(path string, s Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// ClearSession removes the session file. Removing a missing file is not an error.
func ClearSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
