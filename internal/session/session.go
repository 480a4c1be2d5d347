package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	pkgerrors "github.com/veloracommerce/storefront-client/pkg/errors"
	"github.com/veloracommerce/storefront-client/pkg/logger"
	"github.com/veloracommerce/storefront-client/pkg/validators"
)

// Transport is the slice of the REST client the session manager depends on.
type Transport interface {
	Post(ctx context.Context, path string, body any) ([]byte, error)
}

// CartResetter drops local cart state. The session manager invokes it on
// logout so a signed-out user never sees the previous user's cart.
type CartResetter interface {
	Reset(ctx context.Context)
}

// User is the authenticated storefront account.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Manager holds the bearer token and current user for this process. It is
// the TokenSource for the REST client: requests go out anonymously until a
// login succeeds. The backend stays authoritative for authorization; the
// token here only shapes what the client sends.
type Manager struct {
	logg *logger.Logger

	mu        sync.RWMutex
	transport Transport
	cart      CartResetter
	token     string
	user      User
	signedIn  bool
}

func NewManager(logg *logger.Logger) *Manager {
	return &Manager{logg: logg}
}

// Bind wires the collaborators that cannot exist before the manager does:
// the REST client takes the manager as its token source, so it is built
// after the manager and attached here.
func (m *Manager) Bind(transport Transport, cart CartResetter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transport = transport
	m.cart = cart
}

// Token implements api.TokenSource.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns the current account. Meaningful only when Authenticated.
func (m *Manager) User() User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// Authenticated reports whether a usable session exists: a token is held
// and, if it is a JWT with an exp claim, that claim has not passed. This is
// a display hint only; the backend rejects stale tokens regardless.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.signedIn || m.token == "" {
		return false
	}
	return !tokenExpired(m.token)
}

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Login authenticates against the backend and retains the issued token.
func (m *Manager) Login(ctx context.Context, email, password string) (User, error) {
	payload := loginPayload{
		Email:    validators.SanitizeString(email, 254),
		Password: password,
	}
	if err := validators.Struct(payload); err != nil {
		return User{}, err
	}
	return m.authenticate(ctx, "/auth/login", payload)
}

// RegisterInput is the new-account form.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Register creates an account and signs the new user in.
func (m *Manager) Register(ctx context.Context, input RegisterInput) (User, error) {
	input.Name = validators.SanitizeString(input.Name, 120)
	input.Email = validators.SanitizeString(input.Email, 254)
	if err := validators.Struct(input); err != nil {
		return User{}, err
	}
	return m.authenticate(ctx, "/auth/register", input)
}

func (m *Manager) authenticate(ctx context.Context, path string, payload any) (User, error) {
	transport := m.currentTransport()
	if transport == nil {
		return User{}, pkgerrors.New(pkgerrors.CodeInternal, "session transport not bound")
	}

	body, err := transport.Post(ctx, path, payload)
	if err != nil {
		return User{}, err
	}

	token, user, err := decodeAuthResponse(body)
	if err != nil {
		return User{}, err
	}

	m.mu.Lock()
	m.token = token
	m.user = user
	m.signedIn = true
	m.mu.Unlock()

	m.logg.Info(m.logg.WithUserID(ctx, user.ID), "session established")
	return user, nil
}

// Logout tells the backend to invalidate the session, then drops local
// credentials and cart state. The local teardown happens even when the
// network call fails; a client holding a dead token is worse than a server
// session that expires on its own.
func (m *Manager) Logout(ctx context.Context) {
	if transport := m.currentTransport(); transport != nil {
		if _, err := transport.Post(ctx, "/auth/logout", nil); err != nil {
			m.logg.Warn(ctx, "server logout failed, clearing local session anyway")
		}
	}

	m.mu.Lock()
	m.token = ""
	m.user = User{}
	m.signedIn = false
	cart := m.cart
	m.mu.Unlock()

	if cart != nil {
		cart.Reset(ctx)
	}
	m.logg.Info(ctx, "session cleared")
}

func (m *Manager) currentTransport() Transport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.transport
}

// decodeAuthResponse accepts both the wrapped and the bare auth payload
// shape, mirroring the cart normalization rules.
func decodeAuthResponse(body []byte) (string, User, error) {
	var envelope struct {
		Success bool            `json:"success"`
		Token   string          `json:"token"`
		User    User            `json:"user"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", User{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode auth response")
	}
	if envelope.Token != "" {
		return envelope.Token, envelope.User, nil
	}
	if len(envelope.Data) > 0 {
		var nested struct {
			Token string `json:"token"`
			User  User   `json:"user"`
		}
		if err := json.Unmarshal(envelope.Data, &nested); err == nil && nested.Token != "" {
			return nested.Token, nested.User, nil
		}
	}
	return "", User{}, pkgerrors.New(pkgerrors.CodeInternal, "auth response missing token")
}

// tokenExpired inspects the exp claim without verifying the signature;
// verification is the backend's job. Opaque tokens never expire locally.
func tokenExpired(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Now().After(exp.Time)
}
