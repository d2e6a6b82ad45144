package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const tokenKey = "token"

// CookieOptions configures the signed cookie that carries the token.
type CookieOptions struct {
	Name   string
	Secret string
	Secure bool
	MaxAge time.Duration
}

// Manager ties a Store to the request cookie. Middleware must run before
// any other Manager method is used on a request.
type Manager struct {
	store  Store
	cookie CookieOptions
}

func NewManager(store Store, opts CookieOptions) *Manager {
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultTTL
	}
	return &Manager{store: store, cookie: opts}
}

// Middleware installs the cookie-backed gin session used to carry the token.
func (m *Manager) Middleware() gin.HandlerFunc {
	cs := cookie.NewStore([]byte(m.cookie.Secret))
	cs.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(m.cookie.MaxAge / time.Second),
		Secure:   m.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(m.cookie.Name, cs)
}

// Start creates a server-side session for customerID and writes its token to
// the cookie. A session the browser already held is destroyed first.
func (m *Manager) Start(c *gin.Context, customerID uint) error {
	sess := sessions.Default(c)
	if previous, _ := sess.Get(tokenKey).(string); previous != "" {
		if err := m.store.Destroy(c.Request.Context(), previous); err != nil {
			return err
		}
	}

	token, err := m.store.Create(c.Request.Context(), customerID)
	if err != nil {
		return err
	}

	sess.Clear()
	sess.Set(tokenKey, token)
	if err := sess.Save(); err != nil {
		return fmt.Errorf("session: save cookie: %w", err)
	}
	return nil
}

// Current resolves the request's token. ok is false for anonymous requests.
func (m *Manager) Current(c *gin.Context) (customerID uint, ok bool, err error) {
	token, _ := sessions.Default(c).Get(tokenKey).(string)
	if token == "" {
		return 0, false, nil
	}
	return m.store.Lookup(c.Request.Context(), token)
}

// End flushes the session: the server-side entry is destroyed and every key
// in the cookie is dropped, with the cookie itself expired.
func (m *Manager) End(c *gin.Context) error {
	sess := sessions.Default(c)
	token, _ := sess.Get(tokenKey).(string)

	if err := m.store.Destroy(c.Request.Context(), token); err != nil {
		return err
	}

	sess.Clear()
	sess.Options(sessions.Options{
		Path:     "/",
		MaxAge:   -1,
		Secure:   m.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	if err := sess.Save(); err != nil {
		return fmt.Errorf("session: save cookie: %w", err)
	}
	return nil
}
