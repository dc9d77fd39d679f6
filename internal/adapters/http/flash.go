package http

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/taskmaster/taskmanager/internal/infrastructure/config"
)

// FlashCookieName is the cookie that carries messages across a redirect
const FlashCookieName = "messages"

const flashStateKey = "flash_state"

// Flash levels
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashError   = "danger"
)

// Flash is a one-shot message shown on the next rendered page
type Flash struct {
	Level   string
	Message string
}

func init() {
	gob.Register(Flash{})
	gob.Register([]interface{}{})
}

type flashState struct {
	session *sessions.Session
	dirty   bool
}

// NewFlashStore returns the signed cookie store backing flash messages
func NewFlashStore(cfg config.SessionConfig) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Flashes loads the message session and saves it just before the response
// header is sent. It must run after session.Middleware.
func Flashes() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A cookie that fails verification yields a fresh session
			// and is overwritten.
			sess, err := session.Get(FlashCookieName, c)
			if sess == nil {
				return err
			}

			state := &flashState{session: sess, dirty: err != nil}
			c.Set(flashStateKey, state)

			c.Response().Before(func() {
				state.save(c)
			})

			return next(c)
		}
	}
}

// AddFlash queues a message for the next rendered page
func AddFlash(c echo.Context, level, message string) {
	state, ok := c.Get(flashStateKey).(*flashState)
	if !ok {
		return
	}
	state.session.AddFlash(Flash{Level: level, Message: message})
	state.dirty = true
}

// consumeFlashes returns every pending message and marks them as shown
func consumeFlashes(c echo.Context) []Flash {
	state, ok := c.Get(flashStateKey).(*flashState)
	if !ok {
		return nil
	}

	raw := state.session.Flashes()
	if len(raw) > 0 {
		state.dirty = true
	}
	return flashesOf(raw)
}

func (s *flashState) save(c echo.Context) {
	if !s.dirty {
		return
	}
	if len(s.session.Values) == 0 {
		s.session.Options.MaxAge = -1
	}
	_ = s.session.Save(c.Request(), c.Response())
}

func flashesOf(raw []interface{}) []Flash {
	messages := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			messages = append(messages, f)
		}
	}
	return messages
}
