package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CtxSessionIDKey   = "session_id" // string
	SessionCookieName = "cart_session"
	sessionMaxAge     = 30 * 24 * time.Hour
)

// Session はカート用のセッションIDを決める。
// cookieが無い/壊れている場合は新しく発行する（ログイン不要）。
func Session(secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if ck, err := c.Cookie(SessionCookieName); err == nil {
				if id, err := uuid.Parse(ck.Value); err == nil {
					c.Set(CtxSessionIDKey, id.String())
					return next(c)
				}
			}

			id := uuid.NewString()
			c.SetCookie(&http.Cookie{
				Name:     SessionCookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(sessionMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
			c.Set(CtxSessionIDKey, id)

			return next(c)
		}
	}
}
