package handler

import (
	"storefront/internal/middleware"

	"github.com/labstack/echo/v4"
)

//middleware.AuthJWT が c.Set("user_id", int64) した値を取り出す

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}

// middleware.Session が入れたセッションID
func getSessionIDFromContext(c echo.Context) (string, bool) {
	id, ok := c.Get(middleware.CtxSessionIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
