package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// 在庫更新などの管理APIはADMINだけ
const RoleAdmin = "ADMIN"

// RequireRole はAuthJWTの後ろに置き、contextのroleがallowedに含まれるか見る。
// roleが無い（AuthJWTを通っていない）なら401、違うroleなら403。
func RequireRole(allowed ...string) echo.MiddlewareFunc {
	set := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxUserRoleKey).(string)
			if role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			if _, ok := set[role]; !ok {
				return c.JSON(http.StatusForbidden, errorJSON("admin only"))
			}
			return next(c)
		}
	}
}

func AdminRoleGuard() echo.MiddlewareFunc {
	return RequireRole(RoleAdmin)
}
