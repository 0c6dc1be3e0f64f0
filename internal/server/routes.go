package server

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/labstack/echo/v4"
)

// Handlers はルート登録に使うハンドラ一式。
type Handlers struct {
	Product        *handler.ProductHandler
	Cart           *handler.CartHandler
	Order          *handler.OrderHandler
	AdminInventory *handler.AdminInventoryHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	h.Product.RegisterRoutes(e)

	// カートと注文はセッションcookie単位
	session := middleware.Session(cfg.GoEnv == "production")
	h.Cart.RegisterRoutes(e, session)
	h.Order.RegisterRoutes(e, session)

	h.AdminInventory.RegisterRoutes(e, cfg)
}
