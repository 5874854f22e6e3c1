package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelsk/storefront/internal/mykafka"
	cartsvc "github.com/avelsk/storefront/internal/service/cart"
	"github.com/avelsk/storefront/internal/service/catalog"
	ordersvc "github.com/avelsk/storefront/internal/service/order"
	"github.com/avelsk/storefront/internal/service/token"
)

// PendingPurchaseCookie stashes a "buy now while logged out" selection
// across the login redirect. Consumed exactly once after a successful login.
const PendingPurchaseCookie = "pendingPurchase"

func publish(c echo.Context, p *mykafka.Producer, topic, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func parseUintParam(c echo.Context, name string) (uint, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(v), nil
}

// cartOwner resolves the cart's owner key for the current request:
// authenticated user id when present, a guest token cookie otherwise.
func cartOwner(c echo.Context) cartsvc.Owner {
	if id, ok := token.UserID(c); ok {
		return cartsvc.Owner{UserID: id}
	}
	return cartsvc.Owner{GuestToken: token.EnsureGuestToken(c)}
}

func wantsJSON(c echo.Context) bool {
	if c.Request().Header.Get(echo.HeaderContentType) == echo.MIMEApplicationJSON {
		return true
	}
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return accept == echo.MIMEApplicationJSON
}

// translateErr maps service sentinels onto HTTP errors. Anything
// unrecognized surfaces as a 500 with a generic message.
func translateErr(err error) error {
	switch {
	case errors.Is(err, cartsvc.ErrNotFound),
		errors.Is(err, ordersvc.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, cartsvc.ErrInsufficientStock),
		errors.Is(err, ordersvc.ErrInsufficientStock):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ordersvc.ErrEmptyCart):
		return echo.NewHTTPError(http.StatusBadRequest, "your cart is empty")
	case errors.Is(err, ordersvc.ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, cartsvc.ErrValidation),
		errors.Is(err, ordersvc.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
