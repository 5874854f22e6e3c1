package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avelsk/storefront/internal/logging"
	"github.com/avelsk/storefront/internal/metrics"
	"github.com/avelsk/storefront/internal/mykafka"
	cartsvc "github.com/avelsk/storefront/internal/service/cart"
	ordersvc "github.com/avelsk/storefront/internal/service/order"
	"github.com/avelsk/storefront/internal/service/token"
)

type OrderHandler struct {
	Cart     *cartsvc.Service
	Orders   *ordersvc.Service
	Producer *mykafka.Producer
	Metrics  *metrics.ServerMetrics
}

// CheckoutForm returns everything the checkout page needs: the cart
// contents and the accepted payment methods.
func (h *OrderHandler) CheckoutForm(c echo.Context) error {
	ctx := c.Request().Context()

	userID, _ := token.UserID(c)
	crt, err := h.Cart.GetOrCreate(ctx, cartsvc.Owner{UserID: userID})
	if err != nil {
		return translateErr(err)
	}
	lines, err := h.Cart.Lines(ctx, crt.ID)
	if err != nil {
		return translateErr(err)
	}
	if len(lines) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "your cart is empty")
	}
	total, err := h.Cart.Total(ctx, crt.ID)
	if err != nil {
		return translateErr(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"lines":           lines,
		"subtotal":        total,
		"shipping_cost":   ordersvc.ShippingCost,
		"total":           total + ordersvc.ShippingCost,
		"payment_methods": ordersvc.PaymentMethods,
	})
}

func (h *OrderHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout")

	userID, _ := token.UserID(c)

	var req struct {
		ordersvc.ShippingDetails
		PaymentMethod string `json:"payment_method" form:"payment_method"`
		OrderNotes    string `json:"order_notes"    form:"order_notes"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cod"
	}

	crt, err := h.Cart.GetOrCreate(ctx, cartsvc.Owner{UserID: userID})
	if err != nil {
		return translateErr(err)
	}

	order, err := h.Orders.PlaceOrder(ctx, userID, crt.ID, req.ShippingDetails, req.PaymentMethod, req.OrderNotes)
	if err != nil {
		l.Warn("order placement failed", "cart_id", crt.ID, "error", err)
		return translateErr(err)
	}

	l.Info("order placed", "order_number", order.OrderNumber, "total", order.Total)
	if h.Metrics != nil {
		h.Metrics.OrdersPlaced.Inc()
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(userID), map[string]any{
		"type":         "order_created",
		"userID":       userID,
		"orderID":      order.ID,
		"order_number": order.OrderNumber,
		"total":        order.Total,
	})

	if wantsJSON(c) {
		return c.JSON(http.StatusCreated, order)
	}
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/order/%d", order.ID))
}

// Confirmation is visible to the order's owner or an admin.
func (h *OrderHandler) Confirmation(c echo.Context) error {
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	order, items, err := h.Orders.ByID(c.Request().Context(), orderID)
	if err != nil {
		return translateErr(err)
	}

	userID, _ := token.UserID(c)
	role, _ := c.Get("role").(string)
	if order.UserID != userID && role != "admin" {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	return c.JSON(http.StatusOK, echo.Map{"order": order, "items": items})
}

func (h *OrderHandler) MyOrders(c echo.Context) error {
	userID, _ := token.UserID(c)

	orders, err := h.Orders.ForUser(c.Request().Context(), userID)
	if err != nil {
		return translateErr(err)
	}
	return c.JSON(http.StatusOK, orders)
}
