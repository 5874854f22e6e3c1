package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelsk/storefront/internal/logging"
	"github.com/avelsk/storefront/internal/mykafka"
	cartsvc "github.com/avelsk/storefront/internal/service/cart"
	"github.com/avelsk/storefront/internal/service/token"
)

type CartHandler struct {
	Cart     *cartsvc.Service
	Producer *mykafka.Producer
}

func (h *CartHandler) currentCart(c echo.Context) (uint, error) {
	crt, err := h.Cart.GetOrCreate(c.Request().Context(), cartOwner(c))
	if err != nil {
		return 0, translateErr(err)
	}
	return crt.ID, nil
}

func (h *CartHandler) View(c echo.Context) error {
	ctx := c.Request().Context()

	cartID, err := h.currentCart(c)
	if err != nil {
		return err
	}

	lines, err := h.Cart.Lines(ctx, cartID)
	if err != nil {
		return translateErr(err)
	}
	total, err := h.Cart.Total(ctx, cartID)
	if err != nil {
		return translateErr(err)
	}
	count, err := h.Cart.ItemCount(ctx, cartID)
	if err != nil {
		return translateErr(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"cart_id":    cartID,
		"lines":      lines,
		"total":      total,
		"item_count": count,
	})
}

func (h *CartHandler) Add(c echo.Context) error {
	var req struct {
		ProductID uint `json:"product_id" form:"product_id"`
		Quantity  int  `json:"quantity"   form:"quantity"`
	}
	if err := c.Bind(&req); err != nil || req.ProductID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "product_id required")
	}

	cartID, err := h.currentCart(c)
	if err != nil {
		return err
	}

	item, err := h.Cart.AddItem(c.Request().Context(), cartID, req.ProductID, req.Quantity)
	if err != nil {
		return translateErr(err)
	}

	publish(c, h.Producer, "cart_events", fmt.Sprint(cartID), map[string]any{
		"type":      "cart_item_added",
		"cartID":    cartID,
		"productID": req.ProductID,
		"quantity":  item.Quantity,
	})

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, item)
	}
	return c.Redirect(http.StatusSeeOther, "/cart")
}

func (h *CartHandler) Update(c echo.Context) error {
	itemID, err := parseUintParam(c, "item_id")
	if err != nil {
		return err
	}
	var req struct {
		Quantity int `json:"quantity" form:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cartID, err := h.currentCart(c)
	if err != nil {
		return err
	}
	if err := h.ownsItem(c, cartID, itemID); err != nil {
		return err
	}

	item, deleted, err := h.Cart.UpdateItem(c.Request().Context(), itemID, req.Quantity)
	if err != nil {
		if wantsJSON(c) {
			he := translateErr(err).(*echo.HTTPError)
			return c.JSON(he.Code, echo.Map{"success": false, "message": fmt.Sprint(he.Message)})
		}
		return translateErr(err)
	}

	publish(c, h.Producer, "cart_events", fmt.Sprint(cartID), map[string]any{
		"type":    "cart_item_updated",
		"cartID":  cartID,
		"itemID":  itemID,
		"deleted": deleted,
	})

	if wantsJSON(c) {
		if deleted {
			return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "item removed"})
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "cart updated", "item": item})
	}
	return c.Redirect(http.StatusSeeOther, "/cart")
}

func (h *CartHandler) Remove(c echo.Context) error {
	itemID, err := parseUintParam(c, "item_id")
	if err != nil {
		return err
	}

	cartID, err := h.currentCart(c)
	if err != nil {
		return err
	}
	if err := h.ownsItem(c, cartID, itemID); err != nil {
		return err
	}

	if err := h.Cart.RemoveItem(c.Request().Context(), itemID); err != nil {
		return translateErr(err)
	}

	publish(c, h.Producer, "cart_events", fmt.Sprint(cartID), map[string]any{
		"type":   "cart_item_removed",
		"cartID": cartID,
		"itemID": itemID,
	})

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, echo.Map{"removed_item": itemID})
	}
	return c.Redirect(http.StatusSeeOther, "/cart")
}

func (h *CartHandler) ownsItem(c echo.Context, cartID, itemID uint) error {
	item, err := h.Cart.ItemByID(c.Request().Context(), itemID)
	if err != nil {
		return translateErr(err)
	}
	if item.CartID != cartID {
		return echo.NewHTTPError(http.StatusNotFound, "item not found")
	}
	return nil
}

// BuyNow puts the product straight into the cart and forwards to checkout.
// Anonymous buyers get the selection stashed across the login redirect.
func (h *CartHandler) BuyNow(c echo.Context) error {
	productID, err := parseUintParam(c, "product_id")
	if err != nil {
		return err
	}
	quantity := parseIntDefault(c.FormValue("quantity"), 1)

	if _, ok := token.UserID(c); !ok {
		stash := fmt.Sprintf("%d:%d", productID, quantity)
		c.SetCookie(token.CreateCookie(PendingPurchaseCookie, stash, "/", time.Now().Add(10*time.Minute)))
		if wantsJSON(c) {
			return c.JSON(http.StatusOK, echo.Map{"redirect": "/login", "message": "please login to continue"})
		}
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	cartID, err := h.currentCart(c)
	if err != nil {
		return err
	}
	if _, err := h.Cart.AddItem(c.Request().Context(), cartID, productID, quantity); err != nil {
		return translateErr(err)
	}

	logging.FromContext(c.Request().Context()).Info("buy now",
		"cart_id", cartID, "product_id", productID, "quantity", quantity)

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, echo.Map{"redirect": "/checkout"})
	}
	return c.Redirect(http.StatusSeeOther, "/checkout")
}
