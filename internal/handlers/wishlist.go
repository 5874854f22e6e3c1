package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avelsk/storefront/internal/models"
	"github.com/avelsk/storefront/internal/service/catalog"
	"github.com/avelsk/storefront/internal/service/token"
)

type WishlistHandler struct {
	DB      *gorm.DB
	Catalog *catalog.Service
}

type wishlistEntry struct {
	Item    models.WishlistItem `json:"item"`
	Product *models.Product     `json:"product,omitempty"`
}

func (h *WishlistHandler) View(c echo.Context) error {
	userID, _ := token.UserID(c)

	var items []models.WishlistItem
	if err := h.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	entries := make([]wishlistEntry, 0, len(items))
	for _, it := range items {
		entry := wishlistEntry{Item: it}
		if p, err := h.Catalog.ByID(c.Request().Context(), it.ProductID); err == nil {
			entry.Product = p
		}
		entries = append(entries, entry)
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *WishlistHandler) Add(c echo.Context) error {
	userID, _ := token.UserID(c)
	productID, err := parseUintParam(c, "product_id")
	if err != nil {
		return err
	}

	if _, err := h.Catalog.ByID(c.Request().Context(), productID); err != nil {
		return translateErr(err)
	}

	var existing models.WishlistItem
	err = h.DB.Where("user_id = ? AND product_id = ?", userID, productID).First(&existing).Error
	if err == nil {
		return c.JSON(http.StatusOK, echo.Map{"message": "already in wishlist"})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	item := models.WishlistItem{UserID: userID, ProductID: productID}
	if err := h.DB.Create(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *WishlistHandler) Remove(c echo.Context) error {
	userID, _ := token.UserID(c)
	productID, err := parseUintParam(c, "product_id")
	if err != nil {
		return err
	}

	res := h.DB.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.WishlistItem{})
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "item not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"removed_product": productID})
}
