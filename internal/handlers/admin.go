package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/gosimple/slug"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avelsk/storefront/internal/logging"
	"github.com/avelsk/storefront/internal/models"
	"github.com/avelsk/storefront/internal/mykafka"
	ordersvc "github.com/avelsk/storefront/internal/service/order"
	"github.com/avelsk/storefront/internal/service/search"
)

type AdminHandler struct {
	DB        *gorm.DB
	Orders    *ordersvc.Service
	Producer  *mykafka.Producer
	ES        *elasticsearch.Client
	ESIndex   string
	UploadDir string
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.Orders.Stats(ctx)
	if err != nil {
		return translateErr(err)
	}

	byStatus := make(map[string][]models.Order, len(ordersvc.Statuses))
	for _, st := range ordersvc.Statuses {
		orders, err := h.Orders.ByStatus(ctx, st)
		if err != nil {
			return translateErr(err)
		}
		byStatus[st] = orders
	}

	return c.JSON(http.StatusOK, echo.Map{
		"stats":            stats,
		"orders_by_status": byStatus,
	})
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	orders, err := h.Orders.All(c.Request().Context())
	if err != nil {
		return translateErr(err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *AdminHandler) OrderDetail(c echo.Context) error {
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}
	order, items, err := h.Orders.ByID(c.Request().Context(), orderID)
	if err != nil {
		return translateErr(err)
	}

	var customer models.User
	if err := h.DB.First(&customer, order.UserID).Error; err == nil {
		return c.JSON(http.StatusOK, echo.Map{"order": order, "items": items, "customer": customer})
	}
	return c.JSON(http.StatusOK, echo.Map{"order": order, "items": items})
}

func (h *AdminHandler) UpdateOrderStatus(c echo.Context) error {
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}
	status := c.FormValue("status")

	if err := h.Orders.UpdateStatus(c.Request().Context(), orderID, status); err != nil {
		return translateErr(err)
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(orderID), map[string]any{
		"type":    "order_status_updated",
		"orderID": orderID,
		"status":  status,
	})

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, echo.Map{"order_id": orderID, "status": status})
	}
	return c.Redirect(http.StatusSeeOther, "/admin/orders")
}

func (h *AdminHandler) ListProducts(c echo.Context) error {
	var products []models.Product
	if err := h.DB.Order("created_at DESC").Find(&products).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, products)
}

type productForm struct {
	Name             string   `json:"name"              form:"name"`
	Description      string   `json:"description"       form:"description"`
	ShortDescription string   `json:"short_description" form:"short_description"`
	Price            float64  `json:"price"             form:"price"`
	OriginalPrice    *float64 `json:"original_price"    form:"original_price"`
	Stock            int      `json:"stock"             form:"stock"`
	SKU              string   `json:"sku"               form:"sku"`
	CategoryID       *uint    `json:"category_id"       form:"category_id"`
	BrandID          *uint    `json:"brand_id"          form:"brand_id"`
	IsActive         bool     `json:"is_active"         form:"is_active"`
	IsFeatured       bool     `json:"is_featured"       form:"is_featured"`
	IsNew            bool     `json:"is_new"            form:"is_new"`
}

func (f productForm) validate() error {
	if f.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if f.Price <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "price must be positive")
	}
	if f.Stock < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "stock cannot be negative")
	}
	return nil
}

func (h *AdminHandler) CreateProduct(c echo.Context) error {
	var req productForm
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	prod := models.Product{
		Name:             req.Name,
		Slug:             slug.Make(req.Name),
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Price:            req.Price,
		OriginalPrice:    req.OriginalPrice,
		Stock:            req.Stock,
		SKU:              req.SKU,
		CategoryID:       req.CategoryID,
		BrandID:          req.BrandID,
		IsActive:         req.IsActive,
		IsFeatured:       req.IsFeatured,
		IsNew:            req.IsNew,
	}

	if img, err := h.saveUpload(c, "product_image"); err != nil {
		return err
	} else if img != "" {
		prod.MainImage = img
	}

	if err := h.DB.Create(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not create product (duplicate slug?)")
	}

	h.indexProduct(c, &prod)
	publish(c, h.Producer, "product_events", fmt.Sprint(prod.ID), map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusCreated, prod)
}

func (h *AdminHandler) EditProduct(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	var prod models.Product
	if err := h.DB.First(&prod, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	var req productForm
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	prod.Name = req.Name
	prod.Description = req.Description
	prod.ShortDescription = req.ShortDescription
	prod.Price = req.Price
	prod.OriginalPrice = req.OriginalPrice
	prod.Stock = req.Stock
	prod.SKU = req.SKU
	prod.CategoryID = req.CategoryID
	prod.BrandID = req.BrandID
	prod.IsActive = req.IsActive
	prod.IsFeatured = req.IsFeatured
	prod.IsNew = req.IsNew

	if img, err := h.saveUpload(c, "main_image"); err != nil {
		return err
	} else if img != "" {
		prod.MainImage = img
	}

	if err := h.DB.Save(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not update product")
	}

	h.indexProduct(c, &prod)
	publish(c, h.Producer, "product_events", fmt.Sprint(prod.ID), map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusOK, prod)
}

func (h *AdminHandler) DeleteProduct(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	res := h.DB.Delete(&models.Product{}, id)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	if h.ES != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := search.DeleteProduct(ctx, h.ES, h.ESIndex, id); err != nil {
			logging.FromContext(c.Request().Context()).Warn("es delete failed", "product_id", id, "error", err)
		}
	}
	publish(c, h.Producer, "product_events", strconv.Itoa(int(id)), map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})

	return c.NoContent(http.StatusNoContent)
}

// saveUpload stores an optional multipart image under the upload dir with a
// timestamped name. Returns the public path, or "" when the field is absent.
func (h *AdminHandler) saveUpload(c echo.Context, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}
	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, "upload dir unavailable")
	}

	name := time.Now().Format("20060102_150405_") + filepath.Base(fh.Filename)
	dst := filepath.Join(h.UploadDir, name)
	if err := copyUpload(fh, dst); err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, "upload failed")
	}
	return "/static/images/" + name, nil
}

func copyUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

func (h *AdminHandler) indexProduct(c echo.Context, p *models.Product) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexProduct(ctx, h.ES, h.ESIndex, p); err != nil {
		logging.FromContext(c.Request().Context()).Warn("es index failed", "product_id", p.ID, "error", err)
	}
}
