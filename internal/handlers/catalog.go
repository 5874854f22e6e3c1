package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avelsk/storefront/internal/service/catalog"
)

type CatalogHandler struct {
	Catalog *catalog.Service
}

func (h *CatalogHandler) Home(c echo.Context) error {
	ctx := c.Request().Context()

	featured, err := h.Catalog.Featured(ctx, 12)
	if err != nil {
		return translateErr(err)
	}
	fresh, err := h.Catalog.New(ctx, 10)
	if err != nil {
		return translateErr(err)
	}
	categories, err := h.Catalog.Categories(ctx)
	if err != nil {
		return translateErr(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"featured_products": featured,
		"new_products":      fresh,
		"categories":        categories,
	})
}

func (h *CatalogHandler) Products(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	categorySlug := c.QueryParam("category")
	query := c.QueryParam("q")

	result, err := h.Catalog.List(c.Request().Context(), page, 12, categorySlug, query)
	if err != nil {
		return translateErr(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": result.Items,
		"meta": echo.Map{
			"page":        result.Page,
			"size":        result.Size,
			"total":       result.Total,
			"total_pages": result.TotalPages,
			"has_prev":    result.HasPrev,
			"has_next":    result.HasNext,
		},
	})
}

func (h *CatalogHandler) ProductDetail(c echo.Context) error {
	ctx := c.Request().Context()

	product, err := h.Catalog.BySlug(ctx, c.Param("slug"))
	if err != nil {
		return translateErr(err)
	}
	related, err := h.Catalog.Related(ctx, product, 4)
	if err != nil {
		return translateErr(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"product":          product,
		"related_products": related,
	})
}
