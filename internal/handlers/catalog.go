package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mystor/storefront/internal/catalog"
	"github.com/mystor/storefront/internal/logging"
	"github.com/mystor/storefront/internal/transport"
	"github.com/mystor/storefront/internal/util"
)

type CatalogHandler struct {
	Engine *catalog.Engine
}

// GetProducts serves the storefront listing. Sort and page values never
// error: unrecognized sorts fall back to newest and out-of-range pages clamp
// to the last page. Only an unknown category id is a hard failure.
func (h *CatalogHandler) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list")

	q := catalog.Query{
		Text: c.QueryParam("q"),
		Sort: catalog.ParseSort(c.QueryParam("sort")),
		Page: util.ParseIntDefault(c.QueryParam("page"), 1),
	}

	if cid := c.QueryParam("cid"); cid != "" {
		id, err := strconv.ParseUint(cid, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, transport.Response{Status: "error", Message: "invalid category id"})
		}
		catID := uint(id)
		q.CategoryID = &catID
	}

	page, err := h.Engine.List(ctx, q)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return c.JSON(http.StatusNotFound, transport.Response{Status: "error", Message: "category not found"})
		}
		l.Error("catalog_list_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.Response{Status: "error", Message: "internal error"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"products":     page.Products,
		"page":         page.Page,
		"total_pages":  page.TotalPages,
		"total":        page.Total,
		"sort":         page.Sort,
		"search_query": page.SearchText,
		"category":     page.Category,
		"breadcrumbs":  breadcrumbs(page),
	})
}

func breadcrumbs(page *catalog.Page) []transport.Breadcrumb {
	bc := []transport.Breadcrumb{
		{Title: "Home", URL: "/"},
		{Title: "Products", URL: "/products"},
	}
	switch {
	case page.Category != nil:
		bc = append(bc, transport.Breadcrumb{Title: page.Category.Name})
	case page.SearchText != "":
		bc = append(bc, transport.Breadcrumb{Title: fmt.Sprintf("Search: %q", page.SearchText)})
	default:
		bc = append(bc, transport.Breadcrumb{Title: "All products"})
	}
	return bc
}
