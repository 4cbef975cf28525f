package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bykirken/bykirken/internal/model"
	"github.com/bykirken/bykirken/internal/store"
)

type ProductHandler struct {
	products   *store.ProductStore
	categories *store.CategoryStore
	logger     *slog.Logger
}

func NewProductHandler(products *store.ProductStore, categories *store.CategoryStore, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{products: products, categories: categories, logger: logger}
}

type variantRequest struct {
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
	StockQty   int64  `json:"stock_qty"`
}

type productRequest struct {
	SKU             string           `json:"sku"`
	Name            string           `json:"name"`
	Description     *string          `json:"description"`
	Brand           *string          `json:"brand"`
	Attributes      map[string]any   `json:"attributes"`
	DefaultImageURL *string          `json:"default_image_url"`
	CategoryIDs     []string         `json:"category_ids"`
	Variants        []variantRequest `json:"variants"`
}

// List serves the public product catalog, optionally filtered by category.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	if slug := r.URL.Query().Get("category"); slug != "" {
		products, err := h.products.ListByCategorySlug(slug)
		if err != nil {
			h.logger.Error("list products by category", "error", err, "category", slug)
			writeError(w, http.StatusInternalServerError, "failed to list products")
			return
		}
		if products == nil {
			products = []model.Product{}
		}
		writeJSON(w, http.StatusOK, products)
		return
	}

	limit, offset := parseLimitOffset(r, 50)
	products, err := h.products.List(limit, offset)
	if err != nil {
		h.logger.Error("list products", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	p, err := h.products.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) parseAndValidate(w http.ResponseWriter, r *http.Request, requireVariants bool) (*model.Product, bool) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}

	req.SKU = strings.TrimSpace(req.SKU)
	req.Name = strings.TrimSpace(req.Name)
	if req.SKU == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "sku and name are required")
		return nil, false
	}
	if requireVariants && len(req.Variants) == 0 {
		writeError(w, http.StatusBadRequest, "at least one variant is required")
		return nil, false
	}

	p := &model.Product{
		SKU:             req.SKU,
		Name:            req.Name,
		Description:     req.Description,
		Brand:           req.Brand,
		Attributes:      req.Attributes,
		DefaultImageURL: req.DefaultImageURL,
	}

	for _, v := range req.Variants {
		if v.SKU == "" || v.PriceCents < 0 {
			writeError(w, http.StatusBadRequest, "variant sku required and price must be non-negative")
			return nil, false
		}
		p.Variants = append(p.Variants, model.Variant{
			SKU:        v.SKU,
			Name:       v.Name,
			PriceCents: v.PriceCents,
			Currency:   v.Currency,
			StockQty:   v.StockQty,
		})
	}

	for _, id := range req.CategoryIDs {
		c, err := h.categories.GetByID(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check category")
			return nil, false
		}
		if c == nil {
			writeError(w, http.StatusBadRequest, "category not found")
			return nil, false
		}
		p.Categories = append(p.Categories, *c)
	}

	return p, true
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := h.parseAndValidate(w, r, true)
	if !ok {
		return
	}

	existing, err := h.products.GetBySKU(p.SKU)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check sku")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "sku already in use")
		return
	}

	created, err := h.products.Create(p)
	if err != nil {
		h.logger.Error("create product", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.products.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	p, ok := h.parseAndValidate(w, r, false)
	if !ok {
		return
	}
	p.ID = id

	updated, err := h.products.Update(p)
	if err != nil {
		h.logger.Error("update product", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update product")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type stockRequest struct {
	Delta int64 `json:"delta"`
}

// AdjustStock applies a relative stock change to a variant; the store rejects
// adjustments that would take stock negative.
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	variantID := r.PathValue("id")

	var req stockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.products.AdjustStock(variantID, req.Delta); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	v, err := h.products.GetVariant(variantID)
	if err != nil || v == nil {
		writeError(w, http.StatusInternalServerError, "failed to load variant")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.products.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	if err := h.products.Delete(id); err != nil {
		h.logger.Error("delete product", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
