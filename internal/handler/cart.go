package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/bykirken/bykirken/internal/model"
	"github.com/bykirken/bykirken/internal/store"
)

const (
	cartCookieName = "cart_session"
	cartCookieTTL  = 30 * 24 * time.Hour
)

type CartHandler struct {
	carts    *store.CartStore
	products *store.ProductStore
	logger   *slog.Logger
	secure   bool
}

func NewCartHandler(carts *store.CartStore, products *store.ProductStore, secure bool, logger *slog.Logger) *CartHandler {
	return &CartHandler{carts: carts, products: products, secure: secure, logger: logger}
}

// cartSession returns the session id from the cart cookie, issuing a fresh
// cookie when none is present.
func (h *CartHandler) cartSession(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(cartCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	sessionID := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(cartCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sessionID
}

type cartResponse struct {
	Cart  *model.Cart      `json:"cart"`
	Items []model.CartItem `json:"items"`
}

func (h *CartHandler) respondCart(w http.ResponseWriter, cartID string) {
	cart, err := h.carts.GetByID(cartID)
	if err != nil || cart == nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	items, err := h.carts.Items(cartID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart items")
		return
	}
	if items == nil {
		items = []model.CartItem{}
	}
	writeJSON(w, http.StatusOK, cartResponse{Cart: cart, Items: items})
}

// Get serves the visitor's cart, creating it on first access.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cartSession(w, r)

	cart, err := h.carts.GetOrCreate(sessionID)
	if err != nil {
		h.logger.Error("get or create cart", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	h.respondCart(w, cart.ID)
}

type addItemRequest struct {
	VariantID string `json:"variant_id"`
	Qty       int64  `json:"qty"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cartSession(w, r)

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.VariantID == "" || req.Qty <= 0 {
		writeError(w, http.StatusBadRequest, "variant_id and positive qty are required")
		return
	}

	variant, err := h.products.GetVariant(req.VariantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load variant")
		return
	}
	if variant == nil {
		writeError(w, http.StatusNotFound, "variant not found")
		return
	}
	if variant.StockQty < req.Qty {
		writeError(w, http.StatusConflict, "insufficient stock")
		return
	}

	cart, err := h.carts.GetOrCreate(sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}

	if err := h.carts.AddItem(cart.ID, variant, req.Qty); err != nil {
		h.logger.Error("add cart item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add item")
		return
	}
	h.respondCart(w, cart.ID)
}

type setQtyRequest struct {
	Qty int64 `json:"qty"`
}

// SetItemQty updates an item's quantity; zero removes the item.
func (h *CartHandler) SetItemQty(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cartSession(w, r)
	itemID := r.PathValue("id")

	var req setQtyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Qty < 0 {
		writeError(w, http.StatusBadRequest, "qty must not be negative")
		return
	}

	cart, err := h.carts.GetBySessionID(sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	if cart == nil {
		writeError(w, http.StatusNotFound, "cart not found")
		return
	}

	if err := h.carts.SetItemQty(cart.ID, itemID, req.Qty); err != nil {
		h.logger.Error("set cart item qty", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	h.respondCart(w, cart.ID)
}
