package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/bykirken/bykirken/internal/email"
	"github.com/bykirken/bykirken/internal/model"
	"github.com/bykirken/bykirken/internal/payments"
	"github.com/bykirken/bykirken/internal/store"
)

// maxWebhookBody caps the Stripe webhook payload size.
const maxWebhookBody = 64 << 10

type OrderHandler struct {
	orders   *store.OrderStore
	carts    *store.CartStore
	products *store.ProductStore
	payments *payments.Client
	email    *email.Client
	logger   *slog.Logger
}

func NewOrderHandler(orders *store.OrderStore, carts *store.CartStore, products *store.ProductStore, pay *payments.Client, mailer *email.Client, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		carts:    carts,
		products: products,
		payments: pay,
		email:    mailer,
		logger:   logger,
	}
}

type checkoutRequest struct {
	Email string `json:"email"`
}

type checkoutResponse struct {
	Order       *model.Order      `json:"order"`
	Items       []model.OrderItem `json:"items"`
	CheckoutURL string            `json:"checkout_url,omitempty"`
}

// Checkout turns the visitor's cart into an order. Stock is decremented per
// item; when Stripe is configured the response carries a hosted checkout URL.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(cartCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusBadRequest, "no cart session")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "valid email is required")
		return
	}

	cart, err := h.carts.GetBySessionID(cookie.Value)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	if cart == nil {
		writeError(w, http.StatusNotFound, "cart not found")
		return
	}

	items, err := h.carts.Items(cart.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart items")
		return
	}
	if len(items) == 0 {
		writeError(w, http.StatusBadRequest, "cart is empty")
		return
	}

	for _, item := range items {
		if err := h.products.AdjustStock(item.VariantID, -item.Qty); err != nil {
			writeError(w, http.StatusConflict, "insufficient stock for "+item.SKU)
			return
		}
	}

	customer, err := h.orders.EnsureCustomer(req.Email)
	if err != nil {
		h.logger.Error("ensure customer", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create customer")
		return
	}

	order, err := h.orders.CreateFromCart(customer.ID, cart, items)
	if err != nil {
		h.logger.Error("create order from cart", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create order")
		return
	}

	orderItems, err := h.orders.Items(order.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load order items")
		return
	}

	resp := checkoutResponse{Order: order, Items: orderItems}
	if h.payments != nil && h.payments.Configured() {
		url, err := h.payments.CreateCheckoutSession(order, orderItems, req.Email)
		if err != nil {
			h.logger.Error("create stripe checkout session", "error", err, "order_id", order.ID)
		} else {
			resp.CheckoutURL = url
		}
	}

	if h.email != nil && h.email.Configured() {
		if err := h.email.SendOrderConfirmation(req.Email, order.ID, order.TotalCents, order.Currency); err != nil {
			h.logger.Warn("send order confirmation", "error", err, "order_id", order.ID)
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	order, err := h.orders.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get order")
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	items, err := h.orders.Items(order.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load order items")
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{Order: order, Items: items})
}

// ListByCustomer serves a customer's order history, newest first.
func (h *OrderHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	emailAddr := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("email")))
	if emailAddr == "" {
		writeError(w, http.StatusBadRequest, "email query parameter is required")
		return
	}

	customer, err := h.orders.EnsureCustomer(emailAddr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load customer")
		return
	}

	orders, err := h.orders.ListByCustomer(customer.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// StripeWebhook marks orders paid on checkout.session.completed events. The
// order id travels in the session's client_reference_id.
func (h *OrderHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil || !h.payments.Configured() {
		writeError(w, http.StatusServiceUnavailable, "payments not configured")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	event, err := h.payments.ConstructWebhookEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("stripe webhook signature rejected", "error", err)
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	if event.Type == "checkout.session.completed" {
		var session struct {
			ClientReferenceID string `json:"client_reference_id"`
		}
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			writeError(w, http.StatusBadRequest, "invalid event payload")
			return
		}
		if session.ClientReferenceID != "" {
			if err := h.orders.MarkPaid(session.ClientReferenceID); err != nil {
				h.logger.Error("mark order paid", "error", err, "order_id", session.ClientReferenceID)
				writeError(w, http.StatusInternalServerError, "failed to update order")
				return
			}
			h.logger.Info("order paid", "order_id", session.ClientReferenceID)
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
