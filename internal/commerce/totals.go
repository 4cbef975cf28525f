// Package commerce holds the money arithmetic for carts and orders. All
// amounts are integer cents; nothing here ever touches floats.
package commerce

import "github.com/bykirken/bykirken/internal/model"

// RowTotal is the line total for a quantity of one variant.
func RowTotal(unitPriceCents, qty int64) int64 {
	if qty <= 0 {
		return 0
	}
	return unitPriceCents * qty
}

// Subtotal sums the row totals of all items.
func Subtotal(items []model.CartItem) int64 {
	var sum int64
	for _, item := range items {
		sum += item.RowTotalCents
	}
	return sum
}

// Total is the amount due. Shipping and tax are settled by the payment
// provider at checkout, so the cart total equals the subtotal.
func Total(subtotalCents int64) int64 {
	return subtotalCents
}
