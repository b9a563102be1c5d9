package state

import (
	"fmt"
	"strings"
)

// CartItem is one line of the shopping cart.
type CartItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Brand       string  `json:"brand"`
	Color       string  `json:"color"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// ShoppingCart holds the session's cart. TotalAmount is recomputed from
// scratch after every mutation, never incrementally adjusted.
type ShoppingCart struct {
	Items       []CartItem `json:"items,omitempty"`
	TotalAmount float64    `json:"total_amount"`
}

// AddItem merges into an existing line when (product_name, brand, color)
// match, otherwise appends. Quantity below 1 is treated as 1.
func (c *ShoppingCart) AddItem(item CartItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	for i := range c.Items {
		existing := &c.Items[i]
		if existing.ProductName == item.ProductName &&
			existing.Brand == item.Brand &&
			existing.Color == item.Color {
			existing.Quantity += item.Quantity
			c.recalculateTotal()
			return
		}
	}
	c.Items = append(c.Items, item)
	c.recalculateTotal()
}

// RemoveItem drops every line with the given product name.
func (c *ShoppingCart) RemoveItem(productName string) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductName != productName {
			kept = append(kept, item)
		}
	}
	c.Items = kept
	c.recalculateTotal()
}

func (c *ShoppingCart) recalculateTotal() {
	total := 0.0
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	c.TotalAmount = total
}

// Summary renders the cart for the user.
func (c *ShoppingCart) Summary() string {
	if len(c.Items) == 0 {
		return "Your cart is empty."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cart summary (%d items):\n\n", len(c.Items))
	for i, item := range c.Items {
		fmt.Fprintf(&b, "%d. %s %s - %s\n", i+1, item.Brand, item.ProductName, item.Color)
		fmt.Fprintf(&b, "   Rs.%.2f x %d = Rs.%.2f\n\n", item.Price, item.Quantity, item.Price*float64(item.Quantity))
	}
	fmt.Fprintf(&b, "Total: Rs.%.2f", c.TotalAmount)
	return b.String()
}
