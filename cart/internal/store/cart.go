// Package store holds the authoritative cart and its transition functions.
// Every transition is total: it never fails, never performs I/O and always
// returns a new Cart, leaving the receiver untouched.
package store

import (
	"encoding/json"
)

// MaxQuantity caps a single line. Add saturates at it and SetQuantity clamps
// to it.
const MaxQuantity = 9999

type Line struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// Cart is an ordered set of lines keyed by product id. Lines keep insertion
// order and never hold a quantity below 1. The zero value is an empty cart.
type Cart struct {
	lines []Line
}

func New(lines ...Line) Cart {
	cart := Cart{}
	for _, line := range lines {
		cart = cart.SetQuantity(line.ProductID, line.Quantity)
	}
	return cart
}

// Lines returns a copy of the cart lines in insertion order.
func (c Cart) Lines() []Line {
	lines := make([]Line, len(c.lines))
	copy(lines, c.lines)
	return lines
}

func (c Cart) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Lines())
}

func (c Cart) Len() int { return len(c.lines) }

func (c Cart) IsEmpty() bool { return len(c.lines) == 0 }

func (c Cart) Contains(productID int64) bool {
	return c.index(productID) >= 0
}

func (c Cart) Quantity(productID int64) (int, bool) {
	i := c.index(productID)
	if i < 0 {
		return 0, false
	}
	return c.lines[i].Quantity, true
}

// ItemCount is the sum of all quantities.
func (c Cart) ItemCount() int {
	count := 0
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}

func (c Cart) Add(productID int64) Cart {
	i := c.index(productID)
	if i < 0 {
		return c.append(Line{ProductID: productID, Quantity: 1})
	}
	if c.lines[i].Quantity >= MaxQuantity {
		return c.replace(i, MaxQuantity)
	}
	return c.replace(i, c.lines[i].Quantity+1)
}

func (c Cart) Subtract(productID int64) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	if c.lines[i].Quantity <= 1 {
		return c.delete(i)
	}
	return c.replace(i, c.lines[i].Quantity-1)
}

func (c Cart) Remove(productID int64) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	return c.delete(i)
}

// SetQuantity sets the quantity exactly, appending the line when absent. A
// quantity of zero or less removes the line; one above MaxQuantity is clamped.
func (c Cart) SetQuantity(productID int64, quantity int) Cart {
	if quantity <= 0 {
		return c.Remove(productID)
	}
	quantity = min(quantity, MaxQuantity)
	i := c.index(productID)
	if i < 0 {
		return c.append(Line{ProductID: productID, Quantity: quantity})
	}
	return c.replace(i, quantity)
}

func (c Cart) Apply(intent Intent) Cart {
	switch intent.Kind {
	case IntentAdd:
		return c.Add(intent.ProductID)
	case IntentSubtract:
		return c.Subtract(intent.ProductID)
	case IntentRemove:
		return c.Remove(intent.ProductID)
	case IntentSetQuantity:
		return c.SetQuantity(intent.ProductID, intent.Quantity)
	default:
		return c
	}
}

func (c Cart) index(productID int64) int {
	for i, line := range c.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) append(line Line) Cart {
	lines := make([]Line, len(c.lines), len(c.lines)+1)
	copy(lines, c.lines)
	return Cart{lines: append(lines, line)}
}

func (c Cart) replace(i int, quantity int) Cart {
	lines := c.Lines()
	lines[i].Quantity = quantity
	return Cart{lines: lines}
}

func (c Cart) delete(i int) Cart {
	lines := make([]Line, 0, len(c.lines)-1)
	lines = append(lines, c.lines[:i]...)
	lines = append(lines, c.lines[i+1:]...)
	return Cart{lines: lines}
}
