package store

import (
	"github.com/rs/zerolog"
)

type IntentKind string

const (
	IntentAdd         IntentKind = "add"
	IntentSubtract    IntentKind = "subtract"
	IntentRemove      IntentKind = "remove"
	IntentSetQuantity IntentKind = "set_quantity"
)

// Intent is a user request to change the cart. Quantity is only read by
// IntentSetQuantity.
type Intent struct {
	Kind      IntentKind `json:"type"`
	ProductID int64      `json:"productId"`
	Quantity  int        `json:"quantity,omitempty"`
}

func Add(productID int64) Intent {
	return Intent{Kind: IntentAdd, ProductID: productID}
}

func Subtract(productID int64) Intent {
	return Intent{Kind: IntentSubtract, ProductID: productID}
}

func Remove(productID int64) Intent {
	return Intent{Kind: IntentRemove, ProductID: productID}
}

func SetQuantity(productID int64, quantity int) Intent {
	return Intent{Kind: IntentSetQuantity, ProductID: productID, Quantity: quantity}
}

func (i Intent) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", string(i.Kind)).Int64("productId", i.ProductID)
	if i.Kind == IntentSetQuantity {
		e.Int("quantity", i.Quantity)
	}
}
