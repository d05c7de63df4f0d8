package request

import (
	"github.com/rs/zerolog"
)

// Intent is the body of POST /cart/intents. Quantity is only read for
// set_quantity, where zero or less removes the line.
type Intent struct {
	Type      string `validate:"required,oneof=add subtract remove set_quantity" json:"type"`
	ProductID int64  `validate:"gt=0"                                             json:"productId"`
	Quantity  int    `validate:"max=9999"                                         json:"quantity"`
}

func (i Intent) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", i.Type).Int64("productId", i.ProductID).Int("quantity", i.Quantity)
}
