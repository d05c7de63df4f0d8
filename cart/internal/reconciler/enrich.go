package reconciler

import (
	"github.com/shopspring/decimal"

	"github.com/Alturino/shopeasy/cart/internal/store"
	"github.com/Alturino/shopeasy/product/pkg/client"
	"github.com/Alturino/shopeasy/product/pkg/response"
)

type Status string

const (
	StatusResolved    Status = "resolved"
	StatusPending     Status = "pending"
	StatusNotFound    Status = "not_found"
	StatusUnavailable Status = "unavailable"
)

// Resolution is the outcome of one catalog fetch: either a product or the
// error the fetch failed with.
type Resolution struct {
	Product *response.Product
	Err     error
}

func Resolved(product response.Product) Resolution {
	return Resolution{Product: &product}
}

func Failed(err error) Resolution {
	return Resolution{Err: err}
}

func (r Resolution) Failed() bool { return r.Err != nil }

func (r Resolution) status() Status {
	if r.Err == nil {
		return StatusResolved
	}
	if client.Outcome(r.Err) == client.OutcomeNotFound {
		return StatusNotFound
	}
	return StatusUnavailable
}

// EnrichedLine is a cart line joined with its catalog product. Product is nil
// while the fetch is pending or after it failed; Status tells which.
type EnrichedLine struct {
	ProductID int64             `json:"productId"`
	Quantity  int               `json:"quantity"`
	Product   *response.Product `json:"product"`
	Status    Status            `json:"status"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
}

// Reconcile joins cart with the known resolutions in cart order. Ids that are
// neither resolved nor pending are returned in missing, in cart order, and
// their lines are reported as pending since the caller is expected to fetch
// them.
func Reconcile(
	cart store.Cart,
	resolved map[int64]Resolution,
	pending map[int64]struct{},
) (lines []EnrichedLine, missing []int64) {
	lines = make([]EnrichedLine, 0, cart.Len())
	for _, line := range cart.Lines() {
		enriched := EnrichedLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Status:    StatusPending,
			Subtotal:  decimal.Zero,
		}

		res, ok := resolved[line.ProductID]
		switch {
		case ok:
			enriched.Status = res.status()
			if res.Product != nil && res.Err == nil {
				enriched.Product = res.Product
				enriched.Subtotal = res.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			}
		case isPending(pending, line.ProductID):
		default:
			missing = append(missing, line.ProductID)
		}

		lines = append(lines, enriched)
	}
	return lines, missing
}

// Total sums the subtotals of lines whose product is present.
func Total(lines []EnrichedLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		if line.Product == nil {
			continue
		}
		total = total.Add(line.Subtotal)
	}
	return total
}

func isPending(pending map[int64]struct{}, id int64) bool {
	_, ok := pending[id]
	return ok
}
