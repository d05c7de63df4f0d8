package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/shopeasy/cart/internal/otel"
	"github.com/Alturino/shopeasy/cart/internal/reconciler"
	"github.com/Alturino/shopeasy/cart/internal/store"
	"github.com/Alturino/shopeasy/internal/log"
)

// View is the derived cart state handed to the UI. Version grows by one on
// every derivation so a subscriber can drop a view older than one it has
// already rendered.
type View struct {
	Lines          []reconciler.EnrichedLine `json:"lines"`
	Total          decimal.Decimal           `json:"total"`
	TotalFormatted string                    `json:"totalFormatted"`
	ItemCount      int                       `json:"itemCount"`
	Version        uint64                    `json:"version"`
}

type Listener func(View)

// CartService is the single writer of the cart. Intents and fetch
// completions are applied one at a time under mu; listeners are called after
// mu is released.
type CartService struct {
	mu        sync.Mutex
	cart      store.Cart
	rec       *reconciler.Reconciler
	view      View
	listeners map[uint64]Listener
	nextID    uint64
	metrics   *Metrics
}

func NewCartService(fetcher reconciler.Fetcher, metrics *Metrics) *CartService {
	svc := &CartService{
		listeners: map[uint64]Listener{},
		metrics:   metrics,
		view: View{
			Lines:          []reconciler.EnrichedLine{},
			Total:          decimal.Zero,
			TotalFormatted: decimal.Zero.StringFixed(2),
		},
	}
	svc.rec = reconciler.New(fetcher, svc.onResolved)
	return svc
}

func (svc *CartService) Dispatch(c context.Context, intent store.Intent) View {
	c, span := otel.Tracer.Start(
		c,
		"CartService Dispatch",
		trace.WithAttributes(
			attribute.String(log.KeyIntent, string(intent.Kind)),
			attribute.Int64(log.KeyProductID, intent.ProductID),
		),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService Dispatch").
		Object(log.KeyIntent, intent).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "applying intent").Logger()
	logger.Trace().Msg("applying intent")
	c = logger.WithContext(c)

	svc.mu.Lock()
	svc.cart = svc.cart.Apply(intent)
	svc.rec.Prune(svc.cart)
	view, listeners := svc.derive(c)
	svc.mu.Unlock()

	svc.metrics.intent(string(intent.Kind))
	span.SetAttributes(attribute.Int64(log.KeyCartVersion, int64(view.Version)))
	logger.Debug().
		Uint64(log.KeyCartVersion, view.Version).
		Int(log.KeyCartLines, len(view.Lines)).
		Str(log.KeyCartTotal, view.TotalFormatted).
		Msg("applied intent")

	notify(listeners, view)
	return view
}

// Retry refetches a product whose last fetch failed. It reports false when
// the product has no failed resolution.
func (svc *CartService) Retry(c context.Context, productID int64) (View, bool) {
	c, span := otel.Tracer.Start(
		c,
		"CartService Retry",
		trace.WithAttributes(attribute.Int64(log.KeyProductID, productID)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService Retry").
		Int64(log.KeyProductID, productID).
		Logger()
	c = logger.WithContext(c)

	svc.mu.Lock()
	if !svc.cart.Contains(productID) || !svc.rec.Retry(productID) {
		view := svc.view
		svc.mu.Unlock()
		logger.Debug().Msg("nothing to retry")
		return view, false
	}
	view, listeners := svc.derive(c)
	svc.mu.Unlock()

	logger.Info().Uint64(log.KeyCartVersion, view.Version).Msg("retrying product fetch")
	notify(listeners, view)
	return view, true
}

func (svc *CartService) View() View {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.view
}

func (svc *CartService) Total() decimal.Decimal {
	return svc.View().Total
}

// Cart returns the authoritative cart snapshot.
func (svc *CartService) Cart() store.Cart {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.cart
}

func (svc *CartService) Contains(productID int64) bool {
	return svc.Cart().Contains(productID)
}

// Subscribe registers listener for every future view and returns a function
// removing it. Listeners run on the goroutine that produced the view and
// must not block.
func (svc *CartService) Subscribe(listener Listener) func() {
	svc.mu.Lock()
	id := svc.nextID
	svc.nextID++
	svc.listeners[id] = listener
	svc.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			svc.mu.Lock()
			delete(svc.listeners, id)
			svc.mu.Unlock()
		})
	}
}

// Close waits until no fetch is running, including fetches scheduled by
// intents dispatched while it waits. The service stays usable afterwards.
// It must not be called from a listener.
func (svc *CartService) Close() {
	svc.rec.Wait()
}

func (svc *CartService) onResolved(c context.Context, productID int64, res reconciler.Resolution) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService onResolved").
		Int64(log.KeyProductID, productID).
		Logger()

	svc.mu.Lock()
	if !svc.rec.OnResolved(svc.cart, productID, res) {
		svc.metrics.gauges(svc.cart.Len(), svc.rec.PendingCount())
		svc.mu.Unlock()
		logger.Debug().Msg("dropped result for product no longer in cart")
		return
	}
	view, listeners := svc.derive(c)
	svc.mu.Unlock()

	logger.Debug().Uint64(log.KeyCartVersion, view.Version).Msg("applied product resolution")
	notify(listeners, view)
}

// derive recomputes the view from the current cart. Callers hold mu.
func (svc *CartService) derive(c context.Context) (View, []Listener) {
	lines := svc.rec.Reconcile(c, svc.cart)
	total := reconciler.Total(lines)
	svc.view = View{
		Lines:          lines,
		Total:          total,
		TotalFormatted: total.StringFixed(2),
		ItemCount:      svc.cart.ItemCount(),
		Version:        svc.view.Version + 1,
	}
	svc.metrics.derived(svc.cart.Len(), svc.rec.PendingCount())

	listeners := make([]Listener, 0, len(svc.listeners))
	for _, listener := range svc.listeners {
		listeners = append(listeners, listener)
	}
	return svc.view, listeners
}

func notify(listeners []Listener, view View) {
	for _, listener := range listeners {
		listener(view)
	}
}
