// Package reconciler derives the enriched cart view from the authoritative
// cart and the product resolutions gathered so far, and fans out catalog
// fetches for ids it has not seen yet.
package reconciler

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/shopeasy/cart/internal/otel"
	"github.com/Alturino/shopeasy/cart/internal/store"
	"github.com/Alturino/shopeasy/internal/log"
	inOtel "github.com/Alturino/shopeasy/internal/otel"
	"github.com/Alturino/shopeasy/product/pkg/client"
	"github.com/Alturino/shopeasy/product/pkg/response"
)

type Fetcher interface {
	FetchOne(c context.Context, id int64) (response.Product, error)
}

// CompletionFunc receives every fetch result. It runs on the fetching
// goroutine and is expected to serialize with the cart owner and call
// OnResolved.
type CompletionFunc func(c context.Context, id int64, res Resolution)

// Reconciler owns the resolved map and the pending set. It is not safe for
// concurrent use: the cart owner calls every method under its own lock. Only
// the fetch goroutines run concurrently and they touch nothing but the
// fetcher and the completion callback.
type Reconciler struct {
	fetcher  Fetcher
	complete CompletionFunc
	resolved map[int64]Resolution
	pending  map[int64]struct{}
	inflight *inflight
}

// inflight counts running fetches. Unlike sync.WaitGroup it allows a fetch
// to start while another goroutine is waiting.
type inflight struct {
	mu   sync.Mutex
	idle *sync.Cond
	n    int
}

func newInflight() *inflight {
	f := &inflight{}
	f.idle = sync.NewCond(&f.mu)
	return f
}

func (f *inflight) add() {
	f.mu.Lock()
	f.n++
	f.mu.Unlock()
}

func (f *inflight) done() {
	f.mu.Lock()
	f.n--
	if f.n == 0 {
		f.idle.Broadcast()
	}
	f.mu.Unlock()
}

func (f *inflight) wait() {
	f.mu.Lock()
	for f.n > 0 {
		f.idle.Wait()
	}
	f.mu.Unlock()
}

func New(fetcher Fetcher, complete CompletionFunc) *Reconciler {
	return &Reconciler{
		fetcher:  fetcher,
		complete: complete,
		resolved: map[int64]Resolution{},
		pending:  map[int64]struct{}{},
		inflight: newInflight(),
	}
}

// Reconcile returns the enriched lines of cart and starts one fetch for every
// id that is neither resolved nor pending. Calling it repeatedly with the
// same cart issues no further requests.
func (r *Reconciler) Reconcile(c context.Context, cart store.Cart) []EnrichedLine {
	lines, missing := Reconcile(cart, r.resolved, r.pending)
	if len(missing) == 0 {
		return lines
	}

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Reconciler Reconcile").
		Str(log.KeyProcess, "scheduling fetches").
		Ints64(log.KeyProductIDs, missing).
		Logger()
	logger.Debug().Msg("scheduling product fetches")

	for _, id := range missing {
		r.pending[id] = struct{}{}
		r.fetch(c, id)
	}
	return lines
}

// OnResolved records a fetch result and reports whether the view changed.
// Results for ids no longer in cart are dropped; a later result for the same
// id overwrites an earlier one.
func (r *Reconciler) OnResolved(cart store.Cart, id int64, res Resolution) bool {
	delete(r.pending, id)
	if !cart.Contains(id) {
		return false
	}
	r.resolved[id] = res
	return true
}

// Retry forgets a failed resolution so the next Reconcile fetches the id
// again. It reports false when there was no failure to forget.
func (r *Reconciler) Retry(id int64) bool {
	res, ok := r.resolved[id]
	if !ok || !res.Failed() {
		return false
	}
	delete(r.resolved, id)
	return true
}

// Prune forgets failures of ids that left the cart so adding them again
// triggers a fresh fetch. Resolved products are kept as a cache.
func (r *Reconciler) Prune(cart store.Cart) {
	for id, res := range r.resolved {
		if res.Failed() && !cart.Contains(id) {
			delete(r.resolved, id)
		}
	}
}

func (r *Reconciler) Pending(id int64) bool {
	return isPending(r.pending, id)
}

func (r *Reconciler) PendingCount() int {
	return len(r.pending)
}

func (r *Reconciler) Resolution(id int64) (Resolution, bool) {
	res, ok := r.resolved[id]
	return res, ok
}

// Wait blocks until no fetch is running. Fetches started while waiting are
// waited for too. It must not be called while holding the lock the
// completion callback takes.
func (r *Reconciler) Wait() {
	r.inflight.wait()
}

func (r *Reconciler) fetch(c context.Context, id int64) {
	r.inflight.add()
	fetchCtx := context.WithoutCancel(c)
	go func() {
		defer r.inflight.done()

		c, span := otel.Tracer.Start(
			fetchCtx,
			"Reconciler fetch",
			trace.WithAttributes(attribute.Int64(log.KeyProductID, id)),
		)
		defer span.End()

		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "Reconciler fetch").
			Int64(log.KeyProductID, id).
			Logger()

		logger.Trace().Msg("fetching product")
		product, err := r.fetcher.FetchOne(c, id)
		res := Resolved(product)
		if err != nil {
			err = fmt.Errorf("failed resolving productId=%d with error=%w", id, err)
			inOtel.RecordError(err, span)
			logger.Warn().Err(err).Str(log.KeyFetchOutcome, client.Outcome(err)).Msg(err.Error())
			res = Failed(err)
		} else {
			logger.Trace().Msg("fetched product")
		}

		r.complete(c, id, res)
	}()
}
