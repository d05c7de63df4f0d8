package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/shopeasy/internal/config"
	"github.com/Alturino/shopeasy/internal/constants"
	"github.com/Alturino/shopeasy/internal/log"
	inOtel "github.com/Alturino/shopeasy/internal/otel"
	"github.com/Alturino/shopeasy/product/internal/controller"
	"github.com/Alturino/shopeasy/product/internal/otel"
	"github.com/Alturino/shopeasy/product/internal/service"
	"github.com/Alturino/shopeasy/product/pkg/client"
)

// NewCatalog builds the catalog client. When cache is not nil successful
// lookups are cached in redis for cfg.Cache.TTL.
func NewCatalog(
	c context.Context,
	cfg *config.Config,
	cache *redis.Client,
	reg prometheus.Registerer,
) client.Catalog {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppCatalogClient).
		Str(log.KeyTag, "main NewCatalog").
		Logger()

	metrics := client.NewMetrics(reg)
	catalog := client.Catalog(client.NewClient(cfg.Catalog, client.WithMetrics(metrics)))
	if cache == nil {
		logger.Info().Msg("initialized catalog client without cache")
		return catalog
	}
	logger.Info().Dur("ttl", cfg.Cache.TTL).Msg("initialized catalog client with redis cache")
	return client.NewCachedClient(catalog, cache, cfg.Cache.TTL, metrics)
}

func NewProductService(catalog client.Catalog, cart service.CartLookup, cfg *config.Config) *service.ProductService {
	return service.NewProductService(catalog, cart, cfg.Catalog.PageSize)
}

// AttachProductController mounts the product routes on router.
func AttachProductController(router *mux.Router, productService *service.ProductService, middlewares ...mux.MiddlewareFunc) {
	controller.AttachProductController(router, productService, middlewares...)
}

type emptyCart struct{}

func (emptyCart) Contains(int64) bool { return false }

// RunBrowse prints one page of the catalog to out.
func RunBrowse(c context.Context, cfg *config.Config, page int, out io.Writer) error {
	c, span := otel.Tracer.Start(c, "RunBrowse")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppProductService).
		Str(log.KeyTag, "main RunBrowse").
		Int(log.KeyPage, page).
		Logger()
	c = logger.WithContext(c)

	svc := NewProductService(NewCatalog(c, cfg, nil, nil), emptyCart{}, cfg)

	logger = logger.With().Str(log.KeyProcess, "browsing products").Logger()
	logger.Debug().Msg("browsing products")
	result, err := svc.Browse(c, page)
	if err != nil {
		err = fmt.Errorf("failed browsing products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPRICE\tCATEGORY")
	for _, product := range result.Products {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", product.ID, product.Title, product.Price.StringFixed(2), product.Category)
	}
	if err := w.Flush(); err != nil {
		err = fmt.Errorf("failed writing products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if result.HasMore {
		fmt.Fprintf(out, "\nmore products available, run again with --page %d\n", page+1)
	}
	logger.Debug().Int(log.KeyProducts, len(result.Products)).Msg("browsed products")
	return nil
}
