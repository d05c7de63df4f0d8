package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/shopeasy/internal/log"
	inOtel "github.com/Alturino/shopeasy/internal/otel"
	"github.com/Alturino/shopeasy/product/internal/otel"
	"github.com/Alturino/shopeasy/product/pkg/client"
	"github.com/Alturino/shopeasy/product/pkg/response"
)

var ErrInvalidPage = errors.New("page must be 1 or greater")

// CartLookup tells whether a product already sits in the cart.
type CartLookup interface {
	Contains(productID int64) bool
}

type ProductService struct {
	catalog  client.Catalog
	cart     CartLookup
	pageSize int
}

func NewProductService(catalog client.Catalog, cart CartLookup, pageSize int) *ProductService {
	return &ProductService{catalog: catalog, cart: cart, pageSize: pageSize}
}

// Browse returns the first page × pageSize products. The catalog has no
// offset, so every page re-requests everything before it; a result shorter
// than the limit marks the end of the catalog.
func (svc *ProductService) Browse(c context.Context, page int) (response.Page, error) {
	c, span := otel.Tracer.Start(
		c,
		"ProductService Browse",
		trace.WithAttributes(attribute.Int(log.KeyPage, page)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService Browse").
		Int(log.KeyPage, page).
		Logger()

	if page < 1 {
		err := fmt.Errorf("failed browsing page=%d with error=%w", page, ErrInvalidPage)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Page{}, err
	}

	limit := page * svc.pageSize
	logger = logger.With().Str(log.KeyProcess, "fetching products").Int(log.KeyLimit, limit).Logger()
	logger.Trace().Msg("fetching products")
	span.AddEvent("fetching products")
	c = logger.WithContext(c)
	products, err := svc.catalog.FetchPage(c, limit)
	if err != nil {
		err = fmt.Errorf("failed fetching products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Page{}, err
	}
	span.AddEvent("fetched products")
	logger.Info().Int(log.KeyProducts, len(products)).Msg("fetched products")

	return response.Page{
		Products: products,
		Page:     page,
		Limit:    limit,
		HasMore:  len(products) == limit,
	}, nil
}

func (svc *ProductService) FindProductById(
	c context.Context,
	id int64,
) (response.ProductDetail, error) {
	c, span := otel.Tracer.Start(
		c,
		"ProductService FindProductById",
		trace.WithAttributes(attribute.Int64(log.KeyProductID, id)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService FindProductById").
		Int64(log.KeyProductID, id).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "fetching product").Logger()
	logger.Trace().Msg("fetching product")
	span.AddEvent("fetching product")
	c = logger.WithContext(c)
	product, err := svc.catalog.FetchOne(c, id)
	if err != nil {
		err = fmt.Errorf("failed fetching productId=%d with error=%w", id, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.ProductDetail{}, err
	}
	span.AddEvent("fetched product")
	logger.Info().Msg("fetched product")

	return response.ProductDetail{Product: product, InCart: svc.cart.Contains(id)}, nil
}
