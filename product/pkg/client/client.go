package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/shopeasy/internal/config"
	inHttp "github.com/Alturino/shopeasy/internal/http"
	"github.com/Alturino/shopeasy/internal/log"
	inOtel "github.com/Alturino/shopeasy/internal/otel"
	"github.com/Alturino/shopeasy/product/internal/otel"
	"github.com/Alturino/shopeasy/product/pkg/response"
)

const defaultMaxFailures = 5

// Client talks to a fakestoreapi compatible catalog. It never retries;
// every call is independent so concurrent FetchOne calls cannot affect each
// other's results.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	metrics    *Metrics
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(cl *Client) { cl.httpClient = httpClient }
}

func WithMetrics(metrics *Metrics) Option {
	return func(cl *Client) { cl.metrics = metrics }
}

func NewClient(cfg config.Catalog, opts ...Option) *Client {
	maxFailures := cfg.Breaker.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultMaxFailures
	}

	cl := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
		},
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "catalog",
			MaxRequests: 1,
			Timeout:     cfg.Breaker.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNotFound)
			},
		}),
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

func (cl *Client) FetchOne(c context.Context, id int64) (product response.Product, err error) {
	c, span := otel.Tracer.Start(
		c,
		"Client FetchOne",
		trace.WithAttributes(attribute.Int64(log.KeyProductID, id)),
	)
	defer span.End()

	start := time.Now()
	defer func() { cl.metrics.observe(OperationFetchOne, start, err) }()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client FetchOne").
		Int64(log.KeyProductID, id).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "fetching product").Logger()
	logger.Trace().Msg("fetching product")
	body, err := cl.get(c, cl.baseURL+"/products/"+strconv.FormatInt(id, 10))
	if err != nil {
		err = fmt.Errorf("failed fetching productId=%d with error=%w", id, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		err = fmt.Errorf("productId=%d returned empty body: %w", id, ErrNotFound)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return response.Product{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "decoding product").Logger()
	if err = json.Unmarshal(trimmed, &product); err != nil {
		err = fmt.Errorf("failed decoding productId=%d with error=%w: %w", id, err, ErrUnavailable)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Info().Msg("fetched product")

	return product, nil
}

// FetchPage returns up to limit products. Fewer than limit products means the
// catalog has no more data.
func (cl *Client) FetchPage(c context.Context, limit int) (products []response.Product, err error) {
	c, span := otel.Tracer.Start(
		c,
		"Client FetchPage",
		trace.WithAttributes(attribute.Int(log.KeyLimit, limit)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client FetchPage").
		Int(log.KeyLimit, limit).
		Logger()

	if limit <= 0 {
		logger.Trace().Msg("non positive limit, skipping request")
		return []response.Product{}, nil
	}

	start := time.Now()
	defer func() { cl.metrics.observe(OperationFetchPage, start, err) }()

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	logger = logger.With().Str(log.KeyProcess, "fetching products").Logger()
	logger.Trace().Msg("fetching products")
	body, err := cl.get(c, cl.baseURL+"/products?"+query.Encode())
	if err != nil {
		err = fmt.Errorf("failed fetching products with limit=%d with error=%w", limit, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	logger = logger.With().Str(log.KeyProcess, "decoding products").Logger()
	products = []response.Product{}
	if err = json.Unmarshal(body, &products); err != nil {
		err = fmt.Errorf("failed decoding products with error=%w: %w", err, ErrUnavailable)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	if len(products) > limit {
		products = products[:limit]
	}
	logger.Info().Int("count", len(products)).Msg("fetched products")

	return products, nil
}

func (cl *Client) get(c context.Context, target string) ([]byte, error) {
	body, err := cl.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(c, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("failed creating request with error=%w", err)
		}
		req.Header.Set("Accept", inHttp.ValueHeaderApplicationJson)
		if requestID := log.RequestIDFromContext(c); requestID != "" {
			req.Header.Set(inHttp.KeyHeaderRequestID, requestID)
		}

		resp, err := cl.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("GET %s failed with error=%w: %w", target, err, ErrUnavailable)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= http.StatusInternalServerError:
			return nil, fmt.Errorf("GET %s returned statusCode=%d: %w", target, resp.StatusCode, ErrUnavailable)
		case resp.StatusCode >= http.StatusBadRequest:
			return nil, fmt.Errorf("GET %s returned statusCode=%d: %w", target, resp.StatusCode, ErrNotFound)
		case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
			return nil, fmt.Errorf("GET %s returned statusCode=%d: %w", target, resp.StatusCode, ErrUnavailable)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed reading body of GET %s with error=%w: %w", target, err, ErrUnavailable)
		}
		return body, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("circuit breaker rejected GET %s with error=%w: %w", target, err, ErrUnavailable)
	}
	return body, err
}
