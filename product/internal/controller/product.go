package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	inHttp "github.com/Alturino/shopeasy/internal/http"
	"github.com/Alturino/shopeasy/internal/log"
	inOtel "github.com/Alturino/shopeasy/internal/otel"
	"github.com/Alturino/shopeasy/product/internal/otel"
	"github.com/Alturino/shopeasy/product/internal/service"
	"github.com/Alturino/shopeasy/product/pkg/client"
)

type ProductController struct {
	service *service.ProductService
}

func AttachProductController(
	router *mux.Router,
	service *service.ProductService,
	middlewares ...mux.MiddlewareFunc,
) {
	controller := ProductController{service}

	productRouter := router.PathPrefix("/products").Subrouter()
	productRouter.Use(middlewares...)
	productRouter.HandleFunc("", controller.GetProducts).Methods(http.MethodGet)
	productRouter.HandleFunc("/{productId}", controller.FindProductById).Methods(http.MethodGet)
}

func (ctrl ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController GetProducts")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ProductController GetProducts").Logger()

	logger = logger.With().Str(log.KeyProcess, "parsing page").Logger()
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			err = fmt.Errorf("failed parsing page with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
			return
		}
		page = parsed
	}
	span.SetAttributes(attribute.Int(log.KeyPage, page))

	logger = logger.With().Str(log.KeyProcess, "browsing products").Int(log.KeyPage, page).Logger()
	logger.Trace().Msg("browsing products")
	c = logger.WithContext(c)
	result, err := ctrl.service.Browse(c, page)
	if err != nil {
		err = fmt.Errorf("failed browsing products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusCode(err), err.Error())
		return
	}
	logger.Info().Bool("hasMore", result.HasMore).Msg("browsed products")

	inHttp.WriteSuccess(c, w, http.StatusOK, "products found", map[string]interface{}{
		"page": result,
	})
}

func (ctrl ProductController) FindProductById(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController FindProductById")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ProductController FindProductById").Logger()

	logger = logger.With().Str(log.KeyProcess, "parsing productId").Logger()
	logger.Trace().Msg("parsing productId")
	id, err := strconv.ParseInt(mux.Vars(r)["productId"], 10, 64)
	if err != nil {
		err = fmt.Errorf("failed parsing productId with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}
	logger = logger.With().Int64(log.KeyProductID, id).Logger()
	span.SetAttributes(attribute.Int64(log.KeyProductID, id))

	logger = logger.With().Str(log.KeyProcess, "finding product").Logger()
	logger.Trace().Msg("finding product")
	c = logger.WithContext(c)
	detail, err := ctrl.service.FindProductById(c, id)
	if err != nil {
		err = fmt.Errorf("failed finding productId=%d with error=%w", id, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusCode(err), err.Error())
		return
	}
	logger.Info().Msg("found product")

	inHttp.WriteSuccess(c, w, http.StatusOK, fmt.Sprintf("productId=%d found", id), map[string]interface{}{
		"product": detail.Product,
		"inCart":  detail.InCart,
	})
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidPage):
		return http.StatusBadRequest
	case errors.Is(err, client.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}
