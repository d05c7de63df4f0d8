package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Alturino/shopeasy/cart/internal/otel"
	"github.com/Alturino/shopeasy/cart/internal/service"
	"github.com/Alturino/shopeasy/cart/internal/store"
	"github.com/Alturino/shopeasy/cart/pkg/request"
	inHttp "github.com/Alturino/shopeasy/internal/http"
	"github.com/Alturino/shopeasy/internal/log"
	inOtel "github.com/Alturino/shopeasy/internal/otel"
)

var (
	ErrNothingToRetry       = errors.New("product has no failed fetch to retry")
	ErrStreamingUnsupported = errors.New("response writer does not support streaming")
)

type CartController struct {
	service  *service.CartService
	validate *validator.Validate
}

func AttachCartController(
	router *mux.Router,
	service *service.CartService,
	validate *validator.Validate,
	middlewares ...mux.MiddlewareFunc,
) {
	controller := CartController{service: service, validate: validate}

	cartRouter := router.PathPrefix("/cart").Subrouter()
	cartRouter.Use(middlewares...)
	cartRouter.HandleFunc("", controller.GetCart).Methods(http.MethodGet)
	cartRouter.HandleFunc("/intents", controller.DispatchIntent).Methods(http.MethodPost)
	cartRouter.HandleFunc("/items/{productId}/retry", controller.RetryItem).Methods(http.MethodPost)
	cartRouter.HandleFunc("/events", controller.StreamEvents).Methods(http.MethodGet)
}

func (ctrl CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController GetCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController GetCart").Logger()

	view := ctrl.service.View()
	logger.Debug().Uint64(log.KeyCartVersion, view.Version).Msg("got cart view")

	inHttp.WriteSuccess(c, w, http.StatusOK, "cart found", map[string]interface{}{
		"cart": view,
	})
}

func (ctrl CartController) DispatchIntent(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController DispatchIntent")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController DispatchIntent").Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Trace().Msg("decoding request body")
	span.AddEvent("decoding request body")
	reqBody := request.Intent{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}
	logger = logger.With().Object(log.KeyRequestBody, reqBody).Logger()
	span.AddEvent("decoded request body")
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	logger.Trace().Msg("validating request body")
	if err := ctrl.validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Trace().Msg("validated request body")

	logger = logger.With().Str(log.KeyProcess, "dispatching intent").Logger()
	logger.Trace().Msg("dispatching intent")
	span.SetAttributes(
		attribute.String(log.KeyIntent, reqBody.Type),
		attribute.Int64(log.KeyProductID, reqBody.ProductID),
	)
	c = logger.WithContext(c)
	view := ctrl.service.Dispatch(c, store.Intent{
		Kind:      store.IntentKind(reqBody.Type),
		ProductID: reqBody.ProductID,
		Quantity:  reqBody.Quantity,
	})
	logger.Info().Uint64(log.KeyCartVersion, view.Version).Msg("dispatched intent")

	inHttp.WriteSuccess(c, w, http.StatusOK, "cart updated", map[string]interface{}{
		"cart": view,
	})
}

func (ctrl CartController) RetryItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RetryItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController RetryItem").Logger()

	logger = logger.With().Str(log.KeyProcess, "parsing productId").Logger()
	productID, err := strconv.ParseInt(mux.Vars(r)["productId"], 10, 64)
	if err != nil {
		err = fmt.Errorf("failed parsing productId with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}
	logger = logger.With().Int64(log.KeyProductID, productID).Logger()
	span.SetAttributes(attribute.Int64(log.KeyProductID, productID))

	logger = logger.With().Str(log.KeyProcess, "retrying product").Logger()
	c = logger.WithContext(c)
	view, ok := ctrl.service.Retry(c, productID)
	if !ok {
		err = fmt.Errorf("failed retrying productId=%d with error=%w", productID, ErrNothingToRetry)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusConflict, err.Error())
		return
	}
	logger.Info().Msg("retrying product")

	inHttp.WriteSuccess(c, w, http.StatusAccepted, "retrying product", map[string]interface{}{
		"cart": view,
	})
}

// StreamEvents writes one server-sent "view" event per cart change. A slow
// client only ever gets the latest view; intermediate ones are dropped.
func (ctrl CartController) StreamEvents(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController StreamEvents")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController StreamEvents").Logger()

	flusher, ok := w.(http.Flusher)
	if !ok {
		inOtel.RecordError(ErrStreamingUnsupported, span)
		logger.Error().Err(ErrStreamingUnsupported).Msg(ErrStreamingUnsupported.Error())
		inHttp.WriteFailed(c, w, http.StatusInternalServerError, ErrStreamingUnsupported.Error())
		return
	}

	updates := make(chan service.View, 1)
	unsubscribe := ctrl.service.Subscribe(func(view service.View) {
		for {
			select {
			case updates <- view:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unsubscribe()

	w.Header().Set(inHttp.KeyHeaderContentType, inHttp.ValueHeaderEventStream)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	logger.Debug().Msg("streaming cart events")
	var version uint64
	write := func(view service.View) error {
		if version != 0 && view.Version <= version {
			return nil
		}
		version = view.Version
		body, err := json.Marshal(view)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "id: %d\nevent: view\ndata: %s\n\n", view.Version, body); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := write(ctrl.service.View()); err != nil {
		err = fmt.Errorf("failed writing cart event with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	for {
		select {
		case <-c.Done():
			logger.Debug().Msg("client closed cart event stream")
			return
		case view := <-updates:
			if err := write(view); err != nil {
				err = fmt.Errorf("failed writing cart event with error=%w", err)
				inOtel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				return
			}
		}
	}
}
