package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	inHttp "github.com/Alturino/shopeasy/internal/http"
	"github.com/Alturino/shopeasy/internal/log"
	"github.com/Alturino/shopeasy/internal/otel"
)

var ErrNotLoggedIn = errors.New("not logged in")

// LoggedInFunc reports whether a session credential currently exists.
type LoggedInFunc func(context.Context) (bool, error)

// RequireLogin rejects requests with 401 while no credential is stored. It
// is a convenience gate, not a security boundary.
func RequireLogin(loggedIn LoggedInFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, span := otel.Tracer.Start(r.Context(), "middleware RequireLogin")
			defer span.End()

			logger := zerolog.Ctx(c).With().Str(log.KeyTag, "middleware RequireLogin").Logger()

			ok, err := loggedIn(c)
			if err != nil {
				err = fmt.Errorf("failed loading credential with error=%w", err)
				otel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				inHttp.WriteFailed(c, w, http.StatusInternalServerError, err.Error())
				return
			}
			if !ok {
				otel.RecordError(ErrNotLoggedIn, span)
				logger.Info().Err(ErrNotLoggedIn).Msg(ErrNotLoggedIn.Error())
				inHttp.WriteFailed(c, w, http.StatusUnauthorized, ErrNotLoggedIn.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
