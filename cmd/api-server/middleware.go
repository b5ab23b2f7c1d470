package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/teamdesk/teamdesk/internal/ctxstore"
	"github.com/teamdesk/teamdesk/internal/model"
	"github.com/teamdesk/teamdesk/internal/response"

	"github.com/tomasen/realip"
)

const (
	_traceIDKey           = ctxstore.Key("traceId")
	_authenticatedUserKey = ctxstore.Key("authenticatedUser")
)

func (app *application) traceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tid := genTraceID()
		ctx := ctxstore.With(r.Context(), _traceIDKey, tid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err != nil {
				app.serverError(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (app *application) logAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mw := response.NewMetricsResponseWriter(w)
		next.ServeHTTP(mw, r)

		var (
			ip     = realip.FromRequest(r)
			method = r.Method
			url    = r.URL.String()
			proto  = r.Proto
			tid    = ctxstore.MustFrom[string](r.Context(), _traceIDKey)
		)

		userAttrs := slog.Group("user", "ip", ip)
		requestAttrs := slog.Group("request", "method", method, "url", url, "proto", proto, _traceIDKey.String(), tid)
		responseAttrs := slog.Group("response", "status", mw.StatusCode, "size", mw.BytesCount)

		app.serverLogger().Info("access", userAttrs, requestAttrs, responseAttrs)
	})
}

func (app *application) CORS(next http.Handler) http.Handler {
	return cors.AllowAll().Handler(next)
}

// authenticate resolves the bearer token into a model.User on the request
// context. Requests without an Authorization header pass through anonymous;
// route groups decide whether that is acceptable.
func (app *application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		authorizationHeader := r.Header.Get("Authorization")
		if authorizationHeader != "" {
			token, found := strings.CutPrefix(authorizationHeader, "Bearer ")
			if !found {
				app.invalidAuthenticationToken(w, r)
				return
			}

			user, err := parseToken(app.config.jwt.secret, token)
			if err != nil {
				app.invalidAuthenticationToken(w, r)
				return
			}

			ctx := ctxstore.With(r.Context(), _authenticatedUserKey, user)
			r = r.WithContext(ctx)
		}

		next.ServeHTTP(w, r)
	})
}

func (app *application) requireAuthenticatedUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ctxstore.From[model.User](r.Context(), _authenticatedUserKey); !ok {
			app.authenticationRequired(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (app *application) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := ctxstore.From[model.User](r.Context(), _authenticatedUserKey)
		if !ok {
			app.authenticationRequired(w, r)
			return
		}
		if !user.IsAdmin() {
			app.forbidden(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func contextUser(r *http.Request) model.User {
	return ctxstore.MustFrom[model.User](r.Context(), _authenticatedUserKey)
}

func genTraceID() string {
	id, _ := uuid.NewRandom()
	return id.String()
}
