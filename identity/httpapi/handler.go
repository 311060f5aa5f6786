package httpapi

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/MrEthical07/authflow/identity"
	authmw "github.com/MrEthical07/authflow/middleware"
)

// Handler serves a Backend.
type Handler struct {
	backend identity.Backend
	logger  *slog.Logger
	router  chi.Router
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

// NewHandler builds the router for backend.
func NewHandler(backend identity.Backend, opts ...HandlerOption) *Handler {
	h := &Handler{backend: backend}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)
	r.Use(clientIP)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, "ok")
	})
	r.Route("/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Post("/sign-in", h.signIn)
		r.Post("/sign-up", h.signUp)
		r.Post("/sign-out", h.signOut)
		r.Post("/password-reset", h.requestReset)
		r.Post("/password-reset/otp", h.resetWithOTP)
		r.Post("/password-reset/token", h.resetWithToken)
		if auth, ok := backend.(authmw.Authenticator); ok {
			r.With(authmw.RequireSession(auth)).Get("/session", h.currentSession)
		}
	})
	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !h.decode(w, r, &req) {
		return
	}
	tokens, err := h.backend.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, toTokensResponse(tokens))
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !h.decode(w, r, &req) {
		return
	}
	tokens, err := h.backend.SignUp(r.Context(), identity.SignUpParams{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toTokensResponse(tokens))
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	token, ok := authmw.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		h.writeError(w, r, identity.NewError(identity.CodeUnauthenticated, "missing bearer token"))
		return
	}
	if err := h.backend.SignOut(r.Context(), token); err != nil {
		h.writeError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := authmw.ClaimsFromContext(r.Context())
	if !ok {
		h.writeError(w, r, identity.NewError(identity.CodeUnauthenticated, "session is not valid"))
		return
	}
	resp := sessionResponse{UserID: claims.UID, SessionID: claims.SID}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	render.JSON(w, r, resp)
}

func (h *Handler) requestReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.backend.SendResetOTP(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func (h *Handler) resetWithOTP(w http.ResponseWriter, r *http.Request) {
	var req resetOTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.backend.ResetWithOTP(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func (h *Handler) resetWithToken(w http.ResponseWriter, r *http.Request) {
	var req resetTokenRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.backend.ResetWithToken(r.Context(), req.Token, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		h.writeError(w, r, identity.WrapError(identity.CodeInvalidInput, "request body is not valid JSON", err))
		return false
	}
	return true
}

// writeError never sends the message of a non-identity error.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var idErr *identity.Error
	if !errors.As(err, &idErr) || idErr == nil {
		h.logger.LogAttrs(r.Context(), slog.LevelError, "unclassified backend error", slog.String("error", err.Error()))
		idErr = identity.NewError(identity.CodeUnavailable, "service temporarily unavailable")
	}
	render.Status(r, statusForCode(idErr.Code))
	render.JSON(w, r, errorResponse{Code: idErr.Code, Message: idErr.Message})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.LogAttrs(r.Context(), slog.LevelDebug, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func clientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		next.ServeHTTP(w, r.WithContext(identity.WithClientIP(r.Context(), ip)))
	})
}
