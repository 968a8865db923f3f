package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-chi/jwtauth"
	"golang.org/x/oauth2"

	"github.com/uhppoted/uhppoted-app-checkin/checkin"
)

type Issuer interface {
	Issue(ctx context.Context) (*checkin.ValidationCode, error)
}

type Reconciler interface {
	CheckIn(ctx context.Context, code, email string) (*checkin.Outcome, error)
	Domain() string
}

// Authoriser exchanges the OAuth2 authorisation code received on the callback for an access token.
type Authoriser interface {
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

type Options struct {
	AllowedOrigins []string
	RateLimit      int
	JWTSecret      string
	Authoriser     Authoriser
}

type handler struct {
	issuer     Issuer
	reconciler Reconciler
	authoriser Authoriser
}

const maxBodySize = 4096

// NewRouter returns the check-in API. Code generation requires an HS256 bearer token when
// JWTSecret is set and check-ins are rate limited per client IP when RateLimit is set.
func NewRouter(issuer Issuer, reconciler Reconciler, options Options) http.Handler {
	h := handler{
		issuer:     issuer,
		reconciler: reconciler,
		authoriser: options.Authoriser,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(CORS(options.AllowedOrigins).Handler)

	r.Get("/healthz", h.health)
	r.Get("/auth/google/callback", h.callback)

	r.Route("/api/checkin", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if options.JWTSecret != "" {
				tokenAuth := jwtauth.New("HS256", []byte(options.JWTSecret), nil)

				r.Use(jwtauth.Verifier(tokenAuth))
				r.Use(jwtauth.Authenticator)
			}

			r.Get("/generate", h.generate)
		})

		r.Group(func(r chi.Router) {
			if options.RateLimit > 0 {
				r.Use(httprate.LimitByIP(options.RateLimit, 1*time.Minute))
			}

			r.Post("/update", h.update)
		})
	})

	return r
}

func CORS(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
