package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/crewdeck/crewdeck/internal/activation/mail"
	"github.com/crewdeck/crewdeck/internal/activation/service"
	"github.com/crewdeck/crewdeck/internal/activation/store"
	"github.com/crewdeck/crewdeck/pkg/httpx"
	"github.com/crewdeck/crewdeck/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store         store.Store
	UserService   *service.UserService
	IssueService  *service.IssueService
	RedeemService *service.RedeemService
	Mailer        mail.Mailer

	// InternalAPIKey guards the provisioning and reissue endpoints.
	InternalAPIKey string
	PublicBaseURL  string
	TokenTTL       time.Duration
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerUsers()
	r.registerActivations()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerUsers() {
	h := &UsersProvisionHandler{
		UserService:   r.UserService,
		IssueService:  r.IssueService,
		Mailer:        r.Mailer,
		PublicBaseURL: r.PublicBaseURL,
		TokenTTL:      r.TokenTTL,
	}

	// POST /v1/users - internal endpoint, key-guarded, moderate rate limit
	r.Mux.Handle("POST /v1/users",
		httpx.Chain(h,
			httpx.RequireAPIKey(r.InternalAPIKey),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerActivations() {
	issueHandler := &ActivationIssueHandler{
		UserService:   r.UserService,
		IssueService:  r.IssueService,
		Mailer:        r.Mailer,
		PublicBaseURL: r.PublicBaseURL,
		TokenTTL:      r.TokenTTL,
	}

	// POST /v1/activations - internal re-invite endpoint, key-guarded
	r.Mux.Handle("POST /v1/activations",
		httpx.Chain(issueHandler,
			httpx.RequireAPIKey(r.InternalAPIKey),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /v1/activations/inspect - public, strict rate limit (token probing)
	inspectHandler := &ActivationInspectHandler{RedeemService: r.RedeemService}
	r.Mux.Handle("GET /v1/activations/inspect",
		httpx.Chain(inspectHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /v1/activations/redeem - public, strict rate limit by IP
	redeemHandler := &ActivationRedeemHandler{
		RedeemService: r.RedeemService,
		UserService:   r.UserService,
	}
	r.Mux.Handle("POST /v1/activations/redeem",
		httpx.Chain(redeemHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems poll)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

// activationLink builds the emailed URL carrying the raw token.
func activationLink(baseURL, rawToken string) string {
	return strings.TrimRight(baseURL, "/") + "/activate?token=" + url.QueryEscape(rawToken)
}
