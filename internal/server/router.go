package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/tripmoa/backend/internal/auth"
	"github.com/tripmoa/backend/internal/events"
	"github.com/tripmoa/backend/internal/oauth"
	"github.com/tripmoa/backend/internal/trips"
	"github.com/tripmoa/backend/internal/users"
	"go.uber.org/zap"
)

const sessionContextKey = "tripmoa_session"

var (
	errMissingExchanger    = errors.New("oauth exchanger dependency required")
	errMissingTokenService = errors.New("token service dependency required")
	errMissingCookieWriter = errors.New("cookie writer dependency required")
	errMissingUserService  = errors.New("user service dependency required")
	errMissingTripService  = errors.New("trip service dependency required")
	errMissingEventService = errors.New("event service dependency required")
)

// OAuthExchanger runs the authorization-code flow for a named provider.
type OAuthExchanger interface {
	AuthCodeURL(provider, state string) (string, error)
	ExchangeCodeForProfile(ctx context.Context, provider, code string) (oauth.Profile, error)
}

// Dependencies wires the services the HTTP boundary dispatches into.
type Dependencies struct {
	Exchanger     OAuthExchanger
	Tokens        *auth.TokenService
	Cookies       *auth.CookieWriter
	Users         *users.Service
	Trips         *trips.Service
	Events        *events.Service
	FrontendBase  string
	AllowOrigins  []string
	Logger        *zap.Logger
}

// NewHTTPHandler assembles the gin router over the provided dependencies.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Exchanger == nil {
		return nil, errMissingExchanger
	}
	if deps.Tokens == nil {
		return nil, errMissingTokenService
	}
	if deps.Cookies == nil {
		return nil, errMissingCookieWriter
	}
	if deps.Users == nil {
		return nil, errMissingUserService
	}
	if deps.Trips == nil {
		return nil, errMissingTripService
	}
	if deps.Events == nil {
		return nil, errMissingEventService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	origins := deps.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handler := &httpHandler{
		exchanger:    deps.Exchanger,
		tokens:       deps.Tokens,
		cookies:      deps.Cookies,
		users:        deps.Users,
		trips:        deps.Trips,
		events:       deps.Events,
		frontendBase: deps.FrontendBase,
		logger:       logger,
	}

	router.GET("/ping", handler.handlePing)
	router.GET("/auth/:provider", handler.handleAuthRedirect)
	router.GET("/auth/:provider/callback", handler.handleAuthCallback)
	router.POST("/auth/:provider/login", handler.handleCodeLogin)
	router.POST("/auth/token", handler.handleTokenRefresh)
	router.POST("/auth/logout", handler.handleLogout)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)

	protected.GET("/users/me", handler.handleGetMe)
	protected.GET("/users/search", handler.handleSearchUsers)
	protected.PATCH("/users/me/nickname", handler.handleUpdateNickname)
	protected.PATCH("/users/me/memo", handler.handleUpdateMemo)
	protected.PATCH("/users/me/image", handler.handleUpdateImage)
	protected.DELETE("/users/me", handler.handleDeleteMe)

	protected.POST("/trips", handler.handleCreateTrip)
	protected.GET("/trips", handler.handleListTrips)
	protected.GET("/trips/past", handler.handleListPastTrips)
	protected.GET("/trips/current", handler.handleCurrentTrip)
	protected.GET("/trips/upcoming", handler.handleListUpcomingTrips)
	protected.GET("/trips/past/page", handler.handlePastTripsPage)
	protected.GET("/trips/upcoming/page", handler.handleUpcomingTripsPage)
	protected.GET("/trips/:id", handler.handleGetTrip)
	protected.PUT("/trips/:id", handler.handleUpdateTrip)
	protected.DELETE("/trips/:id", handler.handleDeleteTrip)
	protected.POST("/trips/delete", handler.handleDeleteTrips)
	protected.GET("/trips/:id/events", handler.handleListTripEvents)

	protected.POST("/events", handler.handleCreateEvent)
	protected.GET("/events/:id", handler.handleGetEvent)
	protected.PUT("/events/:id", handler.handleUpdateEvent)
	protected.DELETE("/events/:id", handler.handleDeleteEvent)

	return router, nil
}

type httpHandler struct {
	exchanger    OAuthExchanger
	tokens       *auth.TokenService
	cookies      *auth.CookieWriter
	users        *users.Service
	trips        *trips.Service
	events       *events.Service
	frontendBase string
	logger       *zap.Logger
}

func (h *httpHandler) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// authorizeRequest gates the protected routes on the access token cookie.
// Verification fails closed: a missing, malformed or expired token is a 401,
// never an error path.
func (h *httpHandler) authorizeRequest(c *gin.Context) {
	tokenString, err := c.Cookie(auth.AccessTokenCookie)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	payload := h.tokens.Verify(tokenString)
	if payload == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(sessionContextKey, *payload)
	c.Next()
}

func (h *httpHandler) session(c *gin.Context) (auth.TokenPayload, bool) {
	value, ok := c.Get(sessionContextKey)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return auth.TokenPayload{}, false
	}
	payload, ok := value.(auth.TokenPayload)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return auth.TokenPayload{}, false
	}
	return payload, true
}
