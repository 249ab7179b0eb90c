package adminsdk

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/fleetadmin/pkg/credstore"
	"github.com/aussiebroadwan/fleetadmin/pkg/slogx"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// API paths the gateway itself depends on.
const (
	signInPath  = "/auth/login"
	refreshPath = "/auth/refresh-token"
	logoutPath  = "/auth/logout"
)

// SignInRoute is where the presentation layer should send the operator once
// a session has been torn down.
const SignInRoute = "/auth/sign-in"

// Client is the authenticated gateway to the marketplace REST API. Every call
// carries the stored access token; a 401 triggers a single refresh-and-replay.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Logger, when set, is attached to every outbound request context.
	// Otherwise the logger already in the caller's context is used.
	Logger *slog.Logger

	// Limiter throttles outbound requests. Nil means unlimited.
	Limiter *rate.Limiter

	store     credstore.Store
	refreshes singleflight.Group
}

// NewClient creates a gateway bound to baseURL that reads and writes
// credentials through store.
func NewClient(baseURL string, store credstore.Store) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: &slogx.Transport{},
		},
		store: store,
	}
}

// NewLimiter returns a token bucket allowing perSecond requests with the
// given burst. perSecond <= 0 yields nil, which disables limiting.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (c *Client) log(ctx context.Context) *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slogx.FromContext(ctx)
}

// Store exposes the credential store the client was built with.
func (c *Client) Store() credstore.Store { return c.store }
