package api

import (
	"strings"
	"time"

	"github.com/okian/reviewdesk/pkg/logger"
)

// Defaults for Server options.
const (
	DefaultHolderCookie   = "review_holder"
	DefaultUsernameCookie = "review_username"
	DefaultRateLimitRPS   = 20
	DefaultRateLimitBurst = 40

	cookieMaxAge = 30 * 24 * time.Hour
)

type settings struct {
	holderCookie   string
	usernameCookie string
	cookieSecure   bool
	allowedOrigins []string
	rateLimitRPS   float64
	rateLimitBurst int
	clock          func() time.Time
	logger         logger.Logger
}

func defaultSettings() settings {
	return settings{
		holderCookie:   DefaultHolderCookie,
		usernameCookie: DefaultUsernameCookie,
		rateLimitRPS:   DefaultRateLimitRPS,
		rateLimitBurst: DefaultRateLimitBurst,
		clock:          time.Now,
	}
}

// Option configures a Server.
type Option func(*settings)

// WithHolderCookie sets the cookie name carrying the holder id.
func WithHolderCookie(name string) Option {
	return func(s *settings) {
		if name = strings.TrimSpace(name); name != "" {
			s.holderCookie = name
		}
	}
}

// WithUsernameCookie sets the cookie name remembering the username.
func WithUsernameCookie(name string) Option {
	return func(s *settings) {
		if name = strings.TrimSpace(name); name != "" {
			s.usernameCookie = name
		}
	}
}

// WithCookieSecure marks issued cookies Secure.
func WithCookieSecure(secure bool) Option {
	return func(s *settings) { s.cookieSecure = secure }
}

// WithAllowedOrigins sets the CORS allow list. "*" allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *settings) { s.allowedOrigins = origins }
}

// WithRateLimit sets the per-client request rate. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *settings) {
		s.rateLimitRPS = rps
		s.rateLimitBurst = burst
	}
}

// WithClock replaces time.Now, used for export file names.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger used by middleware and handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) { s.logger = l }
}
