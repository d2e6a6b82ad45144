package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CustomerIDKey is the gin context key holding the signed-in customer id on gated routes.
const CustomerIDKey = "customer_id"

// PathMatcher reports whether a request path belongs to a route group.
type PathMatcher func(path string) bool

func Exact(p string) PathMatcher {
	return func(path string) bool { return path == p }
}

func Prefix(p string) PathMatcher {
	return func(path string) bool { return strings.HasPrefix(path, p) }
}

// Matchers turns configured paths into matchers: "/" matches only the site
// root, entries ending in "/" match by prefix, anything else exactly.
func Matchers(paths []string) []PathMatcher {
	matchers := make([]PathMatcher, 0, len(paths))
	for _, p := range paths {
		switch {
		case p == "/":
			matchers = append(matchers, Exact(p))
		case strings.HasSuffix(p, "/"):
			matchers = append(matchers, Prefix(p))
		default:
			matchers = append(matchers, Exact(p))
		}
	}
	return matchers
}

// SessionResolver resolves the signed-in customer of a request.
type SessionResolver interface {
	Current(c *gin.Context) (uint, bool, error)
}

type GateConfig struct {
	Public    []PathMatcher
	Protected []PathMatcher
	LoginPath string
}

// Gate lets public paths through, requires a live session on protected paths
// and forwards everything else untouched. Anonymous browser requests to a
// protected path are redirected to the login page; API callers get a 401.
func Gate(sessions SessionResolver, cfg GateConfig, log *zap.Logger) gin.HandlerFunc {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login/"
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if matchAny(cfg.Public, path) || !matchAny(cfg.Protected, path) {
			c.Next()
			return
		}

		customerID, ok, err := sessions.Current(c)
		if err != nil {
			log.Error("session lookup failed", zap.String("path", path), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if !ok {
			if WantsJSON(c) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			c.Redirect(http.StatusFound, cfg.LoginPath)
			c.Abort()
			return
		}

		c.Set(CustomerIDKey, customerID)
		c.Next()
	}
}

// WantsJSON reports whether the caller is a script rather than a browser page load.
func WantsJSON(c *gin.Context) bool {
	if c.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func matchAny(matchers []PathMatcher, path string) bool {
	for _, m := range matchers {
		if m(path) {
			return true
		}
	}
	return false
}
