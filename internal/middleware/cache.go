package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type CacheConfig struct {
	MaxAge         int
	Private        bool
	NoStore        bool
	MustRevalidate bool
	Vary           []string
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxAge:         60,
		Private:        true,
		MustRevalidate: true,
		Vary:           []string{"Accept", "Authorization"},
	}
}

// Cache sets cache-control headers on GET responses. Everything here
// is tenant data, so the default is private with a short max-age.
func Cache(config CacheConfig) gin.HandlerFunc {
	directives := buildDirectives(config)
	vary := strings.Join(config.Vary, ", ")

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Header("Cache-Control", "no-store")
			c.Next()
			return
		}
		c.Header("Cache-Control", directives)
		if vary != "" {
			c.Header("Vary", vary)
		}
		c.Next()
	}
}

func buildDirectives(config CacheConfig) string {
	if config.NoStore {
		return "no-store"
	}
	var parts []string
	if config.Private {
		parts = append(parts, "private")
	} else {
		parts = append(parts, "public")
	}
	parts = append(parts, fmt.Sprintf("max-age=%d", config.MaxAge))
	if config.MustRevalidate {
		parts = append(parts, "must-revalidate")
	}
	return strings.Join(parts, ", ")
}
