package oauth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/eodhd/eodhd-mcp/pkg/config"
	"github.com/eodhd/eodhd-mcp/pkg/eodhd"
)

// Middleware protects the OAuth MCP mount. Requests without a valid Bearer
// token get a 401 whose WWW-Authenticate header points clients at the
// protected-resource metadata document; valid requests continue with the
// user's own EODHD API key injected into the context so the upstream client
// uses it.
func Middleware(cfg config.Config, store *Store, logger zerolog.Logger) func(http.Handler) http.Handler {
	log := logger.With().Str("component", "oauth_middleware").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// CORS preflight never carries credentials.
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				challenge(w, r, cfg, "invalid_token", "Missing Bearer token")
				return
			}
			token := strings.TrimSpace(auth[len("bearer "):])
			if token == "" {
				challenge(w, r, cfg, "invalid_token", "Empty Bearer token")
				return
			}

			apiKey, ok := resolveAPIKey(cfg, store, r, token, log)
			if !ok {
				challenge(w, r, cfg, "invalid_token", "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(eodhd.WithAPIToken(r.Context(), apiKey)))
		})
	}
}

// resolveAPIKey validates the token and maps it to the owning user's EODHD
// key. Signature and expiry come from the JWT; the store check ensures only
// tokens this server issued are accepted, even after a restart clears state.
func resolveAPIKey(cfg config.Config, store *Store, r *http.Request, token string, log zerolog.Logger) (string, bool) {
	if cfg.JWTSecret == "" {
		log.Error().Msg("JWT_SECRET is not configured; cannot validate access tokens")
		return "", false
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", false
	}

	expected := expectedResourceURL(cfg, r)
	if aud, aerr := claims.GetAudience(); aerr == nil && len(aud) > 0 {
		if !audMatches(aud, expected) {
			log.Debug().Strs("aud", aud).Str("expected", expected).Msg("token audience mismatch")
			return "", false
		}
	}

	sub, serr := claims.GetSubject()
	if serr != nil || sub == "" {
		return "", false
	}

	apiKey, ok := store.APIKeyForToken(token)
	if !ok {
		return "", false
	}
	return apiKey, true
}

func expectedResourceURL(cfg config.Config, r *http.Request) string {
	base := cfg.ServerURL
	if base == "" {
		proto := r.Header.Get("X-Forwarded-Proto")
		if proto == "" {
			proto = "http"
			if r.TLS != nil {
				proto = "https"
			}
		}
		host := r.Header.Get("X-Forwarded-Host")
		if host == "" {
			host = r.Host
		}
		base = proto + "://" + host
	}
	return strings.TrimRight(base, "/") + cfg.ResourcePath
}

func audMatches(aud []string, expected string) bool {
	exp := strings.TrimRight(expected, "/")
	for _, a := range aud {
		if strings.TrimRight(a, "/") == exp {
			return true
		}
	}
	return false
}

// challenge writes the RFC 6750 401 response with a metadata pointer so MCP
// clients can discover the authorization server.
func challenge(w http.ResponseWriter, r *http.Request, cfg config.Config, errCode, desc string) {
	base := strings.TrimRight(expectedResourceURL(cfg, r), "/")
	base = strings.TrimSuffix(base, cfg.ResourcePath)
	metaURL := base + "/.well-known/oauth-protected-resource" + cfg.ResourcePath

	parts := []string{
		`Bearer realm="eodhd-mcp"`,
		fmt.Sprintf("resource_metadata=%q", metaURL),
	}
	if cfg.DefaultScope != "" {
		parts = append(parts, fmt.Sprintf("scope=%q", cfg.DefaultScope))
	}
	if errCode != "" {
		parts = append(parts, fmt.Sprintf("error=%q", errCode))
	}
	if desc != "" {
		parts = append(parts, fmt.Sprintf("error_description=%q", strings.ReplaceAll(desc, `"`, "'")))
	}

	w.Header().Set("WWW-Authenticate", strings.Join(parts, ", "))
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"error":   "unauthorized",
		"message": desc,
	})
}
