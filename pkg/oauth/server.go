package oauth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eodhd/eodhd-mcp/pkg/config"
	"github.com/eodhd/eodhd-mcp/pkg/eodhd"
)

const sessionCookie = "eodhd_mcp_session"

// supportedScopes is advertised in metadata. Authorization currently grants
// whatever scope the client asks for; enforcement is all-or-nothing via
// full-access.
var supportedScopes = []string{
	"read:eod",
	"read:intraday",
	"read:live",
	"read:fundamentals",
	"read:news",
	"read:technicals",
	"read:options",
	"read:marketplace",
	"read:screener",
	"read:macro",
	"read:user",
	"full-access",
}

// Server implements the OAuth 2.1 authorization server: dynamic client
// registration, authorization-code flow with PKCE (S256), token issuance as
// HS256 JWTs, introspection, and the well-known metadata documents.
type Server struct {
	cfg    config.Config
	store  *Store
	client *eodhd.Client
	logger zerolog.Logger
}

// NewServer wires the authorization server. The EODHD client is used at login
// time to validate the API key the user submits.
func NewServer(cfg config.Config, store *Store, client *eodhd.Client, logger zerolog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		store:  store,
		client: client,
		logger: logger.With().Str("component", "oauth").Logger(),
	}
}

// Routes mounts all authorization-server endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/.well-known/oauth-authorization-server", s.handleAuthServerMetadata)
	r.Get("/.well-known/oauth-protected-resource", s.handleResourceMetadata)
	r.Get("/.well-known/oauth-protected-resource/*", s.handleResourceMetadata)
	r.Post("/register", s.handleRegister)
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLoginSubmit)
	r.Get("/authorize", s.handleAuthorize)
	r.Post("/token", s.handleToken)
	r.Post("/introspect", s.handleIntrospect)
}

// baseURL is the canonical external base for metadata and token claims.
// MCP_SERVER_URL wins so the bind address never leaks through a proxy.
func (s *Server) baseURL(r *http.Request) string {
	if s.cfg.ServerURL != "" {
		return strings.TrimRight(s.cfg.ServerURL, "/")
	}
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
	return strings.TrimRight(proto+"://"+host, "/")
}

func (s *Server) resourceURL(r *http.Request) string {
	return s.baseURL(r) + s.cfg.ResourcePath
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func oauthError(w http.ResponseWriter, status int, code, desc string) {
	writeJSON(w, status, map[string]string{"error": code, "error_description": desc})
}

// addParams appends query parameters to a URL, preserving any existing query.
func addParams(rawURL string, params map[string]string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func safeRedirectURI(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func errorRedirect(w http.ResponseWriter, r *http.Request, redirectURI, code, desc, state string) {
	target := addParams(redirectURI, map[string]string{
		"error":             code,
		"error_description": desc,
		"state":             state,
	})
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func pkceS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// --- Dynamic client registration (RFC 7591, minimal) ---

type registerRequest struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret"`
	ClientName              string   `json:"client_name"`
	RedirectURIs            []string `json:"redirect_uris"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		oauthError(w, http.StatusBadRequest, "invalid_request", "Expected JSON body")
		return
	}

	name := strings.TrimSpace(req.ClientName)
	if name == "" {
		name = "MCP Client"
	}

	var redirects []string
	for _, u := range req.RedirectURIs {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if !safeRedirectURI(u) {
			oauthError(w, http.StatusBadRequest, "invalid_redirect_uri", "redirect_uris must be http(s) URLs")
			return
		}
		redirects = append(redirects, u)
	}
	if len(redirects) == 0 {
		oauthError(w, http.StatusBadRequest, "invalid_request", "redirect_uris must be a non-empty list")
		return
	}

	clientID := req.ClientID
	if clientID == "" {
		clientID = RandomToken(16)
	}

	authMethod := strings.TrimSpace(req.TokenEndpointAuthMethod)
	if authMethod == "" {
		authMethod = "client_secret_post"
	}
	secret := ""
	if authMethod != "none" {
		if authMethod != "client_secret_post" && authMethod != "client_secret_basic" {
			authMethod = "client_secret_post"
		}
		secret = req.ClientSecret
		if secret == "" {
			secret = RandomToken(32)
		}
	}

	client := Client{
		ID:                      clientID,
		Secret:                  secret,
		RedirectURIs:            redirects,
		Name:                    name,
		TokenEndpointAuthMethod: authMethod,
		CreatedAt:               time.Now(),
	}
	s.store.RegisterClient(client)

	s.logger.Info().
		Str("client_id", client.ID).
		Str("client_name", name).
		Str("auth_method", authMethod).
		Msg("registered OAuth client")

	resp := map[string]interface{}{
		"client_id":                  client.ID,
		"client_id_issued_at":        client.CreatedAt.Unix(),
		"client_name":                client.Name,
		"redirect_uris":              client.RedirectURIs,
		"grant_types":                []string{"authorization_code"},
		"response_types":             []string{"code"},
		"token_endpoint_auth_method": client.TokenEndpointAuthMethod,
	}
	if client.Secret != "" {
		resp["client_secret"] = client.Secret
		resp["client_secret_expires_at"] = 0
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Login ---

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>EODHD MCP Server - Login</title>
  <style>
    body { font-family: Arial, sans-serif; max-width: 520px; margin: 50px auto; padding: 20px; }
    .info { background:#e3f2fd; padding:15px; border-radius:6px; border-left:4px solid #2196F3; margin-bottom:18px;}
    .error { background:#ffebee; padding:10px; border-radius:6px; margin-bottom:12px; color:#b71c1c;}
    label { display:block; font-weight:bold; margin-bottom:6px; }
    input { width:100%; padding:10px; box-sizing:border-box; font-family: monospace; }
    button { width:100%; padding:12px; margin-top:14px; background:#4CAF50; color:white; border:0; cursor:pointer; font-size:16px;}
    button:hover { background:#45a049; }
    .help { font-size: 12px; color:#666; margin-top:6px; }
  </style>
</head>
<body>
  <h2>EODHD MCP Server Login</h2>
  <div class="info">
    <strong>Authentication Required</strong><br>
    Enter your EODHD API key to authorize access.
  </div>
  {{if .Error}}<div class="error">{{.Error}}</div>{{end}}
  <form method="POST" action="/login">
    <label for="api_key">EODHD API Key</label>
    <input type="password" id="api_key" name="api_key" required autocomplete="off" placeholder="e.g. 6807d463ab9b07.32643224">
    <div class="help">Find your API key at https://eodhd.com/cp/settings</div>
    <button type="submit">Login</button>
  </form>
</body>
</html>
`))

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	loginTemplate.Execute(w, struct{ Error string }{Error: r.URL.Query().Get("error")})
}

// userDetails is the subset of the upstream /user response the login flow
// needs.
type userDetails struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	SubscriptionType string `json:"subscriptionType"`
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/login?error="+url.QueryEscape("Invalid form submission"), http.StatusSeeOther)
		return
	}
	apiKey := strings.TrimSpace(r.PostFormValue("api_key"))
	if apiKey == "" {
		http.Redirect(w, r, "/login?error="+url.QueryEscape("API key is required"), http.StatusSeeOther)
		return
	}

	sessionID := s.sessionID(w, r)

	// Fast path: the key has been seen before.
	if user, ok := s.store.UserByAPIKey(apiKey); ok {
		s.finishLogin(w, r, sessionID, user.Email)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	body, err := s.client.Get(eodhd.WithAPIToken(ctx, apiKey), "/user", nil)
	if err != nil {
		http.Redirect(w, r, "/login?error="+url.QueryEscape("Invalid API key or service unavailable"), http.StatusSeeOther)
		return
	}
	var details userDetails
	if err := json.Unmarshal(body, &details); err != nil {
		http.Redirect(w, r, "/login?error="+url.QueryEscape("Invalid API response"), http.StatusSeeOther)
		return
	}
	if details.Email == "" {
		http.Redirect(w, r, "/login?error="+url.QueryEscape("API response missing email"), http.StatusSeeOther)
		return
	}

	s.store.AddUser(User{
		Email:            details.Email,
		APIKey:           apiKey,
		Name:             details.Name,
		SubscriptionType: details.SubscriptionType,
		Scopes:           []string{s.cfg.DefaultScope},
		CreatedAt:        time.Now(),
	})
	s.logger.Info().Str("user", details.Email).Msg("new user registered and logged in")

	s.finishLogin(w, r, sessionID, details.Email)
}

// sessionID returns the caller's session, creating one when absent.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if _, ok := s.store.SessionUser(c.Value); ok {
			return c.Value
		}
		// Anonymous sessions (pre-login) are valid too.
		return c.Value
	}
	id := s.store.NewSession("")
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (s *Server) finishLogin(w http.ResponseWriter, r *http.Request, sessionID, email string) {
	returnTo, ok := s.store.SessionLogin(sessionID, email)
	if !ok {
		// Cookie named a session the store never issued; start fresh.
		id := s.store.NewSession("")
		s.store.SessionLogin(id, email)
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	if returnTo == "" {
		returnTo = "/"
	}
	http.Redirect(w, r, returnTo, http.StatusSeeOther)
}

// --- Authorization endpoint ---

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessionID(w, r)
	userID, loggedIn := s.store.SessionUser(sessionID)
	if !loggedIn {
		s.store.SessionSetReturnTo(sessionID, r.URL.String())
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	q := r.URL.Query()
	responseType := q.Get("response_type")
	clientID := q.Get("client_id")
	redirectURI := q.Get("redirect_uri")
	state := q.Get("state")
	scope := q.Get("scope")
	codeChallenge := q.Get("code_challenge")
	codeChallengeMethod := q.Get("code_challenge_method")

	if responseType != "code" {
		if redirectURI != "" && safeRedirectURI(redirectURI) {
			errorRedirect(w, r, redirectURI, "unsupported_response_type", "Only response_type=code is supported", state)
			return
		}
		oauthError(w, http.StatusBadRequest, "unsupported_response_type", "Only response_type=code is supported")
		return
	}
	if clientID == "" || redirectURI == "" {
		oauthError(w, http.StatusBadRequest, "invalid_request", "Missing required parameters")
		return
	}

	client, ok := s.store.GetClient(clientID)
	if !ok {
		// Never redirect to an untrusted redirect_uri for an unknown client.
		oauthError(w, http.StatusBadRequest, "invalid_client", "Unknown client_id")
		return
	}
	if !client.HasRedirectURI(redirectURI) {
		errorRedirect(w, r, redirectURI, "invalid_request", "Invalid redirect_uri", state)
		return
	}
	if codeChallengeMethod != "" {
		if codeChallengeMethod != "S256" {
			errorRedirect(w, r, redirectURI, "invalid_request", "Only code_challenge_method=S256 is supported", state)
			return
		}
		if codeChallenge == "" {
			errorRedirect(w, r, redirectURI, "invalid_request", "code_challenge is required when code_challenge_method is provided", state)
			return
		}
	}

	scopes := strings.Fields(scope)
	if len(scopes) == 0 {
		scopes = []string{s.cfg.DefaultScope}
	}

	code := RandomToken(32)
	s.store.StoreAuthCode(AuthCode{
		Code:                code,
		ClientID:            client.ID,
		RedirectURI:         redirectURI,
		UserID:              userID,
		Scopes:              scopes,
		Resource:            s.resourceURL(r),
		CodeChallenge:       codeChallenge,
		CodeChallengeMethod: codeChallengeMethod,
		ExpiresAt:           time.Now().Add(s.cfg.AuthCodeTTL),
	})

	s.logger.Info().
		Str("client_id", client.ID).
		Str("user", userID).
		Msg("issued authorization code")

	http.Redirect(w, r, addParams(redirectURI, map[string]string{"code": code, "state": state}), http.StatusSeeOther)
}

// --- Token endpoint ---

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		oauthError(w, http.StatusBadRequest, "invalid_request", "Expected form-encoded body")
		return
	}

	grantType := r.PostFormValue("grant_type")
	code := r.PostFormValue("code")
	redirectURI := r.PostFormValue("redirect_uri")
	clientID := r.PostFormValue("client_id")
	clientSecret := r.PostFormValue("client_secret")
	codeVerifier := r.PostFormValue("code_verifier")
	requestedResource := r.PostFormValue("resource")

	if basicID, basicSecret, ok := r.BasicAuth(); ok {
		if clientID == "" {
			clientID = basicID
		}
		if clientSecret == "" {
			clientSecret = basicSecret
		}
	}

	if grantType != "authorization_code" {
		oauthError(w, http.StatusBadRequest, "unsupported_grant_type", "Only authorization_code is supported")
		return
	}
	if code == "" || redirectURI == "" || clientID == "" {
		oauthError(w, http.StatusBadRequest, "invalid_request", "Missing required parameters")
		return
	}

	client, ok := s.store.GetClient(clientID)
	if !ok {
		oauthError(w, http.StatusUnauthorized, "invalid_client", "Unknown client_id")
		return
	}
	if client.TokenEndpointAuthMethod != "none" {
		if client.Secret == "" || clientSecret != client.Secret {
			oauthError(w, http.StatusUnauthorized, "invalid_client", "Invalid client credentials")
			return
		}
	}

	authCode, ok := s.store.ConsumeAuthCode(code)
	if !ok {
		oauthError(w, http.StatusBadRequest, "invalid_grant", "Invalid or expired authorization code")
		return
	}
	if authCode.ClientID != client.ID {
		oauthError(w, http.StatusBadRequest, "invalid_grant", "Authorization code was issued to a different client")
		return
	}
	if authCode.RedirectURI != redirectURI {
		oauthError(w, http.StatusBadRequest, "invalid_grant", "Redirect URI mismatch")
		return
	}

	expectedResource := s.resourceURL(r)
	if requestedResource != "" && requestedResource != expectedResource {
		oauthError(w, http.StatusBadRequest, "invalid_target", "Token is not intended for this resource")
		return
	}

	if authCode.CodeChallenge != "" {
		if authCode.CodeChallengeMethod != "S256" {
			oauthError(w, http.StatusBadRequest, "invalid_grant", "Unsupported PKCE method")
			return
		}
		if codeVerifier == "" {
			oauthError(w, http.StatusBadRequest, "invalid_request", "code_verifier is required")
			return
		}
		if pkceS256(codeVerifier) != authCode.CodeChallenge {
			oauthError(w, http.StatusBadRequest, "invalid_grant", "Invalid code_verifier")
			return
		}
	}

	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTokenTTL)
	scope := strings.Join(authCode.Scopes, " ")

	claims := jwt.MapClaims{
		"iss":       s.baseURL(r),
		"sub":       authCode.UserID,
		"aud":       expectedResource,
		"client_id": client.ID,
		"scope":     scope,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
		"jti":       uuid.NewString(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		oauthError(w, http.StatusInternalServerError, "server_error", "Failed to issue token")
		return
	}

	s.store.StoreAccessToken(accessToken, TokenRecord{
		ClientID:  client.ID,
		UserID:    authCode.UserID,
		Scopes:    authCode.Scopes,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	})

	s.logger.Info().
		Str("user", authCode.UserID).
		Str("client_id", client.ID).
		Str("aud", expectedResource).
		Msg("issued access token")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_in":   int(s.cfg.AccessTokenTTL.Seconds()),
		"scope":        scope,
	})
}

// --- Introspection (RFC 7662, minimal) ---

func (s *Server) handleIntrospect(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	token := r.PostFormValue("token")
	if token == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{"active": false})
		return
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"active": false})
		return
	}
	if _, ok := s.store.GetAccessToken(token); !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"active": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active":    true,
		"iss":       claims["iss"],
		"sub":       claims["sub"],
		"aud":       claims["aud"],
		"client_id": claims["client_id"],
		"scope":     claims["scope"],
		"exp":       claims["exp"],
		"iat":       claims["iat"],
	})
}

// --- Well-known metadata ---

func (s *Server) handleAuthServerMetadata(w http.ResponseWriter, r *http.Request) {
	base := s.baseURL(r)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"issuer":                                base,
		"authorization_endpoint":                base + "/authorize",
		"token_endpoint":                        base + "/token",
		"introspection_endpoint":                base + "/introspect",
		"registration_endpoint":                 base + "/register",
		"response_types_supported":              []string{"code"},
		"grant_types_supported":                 []string{"authorization_code"},
		"code_challenge_methods_supported":      []string{"S256"},
		"token_endpoint_auth_methods_supported": []string{"client_secret_post", "client_secret_basic", "none"},
		"scopes_supported":                      supportedScopes,
	})
}

func (s *Server) handleResourceMetadata(w http.ResponseWriter, r *http.Request) {
	base := s.baseURL(r)

	resourcePath := strings.Trim(chi.URLParam(r, "*"), "/")
	if resourcePath == "" {
		resourcePath = strings.Trim(s.cfg.ResourcePath, "/")
	}
	resource := base
	if resourcePath != "" {
		resource = base + "/" + resourcePath
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resource":                 resource,
		"authorization_servers":    []string{base},
		"bearer_methods_supported": []string{"header"},
		"scopes_supported":         supportedScopes,
		"resource_documentation":   base + "/",
	})
}
