package oauth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eodhd/eodhd-mcp/pkg/config"
	"github.com/eodhd/eodhd-mcp/pkg/eodhd"
)

// newAuthTestServer stands up the authorization server backed by a fake
// upstream that accepts exactly one API key.
func newAuthTestServer(t *testing.T, validKey string) (*httptest.Server, *Store, config.Config) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" || r.URL.Query().Get("api_token") != validKey {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("invalid key"))
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"email":            "trader@example.com",
			"name":             "Trader",
			"subscriptionType": "all-in-one",
		})
	}))
	t.Cleanup(upstream.Close)

	cfg := config.Default()
	cfg.JWTSecret = "test-signing-secret"

	store := NewStore()
	client := eodhd.NewClient(upstream.URL, "demo", zerolog.Nop())

	r := chi.NewRouter()
	NewServer(cfg, store, client, zerolog.Nop()).Routes(r)

	// protected resource, to exercise the middleware against real tokens
	r.Route(cfg.ResourcePath, func(sub chi.Router) {
		sub.Use(Middleware(cfg, store, zerolog.Nop()))
		sub.Get("/", func(w http.ResponseWriter, r *http.Request) {
			key, _ := eodhd.APITokenFromContext(r.Context())
			w.Write([]byte(key))
		})
	})

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts, store, cfg
}

// noRedirectClient keeps cookies but never follows redirects, so each
// Location header can be asserted.
func noRedirectClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func registerTestClient(t *testing.T, ts *httptest.Server, redirectURI string) string {
	t.Helper()
	body := `{"client_name":"Test Client","redirect_uris":["` + redirectURI + `"],"token_endpoint_auth_method":"none"}`
	resp, err := http.Post(ts.URL+"/register", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reg map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reg))
	clientID, _ := reg["client_id"].(string)
	require.NotEmpty(t, clientID)
	assert.Nil(t, reg["client_secret"], "public clients get no secret")
	return clientID
}

func TestAuthorizationCodeFlowWithPKCE(t *testing.T) {
	ts, _, cfg := newAuthTestServer(t, "user-api-key")
	hc := noRedirectClient(t)

	const redirectURI = "https://client.example/callback"
	clientID := registerTestClient(t, ts, redirectURI)

	verifier := RandomToken(32)
	authorizeURL := ts.URL + "/authorize?" + url.Values{
		"response_type":         {"code"},
		"client_id":             {clientID},
		"redirect_uri":          {redirectURI},
		"state":                 {"xyz-state"},
		"code_challenge":        {pkceS256(verifier)},
		"code_challenge_method": {"S256"},
	}.Encode()

	// Not logged in yet: authorize parks the request and bounces to /login.
	resp, err := hc.Get(authorizeURL)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	// Login with the EODHD API key resumes the authorize request.
	resp, err = hc.PostForm(ts.URL+"/login", url.Values{"api_key": {"user-api-key"}})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/authorize?")

	// Authorize now issues a code on the client's redirect URI.
	resp, err = hc.Get(authorizeURL)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "client.example", loc.Host)
	assert.Equal(t, "xyz-state", loc.Query().Get("state"))
	code := loc.Query().Get("code")
	require.NotEmpty(t, code)

	// Exchange the code, proving possession of the PKCE verifier.
	resp, err = hc.PostForm(ts.URL+"/token", url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"client_id":     {clientID},
		"code_verifier": {verifier},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
		Scope       string `json:"scope"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, int(cfg.AccessTokenTTL.Seconds()), tok.ExpiresIn)
	assert.Equal(t, cfg.DefaultScope, tok.Scope)
	require.NotEmpty(t, tok.AccessToken)

	// Introspection reports the token active.
	resp, err = http.PostForm(ts.URL+"/introspect", url.Values{"token": {tok.AccessToken}})
	require.NoError(t, err)
	defer resp.Body.Close()
	var intro map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&intro))
	assert.Equal(t, true, intro["active"])
	assert.Equal(t, "trader@example.com", intro["sub"])
	assert.Equal(t, clientID, intro["client_id"])

	// The protected resource swaps the Bearer token for the user's API key.
	req, err := http.NewRequest(http.MethodGet, ts.URL+cfg.ResourcePath+"/", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var injected strings.Builder
	_, err = io.Copy(&injected, resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "user-api-key", injected.String())
}

func TestTokenRejectsWrongVerifier(t *testing.T) {
	ts, _, _ := newAuthTestServer(t, "user-api-key")
	hc := noRedirectClient(t)

	const redirectURI = "https://client.example/callback"
	clientID := registerTestClient(t, ts, redirectURI)

	verifier := RandomToken(32)
	authorizeURL := ts.URL + "/authorize?" + url.Values{
		"response_type":         {"code"},
		"client_id":             {clientID},
		"redirect_uri":          {redirectURI},
		"code_challenge":        {pkceS256(verifier)},
		"code_challenge_method": {"S256"},
	}.Encode()

	resp, err := hc.PostForm(ts.URL+"/login", url.Values{"api_key": {"user-api-key"}})
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = hc.Get(authorizeURL)
	require.NoError(t, err)
	resp.Body.Close()
	loc, _ := url.Parse(resp.Header.Get("Location"))
	code := loc.Query().Get("code")
	require.NotEmpty(t, code)

	resp, err = hc.PostForm(ts.URL+"/token", url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"client_id":     {clientID},
		"code_verifier": {"wrong-verifier"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid_grant", body["error"])
}

func TestLoginRejectsInvalidKey(t *testing.T) {
	ts, store, _ := newAuthTestServer(t, "user-api-key")
	hc := noRedirectClient(t)

	resp, err := hc.PostForm(ts.URL+"/login", url.Values{"api_key": {"bogus"}})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/login?error=")

	_, ok := store.UserByAPIKey("bogus")
	assert.False(t, ok)
}

func TestMissingBearerGetsChallenge(t *testing.T) {
	ts, _, cfg := newAuthTestServer(t, "user-api-key")

	resp, err := http.Get(ts.URL + cfg.ResourcePath + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	challenge := resp.Header.Get("WWW-Authenticate")
	assert.Contains(t, challenge, "Bearer")
	assert.Contains(t, challenge, "/.well-known/oauth-protected-resource"+cfg.ResourcePath)
	assert.Contains(t, challenge, cfg.DefaultScope)
}

func TestGarbageBearerRejected(t *testing.T) {
	ts, _, cfg := newAuthTestServer(t, "user-api-key")

	req, err := http.NewRequest(http.MethodGet, ts.URL+cfg.ResourcePath+"/", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWellKnownMetadata(t *testing.T) {
	ts, _, cfg := newAuthTestServer(t, "user-api-key")

	resp, err := http.Get(ts.URL + "/.well-known/oauth-authorization-server")
	require.NoError(t, err)
	defer resp.Body.Close()
	var meta map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&meta))
	assert.Equal(t, meta["issuer"].(string)+"/token", meta["token_endpoint"])
	assert.Equal(t, []interface{}{"code"}, meta["response_types_supported"])
	assert.Equal(t, []interface{}{"S256"}, meta["code_challenge_methods_supported"])

	resp, err = http.Get(ts.URL + "/.well-known/oauth-protected-resource" + cfg.ResourcePath)
	require.NoError(t, err)
	defer resp.Body.Close()
	var res map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	resource, _ := res["resource"].(string)
	assert.True(t, strings.HasSuffix(resource, cfg.ResourcePath), "resource %q should end with %q", resource, cfg.ResourcePath)
}

func TestAuthorizeUnknownClientDoesNotRedirect(t *testing.T) {
	ts, _, _ := newAuthTestServer(t, "user-api-key")
	hc := noRedirectClient(t)

	resp, err := hc.PostForm(ts.URL+"/login", url.Values{"api_key": {"user-api-key"}})
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = hc.Get(ts.URL + "/authorize?" + url.Values{
		"response_type": {"code"},
		"client_id":     {"never-registered"},
		"redirect_uri":  {"https://attacker.example/cb"},
	}.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()
	// unknown clients get an error page, never a redirect to their URI
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
