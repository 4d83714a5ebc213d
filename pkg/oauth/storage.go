// Package oauth implements the authorization server and resource protection
// for the OAuth-enabled MCP mount. The upstream data provider has no OAuth of
// its own, so the full authorization-code flow lives here: users authenticate
// with their EODHD API key and receive JWT access tokens scoped to the
// protected resource.
package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"sync"
	"time"
)

// RandomToken returns n random bytes as an unpadded URL-safe base64 string.
// Used for client secrets, authorization codes and session identifiers.
func RandomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure means the host is unusable
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// hashSecret is used for keys that must never be stored in plain form
// (user API keys, issued access tokens).
func hashSecret(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}

// Client is a registered OAuth client.
type Client struct {
	ID                      string
	Secret                  string // empty for public clients
	RedirectURIs            []string
	Name                    string
	TokenEndpointAuthMethod string // "none", "client_secret_post" or "client_secret_basic"
	CreatedAt               time.Time
}

// HasRedirectURI reports whether uri is one of the client's registered URIs.
func (c Client) HasRedirectURI(uri string) bool {
	for _, u := range c.RedirectURIs {
		if u == uri {
			return true
		}
	}
	return false
}

// AuthCode is a single-use authorization code pending exchange at /token.
type AuthCode struct {
	Code                string
	ClientID            string
	RedirectURI         string
	UserID              string
	Scopes              []string
	Resource            string
	CodeChallenge       string
	CodeChallengeMethod string
	ExpiresAt           time.Time
}

// TokenRecord tracks an issued access token so only tokens this server
// actually issued are accepted, even when the JWT signature checks out.
type TokenRecord struct {
	ClientID  string
	UserID    string
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// User is an authenticated EODHD account holder.
type User struct {
	Email            string
	APIKey           string
	Name             string
	SubscriptionType string
	Scopes           []string
	CreatedAt        time.Time
}

type session struct {
	Email    string // empty until login completes
	ReturnTo string // authorize URL to resume after login
}

// Store is the in-memory state of the authorization server. Everything
// expirable is checked on read, so a stale entry is never served.
type Store struct {
	mu       sync.RWMutex
	clients  map[string]Client
	codes    map[string]AuthCode
	tokens   map[string]TokenRecord // keyed by hashSecret(token)
	users    map[string]User        // keyed by email
	keyIndex map[string]string      // hashSecret(api key) -> email
	sessions map[string]session
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		clients:  make(map[string]Client),
		codes:    make(map[string]AuthCode),
		tokens:   make(map[string]TokenRecord),
		users:    make(map[string]User),
		keyIndex: make(map[string]string),
		sessions: make(map[string]session),
	}
}

// RegisterClient stores or replaces a client registration.
func (s *Store) RegisterClient(c Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
}

// GetClient looks up a registered client.
func (s *Store) GetClient(id string) (Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	return c, ok
}

// StoreAuthCode records a pending authorization code.
func (s *Store) StoreAuthCode(ac AuthCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[ac.Code] = ac
}

// ConsumeAuthCode removes and returns the code. Expired or unknown codes
// report ok=false; either way the code cannot be used again.
func (s *Store) ConsumeAuthCode(code string) (AuthCode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ac, ok := s.codes[code]
	if !ok {
		return AuthCode{}, false
	}
	delete(s.codes, code)
	if time.Now().After(ac.ExpiresAt) {
		return AuthCode{}, false
	}
	return ac, true
}

// StoreAccessToken records an issued token, keyed by its hash.
func (s *Store) StoreAccessToken(token string, rec TokenRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[hashSecret(token)] = rec
}

// GetAccessToken returns the record for a raw token if it exists and has not
// expired.
func (s *Store) GetAccessToken(token string) (TokenRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tokens[hashSecret(token)]
	if !ok || time.Now().After(rec.ExpiresAt) {
		return TokenRecord{}, false
	}
	return rec, true
}

// AddUser stores the user and indexes their API key by hash.
func (s *Store) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Email] = u
	s.keyIndex[hashSecret(u.APIKey)] = u.Email
}

// UserByEmail looks a user up by email.
func (s *Store) UserByEmail(email string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[email]
	return u, ok
}

// UserByAPIKey looks a user up by their EODHD API key.
func (s *Store) UserByAPIKey(apiKey string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email, ok := s.keyIndex[hashSecret(apiKey)]
	if !ok {
		return User{}, false
	}
	u, ok := s.users[email]
	return u, ok
}

// APIKeyForToken resolves a raw access token to the owning user's EODHD API
// key. This is what the resource middleware injects upstream.
func (s *Store) APIKeyForToken(token string) (string, bool) {
	rec, ok := s.GetAccessToken(token)
	if !ok {
		return "", false
	}
	u, ok := s.UserByEmail(rec.UserID)
	if !ok || u.APIKey == "" {
		return "", false
	}
	return u.APIKey, true
}

// NewSession creates an anonymous session and returns its identifier.
func (s *Store) NewSession(returnTo string) string {
	id := RandomToken(24)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = session{ReturnTo: returnTo}
	return id
}

// SessionLogin binds a user to the session and returns the URL the login flow
// should resume at.
func (s *Store) SessionLogin(id, email string) (returnTo string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, found := s.sessions[id]
	if !found {
		return "", false
	}
	returnTo = sess.ReturnTo
	s.sessions[id] = session{Email: email}
	return returnTo, true
}

// SessionUser reports the logged-in user for a session, if any.
func (s *Store) SessionUser(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok || sess.Email == "" {
		return "", false
	}
	return sess.Email, true
}

// SessionSetReturnTo remembers where to resume after a login on an existing
// session.
func (s *Store) SessionSetReturnTo(id, returnTo string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sess.ReturnTo = returnTo
	s.sessions[id] = sess
	return true
}
