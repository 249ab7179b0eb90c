// Package fakeapi is an in-process stand-in for the marketplace REST API. It
// issues real HS256 access tokens, honours refresh tokens, and serves the
// admin collections from memory. Tests drive token expiry through its knobs.
package fakeapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/fleetadmin/pkg/cryptox"
	"github.com/aussiebroadwan/fleetadmin/pkg/httpx"
	"github.com/aussiebroadwan/fleetadmin/pkg/idx"
	"github.com/aussiebroadwan/fleetadmin/pkg/jwtx"
	"github.com/aussiebroadwan/fleetadmin/pkg/slogx"
)

const (
	issuer  = "fleetadmin-fakeapi"
	maxBody = 1 << 20
)

// Collections served under /admin/.
var Collections = []string{
	"orders",
	"merchants",
	"delivery-agents",
	"customers",
	"promotions",
	"subscriptions",
}

// User is an operator account the fake API accepts. Password is hashed on
// registration and never kept in clear.
type User struct {
	ID       string
	Username string
	Password string
	Role     string
}

// RecordedRequest is what the server saw for one call.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	Body          []byte
}

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	signer *jwtx.HS256

	mu            sync.Mutex
	accessTTL     time.Duration
	users         map[string]User
	passwords     map[string]string // username -> argon2id hash
	refreshTokens map[string]string // fingerprint -> user id
	issued        []string          // jti of every access token handed out
	revoked       map[string]bool
	failRefresh   bool
	refreshCalls  int
	requests      []RecordedRequest
	collections   map[string]map[string]map[string]any
	order         map[string][]string
}

// New builds a server that knows users.
func New(logger *slog.Logger, users ...User) (*Server, error) {
	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}
	signer, err := jwtx.NewHS256([]byte(secret), issuer)
	if err != nil {
		return nil, err
	}

	s := &Server{
		mux:           http.NewServeMux(),
		logger:        logger,
		signer:        signer,
		accessTTL:     jwtx.DefaultAccessTokenTTL,
		users:         make(map[string]User),
		passwords:     make(map[string]string),
		refreshTokens: make(map[string]string),
		revoked:       make(map[string]bool),
		collections:   make(map[string]map[string]map[string]any),
		order:         make(map[string][]string),
	}
	for _, u := range users {
		if u.ID == "" {
			u.ID = idx.New().String()
		}
		hash, err := cryptox.HashPassword(u.Password, cryptox.FastArgon2Params)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", u.Username, err)
		}
		u.Password = ""
		s.users[u.Username] = u
		s.passwords[u.Username] = hash
	}
	for _, c := range Collections {
		s.collections[c] = make(map[string]map[string]any)
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /auth/refresh-token", s.handleRefresh)
	s.mux.HandleFunc("POST /auth/logout", s.handleLogout)

	read := []httpx.Middleware{
		httpx.AuthnMiddleware(verifier{s}),
		httpx.RequireRole("admin", "support"),
	}
	write := []httpx.Middleware{
		httpx.AuthnMiddleware(verifier{s}),
		httpx.RequireRole("admin"),
	}

	s.mux.Handle("GET /admin/{collection}", httpx.Chain(http.HandlerFunc(s.handleList), read...))
	s.mux.Handle("GET /admin/{collection}/{id}", httpx.Chain(http.HandlerFunc(s.handleGet), read...))
	s.mux.Handle("POST /admin/{collection}", httpx.Chain(http.HandlerFunc(s.handleCreate), write...))
	s.mux.Handle("PUT /admin/{collection}/{id}", httpx.Chain(http.HandlerFunc(s.handleUpdate), write...))
	s.mux.Handle("DELETE /admin/{collection}/{id}", httpx.Chain(http.HandlerFunc(s.handleDelete), write...))
}

// ServeHTTP records the call, then dispatches through the logging middleware.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "unreadable body")
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		Body:          body,
	})
	s.mu.Unlock()

	httpx.Chain(s.mux, slogx.HTTPMiddleware(s.logger)).ServeHTTP(w, r)
}

// ============================================================================
// Knobs
// ============================================================================

// RevokeAccessTokens makes every access token issued so far draw a 401.
func (s *Server) RevokeAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, jti := range s.issued {
		s.revoked[jti] = true
	}
}

// SetRefreshFailure makes the refresh endpoint reject every token.
func (s *Server) SetRefreshFailure(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// SetAccessTTL changes the lifetime of access tokens issued from now on.
func (s *Server) SetAccessTTL(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessTTL = d
}

// RefreshCalls counts hits on the refresh endpoint.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// Requests returns a copy of every request seen so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// RequestsTo filters Requests by path.
func (s *Server) RequestsTo(path string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range s.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// IssueAccessToken mints a token for username outside the login flow.
func (s *Server) IssueAccessToken(username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return "", fmt.Errorf("unknown user %q", username)
	}
	return s.issueLocked(u)
}

// IssueRefreshToken mints a refresh token for username outside the login flow.
func (s *Server) IssueRefreshToken(username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return "", fmt.Errorf("unknown user %q", username)
	}
	return s.refreshLocked(u)
}

// Seed stores items in collection, assigning ids where missing.
func (s *Server) Seed(collection string, items ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection]; !ok {
		return fmt.Errorf("unknown collection %q", collection)
	}
	for _, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return err
		}
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}
		s.putLocked(collection, doc)
	}
	return nil
}

// ============================================================================
// Tokens
// ============================================================================

type verifier struct{ s *Server }

func (v verifier) Verify(raw string) (jwtx.Claims, error) {
	claims, err := v.s.signer.Verify(raw)
	if err != nil {
		return jwtx.Claims{}, err
	}

	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if v.s.revoked[claims.ID] {
		return jwtx.Claims{}, jwtx.ErrExpired
	}
	return claims, nil
}

func (s *Server) issueLocked(u User) (string, error) {
	claims := jwtx.NewAccessClaims(u.ID, u.Username, u.Role, issuer, s.accessTTL, time.Now())
	token, err := s.signer.Sign(claims)
	if err != nil {
		return "", err
	}
	s.issued = append(s.issued, claims.ID)
	return token, nil
}

func (s *Server) refreshLocked(u User) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}
	s.refreshTokens[cryptox.FingerprintToken(token)] = u.ID
	return token, nil
}

func (s *Server) userByID(id string) (User, bool) {
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// ============================================================================
// Auth handlers
// ============================================================================

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		FCMToken string `json:"fcmToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[body.Username]
	if !ok || cryptox.VerifyPassword(body.Password, s.passwords[body.Username]) != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
		return
	}

	access, err := s.issueLocked(u)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	refresh, err := s.refreshLocked(u)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"token":        access,
		"refreshToken": refresh,
		"role":         u.Role,
		"userId":       u.ID,
		"username":     u.Username,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshCalls++

	userID, ok := s.refreshTokens[cryptox.FingerprintToken(body.RefreshToken)]
	if !ok || s.failRefresh {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_refresh_token", "refresh token is invalid or expired")
		return
	}
	u, ok := s.userByID(userID)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_refresh_token", "user no longer exists")
		return
	}

	token, err := s.issueLocked(u)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"newToken": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed body")
		return
	}

	s.mu.Lock()
	delete(s.refreshTokens, cryptox.FingerprintToken(body.RefreshToken))
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// Collection handlers
// ============================================================================

func (s *Server) collection(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := r.PathValue("collection")
	if _, ok := s.collections[name]; !ok {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "unknown collection")
		return "", false
	}
	return name, true
}

func (s *Server) putLocked(collection string, doc map[string]any) {
	id, _ := doc["id"].(string)
	if id == "" {
		id = idx.New().String()
		doc["id"] = id
	}
	if _, exists := s.collections[collection][id]; !exists {
		s.order[collection] = append(s.order[collection], id)
	}
	s.collections[collection][id] = doc
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, ok := s.collection(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	limit := atoiDefault(q.Get("limit"), 20)
	search := strings.ToLower(q.Get("search"))
	status := q.Get("status")

	var matched []map[string]any
	for _, id := range s.order[name] {
		doc := s.collections[name][id]
		if status != "" && doc["status"] != status {
			continue
		}
		if search != "" {
			raw, _ := json.Marshal(doc)
			if !strings.Contains(strings.ToLower(string(raw)), search) {
				continue
			}
		}
		matched = append(matched, doc)
	}

	start := min((page-1)*limit, len(matched))
	end := min(start+limit, len(matched))
	items := matched[start:end]
	if items == nil {
		items = []map[string]any{}
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": len(matched),
		"page":  page,
		"limit": limit,
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, ok := s.collection(w, r)
	if !ok {
		return
	}
	doc, ok := s.collections[name][r.PathValue("id")]
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "no such item")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, doc)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil || doc == nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name, ok := s.collection(w, r)
	if !ok {
		return
	}
	delete(doc, "id")
	if claims, ok := httpx.ClaimsFromContext(r.Context()); ok {
		doc["createdBy"] = claims.Subject
	}
	s.putLocked(name, doc)
	httpx.WriteJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil || doc == nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name, ok := s.collection(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if _, ok := s.collections[name][id]; !ok {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "no such item")
		return
	}
	doc["id"] = id
	s.putLocked(name, doc)
	httpx.WriteJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, ok := s.collection(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if _, ok := s.collections[name][id]; !ok {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "no such item")
		return
	}
	delete(s.collections[name], id)
	s.order[name] = slices.DeleteFunc(s.order[name], func(v string) bool { return v == id })
	w.WriteHeader(http.StatusNoContent)
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
