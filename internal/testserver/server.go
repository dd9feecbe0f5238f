// Package testserver runs an in-process stand-in for the payment web
// application: CSRF tokens on every response, a refresh cookie, the login and
// transactions views and the payment endpoint.
package testserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	csrfHeader        = "X-CSRF-Token"
	refreshCookieName = "refresh_token"

	// CSRFFailureBody is written when a mutating request carries a stale token
	CSRFFailureBody = "Forbidden - CSRF token invalid"
	// LoginFailureBody is written for unknown credentials
	LoginFailureBody = "bad credentials"
	// UnauthorizedBody is written when the bearer token is missing or unknown
	UnauthorizedBody = "Bearer token not provided"
)

// Request is one request seen by the server
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Server is the fake payment web application
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	users        map[string]string
	csrf         string
	accessTokens map[string]bool
	refresh      map[string]string
	nextToken    string
	requests     []Request
	payments     [][]byte
	failures     map[string]failure
	gates        map[string]chan struct{}
}

type failure struct {
	status int
	body   string
}

// New starts a server that accepts the given username/password pairs
func New(users map[string]string) *Server {
	s := &Server{
		users:        users,
		accessTokens: make(map[string]bool),
		refresh:      make(map[string]string),
		failures:     make(map[string]failure),
		gates:        make(map[string]chan struct{}),
	}

	router := mux.NewRouter()
	router.Use(s.record, s.csrfProtect, s.gate, s.inject)
	router.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodGet)
	router.HandleFunc("/login", s.handleLoginPage).Methods(http.MethodGet)
	router.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	router.HandleFunc("/logout", s.handleLogout).Methods(http.MethodGet)
	router.HandleFunc("/transactions", s.handleTransactionsPage).Methods(http.MethodGet)
	router.HandleFunc("/payment", s.handlePayment).Methods(http.MethodPost)

	s.Server = httptest.NewServer(router)
	return s
}

// SetNextAccessToken makes the next login or refresh issue token
func (s *Server) SetNextAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextToken = token
}

// IssueRefreshCookie returns a cookie that /refresh exchanges for accessToken
func (s *Server) IssueRefreshCookie(accessToken string) *http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()

	refreshToken := uuid.New().String()
	s.refresh[refreshToken] = accessToken
	s.accessTokens[accessToken] = true
	return &http.Cookie{Name: refreshCookieName, Value: refreshToken, Path: "/"}
}

// Fail makes every request to path answer with status and body
func (s *Server) Fail(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{status: status, body: body}
}

// Recover removes a failure installed with Fail
func (s *Server) Recover(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, path)
}

// Hold blocks requests to path until the returned release func is called
func (s *Server) Hold(path string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[path] = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.gates, path)
			s.mu.Unlock()
			close(gate)
		})
	}
}

// CSRFToken returns the most recently issued CSRF token
func (s *Server) CSRFToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.csrf
}

// Requests returns the requests received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo returns the requests received for method and path
func (s *Server) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Payments returns the raw JSON bodies accepted by /payment
func (s *Server) Payments() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.payments...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		gate, held := s.gates[r.URL.Path]
		s.mu.Unlock()

		if held {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, failing := s.failures[r.URL.Path]
		s.mu.Unlock()

		if failing {
			w.Header().Set(csrfHeader, s.rotateCSRF())
			w.WriteHeader(f.status)
			io.WriteString(w, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// csrfProtect rejects mutating requests whose token is not the latest one
// issued, then issues a fresh token on the response.
func (s *Server) csrfProtect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			s.mu.Lock()
			valid := s.csrf != "" && r.Header.Get(csrfHeader) == s.csrf
			s.mu.Unlock()

			if !valid {
				w.Header().Set(csrfHeader, s.rotateCSRF())
				http.Error(w, CSRFFailureBody, http.StatusForbidden)
				return
			}
		}

		w.Header().Set(csrfHeader, s.rotateCSRF())
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rotateCSRF() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.csrf = uuid.New().String()
	return s.csrf
}

func (s *Server) takeAccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := s.nextToken
	s.nextToken = ""
	if token == "" {
		token = "tok-" + uuid.New().String()
	}
	s.accessTokens[token] = true
	return token
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, accessToken string) {
	refreshToken := uuid.New().String()
	s.mu.Lock()
	s.refresh[refreshToken] = accessToken
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(value)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{})
		return
	}

	s.mu.Lock()
	previous, ok := s.refresh[cookie.Value]
	delete(s.refresh, cookie.Value)
	s.mu.Unlock()
	if !ok {
		http.Error(w, "could not refresh token: invalid refresh token", http.StatusInternalServerError)
		return
	}

	token := s.takeAccessToken()
	s.mu.Lock()
	delete(s.accessTokens, previous)
	s.mu.Unlock()

	s.setRefreshCookie(w, token)
	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	username := r.FormValue("username")
	password := r.FormValue("password")

	s.mu.Lock()
	expected, known := s.users[username]
	s.mu.Unlock()
	if !known || expected != password {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, LoginFailureBody)
		return
	}

	token := s.takeAccessToken()
	s.setRefreshCookie(w, token)
	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		s.mu.Lock()
		delete(s.refresh, cookie.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: refreshCookieName, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusMovedPermanently)
}

func (s *Server) authorized(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessTokens[strings.TrimPrefix(header, "Bearer ")]
}

// LoginViewHTML is the fragment served at GET /login
const LoginViewHTML = `<div id="login-view">
<input id="username" type="text" name="username">
<input id="password" type="password" name="password">
<button id="login-button">Login</button>
<div id="login_err"></div>
</div>`

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, LoginViewHTML)
}

var transactionsView = template.Must(template.New("transactions").Parse(`<div id="transactions-view">
<select id="type"><option value="authorize">authorize</option><option value="charge">charge</option><option value="refund">refund</option><option value="reversal">reversal</option></select>
<input id="amount" type="number">
<input id="merchant" type="text">
<input id="customer-email" type="email">
<input id="depends-on" type="text">
<button id="create">Create</button>
<div id="transaction-error-box"></div>
<ul id="transactions">{{range .}}<li class="transaction">{{.}}</li>{{end}}</ul>
</div>`))

func (s *Server) handleTransactionsPage(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, UnauthorizedBody, http.StatusUnauthorized)
		return
	}

	s.mu.Lock()
	rows := make([]string, 0, len(s.payments))
	for _, p := range s.payments {
		rows = append(rows, string(p))
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	transactionsView.Execute(w, rows)
}

type paymentRequest struct {
	Amount        *int   `json:"amount"`
	Type          string `json:"type"`
	MerchantID    string `json:"merchant_id"`
	CustomerEmail string `json:"customer_email"`
	DependsOnUUID string `json:"depends_on_uuid"`
}

func (s *Server) handlePayment(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, UnauthorizedBody, http.StatusUnauthorized)
		return
	}

	body, _ := io.ReadAll(r.Body)
	var req paymentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, fmt.Sprintf("could not parse transaction: %s", err), http.StatusBadRequest)
		return
	}
	if req.Amount == nil {
		http.Error(w, "amount is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.payments = append(s.payments, body)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"UUID":            uuid.New().String(),
		"type":            req.Type,
		"amount":          *req.Amount,
		"customer_email":  req.CustomerEmail,
		"status":          "approved",
		"merchant_id":     req.MerchantID,
		"depends_on_uuid": req.DependsOnUUID,
	})
}
