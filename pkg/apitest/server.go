// Package apitest is an in-memory implementation of the GMB Automation REST
// API. It backs the client's tests and `gmbctl dev-server`, records every
// call it receives, and can be told to fail specific routes.
package apitest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/marshallshelly/gmbctl/pkg/models"
)

// BasePath is where the API is mounted.
const BasePath = "/api/v1"

// Call is one request received by the server.
type Call struct {
	Method   string
	Path     string
	Query    string
	Body     []byte
	Auth     string
	Received time.Time
}

type account struct {
	user     models.User
	password string
}

type failure struct {
	status int
	detail string
	times  int // <= 0 means always
}

// Server is the fake API. The zero value is not usable; call New.
type Server struct {
	mu sync.Mutex

	secret   []byte
	tokenTTL time.Duration

	accounts map[string]*account // by email
	tokens   map[string]string   // token -> email

	locations map[int64]*models.Location
	posts     map[int64]*models.Post
	reviews   map[int64]*models.Review
	nextID    int64

	googleLinked    bool
	googleLocations []models.Location
	googleReviews   []models.Review

	failures map[string]*failure
	delays   map[string]time.Duration
	calls    []Call

	router chi.Router
}

// New creates an empty server.
func New() *Server {
	s := &Server{
		secret:    []byte("apitest-secret"),
		tokenTTL:  30 * time.Minute,
		accounts:  make(map[string]*account),
		tokens:    make(map[string]string),
		locations: make(map[int64]*models.Location),
		posts:     make(map[int64]*models.Post),
		reviews:   make(map[int64]*models.Review),
		failures:  make(map[string]*failure),
		delays:    make(map[string]time.Duration),
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// NewHTTPServer starts s on a loopback port. The caller must Close it.
func NewHTTPServer(s *Server) *httptest.Server {
	return httptest.NewServer(s)
}

// URL returns the API base URL for an httptest server running s.
func URL(srv *httptest.Server) string {
	return srv.URL + BasePath
}

// AddUser registers an account and returns it.
func (s *Server) AddUser(email, password, fullName string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(email, password, fullName)
}

func (s *Server) addUserLocked(email, password, fullName string) models.User {
	s.nextID++
	u := models.User{
		ID:        s.nextID,
		Email:     email,
		FullName:  fullName,
		IsActive:  true,
		CreatedAt: models.Timestamp{Time: time.Now().UTC()},
	}
	s.accounts[email] = &account{user: u, password: password}
	return u
}

// IssueToken returns a valid token for an existing account.
func (s *Server) IssueToken(email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueTokenLocked(email)
}

func (s *Server) issueTokenLocked(email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		ID:        newTaskID(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	s.tokens[token] = email
	return token, nil
}

// RevokeTokens invalidates every issued token, so the next authenticated
// call answers 401.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

// SetTokenTTL changes the lifetime of tokens issued from now on.
func (s *Server) SetTokenTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenTTL = ttl
}

// LinkGoogle marks the Google account as connected (or not). Sync and reply
// endpoints answer 400 while unlinked.
func (s *Server) LinkGoogle(linked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.googleLinked = linked
}

// AddGoogleLocation stages a location that the next sync will import.
func (s *Server) AddGoogleLocation(loc models.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.googleLocations = append(s.googleLocations, loc)
}

// AddGoogleReview stages a review that the next review sync will import.
func (s *Server) AddGoogleReview(review models.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.googleReviews = append(s.googleReviews, review)
}

// SeedLocation stores a location owned by email's account.
func (s *Server) SeedLocation(email string, loc models.Location) models.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	loc.ID = s.nextID
	if acc, ok := s.accounts[email]; ok {
		loc.UserID = acc.user.ID
	}
	if loc.CreatedAt.IsZero() {
		loc.CreatedAt = models.Timestamp{Time: time.Now().UTC()}
	}
	s.locations[loc.ID] = &loc
	return loc
}

// SeedPost stores a post.
func (s *Server) SeedPost(post models.Post) models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	post.ID = s.nextID
	if post.Status == "" {
		post.Status = models.PostStatusDraft
	}
	if post.PostType == "" {
		post.PostType = models.PostTypeUpdate
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = models.Timestamp{Time: time.Now().UTC()}
	}
	s.posts[post.ID] = &post
	return post
}

// SeedReview stores a review.
func (s *Server) SeedReview(review models.Review) models.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	review.ID = s.nextID
	if review.ReviewCreatedAt.IsZero() {
		review.ReviewCreatedAt = models.Timestamp{Time: time.Now().UTC()}
	}
	review.CreatedAt = review.ReviewCreatedAt
	s.reviews[review.ID] = &review
	return review
}

// Review returns the stored review.
func (s *Server) Review(id int64) (models.Review, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return models.Review{}, false
	}
	return *r, true
}

// Location returns the stored location.
func (s *Server) Location(id int64) (models.Location, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locations[id]
	if !ok {
		return models.Location{}, false
	}
	return *l, true
}

// Fail makes method+path answer status with detail. times <= 0 fails
// forever. path is the request path below BasePath, e.g. "/posts/".
func (s *Server) Fail(method, path string, status int, detail string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = &failure{status: status, detail: detail, times: times}
}

// Delay holds responses to method+path for d before answering.
func (s *Server) Delay(method, path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[method+" "+path] = d
}

// Calls returns a copy of every recorded call.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount counts recorded calls to method+path.
func (s *Server) CallCount(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// LastCall returns the most recent call to method+path.
func (s *Server) LastCall(method, path string) (Call, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.calls) - 1; i >= 0; i-- {
		if s.calls[i].Method == method && s.calls[i].Path == path {
			return s.calls[i], true
		}
	}
	return Call{}, false
}

// ResetCalls forgets every recorded call.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// record stores the call and applies configured delays and failures.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		path := r.URL.Path
		if len(path) >= len(BasePath) && path[:len(BasePath)] == BasePath {
			path = path[len(BasePath):]
		}
		key := r.Method + " " + path

		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method:   r.Method,
			Path:     path,
			Query:    r.URL.RawQuery,
			Body:     body,
			Auth:     r.Header.Get("Authorization"),
			Received: time.Now(),
		})
		delay := s.delays[key]
		var fail *failure
		if f, ok := s.failures[key]; ok {
			fail = f
			if f.times > 0 {
				f.times--
				if f.times == 0 {
					delete(s.failures, key)
				}
			}
		}
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if fail != nil {
			writeError(w, fail.status, fail.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) locationIDsLocked(userID int64) map[int64]bool {
	ids := make(map[int64]bool)
	for id, loc := range s.locations {
		if loc.UserID == userID {
			ids[id] = true
		}
	}
	return ids
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
