package apitest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/marshallshelly/gmbctl/pkg/models"
)

type ctxKey struct{}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route(BasePath, func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.login)
			r.Post("/register", s.register)
			r.Get("/google/authorize", s.googleAuthorize)
			r.With(s.authenticate).Get("/me", s.me)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Route("/locations", func(r chi.Router) {
				r.Get("/", s.listLocations)
				r.Post("/", s.createLocation)
				r.Post("/sync", s.syncLocations)
				r.Get("/{id}", s.getLocation)
				r.Put("/{id}", s.updateLocation)
				r.Delete("/{id}", s.deleteLocation)
			})

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", s.listPosts)
				r.Post("/", s.createPost)
				r.Post("/generate", s.generatePost)
				r.Get("/{id}", s.getPost)
				r.Put("/{id}", s.updatePost)
				r.Delete("/{id}", s.deletePost)
				r.Post("/{id}/publish", s.publishPost)
			})

			r.Route("/reviews", func(r chi.Router) {
				r.Get("/", s.listReviews)
				r.Post("/sync", s.syncReviews)
				r.Get("/{id}", s.getReview)
				r.Put("/{id}", s.updateReview)
				r.Post("/{id}/reply", s.replyReview)
				r.Post("/{id}/generate-reply", s.generateReply)
			})
		})
	})

	return r
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithExpirationRequired())
		if err != nil || !parsed.Valid {
			writeError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		s.mu.Lock()
		email, known := s.tokens[token]
		acc := s.accounts[email]
		s.mu.Unlock()
		if !known || acc == nil {
			writeError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, acc.user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUser(r *http.Request) models.User {
	u, _ := r.Context().Value(ctxKey{}).(models.User)
	return u
}

// auth

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	email := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[email]
	if !ok || acc.password != password {
		writeError(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	if !acc.user.IsActive {
		writeError(w, http.StatusBadRequest, "Inactive user")
		return
	}
	token, err := s.issueTokenLocked(email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.Token{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := readJSON(r, &req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "email and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[req.Email]; exists {
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	}
	writeJSON(w, http.StatusOK, s.addUserLocked(req.Email, req.Password, req.FullName))
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (s *Server) googleAuthorize(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.AuthorizeResponse{
		AuthorizationURL: "https://accounts.google.com/o/oauth2/v2/auth?client_id=apitest&scope=https://www.googleapis.com/auth/business.manage&response_type=code",
	})
}

// locations

func (s *Server) listLocations(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Location{}
	for _, id := range sortedKeys(s.locations) {
		if loc := s.locations[id]; loc.UserID == user.ID {
			out = append(out, *loc)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) ownedLocationLocked(r *http.Request, id int64) (*models.Location, bool) {
	loc, ok := s.locations[id]
	if !ok || loc.UserID != currentUser(r).ID {
		return nil, false
	}
	return loc, true
}

func (s *Server) getLocation(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	loc, ok := s.ownedLocationLocked(r, id)
	if !ok {
		writeError(w, http.StatusNotFound, "Location not found")
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) createLocation(w http.ResponseWriter, r *http.Request) {
	var req models.LocationCreate
	if err := readJSON(r, &req); err != nil || req.Name == "" || req.GoogleLocationID == "" {
		writeError(w, http.StatusUnprocessableEntity, "name and google_location_id are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	loc := &models.Location{
		ID:               s.nextID,
		UserID:           currentUser(r).ID,
		GoogleLocationID: req.GoogleLocationID,
		Name:             req.Name,
		Address:          req.Address,
		Phone:            req.Phone,
		Website:          req.Website,
		Category:         req.Category,
		CreatedAt:        models.Timestamp{Time: time.Now().UTC()},
	}
	s.locations[loc.ID] = loc
	writeJSON(w, http.StatusCreated, loc)
}

func (s *Server) updateLocation(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)
	var req models.LocationUpdate
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loc, ok := s.ownedLocationLocked(r, id)
	if !ok {
		writeError(w, http.StatusNotFound, "Location not found")
		return
	}
	if req.Name != nil {
		loc.Name = *req.Name
	}
	if req.Address != nil {
		loc.Address = *req.Address
	}
	if req.Phone != nil {
		loc.Phone = *req.Phone
	}
	if req.Website != nil {
		loc.Website = *req.Website
	}
	if req.Category != nil {
		loc.Category = *req.Category
	}
	if req.AutoReplyEnabled != nil {
		loc.AutoReplyEnabled = *req.AutoReplyEnabled
	}
	if req.AutoPostEnabled != nil {
		loc.AutoPostEnabled = *req.AutoPostEnabled
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) deleteLocation(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ownedLocationLocked(r, id); !ok {
		writeError(w, http.StatusNotFound, "Location not found")
		return
	}
	delete(s.locations, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) syncLocations(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.googleLinked {
		writeError(w, http.StatusBadRequest, "Google account not connected")
		return
	}

	existing := make(map[string]bool)
	for _, loc := range s.locations {
		existing[loc.GoogleLocationID] = true
	}

	synced := 0
	for _, g := range s.googleLocations {
		if existing[g.GoogleLocationID] {
			continue
		}
		s.nextID++
		loc := g
		loc.ID = s.nextID
		loc.UserID = user.ID
		loc.CreatedAt = models.Timestamp{Time: time.Now().UTC()}
		s.locations[loc.ID] = &loc
		existing[loc.GoogleLocationID] = true
		synced++
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: fmt.Sprintf("Synced %d new locations", synced)})
}

// posts

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	filter, filtered := optionalLocation(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	owned := s.locationIDsLocked(currentUser(r).ID)
	out := []models.Post{}
	for _, id := range sortedKeys(s.posts) {
		p := s.posts[id]
		if !owned[p.LocationID] || (filtered && p.LocationID != filter) {
			continue
		}
		out = append(out, *p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) ownedPostLocked(r *http.Request, id int64) (*models.Post, bool) {
	p, ok := s.posts[id]
	if !ok {
		return nil, false
	}
	if _, owned := s.ownedLocationLocked(r, p.LocationID); !owned {
		return nil, false
	}
	return p, true
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.ownedPostLocked(r, id)
	if !ok {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var req models.PostCreate
	if err := readJSON(r, &req); err != nil || req.Content == "" {
		writeError(w, http.StatusUnprocessableEntity, "content is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ownedLocationLocked(r, req.LocationID); !ok {
		writeError(w, http.StatusNotFound, "Location not found")
		return
	}
	postType := req.PostType
	if postType == "" {
		postType = models.PostTypeUpdate
	}
	s.nextID++
	p := &models.Post{
		ID:         s.nextID,
		LocationID: req.LocationID,
		Title:      req.Title,
		Content:    req.Content,
		PostType:   postType,
		MediaURL:   req.MediaURL,
		Status:     models.PostStatusDraft,
		CreatedAt:  models.Timestamp{Time: time.Now().UTC()},
	}
	if req.ScheduledAt != nil {
		p.ScheduledAt = models.Timestamp{Time: req.ScheduledAt.UTC()}
		p.Status = models.PostStatusScheduled
	}
	s.posts[p.ID] = p
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) generatePost(w http.ResponseWriter, r *http.Request) {
	var req models.PostGenerate
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loc, ok := s.ownedLocationLocked(r, req.LocationID)
	if !ok {
		writeError(w, http.StatusNotFound, "Location not found")
		return
	}
	postType := req.PostType
	if postType == "" {
		postType = models.PostTypeUpdate
	}
	content := fmt.Sprintf("News from %s!", loc.Name)
	if req.Topic != "" {
		content = fmt.Sprintf("%s: %s. Visit us today!", loc.Name, req.Topic)
	}
	s.nextID++
	p := &models.Post{
		ID:          s.nextID,
		LocationID:  req.LocationID,
		Content:     content,
		PostType:    postType,
		Status:      models.PostStatusDraft,
		AIGenerated: true,
		CreatedAt:   models.Timestamp{Time: time.Now().UTC()},
	}
	s.posts[p.ID] = p
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updatePost(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)
	var req models.PostUpdate
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.ownedPostLocked(r, id)
	if !ok {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Content != nil {
		p.Content = *req.Content
	}
	if req.PostType != nil {
		p.PostType = *req.PostType
	}
	if req.MediaURL != nil {
		p.MediaURL = *req.MediaURL
	}
	if req.ScheduledAt != nil {
		p.ScheduledAt = models.Timestamp{Time: req.ScheduledAt.UTC()}
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ownedPostLocked(r, id); !ok {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	delete(s.posts, id)
	w.WriteHeader(http.StatusNoContent)
}

// publishPost completes the publish immediately; the real API hands it to a
// background worker.
func (s *Server) publishPost(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.ownedPostLocked(r, id)
	if !ok {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	p.Status = models.PostStatusPublished
	p.PublishedAt = models.Timestamp{Time: time.Now().UTC()}
	p.GooglePostID = "posts/" + uuid.NewString()
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Post queued for publishing", TaskID: newTaskID()})
}

// reviews

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	filter, filtered := optionalLocation(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	owned := s.locationIDsLocked(currentUser(r).ID)
	out := []models.Review{}
	for _, id := range sortedKeys(s.reviews) {
		rv := s.reviews[id]
		if !owned[rv.LocationID] || (filtered && rv.LocationID != filter) {
			continue
		}
		out = append(out, *rv)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) ownedReviewLocked(r *http.Request, id int64) (*models.Review, bool) {
	rv, ok := s.reviews[id]
	if !ok {
		return nil, false
	}
	if _, owned := s.ownedLocationLocked(r, rv.LocationID); !owned {
		return nil, false
	}
	return rv, true
}

func (s *Server) getReview(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	rv, ok := s.ownedReviewLocked(r, id)
	if !ok {
		writeError(w, http.StatusNotFound, "Review not found")
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func (s *Server) updateReview(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)
	var req models.ReviewUpdate
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rv, ok := s.ownedReviewLocked(r, id)
	if !ok {
		writeError(w, http.StatusNotFound, "Review not found")
		return
	}
	if req.ReplyText != nil {
		rv.ReplyText = *req.ReplyText
	}
	writeJSON(w, http.StatusOK, rv)
}

func (s *Server) replyReview(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)
	text := r.URL.Query().Get("reply_text")
	if text == "" {
		writeError(w, http.StatusUnprocessableEntity, "reply_text is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rv, ok := s.ownedReviewLocked(r, id)
	if !ok {
		writeError(w, http.StatusNotFound, "Review not found")
		return
	}
	if !s.googleLinked {
		writeError(w, http.StatusBadRequest, "Google account not connected")
		return
	}
	rv.ReplyText = text
	rv.ReplyAt = models.Timestamp{Time: time.Now().UTC()}
	rv.AIGeneratedReply = false
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Reply posted successfully"})
}

func (s *Server) generateReply(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)
	var req models.ReplyGenerate
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rv, ok := s.ownedReviewLocked(r, id)
	if !ok {
		writeError(w, http.StatusNotFound, "Review not found")
		return
	}
	tone := req.Tone
	if tone == "" {
		tone = models.DefaultReplyTone
	}
	text := fmt.Sprintf("Thank you for your feedback, %s!", rv.ReviewerName)
	if rv.Rating < 3 {
		text = fmt.Sprintf("We're sorry to hear about your experience, %s. Please get in touch so we can make it right.", rv.ReviewerName)
	}
	if tone != models.DefaultReplyTone {
		text += " (" + tone + ")"
	}
	writeJSON(w, http.StatusOK, models.ReplySuggestion{ReplyText: text})
}

func (s *Server) syncReviews(w http.ResponseWriter, r *http.Request) {
	filter, filtered := optionalLocation(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.googleLinked {
		writeError(w, http.StatusBadRequest, "Google account not connected")
		return
	}
	if filtered {
		if _, ok := s.ownedLocationLocked(r, filter); !ok {
			writeError(w, http.StatusNotFound, "Location not found")
			return
		}
	}

	remaining := s.googleReviews[:0]
	for _, g := range s.googleReviews {
		if filtered && g.LocationID != filter {
			remaining = append(remaining, g)
			continue
		}
		s.nextID++
		rv := g
		rv.ID = s.nextID
		if rv.ReviewCreatedAt.IsZero() {
			rv.ReviewCreatedAt = models.Timestamp{Time: time.Now().UTC()}
		}
		rv.CreatedAt = models.Timestamp{Time: time.Now().UTC()}
		s.reviews[rv.ID] = &rv
	}
	s.googleReviews = remaining

	msg := "Review sync started for all locations"
	if filtered {
		msg = "Review sync started for location"
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: msg, TaskID: newTaskID()})
}

func newTaskID() string {
	return uuid.NewString()
}
