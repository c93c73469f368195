package session

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/marshallshelly/gmbctl/pkg/apiclient"
	"github.com/marshallshelly/gmbctl/pkg/apitest"
	"github.com/marshallshelly/gmbctl/pkg/models"
	"github.com/marshallshelly/gmbctl/pkg/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	token   string
	user    *models.User
	err     error
	meErr   error
	meCalls int32
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (*models.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Token{AccessToken: f.token, TokenType: "bearer"}, nil
}

func (f *fakeAuth) Me(ctx context.Context) (*models.User, error) {
	atomic.AddInt32(&f.meCalls, 1)
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.user, nil
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "owner@example.com",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

func TestStore_Load(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: 1, Email: "owner@example.com"}

	t.Run("starts unknown", func(t *testing.T) {
		s := New(NewMemoryTokenStore(""))
		assert.Equal(t, Unknown, s.State())
	})

	t.Run("no persisted token", func(t *testing.T) {
		auth := &fakeAuth{user: user}
		s := New(NewMemoryTokenStore(""))
		require.NoError(t, s.Load(ctx, auth))
		assert.Equal(t, Anonymous, s.State())
		assert.Zero(t, atomic.LoadInt32(&auth.meCalls))
	})

	t.Run("valid persisted token", func(t *testing.T) {
		auth := &fakeAuth{user: user}
		s := New(NewMemoryTokenStore("opaque"))
		require.NoError(t, s.Load(ctx, auth))

		snap := s.Snapshot()
		assert.Equal(t, Authenticated, snap.State)
		assert.Equal(t, "opaque", snap.Token)
		require.NotNil(t, snap.User)
		assert.Equal(t, "owner@example.com", snap.User.Email)
	})

	t.Run("rejected persisted token is discarded", func(t *testing.T) {
		tokens := NewMemoryTokenStore("opaque")
		auth := &fakeAuth{meErr: errors.New("401")}
		s := New(tokens)
		require.NoError(t, s.Load(ctx, auth))

		assert.Equal(t, Anonymous, s.State())
		assert.Equal(t, "", s.Token())
		persisted, _ := tokens.Load()
		assert.Equal(t, "", persisted)
	})

	t.Run("expired jwt skips the network", func(t *testing.T) {
		tokens := NewMemoryTokenStore(signed(t, time.Now().Add(-time.Minute)))
		auth := &fakeAuth{user: user}
		s := New(tokens)
		require.NoError(t, s.Load(ctx, auth))

		assert.Equal(t, Anonymous, s.State())
		assert.Zero(t, atomic.LoadInt32(&auth.meCalls))
		persisted, _ := tokens.Load()
		assert.Equal(t, "", persisted)
	})

	t.Run("unexpired jwt is checked with the server", func(t *testing.T) {
		token := signed(t, time.Now().Add(time.Hour))
		auth := &fakeAuth{user: user}
		s := New(NewMemoryTokenStore(token))
		require.NoError(t, s.Load(ctx, auth))

		assert.Equal(t, Authenticated, s.State())
		assert.Equal(t, int32(1), atomic.LoadInt32(&auth.meCalls))
		assert.False(t, s.Snapshot().ExpiresAt.IsZero())
	})
}

func TestStore_LoginLogout(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: 1, Email: "owner@example.com"}

	t.Run("login persists the token", func(t *testing.T) {
		tokens := NewMemoryTokenStore("")
		s := New(tokens)
		require.NoError(t, s.Login(ctx, &fakeAuth{token: "t1", user: user}, "owner@example.com", "pw"))

		assert.Equal(t, Authenticated, s.State())
		persisted, _ := tokens.Load()
		assert.Equal(t, "t1", persisted)
	})

	t.Run("failed login persists nothing", func(t *testing.T) {
		tokens := NewMemoryTokenStore("")
		s := New(tokens)
		err := s.Login(ctx, &fakeAuth{err: errors.New("bad credentials")}, "owner@example.com", "nope")
		require.Error(t, err)

		assert.Equal(t, Anonymous, s.State())
		persisted, _ := tokens.Load()
		assert.Equal(t, "", persisted)
	})

	t.Run("login whose user fetch fails", func(t *testing.T) {
		tokens := NewMemoryTokenStore("")
		s := New(tokens)
		err := s.Login(ctx, &fakeAuth{token: "t1", meErr: errors.New("boom")}, "owner@example.com", "pw")
		require.Error(t, err)
		assert.Equal(t, Anonymous, s.State())
		assert.Equal(t, "", s.Token())
	})

	t.Run("logout discards the token", func(t *testing.T) {
		tokens := NewMemoryTokenStore("")
		s := New(tokens)
		require.NoError(t, s.Login(ctx, &fakeAuth{token: "t1", user: user}, "owner@example.com", "pw"))
		require.NoError(t, s.Logout())

		assert.Equal(t, Anonymous, s.State())
		assert.Equal(t, "", s.Token())
		persisted, _ := tokens.Load()
		assert.Equal(t, "", persisted)
	})
}

func TestStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryTokenStore(""))

	var states []State
	unsubscribe := s.Subscribe(func(snap Snapshot) { states = append(states, snap.State) })

	require.NoError(t, s.Load(ctx, &fakeAuth{}))
	require.NoError(t, s.Login(ctx, &fakeAuth{token: "t", user: &models.User{ID: 2}}, "a", "b"))
	s.Expire()
	s.Expire()

	unsubscribe()
	require.NoError(t, s.Login(ctx, &fakeAuth{token: "t", user: &models.User{ID: 2}}, "a", "b"))

	assert.Equal(t, []State{Anonymous, Authenticated, Anonymous}, states)
}

func TestStore_ExpireNavigatesOnce(t *testing.T) {
	server := apitest.New()
	server.AddUser("owner@example.com", "pw", "Owner")
	httpServer := apitest.NewHTTPServer(server)
	defer httpServer.Close()

	var redirects int32
	store := New(NewMemoryTokenStore(""), WithLoginRequired(func() { atomic.AddInt32(&redirects, 1) }))
	client, err := apiclient.New(apitest.URL(httpServer),
		apiclient.WithTokenSource(store),
		apiclient.WithUnauthorizedHandler(store.Expire))
	require.NoError(t, err)
	api := resources.New(client)

	ctx := context.Background()
	require.NoError(t, store.Load(ctx, api.Auth))
	require.NoError(t, store.Login(ctx, api.Auth, "owner@example.com", "pw"))
	require.Equal(t, Authenticated, store.State())

	server.RevokeTokens()
	server.Delay(http.MethodGet, "/posts/", 20*time.Millisecond)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, errs[i] = api.Posts.List(ctx, nil)
			} else {
				_, errs[i] = api.Locations.List(ctx)
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.True(t, errors.Is(err, apiclient.ErrUnauthorized))
	}
	assert.Equal(t, Anonymous, store.State())
	assert.Equal(t, int32(1), atomic.LoadInt32(&redirects))

	// Requests after expiry go out unauthenticated.
	_, err = api.Locations.List(ctx)
	require.Error(t, err)
	call, ok := server.LastCall(http.MethodGet, "/locations/")
	require.True(t, ok)
	assert.Equal(t, "", call.Auth)
	assert.Equal(t, int32(1), atomic.LoadInt32(&redirects))
}

func TestFileTokenStore(t *testing.T) {
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "nested", "token"))

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "", token)

	require.NoError(t, store.Save("abc"))
	token, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	token, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "", token)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got, ok := TokenExpiry(signed(t, exp))
	require.True(t, ok)
	assert.True(t, exp.Equal(got))
	assert.Equal(t, "owner@example.com", TokenSubject(signed(t, exp)))

	_, ok = TokenExpiry("not-a-jwt")
	assert.False(t, ok)
}
