package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/api/v1", opts...)
	require.NoError(t, err)
	return c
}

func TestClient_BearerToken(t *testing.T) {
	var gotAuth atomic.Value
	handler := func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[]`)
	}

	t.Run("token present", func(t *testing.T) {
		c := newTestClient(t, handler, WithTokenSource(TokenFunc(func() string { return "abc" })))
		var out []any
		require.NoError(t, c.Get(context.Background(), "/locations/", nil, &out))
		assert.Equal(t, "Bearer abc", gotAuth.Load())
	})

	t.Run("token absent", func(t *testing.T) {
		c := newTestClient(t, handler)
		var out []any
		require.NoError(t, c.Get(context.Background(), "/locations/", nil, &out))
		assert.Equal(t, "", gotAuth.Load())
	})

	t.Run("token read on every request", func(t *testing.T) {
		token := "first"
		c := newTestClient(t, handler, WithTokenSource(TokenFunc(func() string { return token })))
		require.NoError(t, c.Get(context.Background(), "/x", nil, nil))
		assert.Equal(t, "Bearer first", gotAuth.Load())

		token = ""
		require.NoError(t, c.Get(context.Background(), "/x", nil, nil))
		assert.Equal(t, "", gotAuth.Load())
	})
}

func TestClient_Unauthorized(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Could not validate credentials"}`)
	}, WithUnauthorizedHandler(func() { atomic.AddInt32(&calls, 1) }))

	err := c.Get(context.Background(), "/posts/", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Could not validate credentials", apiErr.Detail)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
}

func TestClient_ErrorsPropagateUnchanged(t *testing.T) {
	var unauthorized int32
	tests := []struct {
		name   string
		status int
		body   string
		target error
		detail string
	}{
		{"not found", http.StatusNotFound, `{"detail":"Post not found"}`, ErrNotFound, "Post not found"},
		{"bad request", http.StatusBadRequest, `{"detail":"Google account not connected"}`, ErrBadRequest, "Google account not connected"},
		{"validation", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","content"],"msg":"field required"}]}`, ErrValidation, `[{"loc":["body","content"],"msg":"field required"}]`},
		{"server", http.StatusInternalServerError, `oops`, ErrServer, ""},
		{"teapot", http.StatusTeapot, ``, ErrUnexpectedStatus, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}, WithUnauthorizedHandler(func() { atomic.AddInt32(&unauthorized, 1) }))

			err := c.Post(context.Background(), "/posts/", nil, map[string]string{"a": "b"}, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.detail, apiErr.Detail)
			assert.Equal(t, tt.body, string(apiErr.Body))
		})
	}

	assert.Zero(t, atomic.LoadInt32(&unauthorized), "only 401 may expire the session")
}

func TestClient_RequestEncoding(t *testing.T) {
	t.Run("json body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/api/v1/locations/7", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"auto_reply_enabled":true}`, string(body))
			_, _ = io.WriteString(w, `{"id":7}`)
		})

		var out struct {
			ID int `json:"id"`
		}
		require.NoError(t, c.Put(context.Background(), "/locations/7", map[string]bool{"auto_reply_enabled": true}, &out))
		assert.Equal(t, 7, out.ID)
	})

	t.Run("form body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "me@example.com", r.PostForm.Get("username"))
			assert.Equal(t, "pw", r.PostForm.Get("password"))
			_, _ = io.WriteString(w, `{"access_token":"t","token_type":"bearer"}`)
		})

		var out map[string]string
		form := url.Values{"username": {"me@example.com"}, "password": {"pw"}}
		require.NoError(t, c.PostForm(context.Background(), "/auth/login", form, &out))
		assert.Equal(t, "t", out["access_token"])
	})

	t.Run("empty query values omitted", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "", r.URL.RawQuery)
			_, _ = io.WriteString(w, `[]`)
		})
		require.NoError(t, c.Get(context.Background(), "/posts/", url.Values{"location_id": {""}}, nil))
	})

	t.Run("no content", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(http.StatusNoContent)
		})
		require.NoError(t, c.Delete(context.Background(), "/posts/3"))
	})
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	err = c.Get(context.Background(), "/locations/", nil, nil)
	require.Error(t, err)
	assert.Zero(t, StatusCode(err))
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.Error(t, err)

	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
}
