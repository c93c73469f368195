package resources

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/marshallshelly/gmbctl/pkg/apiclient"
	"github.com/marshallshelly/gmbctl/pkg/apitest"
	"github.com/marshallshelly/gmbctl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "owner@example.com"
	testPassword = "hunter2"
)

type fixture struct {
	server *apitest.Server
	api    *API
	token  string
}

func setup(t *testing.T) *fixture {
	t.Helper()

	server := apitest.New()
	server.AddUser(testEmail, testPassword, "Owner")
	token, err := server.IssueToken(testEmail)
	require.NoError(t, err)

	httpServer := apitest.NewHTTPServer(server)
	t.Cleanup(httpServer.Close)

	f := &fixture{server: server, token: token}
	client, err := apiclient.New(apitest.URL(httpServer),
		apiclient.WithTokenSource(apiclient.TokenFunc(func() string { return f.token })))
	require.NoError(t, err)
	f.api = New(client)
	return f
}

func TestAuthService(t *testing.T) {
	ctx := context.Background()

	t.Run("login sends form-encoded credentials", func(t *testing.T) {
		f := setup(t)
		token, err := f.api.Auth.Login(ctx, testEmail, testPassword)
		require.NoError(t, err)
		assert.NotEmpty(t, token.AccessToken)
		assert.Equal(t, "bearer", token.TokenType)

		call, ok := f.server.LastCall(http.MethodPost, "/auth/login")
		require.True(t, ok)
		form, err := url.ParseQuery(string(call.Body))
		require.NoError(t, err)
		assert.Equal(t, testEmail, form.Get("username"))
		assert.Equal(t, testPassword, form.Get("password"))
	})

	t.Run("login with wrong password", func(t *testing.T) {
		f := setup(t)
		_, err := f.api.Auth.Login(ctx, testEmail, "wrong")
		assert.True(t, errors.Is(err, apiclient.ErrUnauthorized))
	})

	t.Run("register and duplicate", func(t *testing.T) {
		f := setup(t)
		user, err := f.api.Auth.Register(ctx, models.RegisterRequest{Email: "new@example.com", Password: "pw", FullName: "New"})
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", user.Email)

		_, err = f.api.Auth.Register(ctx, models.RegisterRequest{Email: "new@example.com", Password: "pw"})
		require.Error(t, err)
		var apiErr *apiclient.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "Email already registered", apiErr.Detail)
	})

	t.Run("me", func(t *testing.T) {
		f := setup(t)
		user, err := f.api.Auth.Me(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Owner", user.FullName)
	})

	t.Run("google authorize", func(t *testing.T) {
		f := setup(t)
		resp, err := f.api.Auth.GoogleAuthorize(ctx)
		require.NoError(t, err)
		assert.Contains(t, resp.AuthorizationURL, "accounts.google.com")
	})
}

func TestLocationService(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	created, err := f.api.Locations.Create(ctx, models.LocationCreate{Name: "Bakery", GoogleLocationID: "locations/1"})
	require.NoError(t, err)
	assert.Equal(t, "Bakery", created.Name)

	list, err := f.api.Locations.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got, err := f.api.Locations.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	enabled := true
	updated, err := f.api.Locations.Update(ctx, created.ID, models.LocationUpdate{AutoReplyEnabled: &enabled})
	require.NoError(t, err)
	assert.True(t, updated.AutoReplyEnabled)
	assert.False(t, updated.AutoPostEnabled)

	call, ok := f.server.LastCall(http.MethodPut, "/locations/"+itoa(created.ID))
	require.True(t, ok)
	assert.JSONEq(t, `{"auto_reply_enabled":true}`, string(call.Body))

	_, err = f.api.Locations.Sync(ctx)
	assert.True(t, errors.Is(err, apiclient.ErrBadRequest), "sync needs a linked google account")

	f.server.LinkGoogle(true)
	f.server.AddGoogleLocation(models.Location{Name: "Cafe", GoogleLocationID: "locations/2"})
	msg, err := f.api.Locations.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Synced 1 new locations", msg.Message)

	require.NoError(t, f.api.Locations.Delete(ctx, created.ID))
	_, err = f.api.Locations.Get(ctx, created.ID)
	assert.True(t, errors.Is(err, apiclient.ErrNotFound))
}

func TestPostService(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	loc := f.server.SeedLocation(testEmail, models.Location{Name: "Bakery", GoogleLocationID: "locations/1"})
	other := f.server.SeedLocation(testEmail, models.Location{Name: "Cafe", GoogleLocationID: "locations/2"})
	f.server.SeedPost(models.Post{LocationID: other.ID, Content: "elsewhere"})

	post, err := f.api.Posts.Create(ctx, models.PostCreate{LocationID: loc.ID, Content: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusDraft, post.Status)

	all, err := f.api.Posts.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := f.api.Posts.List(ctx, &loc.ID)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Hello", filtered[0].Content)

	call, ok := f.server.LastCall(http.MethodGet, "/posts/")
	require.True(t, ok)
	assert.Equal(t, "location_id="+itoa(loc.ID), call.Query)

	content := "Hello again"
	updated, err := f.api.Posts.Update(ctx, post.ID, models.PostUpdate{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "Hello again", updated.Content)

	msg, err := f.api.Posts.Publish(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Post queued for publishing", msg.Message)
	assert.NotEmpty(t, msg.TaskID)

	generated, err := f.api.Posts.Generate(ctx, models.PostGenerate{LocationID: loc.ID, Topic: "Summer Sale"})
	require.NoError(t, err)
	assert.True(t, generated.AIGenerated)
	assert.Contains(t, generated.Content, "Summer Sale")

	call, ok = f.server.LastCall(http.MethodPost, "/posts/generate")
	require.True(t, ok)
	var body map[string]any
	require.NoError(t, json.Unmarshal(call.Body, &body))
	assert.Equal(t, "Summer Sale", body["topic"])
	assert.NotContains(t, body, "content")

	require.NoError(t, f.api.Posts.Delete(ctx, post.ID))
	_, err = f.api.Posts.Get(ctx, post.ID)
	assert.True(t, errors.Is(err, apiclient.ErrNotFound))
}

func TestReviewService(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.server.LinkGoogle(true)
	loc := f.server.SeedLocation(testEmail, models.Location{Name: "Bakery", GoogleLocationID: "locations/1"})
	review := f.server.SeedReview(models.Review{LocationID: loc.ID, ReviewerName: "Ann", Rating: 5, Comment: "Great bread"})

	list, err := f.api.Reviews.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Replied())

	suggestion, err := f.api.Reviews.GenerateReply(ctx, review.ID, "friendly")
	require.NoError(t, err)
	assert.Contains(t, suggestion.ReplyText, "Ann")

	call, ok := f.server.LastCall(http.MethodPost, "/reviews/"+itoa(review.ID)+"/generate-reply")
	require.True(t, ok)
	assert.JSONEq(t, `{"review_id":`+itoa(review.ID)+`,"tone":"friendly"}`, string(call.Body))

	stored, _ := f.server.Review(review.ID)
	assert.False(t, stored.Replied(), "generating a reply must not submit it")

	_, err = f.api.Reviews.Reply(ctx, review.ID, "Thanks & see you soon")
	require.NoError(t, err)
	call, ok = f.server.LastCall(http.MethodPost, "/reviews/"+itoa(review.ID)+"/reply")
	require.True(t, ok)
	q, err := url.ParseQuery(call.Query)
	require.NoError(t, err)
	assert.Equal(t, "Thanks & see you soon", q.Get("reply_text"))

	got, err := f.api.Reviews.Get(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, "Thanks & see you soon", got.ReplyText)

	text := "Edited"
	updated, err := f.api.Reviews.Update(ctx, review.ID, models.ReviewUpdate{ReplyText: &text})
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.ReplyText)

	f.server.AddGoogleReview(models.Review{LocationID: loc.ID, ReviewerName: "Bob", Rating: 3})
	msg, err := f.api.Reviews.Sync(ctx, &loc.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, msg.TaskID)
	call, _ = f.server.LastCall(http.MethodPost, "/reviews/sync")
	assert.Equal(t, "location_id="+itoa(loc.ID), call.Query)

	_, err = f.api.Reviews.Sync(ctx, nil)
	require.NoError(t, err)
	call, _ = f.server.LastCall(http.MethodPost, "/reviews/sync")
	assert.Equal(t, "", call.Query)
}

func TestEveryOperationIsOneCall(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.server.Fail(http.MethodGet, "/locations/", http.StatusInternalServerError, "boom", 0)

	_, err := f.api.Locations.List(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, f.server.CallCount(http.MethodGet, "/locations/"), "failed calls are not retried")
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
