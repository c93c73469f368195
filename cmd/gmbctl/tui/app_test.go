package tui

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marshallshelly/gmbctl/pkg/apiclient"
	"github.com/marshallshelly/gmbctl/pkg/apitest"
	"github.com/marshallshelly/gmbctl/pkg/models"
	"github.com/marshallshelly/gmbctl/pkg/resources"
	"github.com/marshallshelly/gmbctl/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "owner@example.com"
	testPassword = "pw"
)

type harness struct {
	server *apitest.Server
	store  *session.Store
	model  Model
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	server := apitest.New()
	server.AddUser(testEmail, testPassword, "Owner")
	httpServer := apitest.NewHTTPServer(server)
	t.Cleanup(httpServer.Close)

	store := session.New(session.NewMemoryTokenStore(""))
	client, err := apiclient.New(apitest.URL(httpServer),
		apiclient.WithTokenSource(store),
		apiclient.WithUnauthorizedHandler(store.Expire))
	require.NoError(t, err)

	api := resources.New(client)
	m := NewModel(context.Background(), Deps{Session: store, API: api})
	staticCursors(&m)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return &harness{server: server, store: store, model: next.(Model)}
}

// staticCursors stops cursor blinking so commands never just wait.
func staticCursors(m *Model) {
	for i := range m.login.inputs {
		m.login.inputs[i].Cursor.SetMode(cursor.CursorStatic)
	}
	posts := m.pages[PagePosts].(*postsPage)
	posts.content.Cursor.SetMode(cursor.CursorStatic)
	posts.topic.Cursor.SetMode(cursor.CursorStatic)
	m.pages[PageReviews].(*reviewsPage).reply.Cursor.SetMode(cursor.CursorStatic)
}

// runCmd executes c, giving up on commands that only wait (cursor blinks).
func runCmd(c tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- c() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(300 * time.Millisecond):
		return nil
	}
}

// drain feeds the results of cmd back into the model until nothing is left.
func (h *harness) drain(cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0 && steps < 100; steps++ {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := runCmd(c).(type) {
		case nil, spinner.TickMsg, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			next, nc := h.model.Update(msg)
			h.model = next.(Model)
			queue = append(queue, nc)
		}
	}
}

func (h *harness) send(msg tea.Msg) {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	h.drain(cmd)
}

func (h *harness) key(s string) {
	var msg tea.KeyMsg
	switch s {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+a":
		msg = tea.KeyMsg{Type: tea.KeyCtrlA}
	case "ctrl+s":
		msg = tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+x":
		msg = tea.KeyMsg{Type: tea.KeyCtrlX}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	h.send(msg)
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	require.NoError(t, h.store.Login(context.Background(), h.model.deps.API.Auth, testEmail, testPassword))
	h.send(sessionChangedMsg{})
	require.Equal(t, PageDashboard, h.model.Current())
}

func TestModel_Routing(t *testing.T) {
	t.Run("loading until the session is known", func(t *testing.T) {
		h := newHarness(t)
		assert.Equal(t, PageLoading, h.model.Current())
		assert.Contains(t, h.model.View(), "Loading...")
	})

	t.Run("anonymous goes to login", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.store.Load(context.Background(), h.model.deps.API.Auth))
		h.send(sessionChangedMsg{})
		assert.Equal(t, PageLogin, h.model.Current())
	})

	t.Run("login form signs in and opens the dashboard", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.store.Load(context.Background(), h.model.deps.API.Auth))
		h.send(sessionChangedMsg{})

		h.typeText(testEmail)
		h.key("enter")
		h.typeText(testPassword)
		h.key("enter")

		assert.Equal(t, session.Authenticated, h.store.State())
		assert.Equal(t, PageDashboard, h.model.Current())
		assert.Equal(t, 1, h.server.CallCount(http.MethodGet, "/reviews/"))
	})

	t.Run("wrong password stays on login", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.store.Load(context.Background(), h.model.deps.API.Auth))
		h.send(sessionChangedMsg{})

		h.typeText(testEmail)
		h.key("enter")
		h.typeText("nope")
		h.key("enter")

		assert.Equal(t, PageLogin, h.model.Current())
		assert.Contains(t, h.model.View(), "Incorrect email or password")
	})

	t.Run("401 on a page returns to login", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		h.server.RevokeTokens()

		h.key("2")
		assert.Equal(t, session.Anonymous, h.store.State())

		h.send(sessionChangedMsg{})
		assert.Equal(t, PageLogin, h.model.Current())
	})

	t.Run("logout", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		h.key("ctrl+x")
		assert.Equal(t, PageLogin, h.model.Current())
		assert.Equal(t, "", h.store.Token())
	})
}

func TestModel_Navigation(t *testing.T) {
	h := newHarness(t)
	h.server.SeedLocation(testEmail, models.Location{Name: "Main Street Cafe", GoogleLocationID: "locations/1"})
	h.login(t)

	h.key("2")
	assert.Equal(t, PageLocations, h.model.Current())
	assert.Contains(t, h.model.View(), "Main Street Cafe")

	h.key("tab")
	assert.Equal(t, PagePosts, h.model.Current())
	assert.Contains(t, h.model.View(), "No posts yet. Create your first post!")

	h.key("4")
	assert.Equal(t, PageReviews, h.model.Current())
	assert.Contains(t, h.model.View(), "No reviews yet.")

	assert.False(t, h.model.pages[PageLocations].(*locationsPage).ctl.Active())
}

func TestPostsPage_CreateWithAI(t *testing.T) {
	h := newHarness(t)
	h.server.SeedLocation(testEmail, models.Location{Name: "Main Street Cafe", GoogleLocationID: "locations/1"})
	h.login(t)
	h.key("3")

	h.key("n")
	h.key("ctrl+a")
	h.typeText("Summer Sale")
	h.key("ctrl+s")

	call, ok := h.server.LastCall(http.MethodPost, "/posts/generate")
	require.True(t, ok)
	assert.Contains(t, string(call.Body), `"topic":"Summer Sale"`)
	assert.Zero(t, h.server.CallCount(http.MethodPost, "/posts/"))

	page := h.model.pages[PagePosts].(*postsPage)
	assert.False(t, page.ctl.Snapshot().FormOpen)
	assert.Contains(t, h.model.View(), "Summer Sale")
}

func TestPostsPage_DeleteAsksFirst(t *testing.T) {
	h := newHarness(t)
	loc := h.server.SeedLocation(testEmail, models.Location{Name: "Main Street Cafe", GoogleLocationID: "locations/1"})
	post := h.server.SeedPost(models.Post{LocationID: loc.ID, Content: "Hello"})
	h.login(t)
	h.key("3")

	h.key("d")
	require.NotNil(t, h.model.confirm)
	h.key("n")
	assert.Nil(t, h.model.confirm)
	path := fmt.Sprintf("/posts/%d", post.ID)
	assert.Zero(t, h.server.CallCount(http.MethodDelete, path))

	h.key("d")
	h.key("y")
	assert.Equal(t, 1, h.server.CallCount(http.MethodDelete, path))
	assert.Contains(t, h.model.View(), "No posts yet")
}

func TestReviewsPage_GenerateFillsDraft(t *testing.T) {
	h := newHarness(t)
	loc := h.server.SeedLocation(testEmail, models.Location{Name: "Main Street Cafe", GoogleLocationID: "locations/1"})
	review := h.server.SeedReview(models.Review{LocationID: loc.ID, ReviewerName: "Ana", Rating: 5})
	h.login(t)
	h.key("4")

	h.key("enter")
	h.send(tea.KeyMsg{Type: tea.KeyCtrlG})

	page := h.model.pages[PageReviews].(*reviewsPage)
	assert.Equal(t, "Thank you for your feedback, Ana!", page.reply.Value())
	assert.NotNil(t, page.ctl.Snapshot().Selected)
	assert.Zero(t, h.server.CallCount(http.MethodPost, fmt.Sprintf("/reviews/%d/reply", review.ID)))

	h.key("esc")
	assert.Nil(t, page.ctl.Snapshot().Selected)
}

func TestConfirmationDialog(t *testing.T) {
	confirmed := false
	d := NewConfirmationDialog("Delete post", "Sure?")
	d.OnConfirm = func() tea.Cmd {
		confirmed = true
		return nil
	}

	_, finished := d.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, finished)
	assert.False(t, confirmed)

	d.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.True(t, d.YesSelected)
	_, finished = d.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, finished)
	assert.True(t, confirmed)
}
