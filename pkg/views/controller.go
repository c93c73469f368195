// Package views holds the view-state controllers behind each protected page.
// A controller owns the page's collection snapshot, its loading flags and any
// page-local draft state. It does not render anything; the terminal UI and the
// CLI both drive the same controllers.
//
// Every successful mutation is followed by exactly one full re-fetch of the
// owning collection. Results of a load started before the latest Activate, or
// after Deactivate, are discarded.
package views

import (
	"context"
	"errors"
	"sync"

	"github.com/marshallshelly/gmbctl/pkg/models"
	"go.uber.org/zap"
)

var (
	// ErrStale is returned by loads whose result was discarded because the
	// page was re-activated or deactivated while they ran.
	ErrStale = errors.New("result discarded: page no longer active")

	// ErrNotFound is returned when an action names an entity missing from
	// the current snapshot.
	ErrNotFound = errors.New("not found in current view")

	// ErrNothingSelected is returned by reply actions without a selection.
	ErrNothingSelected = errors.New("no review selected")
)

// Notifier shows a blocking message to the user.
type Notifier interface {
	Alert(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Alert calls f.
func (f NotifierFunc) Alert(message string) { f(message) }

type nopNotifier struct{}

func (nopNotifier) Alert(string) {}

// Option configures a controller.
type Option func(*controller)

// WithLogger sets the logger failures are reported to.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *controller) { c.logger = l }
}

// WithNotifier sets the alert sink for high-stakes actions.
func WithNotifier(n Notifier) Option {
	return func(c *controller) { c.notifier = n }
}

// controller is the activation and loading bookkeeping shared by every page.
type controller struct {
	mu      sync.Mutex
	gen     uint64
	active  bool
	cancel  context.CancelFunc
	loading bool

	logger   *zap.SugaredLogger
	notifier Notifier
}

func newController(opts []Option) controller {
	c := controller{
		logger:   zap.NewNop().Sugar(),
		notifier: nopNotifier{},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Activate marks the page visible and returns the context its loads and
// actions should run under. Any previous activation is cancelled.
func (c *controller) Activate(parent context.Context) context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	c.gen++
	c.active = true
	c.cancel = cancel
	return ctx
}

// Deactivate cancels in-flight work and discards its results.
func (c *controller) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	c.active = false
	c.loading = false
}

// Active reports whether the page is currently activated.
func (c *controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// beginLoad sets the loading flag and returns the generation the load belongs to.
func (c *controller) beginLoad() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = true
	return c.gen
}

// endLoad clears the loading flag unless a newer load owns it.
func (c *controller) endLoad(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.gen {
		c.loading = false
	}
}

// commit runs apply under the lock when gen is still current.
func (c *controller) commit(ctx context.Context, gen uint64, apply func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || gen != c.gen || ctx.Err() != nil {
		return ErrStale
	}
	apply()
	return nil
}

// setFlag flips a page flag under the lock.
func (c *controller) setFlag(flag *bool, v bool) {
	c.mu.Lock()
	*flag = v
	c.mu.Unlock()
}

func locationIndex(locations []models.Location, id int64) int {
	for i := range locations {
		if locations[i].ID == id {
			return i
		}
	}
	return -1
}
