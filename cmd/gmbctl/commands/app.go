package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/marshallshelly/gmbctl/cmd/gmbctl/output"
	"github.com/marshallshelly/gmbctl/pkg/apiclient"
	"github.com/marshallshelly/gmbctl/pkg/config"
	"github.com/marshallshelly/gmbctl/pkg/logging"
	"github.com/marshallshelly/gmbctl/pkg/resources"
	"github.com/marshallshelly/gmbctl/pkg/session"
	"github.com/marshallshelly/gmbctl/pkg/views"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultAPIURLHint = apiclient.DefaultBaseURL

// app is everything a command needs to talk to the API.
type app struct {
	cfg     *config.Config
	logger  *zap.SugaredLogger
	session *session.Store
	api     *resources.API
}

// newApp resolves configuration and wires the session store into the HTTP
// client. logger may be nil to log to stderr.
func newApp(logger *zap.SugaredLogger) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if logger == nil {
		logger = logging.New(verbose)
	}

	store := session.New(session.NewFileTokenStore(cfg.TokenFile),
		session.WithLogger(logger),
		session.WithLoginRequired(func() {
			output.Warning("Session expired. Run 'gmbctl login' to sign in again.")
		}),
	)

	client, err := apiclient.New(cfg.APIURL,
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		apiclient.WithTokenSource(store),
		apiclient.WithUnauthorizedHandler(store.Expire),
		apiclient.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, session: store, api: resources.New(client)}, nil
}

// authenticated builds the app and restores the persisted session.
func authenticated(ctx context.Context) (*app, error) {
	a, err := newApp(nil)
	if err != nil {
		return nil, err
	}
	if err := a.session.Load(ctx, a.api.Auth); err != nil {
		return nil, err
	}
	if a.session.State() != session.Authenticated {
		return nil, fmt.Errorf("%w: run 'gmbctl login' first", session.ErrNotAuthenticated)
	}
	return a, nil
}

// viewOptions routes controller alerts and logs to the terminal.
func (a *app) viewOptions() []views.Option {
	return []views.Option{
		views.WithLogger(a.logger),
		views.WithNotifier(views.NotifierFunc(output.Alert)),
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, arg)
	}
	return id, nil
}

// optionalID turns a zero flag value into "no filter".
func optionalID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
