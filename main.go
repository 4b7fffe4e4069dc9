package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"bookstore-cli/api"
	"bookstore-cli/internal/config"
	"bookstore-cli/internal/logging"
	"bookstore-cli/storefront"
)

type rootFlags struct {
	configPath string
	apiURL     string
	verbose    bool
	timeout    time.Duration
}

// app holds everything a command needs. It is built once per process by
// setup and torn down by close.
type app struct {
	flags rootFlags

	cfg     *config.Config
	log     *zap.Logger
	store   *storefront.Store
	session *storefront.Session
	client  *api.Client

	in  io.Reader
	out io.Writer
	sc  *bufio.Scanner
}

func newApp(in io.Reader, out io.Writer) *app {
	return &app{in: in, out: out, log: zap.NewNop()}
}

func (a *app) setup(ctx context.Context) error {
	path := a.flags.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if a.flags.apiURL != "" {
		cfg.API.BaseURL = a.flags.apiURL
	}
	if a.flags.timeout > 0 {
		cfg.API.Timeout = a.flags.timeout.String()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logging.New(cfg.Logging, a.flags.verbose)
	if err != nil {
		return err
	}
	a.log = log

	var storeOpts []storefront.StoreOption
	if cfg.State.Passphrase != "" {
		storeOpts = append(storeOpts, storefront.WithPassphrase(cfg.State.Passphrase))
	}
	store, err := storefront.OpenStore(cfg.State.Path, storeOpts...)
	if err != nil {
		return fmt.Errorf("open local state: %w", err)
	}
	a.store = store
	a.session = storefront.NewSession(store, log.Named("session"))

	timeout, _ := cfg.API.TimeoutDuration()
	client, err := api.New(cfg.API.BaseURL,
		api.WithHTTPClient(&http.Client{Timeout: timeout}),
		api.WithTokenSource(a.session.Token),
		api.WithLogger(log.Named("api")),
		api.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst),
		api.WithUserAgent(cfg.API.UserAgent),
	)
	if err != nil {
		return err
	}
	a.client = client
	a.session.Bind(client)

	if err := a.session.Restore(ctx); err != nil {
		log.Warn("saved session not restored", zap.Error(err))
		if errors.Is(err, storefront.ErrSealedToken) {
			fmt.Fprintf(a.out, "Warning: the saved login is sealed; set %s to use it.\n", config.EnvStateKey)
		}
	}
	a.log.Debug("ready", zap.String("api", client.BaseURL()), zap.String("state", cfg.State.Path))
	return nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("close local state", zap.Error(err))
		}
		a.store = nil
	}
	_ = a.log.Sync()
}

func (a *app) scanner() *bufio.Scanner {
	if a.sc == nil {
		a.sc = bufio.NewScanner(a.in)
	}
	return a.sc
}

// prompt prints label and reads one trimmed line. ok is false at end of
// input.
func (a *app) prompt(label string) (string, bool) {
	fmt.Fprint(a.out, label)
	sc := a.scanner()
	if !sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sc.Text()), true
}

// readPassword reads without echo from a terminal, or a plain line otherwise.
func (a *app) readPassword(label string) (string, error) {
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.out, label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, ok := a.prompt(label)
	if !ok {
		return "", io.ErrUnexpectedEOF
	}
	return line, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "shop",
		Short: "Bookstore storefront client",
		Long: `shop browses the bookstore catalog, manages your cart and favorites,
and places orders against the bookstore backend.

Run without arguments to start the interactive shell.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return newShell(a).run(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	pf.StringVar(&a.flags.apiURL, "api-url", "", "backend base URL, e.g. http://localhost:8080/api")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug logging")
	pf.DurationVar(&a.flags.timeout, "timeout", 0, "per-request timeout (default from config)")

	root.AddCommand(
		newBooksCmd(a),
		newBookCmd(a),
		newCartCmd(a),
		newCollectionsCmd(a),
		newOrdersCmd(a),
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newProfileCmd(a),
		newUploadCmd(a),
	)
	return root
}

func main() {
	a := newApp(os.Stdin, os.Stdout)
	root := newRootCmd(a)
	if err := root.ExecuteContext(context.Background()); err != nil {
		a.close()
		fmt.Fprintf(os.Stderr, "Error: %s\n", userMessage(err))
		os.Exit(1)
	}
}
