// Command import_cart adds books to the signed-in user's cart from a list.
//
// Each input line is "book_id" or "book_id,count". Blank lines and lines
// starting with # are skipped. Repeated book IDs are merged.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bookstore-cli/api"
	"bookstore-cli/internal/config"
	"bookstore-cli/internal/logging"
	"bookstore-cli/model"
	"bookstore-cli/storefront"
)

// CartService is the part of the API the importer needs.
type CartService interface {
	AddToCart(ctx context.Context, bookID int64, count int) error
	GetCart(ctx context.Context, onlySelected bool) ([]model.CartItem, error)
}

type entry struct {
	line   int
	bookID int64
	count  int
}

type result struct {
	imported int
	failed   int
}

// parseEntries reads the import list. Malformed lines are reported to w and
// counted as errors.
func parseEntries(r io.Reader, w io.Writer) ([]entry, int, error) {
	var entries []entry
	index := make(map[int64]int)
	bad := 0

	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) > 2 {
			fmt.Fprintf(w, "Line %d: ERROR - want book_id[,count], got %q\n", n, line)
			bad++
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil || id <= 0 {
			fmt.Fprintf(w, "Line %d: ERROR - invalid book ID %q\n", n, parts[0])
			bad++
			continue
		}
		count := 1
		if len(parts) == 2 {
			if count, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
				fmt.Fprintf(w, "Line %d: ERROR - invalid count %q\n", n, parts[1])
				bad++
				continue
			}
		}
		if i, ok := index[id]; ok {
			entries[i].count += count
			continue
		}
		index[id] = len(entries)
		entries = append(entries, entry{line: n, bookID: id, count: count})
	}
	return entries, bad, sc.Err()
}

func importCart(ctx context.Context, svc CartService, r io.Reader, w io.Writer) (result, error) {
	entries, bad, err := parseEntries(r, w)
	if err != nil {
		return result{}, fmt.Errorf("read import list: %w", err)
	}
	res := result{failed: bad}

	for _, e := range entries {
		count := model.ClampQuantity(e.count, 0)
		fmt.Fprintf(w, "Adding book %d x %d... ", e.bookID, count)
		if err := svc.AddToCart(ctx, e.bookID, count); err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(w, "cancelled")
				return res, err
			}
			fmt.Fprintf(w, "ERROR - %v\n", err)
			res.failed++
			continue
		}
		fmt.Fprintln(w, "SUCCESS")
		res.imported++
	}

	fmt.Fprintf(w, "\nImport complete!\n")
	fmt.Fprintf(w, "Successfully added: %d books\n", res.imported)
	fmt.Fprintf(w, "Errors: %d\n", res.failed)

	if res.imported > 0 {
		items, err := svc.GetCart(ctx, false)
		if err != nil {
			fmt.Fprintf(w, "Error retrieving cart: %v\n", err)
			return res, nil
		}
		fmt.Fprintln(w, "\nCart now holds:")
		fmt.Fprintf(w, "%-6s %-40s %-20s %5s\n", "Item", "Title", "Author", "Qty")
		fmt.Fprintln(w, strings.Repeat("-", 74))
		for _, it := range items {
			fmt.Fprintf(w, "%-6d %-40s %-20s %5d\n", it.ID, truncateString(it.Title, 40), truncateString(it.Author, 20), it.Quantity)
		}
	}
	return res, nil
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

func newRootCmd() *cobra.Command {
	var configPath, apiURL string
	var verbose bool

	cmd := &cobra.Command{
		Use:           "import_cart [file]",
		Short:         "Add books to your cart from a list (reads stdin without a file)",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = config.DefaultPath()
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.API.BaseURL = apiURL
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			log, err := logging.New(cfg.Logging, verbose)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open import list: %w", err)
				}
				defer f.Close()
				in = f
			}

			var storeOpts []storefront.StoreOption
			if cfg.State.Passphrase != "" {
				storeOpts = append(storeOpts, storefront.WithPassphrase(cfg.State.Passphrase))
			}
			store, err := storefront.OpenStore(cfg.State.Path, storeOpts...)
			if err != nil {
				return fmt.Errorf("open local state: %w", err)
			}
			defer store.Close()

			sess := storefront.NewSession(store, log.Named("session"))
			timeout, _ := cfg.API.TimeoutDuration()
			client, err := api.New(cfg.API.BaseURL,
				api.WithHTTPClient(&http.Client{Timeout: timeout}),
				api.WithTokenSource(sess.Token),
				api.WithLogger(log.Named("api")),
				api.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst),
				api.WithUserAgent(cfg.API.UserAgent),
			)
			if err != nil {
				return err
			}
			sess.Bind(client)
			if err := sess.Restore(cmd.Context()); err != nil {
				log.Warn("saved session not restored", zap.Error(err))
			}
			if err := sess.RequireLogin(); err != nil {
				return fmt.Errorf("%w (run shop login first)", err)
			}

			res, err := importCart(cmd.Context(), client, in, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if res.failed > 0 {
				return fmt.Errorf("%d line(s) failed", res.failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "config file")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "backend base URL")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
