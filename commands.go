package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bookstore-cli/model"
	"bookstore-cli/storefront"
)

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %s", what, s)
	}
	return id, nil
}

func parseIDs(args []string, what string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, s := range args {
		id, err := parseID(s, what)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (a *app) pageOpts() []storefront.PageOption {
	return []storefront.PageOption{storefront.WithPageLogger(a.log.Named("page"))}
}

// printResults shows the current catalog page with its position.
func (a *app) printResults(p *storefront.CatalogPage) {
	res := p.Results()
	printBooks(a.out, res.Books)
	if len(res.Books) > 0 {
		fmt.Fprintf(a.out, "\nPage %d of %d (%d books)\n", p.Query().Page, p.TotalPages(), res.Total)
	}
}

func (a *app) search(ctx context.Context, q model.BookQuery) (*storefront.CatalogPage, error) {
	p := storefront.NewCatalogPage(a.client)
	if err := p.Search(ctx, q); err != nil {
		return nil, err
	}
	a.printResults(p)
	return p, nil
}

func (a *app) shelf(ctx context.Context, sort model.SortOption, page, size int) error {
	fetch := a.client.NewBooks
	title := "New arrivals"
	if sort == model.SortHot {
		fetch, title = a.client.HotBooks, "Bestsellers"
	}
	res, err := fetch(ctx, page, size)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\n\n", title)
	printBooks(a.out, res.Books)
	return nil
}

func (a *app) showBook(ctx context.Context, id int64) (*storefront.BookPage, error) {
	p := storefront.NewBookPage(a.client, a.pageOpts()...)
	if err := p.Load(ctx, id); err != nil {
		return nil, err
	}
	printBookDetail(a.out, p)
	return p, nil
}

type queryFlags struct {
	categories []string
	sort       string
	min, max   float64
	score      int
	page, size int
}

func (f *queryFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringSliceVar(&f.categories, "category", nil, "category filter, repeatable")
	fl.StringVar(&f.sort, "sort", "relevance", "relevance, sales_desc, sales_asc, price_desc, price_asc, new or hot")
	fl.Float64Var(&f.min, "min", 0, "minimum price")
	fl.Float64Var(&f.max, "max", 0, "maximum price")
	fl.IntVar(&f.score, "score", 0, "minimum rating (2-5)")
	fl.IntVar(&f.page, "page", 1, "page number")
	fl.IntVar(&f.size, "size", model.DefaultPageSize, "page size")
}

func (f *queryFlags) query(keyword string) (model.BookQuery, error) {
	sort, ok := model.ParseSortOption(f.sort)
	if !ok {
		return model.BookQuery{}, fmt.Errorf("unknown sort %q", f.sort)
	}
	return model.BookQuery{
		Page:       f.page,
		Size:       f.size,
		Keyword:    keyword,
		Sort:       sort,
		Categories: f.categories,
		MinPrice:   f.min,
		MaxPrice:   f.max,
		ScoreMin:   f.score,
	}, nil
}

func newBooksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Browse the catalog",
	}

	var lf queryFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List books, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := lf.query("")
			if err != nil {
				return err
			}
			_, err = a.search(cmd.Context(), q)
			return err
		},
	}
	lf.register(list)

	var sf queryFlags
	search := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search books by title or author",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := sf.query(strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, err = a.search(cmd.Context(), q)
			return err
		},
	}
	sf.register(search)

	shelf := func(use, short string, sort model.SortOption) *cobra.Command {
		var page, size int
		c := &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.shelf(cmd.Context(), sort, page, size)
			},
		}
		c.Flags().IntVar(&page, "page", 1, "page number")
		c.Flags().IntVar(&size, "size", 10, "page size")
		return c
	}

	cmd.AddCommand(list, search,
		shelf("new", "Newest books", model.SortNew),
		shelf("hot", "Best-selling books", model.SortHot),
	)
	return cmd
}

func newBookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book details",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <book-id>",
		Short: "Show a book with its reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "book ID")
			if err != nil {
				return err
			}
			_, err = a.showBook(cmd.Context(), id)
			return err
		},
	})
	return cmd
}
