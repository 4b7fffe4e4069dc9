package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bookstore-cli/model"
	"bookstore-cli/storefront"
)

type shell struct {
	*app
}

func newShell(a *app) *shell {
	return &shell{app: a}
}

func (s *shell) banner() {
	fmt.Fprintln(s.out, "Welcome to the bookstore!")
	if u, ok := s.session.User(); ok {
		fmt.Fprintf(s.out, "Logged in as %s.\n", u.Username)
	}
	s.help()
}

func (s *shell) help() {
	fmt.Fprintln(s.out, "Available commands:")
	fmt.Fprintln(s.out, "  Catalog: search [keyword], new, hot, book <id>")
	fmt.Fprintln(s.out, "  Cart: cart, add <book id> [count], checkout")
	fmt.Fprintln(s.out, "  Favorites: favorites, favorite <book id>, unfavorite <book id>")
	fmt.Fprintln(s.out, "  Orders: orders [pending|paid|completed|cancelled], order <no>, cancel <no>")
	fmt.Fprintln(s.out, "  Account: login, register, logout, whoami")
	fmt.Fprintln(s.out, "  System: help, exit")
}

func (s *shell) run(ctx context.Context) error {
	s.banner()
	for {
		label := "\n> "
		if n := s.session.CartCount(); n > 0 {
			label = fmt.Sprintf("\n[cart %d]> ", n)
		}
		line, ok := s.prompt(label)
		if !ok {
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := strings.ToLower(fields[0]), fields[1:]
		if cmd == "exit" || cmd == "quit" {
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		}
		if err := s.dispatch(ctx, cmd, args); err != nil {
			printError(s.out, err)
		}
	}
}

func (s *shell) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help", "?":
		s.help()
	case "search", "books":
		return s.handleSearch(ctx, strings.Join(args, " "))
	case "new":
		return s.shelf(ctx, model.SortNew, 1, 10)
	case "hot":
		return s.shelf(ctx, model.SortHot, 1, 10)
	case "book":
		id, err := s.idArg(args, "book ID")
		if err != nil {
			return err
		}
		return s.handleBook(ctx, id)
	case "cart":
		return s.withLogin(func() error { return s.handleCart(ctx) })
	case "add":
		return s.withLogin(func() error {
			id, err := s.idArg(args, "book ID")
			if err != nil {
				return err
			}
			count := 1
			if len(args) > 1 {
				if count, err = strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("invalid count: %s", args[1])
				}
			}
			return s.addToCart(ctx, id, count)
		})
	case "checkout":
		return s.withLogin(func() error {
			p, err := s.loadCart(ctx)
			if err != nil {
				return err
			}
			return s.checkoutCart(ctx, p, storefront.ShippingForm{})
		})
	case "favorites", "collections":
		return s.withLogin(func() error { return s.handleFavorites(ctx) })
	case "favorite", "unfavorite":
		return s.withLogin(func() error {
			id, err := s.idArg(args, "book ID")
			if err != nil {
				return err
			}
			if cmd == "favorite" {
				err = s.client.AddCollection(ctx, id)
			} else {
				err = s.client.RemoveCollection(ctx, id)
			}
			if err == nil {
				fmt.Fprintln(s.out, "Favorites updated.")
			}
			return err
		})
	case "orders":
		return s.withLogin(func() error {
			var status *int
			if len(args) > 0 {
				st, err := parseOrderStatus(args[0])
				if err != nil {
					return err
				}
				status = st
			}
			return s.listOrders(ctx, status, 1, 20)
		})
	case "order", "cancel":
		return s.withLogin(func() error {
			if len(args) == 0 {
				return fmt.Errorf("usage: %s <order no>", cmd)
			}
			if cmd == "cancel" {
				return s.cancelOrder(ctx, args[0])
			}
			return s.showOrder(ctx, args[0])
		})
	case "login":
		account := ""
		if len(args) > 0 {
			account = args[0]
		}
		return s.login(ctx, account)
	case "register":
		return s.register(ctx, storefront.RegisterForm{})
	case "logout":
		if err := s.session.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Logged out.")
	case "whoami":
		return s.whoami(ctx)
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' to see the available commands.")
	}
	return nil
}

func (s *shell) withLogin(fn func() error) error {
	if err := s.session.RequireLogin(); err != nil {
		return err
	}
	return fn()
}

func (s *shell) idArg(args []string, what string) (int64, error) {
	if len(args) == 0 {
		line, ok := s.prompt(what + ": ")
		if !ok {
			return 0, errors.New("cancelled")
		}
		return parseID(line, what)
	}
	return parseID(args[0], what)
}

// handleSearch pages through results. A book ID at the prompt opens it.
func (s *shell) handleSearch(ctx context.Context, keyword string) error {
	p, err := s.search(ctx, model.BookQuery{Keyword: keyword})
	if err != nil {
		return err
	}
	for {
		if len(p.Results().Books) == 0 {
			return nil
		}
		line, ok := s.prompt("\n[n]ext, [p]rev, [g]oto page, book ID to open, [q]uit: ")
		if !ok {
			return nil
		}
		switch strings.ToLower(line) {
		case "n", "next":
			if err := p.Next(ctx); errors.Is(err, storefront.ErrNoMorePages) {
				fmt.Fprintln(s.out, "Already on the last page.")
				continue
			} else if err != nil {
				return err
			}
			s.printResults(p)
		case "p", "prev", "previous":
			if err := p.Prev(ctx); errors.Is(err, storefront.ErrNoMorePages) {
				fmt.Fprintln(s.out, "Already on the first page.")
				continue
			} else if err != nil {
				return err
			}
			s.printResults(p)
		case "g", "goto":
			raw, ok := s.prompt(fmt.Sprintf("Page (1-%d): ", p.TotalPages()))
			if !ok {
				return nil
			}
			n, err := strconv.Atoi(raw)
			if err != nil {
				fmt.Fprintf(s.out, "Invalid page number: %s\n", raw)
				continue
			}
			if err := p.Goto(ctx, n); errors.Is(err, storefront.ErrNoMorePages) {
				fmt.Fprintf(s.out, "Page must be between 1 and %d.\n", p.TotalPages())
				continue
			} else if err != nil {
				return err
			}
			s.printResults(p)
		case "q", "quit", "":
			return nil
		default:
			id, err := parseID(line, "book ID")
			if err != nil {
				fmt.Fprintln(s.out, "Invalid input. Use n, p, g, q or a book ID.")
				continue
			}
			if err := s.handleBook(ctx, id); err != nil {
				printError(s.out, err)
			}
			s.printResults(p)
		}
	}
}

func (s *shell) handleBook(ctx context.Context, id int64) error {
	p, err := s.showBook(ctx, id)
	if err != nil {
		return err
	}
	for {
		line, ok := s.prompt("\n[f]avorite, [a]dd to cart, [b]ack: ")
		if !ok {
			return nil
		}
		switch strings.ToLower(line) {
		case "f", "favorite":
			if err := s.session.RequireLogin(); err != nil {
				printError(s.out, err)
				continue
			}
			fav, err := p.ToggleFavorite(ctx)
			if err != nil {
				printError(s.out, err)
				continue
			}
			if fav {
				fmt.Fprintln(s.out, "Added to favorites.")
			} else {
				fmt.Fprintln(s.out, "Removed from favorites.")
			}
		case "a", "add":
			if err := s.session.RequireLogin(); err != nil {
				printError(s.out, err)
				continue
			}
			raw, ok := s.prompt("How many? [1]: ")
			if !ok {
				return nil
			}
			n := 1
			if raw != "" {
				if n, err = strconv.Atoi(raw); err != nil {
					fmt.Fprintf(s.out, "Invalid count: %s\n", raw)
					continue
				}
			}
			if err := p.AddToCart(ctx, n); err != nil {
				printError(s.out, err)
				continue
			}
			s.refreshCartCount(ctx)
			fmt.Fprintln(s.out, "Added to cart.")
		case "b", "back", "q", "":
			return nil
		default:
			fmt.Fprintln(s.out, "Use f, a or b.")
		}
	}
}

func (s *shell) cartHelp() {
	fmt.Fprintln(s.out, "Cart commands: sel <item>, all, none, qty <item> <n>, + <item>, - <item>,")
	fmt.Fprintln(s.out, "  rm <item>, rm selected, reload, checkout, back")
}

// handleCart is the cart sub-shell. Every change is applied locally at once
// and rolled back if the backend refuses it.
func (s *shell) handleCart(ctx context.Context) error {
	p, err := s.loadCart(ctx)
	if err != nil {
		return err
	}
	s.showCart(p)
	s.cartHelp()
	for {
		line, ok := s.prompt("\ncart> ")
		if !ok {
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		op, args := strings.ToLower(fields[0]), fields[1:]
		if op == "back" || op == "b" || op == "q" {
			return nil
		}
		if op == "checkout" {
			return s.checkoutCart(ctx, p, storefront.ShippingForm{})
		}
		if err := s.cartOp(ctx, p, op, args); err != nil {
			printError(s.out, err)
		}
		s.session.SetCartCount(len(p.Items()))
		s.showCart(p)
	}
}

func (s *shell) cartOp(ctx context.Context, p *storefront.CartPage, op string, args []string) error {
	item := func() (int64, error) {
		if len(args) == 0 {
			return 0, fmt.Errorf("usage: %s <item id>", op)
		}
		return parseID(args[0], "item ID")
	}
	switch op {
	case "sel", "s", "toggle":
		id, err := item()
		if err != nil {
			return err
		}
		return p.Toggle(ctx, id)
	case "all":
		return p.SelectAll(ctx, true)
	case "none":
		return p.SelectAll(ctx, false)
	case "+", "-":
		id, err := item()
		if err != nil {
			return err
		}
		if op == "+" {
			return p.Increment(ctx, id)
		}
		return p.Decrement(ctx, id)
	case "qty":
		id, err := item()
		if err != nil {
			return err
		}
		if len(args) < 2 {
			return errors.New("usage: qty <item id> <count>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid count: %s", args[1])
		}
		return p.SetQuantity(ctx, id, n)
	case "rm", "remove":
		if len(args) > 0 && args[0] == "selected" {
			return p.RemoveSelected(ctx)
		}
		id, err := item()
		if err != nil {
			return err
		}
		return p.Remove(ctx, id)
	case "reload", "r":
		return p.Load(ctx)
	case "help":
		s.cartHelp()
		return nil
	}
	return fmt.Errorf("unknown cart command %q", op)
}

func (s *shell) handleFavorites(ctx context.Context) error {
	p := storefront.NewCollectionsPage(s.client, s.pageOpts()...)
	if err := p.Load(ctx); err != nil {
		return err
	}
	printCollections(s.out, p.Items())
	for {
		if p.Len() == 0 {
			return nil
		}
		line, ok := s.prompt("\nrm <book id...>, clear, back: ")
		if !ok {
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] == "back" || fields[0] == "b" {
			return nil
		}
		var err error
		switch fields[0] {
		case "rm", "remove":
			var ids []int64
			if ids, err = parseIDs(fields[1:], "book ID"); err == nil {
				err = p.RemoveMany(ctx, ids)
			}
		case "clear":
			err = p.Clear(ctx)
		default:
			err = fmt.Errorf("unknown command %q", fields[0])
		}
		if err != nil {
			printError(s.out, err)
		}
		printCollections(s.out, p.Items())
	}
}
