package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bookstore-cli/model"
	"bookstore-cli/storefront"
	"bookstore-cli/tui"
)

// requireLogin wraps a RunE so it fails fast when signed out.
func (a *app) requireLogin(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.session.RequireLogin(); err != nil {
			return err
		}
		return run(cmd, args)
	}
}

func (a *app) loadCart(ctx context.Context) (*storefront.CartPage, error) {
	p := storefront.NewCartPage(a.client, a.pageOpts()...)
	err := p.Load(ctx)
	a.session.SetCartCount(len(p.Items()))
	return p, err
}

func (a *app) showCart(p *storefront.CartPage) {
	printCart(a.out, p.Items(), p.Summary())
}

func (a *app) addToCart(ctx context.Context, bookID int64, count int) error {
	count = model.ClampQuantity(count, 0)
	if err := a.client.AddToCart(ctx, bookID, count); err != nil {
		return err
	}
	a.refreshCartCount(ctx)
	fmt.Fprintf(a.out, "Added book %d x %d to your cart.\n", bookID, count)
	return nil
}

// refreshCartCount recounts cart rows after an add, since the backend merges
// a repeated book into its existing row. The count is left alone on failure.
func (a *app) refreshCartCount(ctx context.Context) {
	items, err := a.client.GetCart(ctx, false)
	if err != nil {
		a.log.Debug("cart count not refreshed", zap.Error(err))
		return
	}
	a.session.SetCartCount(len(items))
}

// placeOrder checks out the persisted selection. Missing shipping fields
// are asked for.
func (a *app) placeOrder(ctx context.Context, form storefront.ShippingForm) error {
	cp := storefront.NewCheckoutPage(a.client, a.pageOpts()...)
	lines, err := cp.Open(a.store)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Checking out %d item(s):\n", len(lines))
	printLines(a.out, lines)

	ask := func(v *string, label string) bool {
		if *v != "" {
			return true
		}
		line, ok := a.prompt(label)
		*v = line
		return ok
	}
	if !ask(&form.Receiver, "Receiver: ") || !ask(&form.Phone, "Phone: ") || !ask(&form.Address, "Address: ") {
		return errors.New("checkout cancelled")
	}

	conf, err := cp.Submit(ctx, form)
	if err != nil {
		return err
	}
	a.session.SetCartCount(a.session.CartCount() - len(lines))
	fmt.Fprintf(a.out, "Order %s placed, total %s.\n", conf.OrderNo, model.FormatMoney(conf.TotalAmount))
	return nil
}

func (a *app) checkoutCart(ctx context.Context, p *storefront.CartPage, form storefront.ShippingForm) error {
	if _, err := p.Checkout(a.store); err != nil {
		return err
	}
	return a.placeOrder(ctx, form)
}

func newCartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "View and change your cart",
	}

	var onlySelected bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: a.requireLogin(func(cmd *cobra.Command, args []string) error {
			if onlySelected {
				items, err := a.client.GetCart(cmd.Context(), true)
				if err != nil {
					return err
				}
				sum := storefront.CartSummary{Count: len(items), SelectedCount: len(items), Subtotal: model.Subtotal(items), Empty: len(items) == 0}
				printCart(a.out, items, sum)
				return nil
			}
			p, err := a.loadCart(cmd.Context())
			if err != nil {
				return err
			}
			a.showCart(p)
			return nil
		}),
	}
	show.Flags().BoolVar(&onlySelected, "selected", false, "only items selected for checkout")

	add := &cobra.Command{
		Use:   "add <book-id> [count]",
		Short: "Add a book to the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: a.requireLogin(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "book ID")
			if err != nil {
				return err
			}
			count := 1
			if len(args) == 2 {
				if count, err = strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("invalid count: %s", args[1])
				}
			}
			return a.addToCart(cmd.Context(), id, count)
		}),
	}

	edit := &cobra.Command{
		Use:   "edit",
		Short: "Edit the cart full-screen",
		Args:  cobra.NoArgs,
		RunE: a.requireLogin(func(cmd *cobra.Command, args []string) error {
			p := storefront.NewCartPage(a.client, a.pageOpts()...)
			lines, err := tui.RunCart(cmd.Context(), p, a.store)
			a.session.SetCartCount(len(p.Items()))
			if err != nil || lines == nil {
				return err
			}
			return a.placeOrder(cmd.Context(), storefront.ShippingForm{})
		}),
	}

	var deselect, all bool
	sel := &cobra.Command{
		Use:   "select [item-id...]",
		Short: "Select items for checkout",
		RunE: a.requireLogin(func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("give item IDs or --all")
			}
			ids, err := parseIDs(args, "item ID")
			if err != nil {
				return err
			}
			p, err := a.loadCart(cmd.Context())
			if err != nil {
				return err
			}
			if all {
				err = p.SelectAll(cmd.Context(), !deselect)
			} else {
				for _, id := range ids {
					if err = p.SetSelected(cmd.Context(), id, !deselect); err != nil {
						break
					}
				}
			}
			a.showCart(p)
			return err
		}),
	}
	sel.Flags().BoolVar(&all, "all", false, "every item")
	sel.Flags().BoolVar(&deselect, "off", false, "deselect instead")

	qty := &cobra.Command{
		Use:   "qty <item-id> <count>",
		Short: "Change an item's quantity",
		Args:  cobra.ExactArgs(2),
		RunE: a.requireLogin(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "item ID")
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid count: %s", args[1])
			}
			p, err := a.loadCart(cmd.Context())
			if err != nil {
				return err
			}
			err = p.SetQuantity(cmd.Context(), id, n)
			a.showCart(p)
			return err
		}),
	}

	var removeSelected bool
	remove := &cobra.Command{
		Use:   "remove [item-id...]",
		Short: "Remove items from the cart",
		RunE: a.requireLogin(func(cmd *cobra.Command, args []string) error {
			if !removeSelected && len(args) == 0 {
				return errors.New("give item IDs or --selected")
			}
			ids, err := parseIDs(args, "item ID")
			if err != nil {
				return err
			}
			p, err := a.loadCart(cmd.Context())
			if err != nil {
				return err
			}
			if removeSelected {
				err = p.RemoveSelected(cmd.Context())
			} else {
				for _, id := range ids {
					if err = p.Remove(cmd.Context(), id); err != nil {
						break
					}
				}
			}
			a.session.SetCartCount(len(p.Items()))
			a.showCart(p)
			return err
		}),
	}
	remove.Flags().BoolVar(&removeSelected, "selected", false, "remove every selected item")

	var form storefront.ShippingForm
	checkout := &cobra.Command{
		Use:   "checkout",
		Short: "Order the selected items",
		Args:  cobra.NoArgs,
		RunE: a.requireLogin(func(cmd *cobra.Command, args []string) error {
			p, err := a.loadCart(cmd.Context())
			if err != nil {
				return err
			}
			return a.checkoutCart(cmd.Context(), p, form)
		}),
	}
	checkout.Flags().StringVar(&form.Receiver, "receiver", "", "receiver name")
	checkout.Flags().StringVar(&form.Phone, "phone", "", "receiver mobile number")
	checkout.Flags().StringVar(&form.Address, "address", "", "shipping address")

	cmd.AddCommand(show, add, edit, sel, qty, remove, checkout)
	return cmd
}

func newCollectionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"favorites"},
		Short:   "Your favorite books",
	}
	load := func(ctx context.Context) (*storefront.CollectionsPage, error) {
		p := storefront.NewCollectionsPage(a.client, a.pageOpts()...)
		return p, p.Load(ctx)
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List favorites, newest first",
		Args:  cobra.NoArgs,
		RunE: a.requireLogin(func(cmd *cobra.Command, args []string) error {
			p, err := load(cmd.Context())
			if err != nil {
				return err
			}
			printCollections(a.out, p.Items())
			return nil
		}),
	}
	add := &cobra.Command{
		Use:   "add <book-id>",
		Short: "Add a book to favorites",
		Args:  cobra.ExactArgs(1),
		RunE: a.requireLogin(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "book ID")
			if err != nil {
				return err
			}
			if err := a.client.AddCollection(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Book %d added to favorites.\n", id)
			return nil
		}),
	}
	remove := &cobra.Command{
		Use:   "remove <book-id...>",
		Short: "Remove books from favorites",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.requireLogin(func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args, "book ID")
			if err != nil {
				return err
			}
			p, err := load(cmd.Context())
			if err != nil {
				return err
			}
			if len(ids) == 1 {
				err = p.Remove(cmd.Context(), ids[0])
			} else {
				err = p.RemoveMany(cmd.Context(), ids)
			}
			printCollections(a.out, p.Items())
			return err
		}),
	}
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every favorite",
		Args:  cobra.NoArgs,
		RunE: a.requireLogin(func(cmd *cobra.Command, args []string) error {
			p, err := load(cmd.Context())
			if err != nil {
				return err
			}
			n := p.Len()
			if err := p.Clear(cmd.Context()); err != nil {
				printCollections(a.out, p.Items())
				return err
			}
			fmt.Fprintf(a.out, "Removed %d favorite(s).\n", n)
			return nil
		}),
	}

	cmd.AddCommand(list, add, remove, clearCmd)
	return cmd
}
