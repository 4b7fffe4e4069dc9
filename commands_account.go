package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bookstore-cli/api"
	"bookstore-cli/model"
	"bookstore-cli/storefront"
)

var orderStatuses = map[string]int{
	"pending":   model.OrderStatusPending,
	"paid":      model.OrderStatusPaid,
	"completed": model.OrderStatusCompleted,
	"cancelled": model.OrderStatusCancelled,
}

func parseOrderStatus(s string) (*int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "all" {
		return nil, nil
	}
	st, ok := orderStatuses[s]
	if !ok {
		return nil, fmt.Errorf("unknown order status %q (want pending, paid, completed or cancelled)", s)
	}
	return &st, nil
}

func (a *app) listOrders(ctx context.Context, status *int, page, size int) error {
	res, err := a.client.ListOrders(ctx, page, size, status)
	if err != nil {
		return err
	}
	printOrders(a.out, res.Orders)
	return nil
}

func (a *app) showOrder(ctx context.Context, no string) error {
	o, err := a.client.GetOrder(ctx, no)
	if err != nil {
		return err
	}
	printOrder(a.out, o)
	return nil
}

func (a *app) cancelOrder(ctx context.Context, no string) error {
	if err := a.client.CancelOrder(ctx, no); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order %s cancelled.\n", no)
	return nil
}

func (a *app) login(ctx context.Context, account string) error {
	if account == "" {
		var ok bool
		if account, ok = a.prompt("Username or email: "); !ok {
			return errors.New("login cancelled")
		}
	}
	password, err := a.readPassword("Password: ")
	if err != nil {
		return err
	}
	u, err := a.session.Login(ctx, storefront.LoginForm{Account: account, Password: password})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s.\n", u.Username)
	if _, err := a.loadCart(ctx); err == nil && a.session.CartCount() > 0 {
		fmt.Fprintf(a.out, "You have %d item(s) in your cart.\n", a.session.CartCount())
	}
	return nil
}

func (a *app) register(ctx context.Context, form storefront.RegisterForm) error {
	ask := func(v *string, label string) bool {
		if *v != "" {
			return true
		}
		line, ok := a.prompt(label)
		*v = line
		return ok
	}
	if !ask(&form.Username, "Username: ") || !ask(&form.Email, "Email: ") {
		return errors.New("registration cancelled")
	}
	var err error
	if form.Password, err = a.readPassword("Password: "); err != nil {
		return err
	}
	if form.Confirm, err = a.readPassword("Confirm password: "); err != nil {
		return err
	}
	u, err := a.session.Register(ctx, form)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s. You can now log in.\n", u.Username)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if !a.session.LoggedIn() {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	u, err := a.client.Me(ctx)
	if err != nil {
		if api.IsTransport(err) {
			if cached, ok := a.session.User(); ok {
				fmt.Fprintln(a.out, "Offline; showing the saved profile.")
				printUser(a.out, cached)
				return nil
			}
		}
		return err
	}
	a.session.UpdateUser(u)
	printUser(a.out, u)
	return nil
}

// updateProfile uploads a new avatar first when one is given, then saves
// the profile.
func (a *app) updateProfile(ctx context.Context, username, avatarPath string) error {
	var upd model.ProfileUpdate
	if username = strings.TrimSpace(username); username != "" {
		upd.Username = &username
	}
	if avatarPath != "" {
		up, err := a.client.UploadImage(ctx, avatarPath, model.UploadAvatar)
		if err != nil {
			return err
		}
		upd.AvatarURL = &up.URL
	}
	if upd.Username == nil && upd.AvatarURL == nil {
		return errors.New("nothing to update: give --username or --avatar")
	}
	u, err := a.client.UpdateMe(ctx, upd)
	if err != nil {
		return err
	}
	a.session.UpdateUser(u)
	fmt.Fprintln(a.out, "Profile updated.")
	printUser(a.out, u)
	return nil
}

func newOrdersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Your orders",
	}

	var status string
	var page, size int
	list := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Args:  cobra.NoArgs,
		RunE: a.requireLogin(func(cmd *cobra.Command, args []string) error {
			st, err := parseOrderStatus(status)
			if err != nil {
				return err
			}
			return a.listOrders(cmd.Context(), st, page, size)
		}),
	}
	list.Flags().StringVar(&status, "status", "", "pending, paid, completed or cancelled")
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&size, "size", 10, "page size")

	show := &cobra.Command{
		Use:   "show <order-no>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: a.requireLogin(func(cmd *cobra.Command, args []string) error {
			return a.showOrder(cmd.Context(), args[0])
		}),
	}
	cancel := &cobra.Command{
		Use:   "cancel <order-no>",
		Short: "Cancel a pending order",
		Args:  cobra.ExactArgs(1),
		RunE: a.requireLogin(func(cmd *cobra.Command, args []string) error {
			return a.cancelOrder(cmd.Context(), args[0])
		}),
	}

	cmd.AddCommand(list, show, cancel)
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var form storefront.RegisterForm
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.register(cmd.Context(), form)
		},
	}
	cmd.Flags().StringVar(&form.Username, "username", "", "user name")
	cmd.Flags().StringVar(&form.Email, "email", "", "email address")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login [username-or-email]",
		Short: "Sign in",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account := ""
			if len(args) == 1 {
				account = args[0]
			}
			return a.login(cmd.Context(), account)
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.whoami(cmd.Context())
		},
	}
}

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Your profile",
	}
	var username, avatar string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change user name or avatar",
		Args:  cobra.NoArgs,
		RunE: a.requireLogin(func(cmd *cobra.Command, args []string) error {
			return a.updateProfile(cmd.Context(), username, avatar)
		}),
	}
	update.Flags().StringVar(&username, "username", "", "new user name")
	update.Flags().StringVar(&avatar, "avatar", "", "image file to use as avatar")
	cmd.AddCommand(update)
	return cmd
}

func newUploadCmd(a *app) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "upload <image>",
		Short: "Upload an image (jpeg, png, gif or webp, up to 5 MB)",
		Args:  cobra.ExactArgs(1),
		RunE: a.requireLogin(func(cmd *cobra.Command, args []string) error {
			up, err := a.client.UploadImage(cmd.Context(), args[0], kind)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Uploaded %s (%d bytes): %s\n", up.FileName, up.Size, up.URL)
			return nil
		}),
	}
	cmd.Flags().StringVar(&kind, "kind", model.UploadComment, "comment or avatar")
	return cmd
}
