package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"bookstore-cli/api"
	"bookstore-cli/model"
	"bookstore-cli/storefront"
)

// userMessage turns an error into the one line shown after "Error: ".
func userMessage(err error) string {
	var verr *storefront.ValidationError
	var be *storefront.BatchError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &be):
		return be.Summary()
	case errors.Is(err, storefront.ErrBackToCart):
		return storefront.ErrBackToCart.Error()
	case api.IsUnauthorized(err):
		return "please log in first"
	}
	return err.Error()
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %s\n", userMessage(err))
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

func priceCell(price float64, discount *float64) string {
	if discount == nil {
		return model.FormatMoney(price)
	}
	return fmt.Sprintf("%s (was %s)", model.FormatMoney(*discount), model.FormatMoney(price))
}

func printBooks(w io.Writer, books []model.BookSummary) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books found.")
		return
	}
	fmt.Fprintf(w, "%-5s %-36s %-20s %-24s %s\n", "ID", "Title", "Author", "Price", "Rating")
	fmt.Fprintln(w, strings.Repeat("-", 95))
	for _, b := range books {
		rating := "-"
		if b.Rating != nil {
			rating = fmt.Sprintf("%.1f", *b.Rating)
		}
		title := b.Title
		if b.FeatureLabel != "" {
			title = "[" + b.FeatureLabel + "] " + title
		}
		fmt.Fprintf(w, "%-5d %-36s %-20s %-24s %s\n",
			b.ID, truncateString(title, 36), truncateString(b.Author, 20), priceCell(b.Price, b.DiscountPrice), rating)
	}
}

func printBookDetail(w io.Writer, p *storefront.BookPage) {
	d := p.Detail()
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "%s by %s\n", d.Title, d.Author)
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "Price:     %s\n", priceCell(d.Price, d.DiscountPrice))
	if d.Rating != nil {
		fmt.Fprintf(w, "Rating:    %.1f\n", *d.Rating)
	}
	if d.Publisher != "" {
		fmt.Fprintf(w, "Publisher: %s\n", d.Publisher)
	}
	if d.ISBN != "" {
		fmt.Fprintf(w, "ISBN:      %s\n", d.ISBN)
	}
	if d.Stock > 0 {
		fmt.Fprintf(w, "Stock:     %d\n", d.Stock)
	}
	fav := "no"
	if d.Favorited {
		fav = "yes"
	}
	fmt.Fprintf(w, "Favorite:  %s\n", fav)

	if secs := p.Sections(); len(secs) > 0 {
		for _, s := range secs {
			fmt.Fprintf(w, "\n%s\n  %s\n", s.Title, strings.ReplaceAll(s.Body, "\n", "\n  "))
		}
	} else if d.Description != "" {
		fmt.Fprintf(w, "\n%s\n", d.Description)
	}

	comments := p.Comments()
	fmt.Fprintf(w, "\nReviews (%d)\n", len(comments))
	if len(comments) == 0 {
		fmt.Fprintln(w, "  No reviews yet.")
		return
	}
	dist := p.Distribution()
	for star := 5; star >= 1; star-- {
		pct := dist.Stars(star)
		fmt.Fprintf(w, "  %d★ %-20s %5.1f%%\n", star, strings.Repeat("█", int(pct/5+0.5)), pct)
	}
	for _, c := range comments {
		fmt.Fprintf(w, "  %s %s: %s\n", strings.Repeat("★", min(max(c.Rating, 0), 5)), c.UserName, truncateString(c.Content, 70))
	}
}

func printCart(w io.Writer, items []model.CartItem, sum storefront.CartSummary) {
	if sum.Empty {
		fmt.Fprintln(w, "Your cart is empty.")
		return
	}
	fmt.Fprintf(w, "%-5s %-3s %-32s %-24s %-4s %s\n", "Item", "Sel", "Title", "Price", "Qty", "Total")
	fmt.Fprintln(w, strings.Repeat("-", 85))
	for _, it := range items {
		sel := "[ ]"
		if it.Selected {
			sel = "[x]"
		}
		fmt.Fprintf(w, "%-5d %-3s %-32s %-24s %-4d %s\n",
			it.ID, sel, truncateString(it.Title, 32), priceCell(it.Price, it.DiscountPrice), it.Quantity, model.FormatMoney(it.LineTotal()))
	}
	fmt.Fprintf(w, "\n%d of %d selected, subtotal %s\n", sum.SelectedCount, sum.Count, model.FormatMoney(sum.Subtotal))
}

func printCollections(w io.Writer, items []model.CollectionItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No favorites yet.")
		return
	}
	fmt.Fprintf(w, "%-5s %-36s %-20s %-10s %s\n", "Book", "Title", "Author", "Price", "Saved")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, it := range items {
		price := "-"
		if it.Price != nil {
			price = model.FormatMoney(*it.Price)
		}
		saved := it.CollectedAtRaw
		if !it.CollectedAt.IsZero() {
			saved = it.CollectedAt.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%-5d %-36s %-20s %-10s %s\n", it.BookID, truncateString(it.Title, 36), truncateString(it.Author, 20), price, saved)
	}
}

func printOrders(w io.Writer, orders []model.OrderSummary) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "No orders.")
		return
	}
	fmt.Fprintf(w, "%-20s %-12s %-12s %s\n", "Order", "Status", "Total", "Placed")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, o := range orders {
		placed := ""
		if !o.CreatedAt.IsZero() {
			placed = o.CreatedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%-20s %-12s %-12s %s\n", o.OrderNo, o.PaymentStatus, model.FormatMoney(o.TotalAmount), placed)
	}
}

func printOrder(w io.Writer, o model.OrderDetail) {
	fmt.Fprintf(w, "Order %s (%s)\n", o.OrderNo, o.PaymentStatus)
	fmt.Fprintf(w, "Ship to: %s, %s, %s\n", o.Receiver, o.Phone, o.ShippingAddress)
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, l := range o.Items {
		fmt.Fprintf(w, "%-40s %-10s x %d\n", truncateString(l.Title, 40), model.FormatMoney(l.Price), l.Quantity)
	}
	fmt.Fprintf(w, "Total: %s\n", model.FormatMoney(o.TotalAmount))
}

func printUser(w io.Writer, u model.User) {
	fmt.Fprintf(w, "%s <%s> (ID: %d)\n", u.Username, u.Email, u.ID)
	if u.AvatarURL != "" {
		fmt.Fprintf(w, "Avatar: %s\n", u.AvatarURL)
	}
}

func printLines(w io.Writer, lines []model.CheckoutLine) {
	for _, l := range lines {
		fmt.Fprintf(w, "  book %d x %d\n", l.BookID, l.Quantity)
	}
}
