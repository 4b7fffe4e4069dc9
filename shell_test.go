package main

import (
	"net/http"
	"strings"
	"testing"

	"bookstore-cli/internal/shoptest"
)

func TestShellBrowse(t *testing.T) {
	c := newTestCLI(t)
	out := c.mustRun([]string{
		"help",
		"search",
		"n",
		"3",
		"b",
		"q",
		"frobnicate",
		"exit",
	})
	assertContains(t, out,
		"Welcome to the bookstore!",
		"Available commands:",
		"Page 1 of 1",
		"Already on the last page.",
		"SICP by Abelson",
		"Unknown command.",
		"Goodbye!",
	)
}

func TestShellLoginAndFavorite(t *testing.T) {
	c := newTestCLI(t)
	out := c.mustRun([]string{
		"cart",
		"login alice",
		shoptest.Password,
		"book 2",
		"f",
		"a",
		"2",
		"b",
		"exit",
	})
	assertContains(t, out,
		"Error: please log in first",
		"Logged in as alice.",
		"Added to favorites.",
		"Added to cart.",
		"[cart 1]>",
	)
	if got := c.srv.Collected(); len(got) != 1 || got[0] != 2 {
		t.Fatalf("collected = %v", got)
	}
	if rows := c.srv.Cart(); len(rows) != 1 || rows[0].Count != 2 {
		t.Fatalf("cart = %+v", rows)
	}
}

func TestShellCartBadgeCountsRows(t *testing.T) {
	c := newTestCLI(t)
	c.login()
	out := c.mustRun([]string{
		"add 1",
		"add 1 2",
		"add 2",
		"exit",
	})
	if strings.Count(out, "[cart 1]>") != 2 || strings.Count(out, "[cart 2]>") != 1 || strings.Contains(out, "[cart 3]>") {
		t.Errorf("badge should count rows, not adds:\n%s", out)
	}
	if rows := c.srv.Cart(); len(rows) != 2 || rows[0].Count != 3 {
		t.Fatalf("cart = %+v", rows)
	}
}

func TestShellCartRollback(t *testing.T) {
	c := newTestCLI(t)
	c.login()
	c.srv.PutCart(
		shoptest.CartRow{ID: 1, BookID: 1, Count: 1, Selected: true},
		shoptest.CartRow{ID: 2, BookID: 2, Count: 1, Selected: true},
	)
	c.srv.Fail(http.MethodDelete, "/cart/1", shoptest.Failure{Status: http.StatusInternalServerError, Msg: "try again later"})

	out := c.mustRun([]string{
		"cart",
		"rm selected",
		"back",
		"exit",
	})
	assertContains(t, out, "Error: 1 of 2 failed and were restored: #1 (try again later)", "1 of 1 selected")
	rows := c.srv.Cart()
	if len(rows) != 1 || rows[0].ID != 1 {
		t.Fatalf("backend cart = %+v", rows)
	}
}

func TestShellCheckout(t *testing.T) {
	c := newTestCLI(t)
	c.login()
	c.srv.PutCart(shoptest.CartRow{ID: 5, BookID: 2, Count: 2, Selected: true})

	out := c.mustRun([]string{
		"checkout",
		"Al",
		"999",
		"1 Main Street",
		"checkout",
		"Alice",
		"13800138000",
		"1 Main Street",
		"orders pending",
		"exit",
	})
	assertContains(t, out,
		"Error: phone must be an 11-digit mobile number",
		"placed, total ¥99.80",
		"pending",
	)
	if c.srv.OrderCount() != 1 {
		t.Fatalf("orders = %d", c.srv.OrderCount())
	}
	if strings.Count(out, "Checking out 1 item(s)") != 2 {
		t.Errorf("want two checkout attempts:\n%s", out)
	}
}
