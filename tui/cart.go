package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"bookstore-cli/model"
	"bookstore-cli/storefront"
)

// doneMsg carries the result of a backend call made by a key press.
type doneMsg struct {
	op  string
	err error
}

// CartModel edits the cart page. Every change goes through the page, so the
// same rollback rules apply as in the shell.
type CartModel struct {
	ctx   context.Context
	page  *storefront.CartPage
	store storefront.SelectionSaver

	spin    spinner.Model
	cursor  int
	busy    string
	status  string
	err     error
	lines   []model.CheckoutLine
	stopped bool
}

// NewCart returns a model that loads page when started. store receives the
// selection on checkout.
func NewCart(ctx context.Context, page *storefront.CartPage, store storefront.SelectionSaver) CartModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	return CartModel{ctx: ctx, page: page, store: store, spin: sp, busy: "loading"}
}

// CheckedOut returns the lines saved by checkout, or nil if the user quit.
func (m CartModel) CheckedOut() []model.CheckoutLine { return m.lines }

func (m CartModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.run("loading", m.page.Load))
}

func (m CartModel) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return doneMsg{op: op, err: fn(ctx)}
	}
}

// start marks the model busy and runs fn in the background.
func (m CartModel) start(op string, fn func(context.Context) error) (CartModel, tea.Cmd) {
	m.busy, m.status, m.err = op, "", nil
	return m, tea.Batch(m.spin.Tick, m.run(op, fn))
}

func (m CartModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.busy == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case doneMsg:
		m.busy = ""
		m.err = msg.err
		if msg.err == nil && msg.op != "loading" {
			m.status = msg.op + " done"
		}
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m CartModel) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "q", "ctrl+c", "esc":
		m.stopped = true
		return m, tea.Quit
	}
	if m.busy != "" {
		return m, nil
	}

	items := m.page.Items()
	var cur model.CartItem
	if len(items) > 0 {
		cur = items[m.cursor]
	}

	switch k.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case "r":
		return m.start("reload", m.page.Load)
	case " ":
		if cur.ID != 0 {
			return m.start("toggle", func(ctx context.Context) error { return m.page.Toggle(ctx, cur.ID) })
		}
	case "a":
		all := !m.page.Summary().AllSelected
		return m.start("select all", func(ctx context.Context) error { return m.page.SelectAll(ctx, all) })
	case "+", "=":
		if cur.ID != 0 {
			return m.start("quantity", func(ctx context.Context) error { return m.page.Increment(ctx, cur.ID) })
		}
	case "-":
		if cur.ID != 0 {
			return m.start("quantity", func(ctx context.Context) error { return m.page.Decrement(ctx, cur.ID) })
		}
	case "d":
		if cur.ID != 0 {
			return m.start("delete", func(ctx context.Context) error { return m.page.Remove(ctx, cur.ID) })
		}
	case "D":
		return m.start("delete selected", m.page.RemoveSelected)
	case "c":
		lines, err := m.page.Checkout(m.store)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.lines = lines
		return m, tea.Quit
	}
	return m, nil
}

func (m *CartModel) clampCursor() {
	n := len(m.page.Items())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m CartModel) View() string {
	if m.lines != nil || m.stopped {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Shopping cart"))
	b.WriteString("\n")

	st := m.page.State()
	switch {
	case m.busy == "loading" || st.Status == storefront.StatusIdle:
		fmt.Fprintf(&b, "%s Loading cart...\n", m.spin.View())
		return b.String()
	case st.Status == storefront.StatusError:
		fmt.Fprintf(&b, "%s\n\n%s\n", errorStyle.Render("Could not load cart: "+st.Err.Error()), dimStyle.Render("r reload • q quit"))
		return b.String()
	}

	items := m.page.Items()
	if len(items) == 0 {
		b.WriteString(dimStyle.Render("Your cart is empty."))
		b.WriteString("\n")
	}
	for i, it := range items {
		b.WriteString(renderRow(it, i == m.cursor))
		b.WriteString("\n")
	}

	sum := m.page.Summary()
	b.WriteString(totalStyle.Render(fmt.Sprintf("%d of %d selected   subtotal %s", sum.SelectedCount, sum.Count, model.FormatMoney(sum.Subtotal))))
	b.WriteString("\n")

	switch {
	case m.busy != "":
		fmt.Fprintf(&b, "%s %s...\n", m.spin.View(), m.busy)
	case m.err != nil:
		b.WriteString(errorStyle.Render(describe(m.err)))
		b.WriteString("\n")
	case m.status != "":
		b.WriteString(dimStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("↑/↓ move • space select • a all • +/- qty • d delete • D delete selected • r reload • c checkout • q quit"))
	b.WriteString("\n")
	return b.String()
}

func renderRow(it model.CartItem, atCursor bool) string {
	mark := "[ ]"
	if it.Selected {
		mark = selectedStyle.Render("[x]")
	}
	pointer := "  "
	if atCursor {
		pointer = cursorStyle.Render("> ")
	}
	price := model.FormatMoney(it.EffectivePrice())
	if it.DiscountPrice != nil {
		price += dimStyle.Render(" (was " + model.FormatMoney(it.Price) + ")")
	}
	stock := ""
	if it.Stock > 0 {
		stock = dimStyle.Render(fmt.Sprintf("  %d in stock", it.Stock))
	}
	return fmt.Sprintf("%s%s %-30s %s x %d = %s%s", pointer, mark, it.Title, price, it.Quantity, model.FormatMoney(it.LineTotal()), stock)
}

func describe(err error) string {
	var be *storefront.BatchError
	if errors.As(err, &be) {
		return be.Summary()
	}
	return "Error: " + err.Error()
}

// RunCart runs the editor until the user quits or checks out.
func RunCart(ctx context.Context, page *storefront.CartPage, store storefront.SelectionSaver, opts ...tea.ProgramOption) ([]model.CheckoutLine, error) {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	final, err := tea.NewProgram(NewCart(ctx, page, store), opts...).Run()
	if err != nil {
		return nil, err
	}
	return final.(CartModel).CheckedOut(), nil
}
