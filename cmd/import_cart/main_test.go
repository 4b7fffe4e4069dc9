package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore-cli/api"
	"bookstore-cli/internal/config"
	"bookstore-cli/internal/shoptest"
	"bookstore-cli/storefront"
)

func TestParseEntries(t *testing.T) {
	input := strings.Join([]string{
		"# wishlist",
		"1,2",
		"",
		"2",
		"abc",
		"1, 3",
		"4,x",
		"5,1,1",
	}, "\n")

	var out bytes.Buffer
	entries, bad, err := parseEntries(strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, 3, bad)
	assert.Equal(t, []entry{
		{line: 2, bookID: 1, count: 5},
		{line: 4, bookID: 2, count: 1},
	}, entries)
	assert.Contains(t, out.String(), `Line 5: ERROR - invalid book ID "abc"`)
	assert.Contains(t, out.String(), `Line 7: ERROR - invalid count "x"`)
	assert.Contains(t, out.String(), "Line 8: ERROR - want book_id[,count]")
}

func TestImportCart(t *testing.T) {
	srv := shoptest.New(t)
	client, err := api.New(srv.URL, api.WithTokenSource(func() string { return shoptest.Token }))
	require.NoError(t, err)

	var out bytes.Buffer
	res, err := importCart(context.Background(), client, strings.NewReader("1,2\n999\n2\n1\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, result{imported: 2, failed: 1}, res)

	text := out.String()
	assert.Contains(t, text, "Adding book 1 x 3... SUCCESS")
	assert.Contains(t, text, "Adding book 999 x 1... ERROR - book not found")
	assert.Contains(t, text, "Successfully added: 2 books")
	assert.Contains(t, text, "The Go Programming Language")

	rows := srv.Cart()
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].BookID)
	assert.Equal(t, 3, rows[0].Count)
}

func TestImportCartZeroCountAddsOne(t *testing.T) {
	srv := shoptest.New(t)
	client, err := api.New(srv.URL, api.WithTokenSource(func() string { return shoptest.Token }))
	require.NoError(t, err)

	_, err = importCart(context.Background(), client, strings.NewReader("2,0\n"), &bytes.Buffer{})
	require.NoError(t, err)
	rows := srv.Cart()
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Count)
}

func TestCommandNeedsLogin(t *testing.T) {
	srv := shoptest.New(t)
	dir := t.TempDir()
	t.Setenv(config.EnvStatePath, filepath.Join(dir, "state.db"))
	t.Setenv(config.EnvStateKey, "")
	t.Setenv(config.EnvLogLevel, "error")

	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader("1\n"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--api-url", srv.URL, "--config", filepath.Join(dir, "config.yaml")})
	err := cmd.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, storefront.ErrNotLoggedIn)
	assert.Empty(t, srv.Cart())
}

func TestCommandImportsFile(t *testing.T) {
	srv := shoptest.New(t)
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.db")
	t.Setenv(config.EnvStatePath, statePath)
	t.Setenv(config.EnvStateKey, "")
	t.Setenv(config.EnvLogLevel, "error")

	// Sign in once so the token is on disk.
	store, err := storefront.OpenStore(statePath)
	require.NoError(t, err)
	sess := storefront.NewSession(store, nil)
	client, err := api.New(srv.URL, api.WithTokenSource(sess.Token))
	require.NoError(t, err)
	sess.Bind(client)
	_, err = sess.Login(context.Background(), storefront.LoginForm{Account: shoptest.Username, Password: shoptest.Password})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	list := filepath.Join(dir, "books.txt")
	require.NoError(t, os.WriteFile(list, []byte("2,2\n"), 0o600))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--api-url", srv.URL, "--config", filepath.Join(dir, "config.yaml"), list})
	require.NoError(t, cmd.ExecuteContext(context.Background()), out.String())

	assert.Contains(t, out.String(), "Adding book 2 x 2... SUCCESS")
	rows := srv.Cart()
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Count)
}
