package page

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter(t *testing.T) {
	doc := NewDocument()
	router := NewRouter(doc)
	ctx := context.Background()

	var clicks []string
	router.Bind("login-button", func(context.Context) error {
		clicks = append(clicks, "login")
		return nil
	})
	router.Bind("create", func(context.Context) error {
		clicks = append(clicks, "create")
		return errors.New("boom")
	})

	require.NoError(t, doc.Replace(`<button id="login-button"></button><span id="plain"></span>`))
	assert.Equal(t, []string{"login-button"}, router.Rebind())

	assert.NoError(t, router.Click(ctx, "login-button"))
	assert.ErrorIs(t, router.Click(ctx, "create"), ErrElementNotFound)
	assert.ErrorIs(t, router.Click(ctx, "plain"), ErrNoHandler)

	require.NoError(t, doc.Replace(`<button id="create"></button>`))
	assert.Equal(t, []string{"create"}, router.Rebind())

	assert.EqualError(t, router.Click(ctx, "create"), "boom")
	assert.ErrorIs(t, router.Click(ctx, "login-button"), ErrElementNotFound)
	assert.Equal(t, []string{"login", "create"}, clicks)
}

func TestRouterRequiresRebind(t *testing.T) {
	doc := NewDocument()
	router := NewRouter(doc)
	router.Bind("create", func(context.Context) error { return nil })

	require.NoError(t, doc.Replace(`<button id="create"></button>`))
	assert.ErrorIs(t, router.Click(context.Background(), "create"), ErrNoHandler)

	router.Rebind()
	assert.NoError(t, router.Click(context.Background(), "create"))
}
