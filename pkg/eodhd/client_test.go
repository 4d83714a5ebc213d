package eodhd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAppendsConfiguredToken(t *testing.T) {
	var gotQuery url.Values
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	c := NewClient(upstream.URL, "configured-key", zerolog.Nop())
	body, err := c.Get(context.Background(), "/eod/AAPL.US", url.Values{"period": {"d"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, "configured-key", gotQuery.Get("api_token"))
	assert.Equal(t, "d", gotQuery.Get("period"))
}

func TestGetContextOverrideWins(t *testing.T) {
	var gotToken string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("api_token")
		w.Write([]byte(`[]`))
	}))
	defer upstream.Close()

	c := NewClient(upstream.URL, "configured-key", zerolog.Nop())
	ctx := WithAPIToken(context.Background(), "user-key")
	_, err := c.Get(ctx, "/user", nil)
	require.NoError(t, err)
	assert.Equal(t, "user-key", gotToken)
}

func TestGetExplicitQueryTokenWins(t *testing.T) {
	var gotToken string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("api_token")
		w.Write([]byte(`[]`))
	}))
	defer upstream.Close()

	c := NewClient(upstream.URL, "configured-key", zerolog.Nop())
	ctx := WithAPIToken(context.Background(), "user-key")
	_, err := c.Get(ctx, "/user", url.Values{"api_token": {"explicit-key"}})
	require.NoError(t, err)
	assert.Equal(t, "explicit-key", gotToken)
}

func TestGetUpstreamErrorPassesThrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte("Your plan does not include this endpoint"))
	}))
	defer upstream.Close()

	c := NewClient(upstream.URL, "demo", zerolog.Nop())
	_, err := c.Get(context.Background(), "/eod/AAPL.US", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "402")
	assert.Contains(t, err.Error(), "Your plan does not include this endpoint")
}

func TestResolveTokenPrecedence(t *testing.T) {
	c := NewClient("https://example.com", "configured", zerolog.Nop())

	assert.Equal(t, "explicit", c.ResolveToken(WithAPIToken(context.Background(), "ctx"), "explicit"))
	assert.Equal(t, "ctx", c.ResolveToken(WithAPIToken(context.Background(), "ctx"), ""))
	assert.Equal(t, "configured", c.ResolveToken(context.Background(), ""))
}
