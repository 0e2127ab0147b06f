package net

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("http://example.com/a.profiles"))
	assert.True(t, IsURL("HTTPS://example.com/a.profiles"))
	assert.False(t, IsURL("a.profiles"))
	assert.False(t, IsURL("~/http/a.profiles"))
	assert.False(t, IsURL(""))
}

func TestOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, clientAgent, r.Header.Get("User-Agent"))
			_, _ = io.WriteString(w, "A 1 2 3\n")
		case "/fail":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	body, err := Open(ctx, srv.URL+"/ok")
	require.NoError(t, err)
	b, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "A 1 2 3\n", string(b))

	_, err = Open(ctx, srv.URL+"/missing")
	assert.ErrorIs(t, err, ErrorURLNotFound)

	_, err = Open(ctx, srv.URL+"/fail")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestOpen_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "A 1\n")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Open(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}
