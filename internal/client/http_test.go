package client

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitHTTPClientFillsDefaults(t *testing.T) {
	sharedClient = nil
	clientInitialized = false

	InitHTTPClient(&Config{})
	c := GetHTTPClient()

	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok, "expected *http.Transport, got %T", c.Transport)
	require.Equal(t, defaultMaxIdleConns, tr.MaxIdleConns)
	require.Equal(t, defaultMaxIdleConns, tr.MaxIdleConnsPerHost)
	require.Equal(t, defaultTLSHandshakeTimeout, tr.TLSHandshakeTimeout)
	require.Equal(t, defaultRequestTimeout, c.Timeout)
}

func TestGetHTTPClientIsShared(t *testing.T) {
	sharedClient = nil
	clientInitialized = false

	a := GetHTTPClient()
	b := GetHTTPClient()
	require.Same(t, a, b)

	InitHTTPClient(nil)
	require.NotSame(t, a, GetHTTPClient(), "reinitializing must replace the client")
}

func TestNewRestySendsHeadersToBaseURL(t *testing.T) {
	var gotUA, gotAccept, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	rc := NewResty(srv.Client(), srv.URL, true)
	res, err := rc.R().Get("/search")
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, res.StatusCode())
	require.Equal(t, UserAgent, gotUA)
	require.Equal(t, "application/json", gotAccept)
	require.Equal(t, "/search", gotPath)
}
