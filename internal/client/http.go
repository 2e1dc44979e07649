package client

/*
merklescrape — MerkleMap search scraper for Certificate Transparency data
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

/*
Package client provides the HTTP plumbing used to reach the search API.

A shared *http.Client is configured once and reused, so that consecutive page requests
go over the same keep-alive connection. NewResty layers a resty client on top of that
shared transport for request building and response handling.
*/

import (
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// UserAgent is sent with every API request.
const UserAgent = "merklescrape (+https://github.com/x-stp/merklescrape)"

var (
	defaultDialTimeout         = 10 * time.Second
	defaultKeepAliveTimeout    = 60 * time.Second
	defaultIdleConnTimeout     = 90 * time.Second
	defaultTLSHandshakeTimeout = 10 * time.Second
	defaultMaxIdleConns        = 4
	// The API can take a while on deep pages; only a hung connection should trip this.
	defaultRequestTimeout = 2 * time.Minute

	// sharedClient is the process-wide HTTP client, created lazily.
	sharedClient *http.Client
	// sharedClientLock protects sharedClient and clientInitialized.
	sharedClientLock  sync.RWMutex
	clientInitialized bool
)

// Config holds transport settings for the shared client.
// A zero field falls back to its default.
type Config struct {
	// DialTimeout is the maximum duration for establishing a new connection.
	DialTimeout time.Duration
	// KeepAliveTimeout is the TCP keep-alive period for an active connection.
	KeepAliveTimeout time.Duration
	// IdleConnTimeout is how long an idle keep-alive connection stays pooled.
	IdleConnTimeout time.Duration
	// TLSHandshakeTimeout bounds the TLS handshake.
	TLSHandshakeTimeout time.Duration
	// MaxIdleConns bounds the idle pool. Requests are sequential, so this stays small.
	MaxIdleConns int
	// RequestTimeout bounds a whole request including reading the body.
	RequestTimeout time.Duration
}

// DefaultConfig returns the default transport settings.
func DefaultConfig() *Config {
	return &Config{
		DialTimeout:         defaultDialTimeout,
		KeepAliveTimeout:    defaultKeepAliveTimeout,
		IdleConnTimeout:     defaultIdleConnTimeout,
		TLSHandshakeTimeout: defaultTLSHandshakeTimeout,
		MaxIdleConns:        defaultMaxIdleConns,
		RequestTimeout:      defaultRequestTimeout,
	}
}

// InitHTTPClient (re)configures the shared client. A nil config means DefaultConfig().
func InitHTTPClient(config *Config) {
	sharedClientLock.Lock()
	defer sharedClientLock.Unlock()

	if config == nil {
		config = DefaultConfig()
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = defaultDialTimeout
	}
	if config.KeepAliveTimeout == 0 {
		config.KeepAliveTimeout = defaultKeepAliveTimeout
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = defaultIdleConnTimeout
	}
	if config.TLSHandshakeTimeout == 0 {
		config.TLSHandshakeTimeout = defaultTLSHandshakeTimeout
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = defaultMaxIdleConns
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = defaultRequestTimeout
	}

	// Don't leak idle keep-alives from the previous transport.
	if sharedClient != nil {
		if oldTransport, ok := sharedClient.Transport.(*http.Transport); ok && oldTransport != nil {
			oldTransport.CloseIdleConnections()
		}
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAliveTimeout,
		}).DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConns,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	sharedClient = &http.Client{
		Transport: transport,
		Timeout:   config.RequestTimeout,
	}
	clientInitialized = true
}

// GetHTTPClient returns the shared client, initializing it with defaults on first use.
func GetHTTPClient() *http.Client {
	sharedClientLock.RLock()
	if !clientInitialized {
		sharedClientLock.RUnlock()
		InitHTTPClient(nil)
		sharedClientLock.RLock()
	}
	c := sharedClient
	sharedClientLock.RUnlock()
	return c
}

// NewResty builds a resty client for baseURL on top of hc (the shared client when nil).
// Retries stay disabled: every failed request is reported to the caller as is.
// With debug set, each request and response is logged.
func NewResty(hc *http.Client, baseURL string, debug bool) *resty.Client {
	if hc == nil {
		hc = GetHTTPClient()
	}
	rc := resty.NewWithClient(hc).
		SetBaseURL(baseURL).
		SetHeader("User-Agent", UserAgent).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	if debug {
		rc.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			log.Printf("GET %s %v", req.URL, req.QueryParam)
			return nil
		})
		rc.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
			log.Printf("%s %s -> %d in %v (%d bytes)", res.Request.Method, res.Request.URL, res.StatusCode(), res.Time(), res.Size())
			return nil
		})
	}
	return rc
}
