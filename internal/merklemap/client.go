package merklemap

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

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/x-stp/merklescrape/internal/client"
	"github.com/x-stp/merklescrape/internal/metrics"
)

// Client fetches search result pages for a fixed query.
type Client struct {
	rc    *resty.Client
	query string
}

// Options configures a Client. Zero fields take the production defaults.
type Options struct {
	// BaseURL overrides DefaultBaseURL; used to point the client at a test server.
	BaseURL string
	// HTTPClient overrides the shared client from the client package.
	HTTPClient *http.Client
	// Debug logs every request and response.
	Debug bool
}

// NewClient returns a Client searching DefaultQuery.
func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		rc:    client.NewResty(opts.HTTPClient, baseURL, opts.Debug),
		query: DefaultQuery,
	}
}

// FetchPage performs one GET for the given page index and decodes the response.
// A 4xx/5xx answer yields an *APIError; nothing is retried.
func (c *Client) FetchPage(ctx context.Context, page int) (*Page, error) {
	start := time.Now()
	res, err := c.rc.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query": c.query,
			"page":  strconv.Itoa(page),
		}).
		Get(SearchPath)
	if err != nil {
		metrics.GetMetrics().ObserveRequest(0, time.Since(start))
		return nil, fmt.Errorf("search request for page %d: %w", page, err)
	}
	metrics.GetMetrics().ObserveRequest(res.StatusCode(), res.Time())

	if res.IsError() {
		return nil, newAPIError(res.StatusCode(), res.Status(), requestURL(res), res.Body())
	}

	var body searchResponse
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		return nil, fmt.Errorf("decoding search response for page %d: %w", page, err)
	}
	if body.Results == nil {
		return nil, fmt.Errorf("page %d: %w", page, ErrNoResults)
	}
	return &Page{Number: page, Results: *body.Results}, nil
}

func requestURL(res *resty.Response) string {
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		return res.RawResponse.Request.URL.String()
	}
	return res.Request.URL
}
