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
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// maxErrorBody caps how much of an error response body is kept on an APIError.
const maxErrorBody = 512

// ErrNoResults is returned when a search response carries no "results" list.
var ErrNoResults = errors.New(`response has no "results" list`)

// APIError is returned by FetchPage when the API answers with a 4xx or 5xx status.
// The caller branches on StatusCode; IsRateLimited covers the 429 case.
type APIError struct {
	StatusCode int    // HTTP status code of the response.
	Status     string // Status line as received, e.g. "599 Network Timeout".
	URL        string // Full request URL, including the query string.
	Body       string // Leading part of the response body, trimmed.
}

// Error renders the error the way an operator expects to see an HTTP failure:
// "429 Client Error: Too Many Requests for url: https://...".
func (e *APIError) Error() string {
	class := "Client"
	if e.StatusCode >= 500 {
		class = "Server"
	}
	msg := fmt.Sprintf("%d %s Error: %s for url: %s", e.StatusCode, class, e.reason(), e.URL)
	if e.Body != "" {
		msg += " (" + e.Body + ")"
	}
	return msg
}

// reason is the standard text for the status code. Codes without one (520, 599)
// fall back to the reason phrase the server sent.
func (e *APIError) reason() string {
	if text := http.StatusText(e.StatusCode); text != "" {
		return text
	}
	code := strconv.Itoa(e.StatusCode)
	if r := strings.TrimSpace(strings.TrimPrefix(e.Status, code)); r != "" {
		return r
	}
	return "Unknown Status"
}

// IsRateLimited reports whether the API rejected the request for exceeding its rate limit.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func newAPIError(statusCode int, status, url string, body []byte) *APIError {
	b := strings.TrimSpace(string(body))
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody] + "..."
	}
	return &APIError{StatusCode: statusCode, Status: status, URL: url, Body: b}
}

// MissingFieldError is returned by ProcessResults when a result lacks a required field.
type MissingFieldError struct {
	Index int    // Position of the offending result within its page.
	Field string // Name of the absent field.
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("result %d: missing field %q", e.Index, e.Field)
}
