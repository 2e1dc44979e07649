package core

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
	"errors"
	"fmt"

	"github.com/x-stp/merklescrape/internal/merklemap"
)

// ErrorKind classifies why a run stopped. Every kind is fatal; the kind only
// selects the diagnostic printed for the operator.
type ErrorKind int

const (
	// KindUnexpected covers transport failures, malformed responses, missing
	// result fields and output I/O errors.
	KindUnexpected ErrorKind = iota
	// KindHTTP is an API error status other than 429.
	KindHTTP
	// KindRateLimited is an HTTP 429 from the API.
	KindRateLimited
	// KindInterrupted means the run context was cancelled (SIGINT/SIGTERM).
	KindInterrupted
)

func (k ErrorKind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindRateLimited:
		return "rate_limited"
	case KindInterrupted:
		return "interrupted"
	default:
		return "unexpected"
	}
}

// PageError is the error a run stops with. It records the page being worked on,
// the kind of failure and, for API errors, the HTTP status code.
type PageError struct {
	Page       int
	Kind       ErrorKind
	StatusCode int // Zero unless Kind is KindHTTP or KindRateLimited.
	Err        error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %s: %v", e.Page, e.Kind, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// newPageError classifies err for page.
func newPageError(page int, err error) *PageError {
	pe := &PageError{Page: page, Kind: KindUnexpected, Err: err}

	var apiErr *merklemap.APIError
	switch {
	case errors.As(err, &apiErr):
		pe.StatusCode = apiErr.StatusCode
		pe.Kind = KindHTTP
		if apiErr.IsRateLimited() {
			pe.Kind = KindRateLimited
		}
	case errors.Is(err, context.Canceled):
		pe.Kind = KindInterrupted
	}
	return pe
}
