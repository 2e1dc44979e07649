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
	"time"

	"golang.org/x/time/rate"
)

// pacer throttles the run loop. Wait is called before each fetch, Sleep after
// each processed page.
type pacer interface {
	Wait(ctx context.Context) error
	Sleep(ctx context.Context) error
}

// Pacer implements the fixed pause between pages, plus an optional ceiling on
// the request rate. The pause is unconditional, including after the last page.
type Pacer struct {
	sleep   time.Duration
	limiter *rate.Limiter
}

// NewPacer returns a Pacer sleeping for sleep after every page. A maxRate above
// zero additionally caps requests per second; zero leaves the rate unbounded.
func NewPacer(sleep time.Duration, maxRate float64) *Pacer {
	limit := rate.Inf
	if maxRate > 0 {
		limit = rate.Limit(maxRate)
	}
	return &Pacer{
		sleep:   sleep,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Wait blocks until the rate ceiling admits another request.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Sleep pauses for the configured duration or until ctx is done.
func (p *Pacer) Sleep(ctx context.Context) error {
	if p.sleep <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.sleep)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
