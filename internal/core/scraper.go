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
	"io"
	"log"
	"os"
	"time"

	outio "github.com/x-stp/merklescrape/internal/io"
	"github.com/x-stp/merklescrape/internal/merklemap"
	"github.com/x-stp/merklescrape/internal/metrics"
)

// ErrInvalidRange is returned by NewScraper for negative page indices.
var ErrInvalidRange = errors.New("page indices must not be negative")

// Fetcher retrieves one page of search results. *merklemap.Client implements it.
type Fetcher interface {
	FetchPage(ctx context.Context, page int) (*merklemap.Page, error)
}

// RunState is the state of a Scraper's run loop.
type RunState int

const (
	// StateIdle is the state before Run is called.
	StateIdle RunState = iota
	// StateRunning means pages are being processed.
	StateRunning
	// StateCompleted means the whole page range was processed.
	StateCompleted
	// StateAborted means the run stopped on a fatal error.
	StateAborted
)

func (s RunState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "idle"
	}
}

// Options configures a Scraper.
type Options struct {
	LastPage   int           // Last page index, inclusive.
	ResumePage int           // First page index, inclusive.
	Sleep      time.Duration // Pause after every page.
	MaxRate    float64       // Optional ceiling in requests/second; zero disables it.
	OutputPath string        // CSV output file; defaults to io.DefaultOutputFile.
	Out        io.Writer     // Progress and diagnostics; defaults to os.Stdout.
}

// Scraper walks the page range [ResumePage, LastPage] strictly in order:
// fetch, transform, append, report, sleep. The first error ends the run.
type Scraper struct {
	fetcher  Fetcher
	appender *outio.Appender
	pacer    pacer
	out      io.Writer
	now      func() time.Time

	lastPage   int
	resumePage int
	sleep      time.Duration

	// Run statistics, used for display only.
	processed int
	startTime time.Time
	state     RunState
}

// NewScraper returns a Scraper reading pages from f.
func NewScraper(f Fetcher, opts Options) (*Scraper, error) {
	if opts.LastPage < 0 || opts.ResumePage < 0 {
		return nil, fmt.Errorf("%w (last=%d, resume=%d)", ErrInvalidRange, opts.LastPage, opts.ResumePage)
	}
	if opts.OutputPath == "" {
		opts.OutputPath = outio.DefaultOutputFile
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Scraper{
		fetcher:    f,
		appender:   outio.NewAppender(opts.OutputPath),
		pacer:      NewPacer(opts.Sleep, opts.MaxRate),
		out:        opts.Out,
		now:        time.Now,
		lastPage:   opts.LastPage,
		resumePage: opts.ResumePage,
		sleep:      opts.Sleep,
	}, nil
}

// State returns the current run state.
func (s *Scraper) State() RunState {
	return s.state
}

// Processed returns the number of pages processed so far.
func (s *Scraper) Processed() int {
	return s.processed
}

// Run processes every page in range. It returns nil when the range is exhausted,
// or a *PageError for the page that failed. Rows appended before the failure stay.
func (s *Scraper) Run(ctx context.Context) error {
	s.startTime = s.now()
	s.state = StateRunning
	metrics.GetMetrics().SetRunConfig(s.lastPage, s.sleep)

	// Only a run starting at page 0 owns the file: it truncates it and writes the
	// header. A resumed run always appends, even to a missing file.
	isFirstWrite := s.resumePage == 0

	for page := s.resumePage; page <= s.lastPage; page++ {
		err := s.processPage(ctx, page, &isFirstWrite)
		if err == nil {
			err = s.pacer.Sleep(ctx)
			// Every page is on disk once the last one is written; cutting the
			// trailing pause short does not make the run incomplete.
			if err != nil && page == s.lastPage && ctx.Err() != nil {
				err = nil
			}
		}
		if err != nil {
			s.state = StateAborted
			pe := newPageError(page, err)
			metrics.GetMetrics().ObserveAbort(pe.Kind.String())
			return pe
		}
	}

	s.state = StateCompleted
	return nil
}

func (s *Scraper) processPage(ctx context.Context, page int, isFirstWrite *bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.pacer.Wait(ctx); err != nil {
		return err
	}

	result, err := s.fetcher.FetchPage(ctx, page)
	if err != nil {
		return err
	}
	records, err := merklemap.ProcessResults(result.Results)
	if err != nil {
		return err
	}
	if err := s.appender.Append(records, *isFirstWrite); err != nil {
		return err
	}
	if len(records) > 0 {
		*isFirstWrite = false
	}

	s.processed++
	metrics.GetMetrics().ObservePage(page)
	s.reportProgress(page)
	return nil
}

// reportProgress prints one progress line. It never affects control flow.
func (s *Scraper) reportProgress(page int) {
	elapsed := s.now().Sub(s.startTime).Seconds()
	var pagesPerSecond float64
	if elapsed > 0 {
		pagesPerSecond = float64(s.processed) / elapsed
	}
	var remaining float64
	if pagesPerSecond > 0 {
		remaining = float64(s.lastPage-s.processed) / pagesPerSecond
	}
	progress := float64(s.processed) / float64(s.lastPage+1) * 100

	fmt.Fprintf(s.out, progressFormat,
		page, s.lastPage,
		progress,
		pagesPerSecond,
		remaining/60,
		s.sleep.Seconds(),
	)
}

// Execute runs the scraper and prints the outcome: a summary on success, or a
// diagnostic naming the failed page. It returns the process exit code.
func (s *Scraper) Execute(ctx context.Context) int {
	err := s.Run(ctx)
	if err == nil {
		s.printSummary()
		return ExitOK
	}

	var pe *PageError
	if !errors.As(err, &pe) {
		fmt.Fprintf(s.out, unexpectedFormat, s.resumePage, err)
		return ExitFailure
	}
	switch pe.Kind {
	case KindRateLimited:
		fmt.Fprintf(s.out, rateLimitedFormat, pe.Page, FormatSeconds(s.sleep))
		fmt.Fprint(s.out, rateLimitedHint)
	case KindHTTP:
		fmt.Fprintf(s.out, httpErrorFormat, pe.Page, pe.Err)
	case KindInterrupted:
		fmt.Fprintf(s.out, interruptedFormat, pe.Page)
	default:
		fmt.Fprintf(s.out, unexpectedFormat, pe.Page, pe.Err)
	}
	log.Printf("Run aborted after %d pages: %v", s.processed, err)
	return ExitFailure
}
