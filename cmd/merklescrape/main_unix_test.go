//go:build unix

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/x-stp/merklescrape/internal/config"
	"github.com/x-stp/merklescrape/internal/core"
	outio "github.com/x-stp/merklescrape/internal/io"
)

func TestScrapeRefusesLockedOutput(t *testing.T) {
	t.Chdir(t.TempDir())

	held, err := outio.AcquireLock(outio.DefaultOutputFile)
	require.NoError(t, err)
	defer held.Release()

	var out bytes.Buffer
	code := scrape(&config.Config{LastPage: 3, Sleep: 0.5, ResumePage: 2}, &out)
	require.Equal(t, core.ExitFailure, code)
	require.Equal(t,
		"Starting scraper with 0.5s sleep time, scraping through page 3\n"+
			"Resuming from page 2\n"+
			"\nCannot start: vercel_domains.csv is locked by another running instance\n",
		out.String())
}
