/*
Package main is the entry point for the merklescrape command-line application.

merklescrape walks the paginated MerkleMap search API for certificates matching
*.vercel.app and appends every result to vercel_domains.csv in the working directory.
Pages are fetched strictly one after another with a fixed pause between them; the
first error of any kind stops the run with a diagnostic naming the failed page.

A run started at page 0 truncates the output and writes a header row. A run resumed
with --resume always appends and never writes a header.

Settings come from flags, optionally layered over a TOML file given with --config.
Flags set on the command line win over the file. Prometheus metrics are served when
--metrics-addr is set. SIGINT and SIGTERM stop the run after the current step.
*/
package main

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
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/x-stp/merklescrape/internal/client"
	"github.com/x-stp/merklescrape/internal/config"
	"github.com/x-stp/merklescrape/internal/core"
	outio "github.com/x-stp/merklescrape/internal/io"
	"github.com/x-stp/merklescrape/internal/merklemap"
	"github.com/x-stp/merklescrape/internal/metrics"
)

// runFlags holds the values bound to the root command's flags.
type runFlags struct {
	configFile  string
	lastPage    int
	sleepSecs   float64
	resumePage  int
	maxRate     float64
	metricsAddr string
	debug       bool
}

// runFunc performs a scrape with validated settings, writing progress and
// diagnostics to out, and returns the process exit code.
type runFunc func(cfg *config.Config, out io.Writer) int

// newRootCmd builds the merklescrape command. The exit code of run is stored
// in *exitCode; settings errors are reported on the command's output and also
// yield core.ExitFailure.
func newRootCmd(run runFunc, exitCode *int) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:           "merklescrape",
		Short:         "merklescrape - Scrape *.vercel.app certificates from the MerkleMap search API into CSV",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				fmt.Fprintf(out, "\nInvalid settings: %v\n", err)
				*exitCode = core.ExitFailure
				return nil
			}
			*exitCode = run(cfg, out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&f.lastPage, "pages", "p", config.DefaultLastPage, "Last page to scrape (inclusive)")
	cmd.Flags().Float64VarP(&f.sleepSecs, "sleep", "s", config.DefaultSleep, "Seconds to sleep after every page")
	cmd.Flags().IntVarP(&f.resumePage, "resume", "r", config.DefaultResumePage, "Page to resume from; appends without a header")
	cmd.Flags().StringVar(&f.configFile, "config", "", "Optional TOML file with run settings")
	cmd.Flags().Float64Var(&f.maxRate, "max-rate", 0, "Upper bound on requests per second (0 disables)")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "Log every HTTP request and response")
	return cmd
}

// loadConfig builds the run settings: defaults, then the config file, then any
// flag given explicitly on the command line.
func loadConfig(cmd *cobra.Command, f *runFlags) (*config.Config, error) {
	cfg := config.Default()
	if f.configFile != "" {
		var err error
		if cfg, err = config.Load(f.configFile); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("pages") {
		cfg.LastPage = f.lastPage
	}
	if flags.Changed("sleep") {
		cfg.Sleep = f.sleepSecs
	}
	if flags.Changed("resume") {
		cfg.ResumePage = f.resumePage
	}
	if flags.Changed("max-rate") {
		cfg.MaxRate = f.maxRate
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = f.metricsAddr
	}
	if flags.Changed("debug") {
		cfg.Debug = f.debug
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printStartup(out io.Writer, cfg *config.Config) {
	fmt.Fprintf(out, "Starting scraper with %ss sleep time, scraping through page %d\n",
		core.FormatSeconds(cfg.SleepDuration()), cfg.LastPage)
	if cfg.ResumePage > 0 {
		fmt.Fprintf(out, "Resuming from page %d\n", cfg.ResumePage)
	}
}

func scrape(cfg *config.Config, out io.Writer) int {
	printStartup(out, cfg)

	lock, err := outio.AcquireLock(outio.DefaultOutputFile)
	if err != nil {
		fmt.Fprintf(out, "\nCannot start: %v\n", err)
		return core.ExitFailure
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Printf("Failed to release lock: %v", err)
		}
	}()

	if cfg.MetricsAddr != "" {
		metrics.EnableMetrics()
		if err := metrics.StartMetricsServer(cfg.MetricsAddr); err != nil {
			log.Printf("Failed to start metrics server: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metrics.ShutdownMetricsServer(ctx); err != nil {
				log.Printf("Metrics server shutdown: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalChan)
	go func() {
		select {
		case <-signalChan:
			log.Println("Interrupt received, stopping after the current step...")
			cancel()
		case <-ctx.Done():
		}
	}()

	api := merklemap.NewClient(merklemap.Options{
		HTTPClient: client.GetHTTPClient(),
		Debug:      cfg.Debug,
	})
	s, err := core.NewScraper(api, core.Options{
		LastPage:   cfg.LastPage,
		ResumePage: cfg.ResumePage,
		Sleep:      cfg.SleepDuration(),
		MaxRate:    cfg.MaxRate,
		OutputPath: outio.DefaultOutputFile,
		Out:        out,
	})
	if err != nil {
		fmt.Fprintf(out, "\nInvalid settings: %v\n", err)
		return core.ExitFailure
	}
	return s.Execute(ctx)
}

func main() {
	exitCode := core.ExitOK
	if err := newRootCmd(scrape, &exitCode).Execute(); err != nil {
		// Flag parsing and usage errors.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(core.ExitFailure)
	}
	os.Exit(exitCode)
}
