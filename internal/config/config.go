// Package config holds the run settings and loads them from an optional TOML file.
// Command-line flags are applied on top by the caller.
package config

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
	"math"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Defaults for a full scrape of the *.vercel.app result set.
const (
	DefaultLastPage   = 11088
	DefaultSleep      = 1.0
	DefaultResumePage = 0
)

// Config is the set of settings for one scrape run.
type Config struct {
	LastPage    int     `toml:"last_page"`
	Sleep       float64 `toml:"sleep"`
	ResumePage  int     `toml:"resume_page"`
	MaxRate     float64 `toml:"max_rate"`
	MetricsAddr string  `toml:"metrics_addr"`
	Debug       bool    `toml:"debug"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LastPage:   DefaultLastPage,
		Sleep:      DefaultSleep,
		ResumePage: DefaultResumePage,
	}
}

// Load reads a TOML file over the defaults. Unknown keys are rejected so that a
// typo does not silently fall back to a default.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg := Default()
	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("config: %s: unknown keys:\n%s", path, strict.String())
		}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			row, col := de.Position()
			return nil, fmt.Errorf("config: %s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings. A resume page past the last page is allowed
// and simply yields an empty run.
func (c *Config) Validate() error {
	if c.LastPage < 0 {
		return fmt.Errorf("config: last page cannot be negative (got %d)", c.LastPage)
	}
	if c.ResumePage < 0 {
		return fmt.Errorf("config: resume page cannot be negative (got %d)", c.ResumePage)
	}
	if c.Sleep < 0 || math.IsNaN(c.Sleep) || math.IsInf(c.Sleep, 0) {
		return fmt.Errorf("config: sleep must be a non-negative number of seconds (got %v)", c.Sleep)
	}
	if c.MaxRate < 0 || math.IsNaN(c.MaxRate) {
		return fmt.Errorf("config: max rate cannot be negative (got %v)", c.MaxRate)
	}
	return nil
}

// SleepDuration converts the fractional Sleep seconds to a time.Duration.
func (c *Config) SleepDuration() time.Duration {
	return time.Duration(c.Sleep * float64(time.Second))
}
