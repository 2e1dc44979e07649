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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// printSummary shows the completion report.
func (s *Scraper) printSummary() {
	total := s.now().Sub(s.startTime).Minutes()
	st := s.appender.Stats()

	fmt.Fprintf(s.out, "\nScraping completed!\n")
	fmt.Fprintf(s.out, "Successfully processed %d pages\n", s.processed)
	fmt.Fprintf(s.out, "Total time: %.1f minutes\n", total)
	fmt.Fprintf(s.out, "Output: %s rows, %s appended to %s (xxh3 %s)\n",
		humanize.Comma(st.Rows),
		humanize.Bytes(uint64(st.Bytes)),
		s.appender.Path(),
		st.Digest,
	)
}

// FormatSeconds renders a duration as seconds the way the CLI accepts them:
// "1.0", "0.25", "3.0".
func FormatSeconds(d time.Duration) string {
	s := strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
