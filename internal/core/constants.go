/*
Package core runs the page scraper: it walks the page range in order, fetching,
transforming and appending each page, and reports progress on the way.

This file holds the defaults and fixed strings shared by the run loop and the CLI.
*/
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

// Exit codes returned by Scraper.Execute.
const (
	// ExitOK means every page in the range was processed.
	ExitOK = 0
	// ExitFailure means the run stopped on the first fatal error.
	ExitFailure = 1
)

// Console output formats. Progress and diagnostics go to the scraper's output
// writer (stdout in the CLI), never to the log.
const (
	progressFormat = "Processed page %d/%d | Progress: %.1f%% | Rate: %.2f pages/sec | Est. completion: %.1f minutes | Sleep time: %.2fs\n"

	rateLimitedFormat = "\nRate limited on page %d. Current sleep time: %s\n"
	rateLimitedHint   = "Try increasing the sleep time using --sleep argument\n"
	httpErrorFormat   = "\nHTTP error on page %d: %v\n"
	interruptedFormat = "\nInterrupted on page %d\n"
	unexpectedFormat  = "\nUnexpected error on page %d: %v\n"
)
