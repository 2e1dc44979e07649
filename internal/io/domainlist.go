package io

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
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	stdio "io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/zeebo/xxh3"
)

// DefaultDomainListFile is where the site expects the exported list.
const DefaultDomainListFile = "public/vercel-domain-list.txt"

// ExportOptions controls ExportDomainList.
type ExportOptions struct {
	// KeepWildcards keeps "*." entries, which cannot be opened as links.
	KeepWildcards bool
}

// ExportStats summarizes an export.
type ExportStats struct {
	Rows       int   // Data rows read from the CSV.
	Unique     int   // Domains written to the list.
	Duplicates int   // Rows whose domain was already written.
	Skipped    int   // Empty or wildcard domains left out.
	Bytes      int64 // Size of the written list.
}

// ExportDomainList reads the scraper's CSV output and writes its unique domains,
// one per line, in first-seen order. The header row is optional; resumed runs
// produce files without one.
func ExportDomainList(csvPath, outPath string, opts ExportOptions) (ExportStats, error) {
	var stats ExportStats

	in, err := os.Open(csvPath)
	if err != nil {
		return stats, fmt.Errorf("failed to open %s: %w", csvPath, err)
	}
	defer in.Close()

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return stats, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	out, err := os.Create(outPath)
	if err != nil {
		return stats, fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	bw := bufio.NewWriter(out)

	r := csv.NewReader(bufio.NewReader(in))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	seen := make(map[uint64]struct{})
	first := true
	for {
		row, err := r.Read()
		if errors.Is(err, stdio.EOF) {
			break
		}
		if err != nil {
			out.Close()
			return stats, fmt.Errorf("failed to read %s: %w", csvPath, err)
		}
		if first {
			first = false
			if slices.Equal(row, Header) {
				continue
			}
		}
		stats.Rows++
		if len(row) == 0 {
			stats.Skipped++
			continue
		}

		domain := NormalizeDomain(row[0])
		if domain == "" || (!opts.KeepWildcards && strings.HasPrefix(domain, "*")) {
			stats.Skipped++
			continue
		}
		h := xxh3.HashString(domain)
		if _, dup := seen[h]; dup {
			stats.Duplicates++
			continue
		}
		seen[h] = struct{}{}

		n, err := bw.WriteString(domain + "\n")
		stats.Bytes += int64(n)
		if err != nil {
			out.Close()
			return stats, fmt.Errorf("failed to write %s: %w", outPath, err)
		}
		stats.Unique++
	}

	if err := bw.Flush(); err != nil {
		out.Close()
		return stats, fmt.Errorf("failed to flush %s: %w", outPath, err)
	}
	if err := out.Close(); err != nil {
		return stats, fmt.Errorf("failed to close %s: %w", outPath, err)
	}
	return stats, nil
}

// NormalizeDomain lowercases a domain and strips surrounding spaces and dots.
// Wildcard labels are kept; entries with inner whitespace are rejected.
func NormalizeDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	if strings.ContainsAny(domain, " \t\r\n") {
		return ""
	}
	domain = strings.ToLower(domain)
	domain = strings.Trim(domain, ".")
	return domain
}
