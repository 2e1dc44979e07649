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

/*
Package io owns everything the scraper writes to local storage: the CSV output file,
the advisory lock guarding it, and the plain domain list derived from it.

The CSV file is append-only. Each call opens the file, writes its rows, flushes and
closes it again; there is no atomic-write or crash recovery, so a crash mid-append can
leave a partial last row.
*/

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/zeebo/xxh3"

	"github.com/x-stp/merklescrape/internal/merklemap"
	"github.com/x-stp/merklescrape/internal/metrics"
)

// DefaultOutputFile is the fixed output path, relative to the working directory.
const DefaultOutputFile = "vercel_domains.csv"

// Header is the CSV header row, in column order.
var Header = []string{
	merklemap.FieldDomain,
	merklemap.FieldSubjectCommonName,
	merklemap.FieldNotBefore,
}

// AppendStats summarizes what an Appender wrote during its lifetime.
type AppendStats struct {
	Rows   int64  // Data rows written, header excluded.
	Bytes  int64  // Bytes written, header included.
	Digest string // xxh3 of every byte written, hex encoded.
}

// Appender writes records to one CSV file and keeps running totals.
// It is not safe for concurrent use.
type Appender struct {
	path   string
	digest *xxh3.Hasher
	rows   int64
	bytes  int64
}

// NewAppender returns an Appender for path. The file is not touched until the first Append.
func NewAppender(path string) *Appender {
	return &Appender{path: path, digest: xxh3.New()}
}

// Path returns the output file path.
func (a *Appender) Path() string {
	return a.path
}

// Append writes records as CSV rows. With isFirstWrite the file is truncated (or created)
// and a header row is written first; otherwise rows are appended after existing content.
// An empty records slice is a no-op: the file is neither created nor modified.
func (a *Appender) Append(records []merklemap.Record, isFirstWrite bool) error {
	if len(records) == 0 {
		return nil
	}
	n, err := a.write(records, isFirstWrite)
	metrics.GetMetrics().ObserveWrite(len(records), n, err)
	if err != nil {
		return err
	}
	a.rows += int64(len(records))
	return nil
}

func (a *Appender) write(records []merklemap.Record, isFirstWrite bool) (int64, error) {
	flag := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if isFirstWrite {
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(a.path, flag, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open output file %s: %w", a.path, err)
	}

	cw := &countingWriter{file: f, digest: a.digest}
	w := csv.NewWriter(cw)
	w.UseCRLF = true

	if isFirstWrite {
		if err := w.Write(Header); err != nil {
			f.Close()
			return cw.n, fmt.Errorf("failed to write header to %s: %w", a.path, err)
		}
	}
	for _, rec := range records {
		if err := w.Write(rec.Row()); err != nil {
			f.Close()
			return cw.n, fmt.Errorf("failed to write row to %s: %w", a.path, err)
		}
	}
	w.Flush()
	a.bytes += cw.n
	if err := w.Error(); err != nil {
		f.Close()
		return cw.n, fmt.Errorf("failed to flush %s: %w", a.path, err)
	}
	if err := f.Close(); err != nil {
		return cw.n, fmt.Errorf("failed to close %s: %w", a.path, err)
	}
	return cw.n, nil
}

// Stats returns the totals accumulated so far.
func (a *Appender) Stats() AppendStats {
	return AppendStats{
		Rows:   a.rows,
		Bytes:  a.bytes,
		Digest: fmt.Sprintf("%016x", a.digest.Sum64()),
	}
}

// AppendRecords is the one-shot form of Appender.Append.
func AppendRecords(path string, records []merklemap.Record, isFirstWrite bool) error {
	return NewAppender(path).Append(records, isFirstWrite)
}

// countingWriter forwards to the output file and feeds the run digest
// with exactly the bytes the file accepted.
type countingWriter struct {
	file   *os.File
	digest *xxh3.Hasher
	n      int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.file.Write(p)
	if n > 0 {
		c.digest.Write(p[:n])
		c.n += int64(n)
	}
	return n, err
}
