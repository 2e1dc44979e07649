package merklemap

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
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// NotBeforeLayout is the layout of the not_before column: an ISO-8601 local time
// without a UTC offset. Sub-second timestamps get a six digit microsecond suffix.
const NotBeforeLayout = "2006-01-02T15:04:05"

var jsonNull = []byte("null")

// ProcessResults converts raw results into records, preserving length and order.
// Timestamps are rendered in the host's local time zone (time.Local), so the output
// of the same page differs between machines in different zones.
func ProcessResults(results []RawResult) ([]Record, error) {
	return processResults(results, time.Local)
}

func processResults(results []RawResult, loc *time.Location) ([]Record, error) {
	records := make([]Record, 0, len(results))
	for i, res := range results {
		rec, err := processResult(i, res, loc)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func processResult(i int, res RawResult, loc *time.Location) (Record, error) {
	var rec Record
	var err error
	if rec.Domain, err = stringField(i, FieldDomain, res.Domain); err != nil {
		return Record{}, err
	}
	if rec.SubjectCommonName, err = stringField(i, FieldSubjectCommonName, res.SubjectCommonName); err != nil {
		return Record{}, err
	}
	if res.NotBefore == nil {
		return Record{}, &MissingFieldError{Index: i, Field: FieldNotBefore}
	}
	if bytes.Equal(bytes.TrimSpace(res.NotBefore), jsonNull) {
		return Record{}, fmt.Errorf("result %d: %s is null", i, FieldNotBefore)
	}
	var ts json.Number
	if err := json.Unmarshal(res.NotBefore, &ts); err != nil {
		return Record{}, fmt.Errorf("result %d: %s: %w", i, FieldNotBefore, err)
	}
	if rec.NotBefore, err = formatNotBefore(ts, loc); err != nil {
		return Record{}, fmt.Errorf("result %d: %w", i, err)
	}
	return rec, nil
}

// stringField decodes a text column. null becomes the empty string and
// non-string scalars are kept as their JSON text.
func stringField(i int, name string, raw json.RawMessage) (string, error) {
	if raw == nil {
		return "", &MissingFieldError{Index: i, Field: name}
	}
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, jsonNull) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s, nil
	}
	return string(trimmed), nil
}

// FormatNotBefore renders a Unix timestamp (integer or fractional seconds) in local time.
func FormatNotBefore(ts json.Number) (string, error) {
	return formatNotBefore(ts, time.Local)
}

func formatNotBefore(ts json.Number, loc *time.Location) (string, error) {
	if sec, err := ts.Int64(); err == nil {
		return time.Unix(sec, 0).In(loc).Format(NotBeforeLayout), nil
	}
	f, err := ts.Float64()
	if err != nil {
		return "", fmt.Errorf("%s: invalid timestamp %q: %w", FieldNotBefore, ts.String(), err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%s: invalid timestamp %q", FieldNotBefore, ts.String())
	}
	sec := math.Floor(f)
	usec := math.RoundToEven((f - sec) * 1e6)
	if usec >= 1e6 {
		sec++
		usec = 0
	}
	t := time.Unix(int64(sec), int64(usec)*int64(time.Microsecond)).In(loc)
	if usec == 0 {
		return t.Format(NotBeforeLayout), nil
	}
	return t.Format(NotBeforeLayout) + fmt.Sprintf(".%06d", int64(usec)), nil
}
