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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDomain(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"Simple domain", "app.vercel.app", "app.vercel.app"},
		{"Uppercase", "APP.VERCEL.APP", "app.vercel.app"},
		{"Trailing dot", "app.vercel.app.", "app.vercel.app"},
		{"Leading dot", ".app.vercel.app", "app.vercel.app"},
		{"Spaces", "  app.vercel.app  ", "app.vercel.app"},
		{"Wildcard", "*.App.vercel.app", "*.app.vercel.app"},
		{"Empty", "", ""},
		{"Just dots", "...", ""},
		{"Internal spaces", "app vercel.app", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeDomain(tc.input); got != tc.expected {
				t.Errorf("NormalizeDomain(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestExportDomainList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, DefaultOutputFile)
	require.NoError(t, os.WriteFile(csvPath, []byte(strings.Join([]string{
		"domain,subject_common_name,not_before",
		"b.vercel.app,b.vercel.app,2023-11-14T22:13:20",
		"A.vercel.app,a.vercel.app,2023-11-14T22:13:20",
		"b.vercel.app.,b.vercel.app,2023-11-15T22:13:20",
		"*.c.vercel.app,*.c.vercel.app,2023-11-14T22:13:20",
		",empty,2023-11-14T22:13:20",
		"a.vercel.app,a.vercel.app,2023-11-16T22:13:20",
	}, "\r\n")+"\r\n"), 0644))

	outPath := filepath.Join(dir, "public", "list.txt")
	stats, err := ExportDomainList(csvPath, outPath, ExportOptions{})
	require.NoError(t, err)

	b, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, "b.vercel.app\na.vercel.app\n", string(b))
	require.Equal(t, ExportStats{Rows: 6, Unique: 2, Duplicates: 2, Skipped: 2, Bytes: int64(len(b))}, stats)
}

func TestExportDomainListWithoutHeaderKeepsWildcards(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "resumed.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"*.x.vercel.app,*.x.vercel.app,2023-11-14T22:13:20\r\ny.vercel.app,y.vercel.app,2023-11-14T22:13:20\r\n"), 0644))

	outPath := filepath.Join(dir, "list.txt")
	stats, err := ExportDomainList(csvPath, outPath, ExportOptions{KeepWildcards: true})
	require.NoError(t, err)
	require.Equal(t, 2, stats.Rows)
	require.Equal(t, 2, stats.Unique)

	b, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, "*.x.vercel.app\ny.vercel.app\n", string(b))
}

func TestExportDomainListMissingInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := ExportDomainList(filepath.Join(dir, "nope.csv"), filepath.Join(dir, "out.txt"), ExportOptions{})
	require.Error(t, err)
}
