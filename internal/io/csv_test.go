package io

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/x-stp/merklescrape/internal/merklemap"
)

func records(domains ...string) []merklemap.Record {
	out := make([]merklemap.Record, 0, len(domains))
	for _, d := range domains {
		out = append(out, merklemap.Record{
			Domain:            d,
			SubjectCommonName: "*.vercel.app",
			NotBefore:         "2023-11-14T22:13:20",
		})
	}
	return out
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(b)
	require.True(t, strings.HasSuffix(s, "\r\n"), "rows must end in CRLF: %q", s)
	return strings.Split(strings.TrimSuffix(s, "\r\n"), "\r\n")
}

func TestAppendRecordsFirstWriteResetsFileWithHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultOutputFile)
	require.NoError(t, os.WriteFile(path, []byte("stale content\r\n"), 0644))

	require.NoError(t, AppendRecords(path, records("a.vercel.app", "b.vercel.app"), true))

	require.Equal(t, []string{
		"domain,subject_common_name,not_before",
		"a.vercel.app,*.vercel.app,2023-11-14T22:13:20",
		"b.vercel.app,*.vercel.app,2023-11-14T22:13:20",
	}, readLines(t, path))
}

func TestAppendRecordsAppendsWithoutHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultOutputFile)
	require.NoError(t, AppendRecords(path, records("a.vercel.app"), true))
	require.NoError(t, AppendRecords(path, records("b.vercel.app", "c.vercel.app"), false))

	lines := readLines(t, path)
	require.Len(t, lines, 4)
	require.Equal(t, "domain,subject_common_name,not_before", lines[0])
	require.True(t, strings.HasPrefix(lines[3], "c.vercel.app,"))
}

func TestAppendRecordsCreatesMissingFileWithoutHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultOutputFile)
	require.NoError(t, AppendRecords(path, records("e.vercel.app"), false))

	require.Equal(t, []string{"e.vercel.app,*.vercel.app,2023-11-14T22:13:20"}, readLines(t, path))
}

func TestAppendRecordsEmptyIsNoop(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.csv")
	require.NoError(t, AppendRecords(missing, nil, true))
	_, err := os.Stat(missing)
	require.True(t, os.IsNotExist(err), "empty append must not create the file")

	existing := filepath.Join(dir, "existing.csv")
	require.NoError(t, os.WriteFile(existing, []byte("keep\r\n"), 0644))
	require.NoError(t, AppendRecords(existing, []merklemap.Record{}, true))
	b, err := os.ReadFile(existing)
	require.NoError(t, err)
	require.Equal(t, "keep\r\n", string(b))
}

func TestAppendRecordsQuotesFields(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultOutputFile)
	recs := []merklemap.Record{{Domain: "x.vercel.app", SubjectCommonName: `Acme, "Inc"`, NotBefore: "t"}}
	require.NoError(t, AppendRecords(path, recs, false))

	require.Equal(t, []string{`x.vercel.app,"Acme, ""Inc""",t`}, readLines(t, path))
}

func TestAppenderStats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := NewAppender(filepath.Join(dir, "a.csv"))
	require.NoError(t, a.Append(records("a.vercel.app"), true))
	require.NoError(t, a.Append(nil, false))
	require.NoError(t, a.Append(records("b.vercel.app", "c.vercel.app"), false))

	st := a.Stats()
	require.Equal(t, int64(3), st.Rows)

	b, err := os.ReadFile(a.Path())
	require.NoError(t, err)
	require.Equal(t, int64(len(b)), st.Bytes)
	require.Len(t, st.Digest, 16)

	// Same bytes, same digest.
	other := NewAppender(filepath.Join(dir, "b.csv"))
	require.NoError(t, other.Append(records("a.vercel.app"), true))
	require.NoError(t, other.Append(records("b.vercel.app", "c.vercel.app"), false))
	require.Equal(t, st.Digest, other.Stats().Digest)
}

func TestAppendRecordsOpenFailure(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "no-such-dir", "out.csv")
	err := AppendRecords(path, records("a.vercel.app"), true)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to open output file")
}
