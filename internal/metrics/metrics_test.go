package metrics

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserversAreNoopsWhenDisabled(t *testing.T) {
	metricsEnabled = false
	m := GetMetrics()

	before := testutil.ToFloat64(m.PagesProcessed)
	m.ObservePage(3)
	m.ObserveWrite(10, 100, nil)
	require.Equal(t, before, testutil.ToFloat64(m.PagesProcessed))
}

func TestObservers(t *testing.T) {
	EnableMetrics()
	defer func() { metricsEnabled = false }()
	m := GetMetrics()

	pages := testutil.ToFloat64(m.PagesProcessed)
	rows := testutil.ToFloat64(m.RowsWritten)
	werr := testutil.ToFloat64(m.WriteErrors)
	rl := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("429"))
	transport := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("error"))

	m.ObservePage(7)
	m.ObserveWrite(3, 120, nil)
	m.ObserveWrite(5, 0, errors.New("disk full"))
	m.ObserveRequest(429, 20*time.Millisecond)
	m.ObserveRequest(0, time.Second)
	m.SetRunConfig(11088, 1500*time.Millisecond)

	require.Equal(t, pages+1, testutil.ToFloat64(m.PagesProcessed))
	require.Equal(t, float64(7), testutil.ToFloat64(m.CurrentPage))
	require.Equal(t, rows+3, testutil.ToFloat64(m.RowsWritten))
	require.Equal(t, werr+1, testutil.ToFloat64(m.WriteErrors))
	require.Equal(t, rl+1, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("429")))
	require.Equal(t, transport+1, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("error")))
	require.Equal(t, float64(11088), testutil.ToFloat64(m.LastPage))
	require.Equal(t, 1.5, testutil.ToFloat64(m.SleepSeconds))
}

func TestStartMetricsServerServesRegistry(t *testing.T) {
	EnableMetrics()
	defer func() { metricsEnabled = false }()
	GetMetrics().ObservePage(1)

	require.NoError(t, StartMetricsServer("127.0.0.1:0"))
	require.NotNil(t, metricsServer)
	defer ShutdownMetricsServer(t.Context())

	require.NotNil(t, metricsAddr)

	res, err := http.Get("http://" + metricsAddr.String() + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "merklescrape_pages_processed_total")
}

func TestMetricsHandlerOutput(t *testing.T) {
	EnableMetrics()
	defer func() { metricsEnabled = false }()
	GetMetrics().SetRunConfig(42, time.Second)

	err := testutil.GatherAndCompare(Registry(), strings.NewReader(`
# HELP merklescrape_last_page Configured last page index (inclusive)
# TYPE merklescrape_last_page gauge
merklescrape_last_page 42
`), "merklescrape_last_page")
	require.NoError(t, err)
}
