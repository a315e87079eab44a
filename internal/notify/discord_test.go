package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/meli-collector/internal/metrics"
	domain "github.com/donaldgifford/meli-collector/pkg/types"
)

func testReport() *Report {
	return &Report{
		RunID: "4f1c2b0e-0000-4000-8000-000000000001",
		Terms: []domain.TermOutcome{
			{Term: "chromecast", Status: domain.TermSucceeded, Collected: 2},
			{Term: "macbook", Status: domain.TermFailed},
		},
		FailedTerms: []string{"macbook"},
		Records:     2,
		ExportPath:  "output/20261019140509_output.csv",
		Duration:    42 * time.Second,
	}
}

func TestReport_Outcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		report Report
		want   string
	}{
		{name: "everything collected", report: Report{Records: 3}, want: OutcomeComplete},
		{name: "failed term", report: Report{Records: 3, FailedTerms: []string{"x"}}, want: OutcomePartial},
		{name: "failed item", report: Report{Records: 3, ItemFailures: 1}, want: OutcomePartial},
		{name: "nothing collected", report: Report{FailedTerms: []string{"x"}}, want: OutcomeEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.report.Outcome())
		})
	}
}

func TestDiscordNotifier_SendRunReport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		report     *Report
		statusCode int
		wantErr    bool
		errMsg     string
		wantColor  int
	}{
		{
			name:       "partial run",
			report:     testReport(),
			statusCode: http.StatusNoContent,
			wantColor:  colorYellow,
		},
		{
			name: "complete run",
			report: &Report{
				RunID:   "r",
				Terms:   []domain.TermOutcome{{Term: "a", Status: domain.TermSucceeded}},
				Records: 1,
			},
			statusCode: http.StatusNoContent,
			wantColor:  colorGreen,
		},
		{
			name:       "empty run",
			report:     &Report{RunID: "r", FailedTerms: []string{"a"}},
			statusCode: http.StatusNoContent,
			wantColor:  colorRed,
		},
		{
			name:       "discord returns 429 rate limited",
			report:     testReport(),
			statusCode: http.StatusTooManyRequests,
			wantErr:    true,
			errMsg:     "rate limited",
		},
		{
			name:       "discord returns 400 error",
			report:     testReport(),
			statusCode: http.StatusBadRequest,
			wantErr:    true,
			errMsg:     "discord returned 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var received discordWebhookPayload

			srv := httptest.NewServer(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
					assert.Equal(t, http.MethodPost, r.Method)

					err := json.NewDecoder(r.Body).Decode(&received)
					assert.NoError(t, err)

					w.WriteHeader(tt.statusCode)
				}),
			)
			defer srv.Close()

			d := NewDiscordNotifier(srv.URL)
			err := d.SendRunReport(context.Background(), tt.report)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			require.NoError(t, err)
			require.Len(t, received.Embeds, 1)

			embed := received.Embeds[0]
			assert.Equal(t, tt.wantColor, embed.Color)
			assert.Equal(t, "Collection run "+tt.report.Outcome(), embed.Title)
			assert.Contains(t, embed.Description, tt.report.RunID)
		})
	}
}

func TestBuildEmbed_Fields(t *testing.T) {
	t.Parallel()

	embed := buildEmbed(testReport())

	fieldMap := make(map[string]string)
	for _, f := range embed.Fields {
		fieldMap[f.Name] = f.Value
	}
	assert.Equal(t, "2", fieldMap["Records"])
	assert.Equal(t, "0", fieldMap["Item failures"])
	assert.Equal(t, "1/2 succeeded", fieldMap["Terms"])
	assert.Equal(t, "42s", fieldMap["Duration"])
	assert.Equal(t, "macbook", fieldMap["Failed terms"])
	assert.Equal(t, "output/20261019140509_output.csv", fieldMap["Export"])
}

func TestBuildEmbed_LongFailedTermsTruncated(t *testing.T) {
	t.Parallel()

	r := testReport()
	r.FailedTerms = nil
	for range 200 {
		r.FailedTerms = append(r.FailedTerms, "monitor portátil")
	}

	embed := buildEmbed(r)
	for _, f := range embed.Fields {
		if f.Name == "Failed terms" {
			assert.LessOrEqual(t, len(f.Value), maxFieldValue)
			assert.True(t, strings.HasSuffix(f.Value, "..."))
			return
		}
	}
	t.Fatal("failed terms field missing")
}

func TestBuildEmbed_NoExport(t *testing.T) {
	t.Parallel()

	r := testReport()
	r.ExportPath = ""
	r.FailedTerms = nil

	for _, f := range buildEmbed(r).Fields {
		assert.NotEqual(t, "Export", f.Name)
		assert.NotEqual(t, "Failed terms", f.Name)
	}
}

func TestDiscordNotifier_NetworkError(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("http://127.0.0.1:1") // nothing listening
	err := d.SendRunReport(context.Background(), testReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending discord webhook")
}

func TestDiscordNotifier_InvalidWebhookURL(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("://not-a-valid-url")
	err := d.SendRunReport(context.Background(), testReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating discord request")
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	custom := &http.Client{}
	d := NewDiscordNotifier("https://example.com", WithHTTPClient(custom))
	assert.Same(t, custom, d.client)
}

func getNotificationHistogramSampleCount() uint64 {
	ch := make(chan prometheus.Metric, 1)
	metrics.NotificationDuration.Collect(ch)
	m := <-ch
	pb := &dto.Metric{}
	_ = m.Write(pb)
	return pb.GetHistogram().GetSampleCount()
}

func TestSendRunReport_ObservesNotificationDuration(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	before := getNotificationHistogramSampleCount()

	d := NewDiscordNotifier(srv.URL)
	require.NoError(t, d.SendRunReport(context.Background(), testReport()))

	after := getNotificationHistogramSampleCount()
	assert.Greater(t, after, before, "NotificationDuration histogram sample count should increase")
}
