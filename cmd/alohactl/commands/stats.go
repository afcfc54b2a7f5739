package commands

import (
	"fmt"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

// statsSeries lists the metric names stats prints, in display order.
var statsSeries = []string{
	"aloha_radio_on",
	"aloha_neighbor_queues",
	"aloha_frames_sent_total",
	"aloha_frames_acked_total",
	"aloha_frames_noack_total",
	"aloha_retries_total",
	"aloha_broadcasts_rate_limited_total",
	"aloha_duplicate_frames_dropped_total",
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Scrape alohad's Prometheus counters and gauges",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			families, err := fetchMetrics()
			if err != nil {
				return fmt.Errorf("fetch metrics: %w", err)
			}

			out, err := formatStats(families, outputFormat)
			if err != nil {
				return fmt.Errorf("format stats: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
}

// fetchMetrics scrapes alohad's /metrics endpoint and parses the Prometheus
// text exposition format into metric families.
func fetchMetrics() (map[string]*dto.MetricFamily, error) {
	resp, err := httpClient.Get("http://" + serverAddr + "/metrics")
	if err != nil {
		return nil, fmt.Errorf("GET /metrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET /metrics: unexpected status %s", resp.Status)
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse metrics: %w", err)
	}
	return families, nil
}
