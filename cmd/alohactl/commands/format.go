package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	dto "github.com/prometheus/client_model/go"

	"github.com/dantte-lp/alohamac/internal/statusapi"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

// formatQueues renders a node's neighbor queue snapshot in the requested format.
func formatQueues(status *statusapi.Status, format string) (string, error) {
	switch format {
	case formatJSON:
		b, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal status: %w", err)
		}
		return string(b) + "\n", nil
	case formatTable:
		return formatQueuesTable(status), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatQueuesTable(status *statusapi.Status) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "node: %s  version: %s\n\n", status.Node, status.Version)

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NEIGHBOR\tLENGTH\tTRANSMISSIONS")
	for _, q := range status.Queues {
		fmt.Fprintf(w, "%s\t%d\t%d\n", q.Addr, q.Length, q.Transmissions)
	}
	w.Flush()

	return buf.String()
}

// formatStats renders a set of metric families in the requested format.
func formatStats(families map[string]*dto.MetricFamily, format string) (string, error) {
	switch format {
	case formatJSON:
		out := make(map[string]float64, len(statsSeries))
		for _, name := range statsSeries {
			out[name] = metricValue(families[name])
		}
		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal stats: %w", err)
		}
		return string(b) + "\n", nil
	case formatTable:
		return formatStatsTable(families), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatStatsTable(families map[string]*dto.MetricFamily) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE")
	for _, name := range statsSeries {
		fmt.Fprintf(w, "%s\t%g\n", name, metricValue(families[name]))
	}
	w.Flush()

	return buf.String()
}

// metricValue extracts the single scalar reading from a family that has
// exactly one metric series (true for every unlabeled counter or gauge
// this command prints; labeled families like pool_exhausted_total are
// intentionally left off statsSeries).
func metricValue(family *dto.MetricFamily) float64 {
	if family == nil || len(family.GetMetric()) == 0 {
		return 0
	}
	m := family.GetMetric()[0]
	if g := m.GetGauge(); g != nil {
		return g.GetValue()
	}
	if c := m.GetCounter(); c != nil {
		return c.GetValue()
	}
	return 0
}
