package commands

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/dantte-lp/alohamac/internal/statusapi"
)

func queuesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queues",
		Short: "List neighbor queues and their depths",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			status, err := fetchStatus()
			if err != nil {
				return fmt.Errorf("fetch status: %w", err)
			}

			out, err := formatQueues(status, outputFormat)
			if err != nil {
				return fmt.Errorf("format queues: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
}

// fetchStatus requests and decodes alohad's /status endpoint.
func fetchStatus() (*statusapi.Status, error) {
	resp, err := httpClient.Get("http://" + serverAddr + "/status")
	if err != nil {
		return nil, fmt.Errorf("GET /status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET /status: unexpected status %s", resp.Status)
	}

	var status statusapi.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}
