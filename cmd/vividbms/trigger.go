package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/scheduling"
	"github.com/spf13/cobra"
)

const triggerPath = "/api/functions/autoGenerateWorkOrders"

var (
	triggerURL     string
	triggerToken   string
	triggerTimeout time.Duration
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Ask a running server to generate today's work orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &http.Client{Timeout: triggerTimeout}
		summary, err := triggerRun(cmd.Context(), client, triggerURL, triggerToken)
		if err != nil {
			return err
		}
		return printSummary(cmd.OutOrStdout(), summary)
	},
}

func init() {
	triggerCmd.Flags().StringVar(&triggerURL, "url", "http://localhost:8080", "base URL of the API server")
	triggerCmd.Flags().StringVar(&triggerToken, "token", "", "bearer token of a user allowed to run the scheduler")
	triggerCmd.Flags().DurationVar(&triggerTimeout, "timeout", 6*time.Minute, "how long to wait for the run to finish")
}

type triggerError struct {
	Error string `json:"error"`
}

// triggerRun posts to the manual trigger endpoint and decodes the summary.
func triggerRun(ctx context.Context, client *http.Client, baseURL, token string) (*scheduling.Summary, error) {
	url := strings.TrimRight(baseURL, "/") + triggerPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var summary scheduling.Summary
		if err := json.Unmarshal(body, &summary); err != nil {
			return nil, fmt.Errorf("decode summary: %w", err)
		}
		return &summary, nil
	case http.StatusConflict:
		return nil, scheduling.ErrRunInProgress
	default:
		var e triggerError
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("trigger failed with status %d: %s", resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("trigger failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}
