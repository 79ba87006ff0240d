package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"resty.dev/v3"

	"github.com/getpup/preprocessing-orchestrator"
)

var statusAddr string

func init() {
	statusCmd.Flags().StringVar(&statusAddr, "addr", "http://localhost:8080", "base URL of a running orchestrator server")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status BATCH_ID",
	Short: "Fetch a batch's current status from a running orchestrator server",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	batchID := args[0]

	client := resty.New()
	defer client.Close()

	var view batch.StatusView
	resp, err := client.R().
		SetResult(&view).
		Get(fmt.Sprintf("%s/status/%s", statusAddr, batchID))
	if err != nil {
		return fmt.Errorf("request status: %w", err)
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode(), resp.String())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Batch:      %s\n", view.BatchID)
	fmt.Fprintf(out, "Status:     %s\n", view.Status)
	fmt.Fprintf(out, "Tasks:      %d total, %d completed, %d failed\n", view.TasksTotal, view.TasksCompleted, view.TasksFailed)
	fmt.Fprintf(out, "Started:    %s\n", view.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Updated:    %s\n", view.UpdatedAt.Format("2006-01-02 15:04:05"))
	if view.CompletedAt != nil {
		fmt.Fprintf(out, "Completed:  %s\n", view.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	if view.Error != "" {
		fmt.Fprintf(out, "Error:      %s\n", view.Error)
	}

	return nil
}
