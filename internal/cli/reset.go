package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"resty.dev/v3"
)

var (
	resetAddr  string
	resetToken string
)

func init() {
	resetCmd.Flags().StringVar(&resetAddr, "addr", "http://localhost:8080", "base URL of a running orchestrator server")
	resetCmd.Flags().StringVar(&resetToken, "token", "", "admin bearer token, if the server requires one")
	rootCmd.AddCommand(resetCmd)
}

var resetCmd = &cobra.Command{
	Use:   "reset BATCH_ID",
	Short: "Force a batch to ERROR, abandoning any in-flight tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runReset,
}

func runReset(cmd *cobra.Command, args []string) error {
	batchID := args[0]

	client := resty.New()
	defer client.Close()

	req := client.R()
	if resetToken != "" {
		req.SetAuthToken(resetToken)
	}

	resp, err := req.Post(fmt.Sprintf("%s/admin/reset/%s", resetAddr, batchID))
	if err != nil {
		return fmt.Errorf("request reset: %w", err)
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode(), resp.String())
	}

	fmt.Fprintf(cmd.OutOrStdout(), "batch %s reset\n", batchID)
	return nil
}
