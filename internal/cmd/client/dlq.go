package client

import (
	"encoding/json"
	"net/url"

	"github.com/spf13/cobra"
)

// NewDLQCommand constructs the `dlq` command group.
func NewDLQCommand(baseURL BaseURLFunc) *cobra.Command {
	dlqCmd := &cobra.Command{Use: "dlq", Short: "Dead letter queue operations"}
	dlqCmd.AddCommand(newDLQListCommand(baseURL))
	return dlqCmd
}

func newDLQListCommand(baseURL BaseURLFunc) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List dead-lettered messages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, _ := cmd.Flags().GetString("queue")
			filter, _ := cmd.Flags().GetString("filter")

			path := "/v1/dlq/list?queue=" + url.QueryEscape(q)
			if filter != "" {
				path += "&filter=" + url.QueryEscape(filter)
			}
			var resp struct {
				Messages []wireMessage `json:"messages"`
			}
			if err := getJSON(baseURL(), path, &resp); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, m := range resp.Messages {
				dm := decodedMessage(m.ID, m.Payload)
				dm["retry_count"] = m.RetryCount
				dm["max_retries"] = m.MaxRetries
				_ = enc.Encode(dm)
			}
			return nil
		},
	}
	listCmd.Flags().StringP("queue", "q", "", "Queue name")
	listCmd.Flags().String("filter", "", "CEL filter (server-side), e.g. retry_count >= 3")
	return listCmd
}
