package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// wireMessage mirrors the HTTP surface's message JSON.
type wireMessage struct {
	ID          uint64 `json:"id"`
	Payload     []byte `json:"payload"`
	Priority    uint32 `json:"priority"`
	AvailableAt string `json:"available_at"`
	RetryCount  int    `json:"retry_count"`
	MaxRetries  int    `json:"max_retries"`
}

// NewQueueCommand constructs the `queue` command group and subcommands.
func NewQueueCommand(baseURL BaseURLFunc) *cobra.Command {
	queueCmd := &cobra.Command{Use: "queue", Short: "Queue operations"}
	queueCmd.AddCommand(
		newQueuePushCommand(baseURL),
		newQueuePopCommand(baseURL),
		newQueuePopBatchCommand(baseURL),
		newQueueAckCommand(baseURL),
		newQueueStatsCommand(baseURL),
		newQueueListCommand(baseURL),
	)
	return queueCmd
}

func newQueuePushCommand(baseURL BaseURLFunc) *cobra.Command {
	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "Push a message",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, _ := cmd.Flags().GetString("queue")
			id, _ := cmd.Flags().GetUint64("id")
			payload, _ := cmd.Flags().GetString("payload")
			priority, _ := cmd.Flags().GetUint32("priority")
			delayMs, _ := cmd.Flags().GetInt64("delay-ms")
			maxRetries, _ := cmd.Flags().GetInt("max-retries")

			var resp struct {
				ID            uint64 `json:"id"`
				AvailableAtMs int64  `json:"availableAtMs"`
			}
			err := postJSON(baseURL(), "/v1/queue/push", map[string]any{
				"queue":      q,
				"id":         id,
				"payload":    []byte(payload),
				"priority":   priority,
				"delayMs":    delayMs,
				"maxRetries": maxRetries,
			}, &resp)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed id=%d available_at_ms=%d\n", resp.ID, resp.AvailableAtMs)
			return nil
		},
	}
	pushCmd.Flags().StringP("queue", "q", "", "Queue name (empty = default queue)")
	pushCmd.Flags().Uint64("id", 0, "Message id (assigned by caller)")
	pushCmd.Flags().String("payload", "", "Message payload")
	pushCmd.Flags().Uint32("priority", 0, "Priority (higher delivers first)")
	pushCmd.Flags().Int64("delay-ms", 0, "Delivery delay in ms")
	pushCmd.Flags().Int("max-retries", 0, "Retry budget (0 = server default)")
	return pushCmd
}

func newQueuePopCommand(baseURL BaseURLFunc) *cobra.Command {
	popCmd := &cobra.Command{
		Use:   "pop",
		Short: "Pop the most urgent ready message",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, _ := cmd.Flags().GetString("queue")
			var resp struct {
				Message *wireMessage `json:"message"`
				Reason  string       `json:"reason"`
			}
			if err := postJSON(baseURL(), "/v1/queue/pop", map[string]any{"queue": q}, &resp); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			if resp.Message == nil {
				return enc.Encode(map[string]string{"reason": resp.Reason})
			}
			return enc.Encode(decodedMessage(resp.Message.ID, resp.Message.Payload))
		},
	}
	popCmd.Flags().StringP("queue", "q", "", "Queue name")
	return popCmd
}

func newQueuePopBatchCommand(baseURL BaseURLFunc) *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "pop-batch",
		Short: "Pop up to N ready messages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, _ := cmd.Flags().GetString("queue")
			max, _ := cmd.Flags().GetInt("max")
			var resp struct {
				Messages []wireMessage `json:"messages"`
			}
			if err := postJSON(baseURL(), "/v1/queue/pop_batch", map[string]any{"queue": q, "max": max}, &resp); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, m := range resp.Messages {
				_ = enc.Encode(decodedMessage(m.ID, m.Payload))
			}
			return nil
		},
	}
	batchCmd.Flags().StringP("queue", "q", "", "Queue name")
	batchCmd.Flags().Int("max", 10, "Maximum messages to pop")
	return batchCmd
}

func newQueueAckCommand(baseURL BaseURLFunc) *cobra.Command {
	ackCmd := &cobra.Command{
		Use:   "ack",
		Short: "Acknowledge a message",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, _ := cmd.Flags().GetString("queue")
			id, _ := cmd.Flags().GetUint64("id")
			if err := postJSON(baseURL(), "/v1/queue/ack", map[string]any{"queue": q, "id": id}, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "acked id=%d\n", id)
			return nil
		},
	}
	ackCmd.Flags().StringP("queue", "q", "", "Queue name")
	ackCmd.Flags().Uint64("id", 0, "Message id")
	return ackCmd
}

func newQueueStatsCommand(baseURL BaseURLFunc) *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show queue stats",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, _ := cmd.Flags().GetString("queue")
			var resp map[string]any
			if err := getJSON(baseURL(), "/v1/queue/stats?queue="+q, &resp); err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(resp)
		},
	}
	statsCmd.Flags().StringP("queue", "q", "", "Queue name")
	return statsCmd
}

func newQueueListCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List open queues",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp struct {
				Queues []string `json:"queues"`
			}
			if err := getJSON(baseURL(), "/v1/queues", &resp); err != nil {
				return err
			}
			for _, name := range resp.Queues {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
