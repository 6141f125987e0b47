package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keepsake-ai/keepsake/internal/engine"
	"github.com/keepsake-ai/keepsake/pkg/types"
)

// printJSON renders command output for both humans and scripts.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newIngestCmd() *cobra.Command {
	var userID, itemType, metadataJSON, hintChoice string

	cmd := &cobra.Command{
		Use:   "ingest <content>",
		Short: "Run content through the memory pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := engine.IngestRequest{UserID: userID, Content: args[0], Type: itemType}
			if metadataJSON != "" {
				if err := json.Unmarshal([]byte(metadataJSON), &req.Metadata); err != nil {
					return fmt.Errorf("invalid --metadata: %w", err)
				}
			}
			if hintChoice != "" {
				req.ConsentHint = &types.ConsentDecision{Choice: types.ConsentChoice(hintChoice)}
			}
			return withApp(func(a *app) error {
				res, err := a.engine.Ingest(cmd.Context(), req)
				if err != nil {
					return err
				}
				out := map[string]interface{}{
					"category":           res.Category,
					"consent_state":      res.State,
					"has_pii":            res.Detection.HasPII,
					"needs_consent":      res.Detection.NeedsConsent,
					"detected":           res.Detection.DetectedItems,
					"deleted":            res.Deleted,
					"long_term_degraded": res.LongTermDegraded,
				}
				if res.Item != nil {
					out["memory_id"] = res.Item.ID
				}
				return printJSON(out)
			})
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user the memory belongs to (required)")
	cmd.Flags().StringVar(&itemType, "type", "user_message", "memory item type")
	cmd.Flags().StringVar(&metadataJSON, "metadata", "", "extra item metadata as a JSON object")
	cmd.Flags().StringVar(&hintChoice, "consent", "", "pre-answered consent choice applied if detection requires one")
	cmd.MarkFlagRequired("user")
	return cmd
}

func newResolveCmd() *cobra.Command {
	var userID, choice, actionsJSON string

	cmd := &cobra.Command{
		Use:   "resolve <memory-id>",
		Short: "Apply a consent decision to a pending memory",
		Long: `Apply a consent decision to a memory with detected sensitive content.

Pass either --choice (remove_entirely, remove_pii_only, keep_original) or
--actions with a JSON object mapping every detected item id to keep,
anonymize, or remove.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decision := types.ConsentDecision{Choice: types.ConsentChoice(choice)}
			if actionsJSON != "" {
				if err := json.Unmarshal([]byte(actionsJSON), &decision.Actions); err != nil {
					return fmt.Errorf("invalid --actions: %w", err)
				}
			}
			return withApp(func(a *app) error {
				res, err := a.engine.ResolveConsent(cmd.Context(), userID, args[0], decision)
				if err != nil {
					return err
				}
				out := map[string]interface{}{
					"deleted":            res.Deleted,
					"choice":             res.Choice,
					"previous_state":     res.PreviousState,
					"long_term_degraded": res.LongTermDegraded,
				}
				if res.Item != nil {
					out["content"] = res.Item.Content
					out["metadata"] = res.Item.Metadata
				}
				return printJSON(out)
			})
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user the memory belongs to (required)")
	cmd.Flags().StringVar(&choice, "choice", "", "whole-item choice: remove_entirely, remove_pii_only, keep_original")
	cmd.Flags().StringVar(&actionsJSON, "actions", "", "per-item actions as JSON, e.g. '{\"person-11\":\"anonymize\"}'")
	cmd.MarkFlagRequired("user")
	return cmd
}

func newRetrieveCmd() *cobra.Command {
	var userID, query string
	var limit int

	cmd := &cobra.Command{
		Use:   "retrieve",
		Short: "Assemble a user's memory context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				mc, err := a.engine.Retrieve(cmd.Context(), userID, query, limit)
				if err != nil {
					return err
				}
				return printJSON(mc)
			})
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user to retrieve for (required)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "relevance query for the long-term tier")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum items per tier")
	cmd.MarkFlagRequired("user")
	return cmd
}

func newPendingCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List memories awaiting a consent decision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				return printJSON(map[string]interface{}{
					"pending": a.engine.PendingConsent(userID),
				})
			})
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user to list for (required)")
	cmd.MarkFlagRequired("user")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "delete <memory-id>",
		Short: "Remove one memory from every tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				removed, err := a.engine.Delete(cmd.Context(), userID, args[0])
				if err != nil {
					return err
				}
				return printJSON(map[string]interface{}{"removed": removed})
			})
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user the memory belongs to (required)")
	cmd.MarkFlagRequired("user")
	return cmd
}

func newClearCmd() *cobra.Command {
	var userID string
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all of a user's memories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("clear removes every memory for the user; pass --yes to confirm")
			}
			return withApp(func(a *app) error {
				return a.engine.Clear(cmd.Context(), userID)
			})
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user to clear (required)")
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the clear")
	cmd.MarkFlagRequired("user")
	return cmd
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove pending memories whose consent window expired",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				removed, err := a.engine.SweepExpiredConsent(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(map[string]interface{}{"removed": removed})
			})
		},
	}
}
