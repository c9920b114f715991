package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jkalas/repcrm/internal/config"
)

// --- log ---

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Record an HCP interaction (structured form)",
	Long: `Record an HCP interaction with explicit fields.

Examples:
  repcrm log --hcp "Dr. Sharma" --type Meeting --topics "OncoBoost Phase III data" --sentiment Positive
  repcrm log --hcp "Dr. Lee" --type Call --products "CardioPlus" --follow-up "Send samples"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		hcp, _ := cmd.Flags().GetString("hcp")
		interactionType, _ := cmd.Flags().GetString("type")
		when, _ := cmd.Flags().GetString("time")
		topics, _ := cmd.Flags().GetString("topics")
		products, _ := cmd.Flags().GetString("products")
		sentiment, _ := cmd.Flags().GetString("sentiment")
		followUp, _ := cmd.Flags().GetString("follow-up")

		if hcp == "" {
			return fmt.Errorf("--hcp is required")
		}

		req := map[string]any{
			"hcp_name":         hcp,
			"interaction_type": interactionType,
		}
		if when != "" {
			req["interaction_datetime"] = when
		}
		if topics != "" {
			req["topics_discussed"] = topics
		}
		if products != "" {
			req["products_discussed"] = products
		}
		if sentiment != "" {
			req["sentiment"] = sentiment
		}
		if followUp != "" {
			req["follow_up_actions"] = followUp
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/interactions", req)
		if err != nil {
			return err
		}

		var created struct {
			ID int64 `json:"id"`
		}
		if err := decodeJSON(resp, &created); err != nil {
			return err
		}

		printSuccess("Logged interaction #%d with %s", created.ID, hcp)
		return nil
	},
}

func init() {
	logCmd.Flags().String("hcp", "", "healthcare professional name")
	logCmd.Flags().String("type", "Meeting", "interaction type (Meeting, Call, Virtual)")
	logCmd.Flags().String("time", "", "interaction time, RFC 3339 (default: now)")
	logCmd.Flags().String("topics", "", "topics discussed")
	logCmd.Flags().String("products", "", "products discussed")
	logCmd.Flags().String("sentiment", "", "observed sentiment (Positive, Neutral, Negative)")
	logCmd.Flags().String("follow-up", "", "follow-up actions")
}

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <text>",
	Short: "Send free text to the assistant",
	Long: `Send free text to the assistant. The input is routed to one action:

  edit       update the follow-up of the last interaction
  follow     suggest a follow-up action
  sentiment  classify the sentiment
  summarize  summarize the interaction
  log        (default) record the text as a new interaction

Examples:
  repcrm ask "met dr patel, discussed oncoboost dosing"
  repcrm ask "summarize met dr patel, discussed oncoboost dosing"
  repcrm ask "edit follow-up: schedule demo next tuesday"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := strings.Join(args, " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/assistant", map[string]any{"input": input})
		if err != nil {
			return err
		}

		var result struct {
			RequestID string `json:"request_id"`
			Action    string `json:"action"`
			Result    string `json:"result"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Printf("%s\n", colorize(colorBold, "["+result.Action+"]"))
		fmt.Println(result.Result)
		return nil
	},
}

// --- interactions ---

var interactionsCmd = &cobra.Command{
	Use:   "interactions",
	Short: "Browse the interaction log",
}

var interactionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent interactions (newest first)",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/interactions?limit=%d", limit)
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var interactions []struct {
			ID        int64  `json:"id"`
			HCPName   string `json:"hcp_name"`
			Type      string `json:"interaction_type"`
			Time      string `json:"interaction_datetime"`
			Topics    string `json:"topics_discussed"`
			Sentiment string `json:"sentiment"`
		}
		if err := decodeJSON(resp, &interactions); err != nil {
			return err
		}

		if len(interactions) == 0 {
			fmt.Println("No interactions found.")
			return nil
		}

		for _, ix := range interactions {
			topics := ix.Topics
			if len(topics) > 60 {
				topics = topics[:60] + "..."
			}
			fmt.Printf("%s  %-8s %-20s %-8s %s\n",
				colorize(colorCyan, fmt.Sprintf("#%-4d", ix.ID)),
				ix.Type,
				ix.HCPName,
				ix.Sentiment,
				topics,
			)
		}
		return nil
	},
}

var interactionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single interaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/interactions/"+args[0])
		if err != nil {
			return err
		}

		var interaction any
		if err := decodeJSON(resp, &interaction); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(interaction)
	},
}

func init() {
	interactionsListCmd.Flags().Int("limit", 20, "maximum number of interactions to list")
	interactionsCmd.AddCommand(interactionsListCmd)
	interactionsCmd.AddCommand(interactionsShowCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
