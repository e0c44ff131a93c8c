package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/christopherklint97/redlog/internal/delivery"
	"github.com/dustin/go-humanize"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect the offline queue",
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued entries in the order they will be sent",
	Args:  cobra.NoArgs,
	RunE:  runQueueList,
}

var queueExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the queue as JSON",
	Args:  cobra.NoArgs,
	RunE:  runQueueExport,
}

var queueSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of exported queue items",
	Args:  cobra.NoArgs,
	RunE:  runQueueSchema,
}

func init() {
	queueExportCmd.Flags().Bool("show-keys", false, "Include API keys in the output")

	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueExportCmd)
	queueCmd.AddCommand(queueSchemaCmd)
}

func runQueueList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	items, err := a.engine.Pending()
	if err != nil {
		return fmt.Errorf("reading queue: %w", err)
	}
	if len(items) == 0 {
		fmt.Println("Queue is empty.")
		return nil
	}

	fmt.Printf("%d queued entries:\n\n", len(items))
	for i, it := range items {
		age := ""
		if !it.QueuedAt.IsZero() {
			age = humanize.Time(it.QueuedAt)
		}
		fmt.Printf("  %2d. Issue #%-6d %s  %5.2fh  activity %-4d  %-14s  %s\n",
			i+1, it.Entry.IssueID, it.Entry.SpentOn, it.Entry.Hours, it.Entry.ActivityID, age, it.URL)
		if it.Entry.Comments != "" {
			fmt.Printf("      %s\n", it.Entry.Comments)
		}
	}
	return nil
}

func runQueueExport(cmd *cobra.Command, args []string) error {
	showKeys, _ := cmd.Flags().GetBool("show-keys")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	items, err := a.engine.Pending()
	if err != nil {
		return fmt.Errorf("reading queue: %w", err)
	}
	if items == nil {
		items = []delivery.QueuedItem{}
	}
	if !showKeys {
		for i := range items {
			items[i].APIKey = maskKey(items[i].APIKey)
		}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding queue: %w", err)
	}
	_, err = os.Stdout.Write(pretty.Pretty(data))
	return err
}

func runQueueSchema(cmd *cobra.Command, args []string) error {
	r := jsonschema.Reflector{ExpandedStruct: true}
	schema := r.Reflect(&delivery.QueuedItem{})
	schema.Title = "redlog queued time entry"

	data, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}
	_, err = os.Stdout.Write(pretty.Pretty(data))
	return err
}
