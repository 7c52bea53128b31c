package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newFetchCommand(c *cli) *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "fetch <document-id>",
		Short: "Print the worksheet list of one document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.load(cmd); err != nil {
				return err
			}
			b, err := c.bridge()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			// Starting runs plugins, so a credentials file is loaded first.
			if err := b.Start(ctx); err != nil {
				return err
			}
			defer b.Stop()

			worksheets, err := b.FetchWorksheets(ctx, args[0])
			if err != nil {
				return fmt.Errorf("fetch %s: %w", args[0], err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(map[string]interface{}{
				"document_id": args[0],
				"worksheets":  worksheets,
			})
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	return cmd
}
