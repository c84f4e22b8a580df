package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fileupload/pkg/classify"
)

func classifyCmd() *cobra.Command {
	var acceptOnly bool

	cmd := &cobra.Command{
		Use:   "classify <extension>...",
		Short: "Group extensions by MIME pattern",
		Long: `Print the accept groups for a list of extensions as JSON.

Examples:
  fileupload classify .png .csv
  fileupload classify --accept .pdf .txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups := classify.Classify(args)
			if acceptOnly {
				fmt.Fprintln(cmd.OutOrStdout(), groups.AcceptAttr())
				return nil
			}
			data, err := json.MarshalIndent(groups, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&acceptOnly, "accept", false, "Print the HTML accept attribute instead of JSON")

	return cmd
}
