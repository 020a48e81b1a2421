package cli

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/mcoot/scorekeeper/internal/api/response"
)

var transferFormats = []string{"json", "csv"}

func contentTypeFor(format string) string {
	if format == "csv" {
		return "text/csv"
	}
	return "application/json"
}

func newExportCmd() *cobra.Command {
	var file string
	var save bool

	cmd := &cobra.Command{
		Use:       "export <json|csv>",
		Short:     "Export all games and players",
		Long:      "Export all games and players. The document goes to stdout unless --file or --save is set.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: transferFormats,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, header, err := client.Raw(http.MethodGet, "/api/v1/export/"+args[0], "", nil)
			if err != nil {
				return err
			}

			if save && file == "" {
				file = attachmentName(header.Get("Content-Disposition"))
				if file == "" {
					return fmt.Errorf("server did not suggest a file name; pass --file")
				}
			}
			if file == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}

			if err := os.WriteFile(file, data, 0o644); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			output(cmd).PrintMessage("Exported to " + file)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Write the export to this path")
	cmd.Flags().BoolVar(&save, "save", false, "Write the export under the server's suggested file name")

	return cmd
}

// attachmentName extracts the filename from a Content-Disposition header
func attachmentName(disposition string) string {
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <json|csv> <file>",
		Short: "Import games and players",
		Long: `Import games and players from a file.

A JSON import replaces all existing data. A CSV import adds its games and any
players it names that do not exist yet.`,
		Args: cobra.MatchAll(cobra.ExactArgs(2), func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(transferFormats, args[0]) {
				return fmt.Errorf("format must be json or csv, got %q", args[0])
			}
			return nil
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, path := args[0], args[1]

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read import file: %w", err)
			}

			body, _, err := client.Raw(http.MethodPost, "/api/v1/import/"+format, contentTypeFor(format), data)
			if err != nil {
				return err
			}

			var result response.ImportResult
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
