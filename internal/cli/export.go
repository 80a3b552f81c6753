package cli

import (
	"context"
	"encoding/json"
	"io"

	"formflow-analytics/internal/config"
	"github.com/spf13/cobra"
)

// NewExportCmd prints a form's export bundle as JSON.
func NewExportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export <form-id>",
		Short: "Print a form with its responses, stats and summary as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), *configPath, args[0], cmd.OutOrStdout())
		},
	}
}

func runExport(ctx context.Context, configPath, formID string, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	service, cleanup, err := buildService(ctx, cfg)
	defer cleanup()
	if err != nil {
		return err
	}

	export, err := service.Export(ctx, formID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}
