package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/qs3c/datawarfare_server/config"
	"github.com/qs3c/datawarfare_server/internal/report"
)

func newFormatCmd() *cobra.Command {
	var (
		policy    string
		targetURL string
	)

	cmd := &cobra.Command{
		Use:   "format [file|-]",
		Short: "format a raw generator report as markdown",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if policy != config.AssemblyInterpolate && policy != config.AssemblyEditorial {
				return fmt.Errorf("unknown policy %q", policy)
			}

			raw, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			out := report.NewFormatter(policy).FormatFor(string(raw), targetURL)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&policy, "policy", config.AssemblyInterpolate, "assembly policy (interpolate, editorial)")
	cmd.Flags().StringVar(&targetURL, "url", "", "competitor url used for the report subtitle")
	return cmd
}

// readInput 无参数或 "-" 时读取标准输入
func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	return data, nil
}
