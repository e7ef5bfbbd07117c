package main

import (
	"github.com/spf13/cobra"

	"github.com/qs3c/datawarfare_server/internal/pkg/logging"
)

// newRootCmd reportctl 运维命令行
func newRootCmd() *cobra.Command {
	var (
		pretty bool
		debug  bool
	)

	root := &cobra.Command{
		Use:           "reportctl",
		Short:         "Data Warfare report and quota maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := "info"
			if debug {
				level = "debug"
			}
			logging.Setup(level, pretty)
		},
	}
	root.PersistentFlags().BoolVar(&pretty, "pretty", true, "human readable log output")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging output")

	root.AddCommand(newFormatCmd(), newRecountCmd())
	return root
}
