package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/msto63/laplace/pkg/core/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get("cli")
		return render(cmd, info, func(w io.Writer) {
			fmt.Fprintf(w, "laplace v%s (API %s)\n", info.Version, info.API)
			fmt.Fprintf(w, "  Git Commit: %s\n", info.GitCommit)
			fmt.Fprintf(w, "  Build Date: %s\n", info.BuildDate)
			fmt.Fprintf(w, "  Go Version: %s\n", info.GoVersion)
			fmt.Fprintf(w, "  OS/Arch:    %s\n", info.Platform)
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
