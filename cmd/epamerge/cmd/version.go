package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(a App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show version information for the epamerge CLI.`,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("epamerge version %s\n", a.Version())
			fmt.Printf("commit: %s\n", a.Commit())
			fmt.Printf("built: %s\n", a.Date())
			fmt.Printf("built by: %s\n", a.BuiltBy())
			fmt.Printf("go version: %s\n", runtime.Version())
			fmt.Printf("platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
