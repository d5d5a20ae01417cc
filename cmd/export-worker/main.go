package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/solace-dev/export-worker/internal/command"
)

// Build information, set by the compiler via -ldflags
var (
	version   = "dev"
	gitCommit = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
	platform  = "unknown"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "export-worker",
		Short: "Export Worker - render text into PDF, DOCX or CSV documents",
		Long: `Export Worker is a small HTTP service that turns a title and newline-delimited
text into a downloadable PDF, DOCX or CSV document. Requests are authenticated
with a static bearer token.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.TraceLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	info := command.BuildInfo{
		Version:   version,
		GitCommit: gitCommit,
		BuildTime: buildTime,
		GoVersion: goVersion,
		Platform:  platform,
	}
	rootCmd.AddCommand(command.ServeCommand(info))
	rootCmd.AddCommand(command.RenderCommand())
	rootCmd.AddCommand(command.VersionCommand(info))

	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
