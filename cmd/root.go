package cmd

import (
	"fmt"
	"os"

	"github.com/sicko7947/wldstore/cmd/data"
	"github.com/sicko7947/wldstore/cmd/serve"
	"github.com/sicko7947/wldstore/server"
	"github.com/spf13/cobra"
)

var (
	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "wld",
		Short: "workflow, annotation and preferences store",
		Long: fmt.Sprintf(`wld (v%s)

Versioned, compressed storage for recorded UI workflows, their step
annotations and user preferences, on SQLite, PostgreSQL or DynamoDB.`, server.Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of wld",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wld v%s\n", server.Version)
		},
	}
)

func init() {
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(data.WorkflowCommands)
	RootCmd.AddCommand(data.AnnotationCommands)
	RootCmd.AddCommand(data.PreferenceCommands)
	RootCmd.AddCommand(data.AdminCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
