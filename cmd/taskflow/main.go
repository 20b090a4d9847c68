package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	jsonOut  bool
	noColor  bool
	verbose  bool
	tasksArg string
	approve  bool
	review   bool
)

var rootCmd = &cobra.Command{
	Use:   "taskflow",
	Short: "Plan, refine and execute task lists with an LLM",
	Long: `taskflow splits a query into a short list of subtasks with a language
model, lets you edit and refine that list, and executes it one task at a time.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if noColor || jsonOut {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.json",
		"config file (.json or .yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false,
		"print machine readable JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"write workflow events to stderr")

	rootCmd.AddCommand(planCmd, runCmd, refineCmd, serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		os.Exit(1)
	}
}
