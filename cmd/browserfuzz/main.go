package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "browserfuzz",
	Short: "Mutation-based payload generator for browser and parser fuzzing",
	Long: `browserfuzz synthesizes malformed HTML/script documents and serves a
fresh one to every HTTP request, so a browser pointed at it chews through a
continuous stream of adversarial inputs. It can also mutate a seed file once
and print the result.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mutateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
