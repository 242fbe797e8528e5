package cmd

import (
	"fmt"
	"log"
	"os"

	"PellinesFM/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pellinesfm",
	Short: "PellinesFM is a community radio broadcast coordinator.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting PellinesFM server...")
		if err := server.Start(); err != nil {
			os.Exit(1)
		}
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
