package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the perpjournal CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("perpjournal version %s\n", version)
		fmt.Println("Hyperliquid perps journal rebuilder")
		fmt.Println("https://github.com/rustyeddy/perpjournal")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
