// Copyright Ming Liu, 2025. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of jacow-crawler",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jacow-crawler %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
