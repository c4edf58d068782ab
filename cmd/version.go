/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkgtree/pkgtree/core/version"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the version of pkgtree",
	Long:  `Displays the version of pkgtree.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pkgtree %s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
