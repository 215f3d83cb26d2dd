package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillhub/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Get().String())
	},
}
