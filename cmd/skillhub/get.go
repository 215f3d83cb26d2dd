package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <namespace/name[@version]>",
	Short: "Print the content of a skill version",
	Long: `Get prints a skill version's raw markdown to stdout. Without an explicit
version the latest stable version is resolved (falling back to pre-releases
when no stable version exists).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		namespace, name, version, err := parseSkillRef(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		reg, s, err := openRegistry(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if version == "" {
			latest, err := reg.GetLatest(ctx, namespace, name)
			if err != nil {
				return err
			}
			fmt.Print(string(latest.Content))
			return nil
		}

		content, err := reg.GetContent(ctx, namespace, name, version)
		if err != nil {
			return err
		}
		fmt.Print(string(content.Content))
		return nil
	},
}
