package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [namespace]",
	Short: "List skills, optionally scoped to one namespace",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		reg, s, err := openRegistry(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if len(args) == 1 {
			names, err := reg.ListSkillsInNamespace(ctx, args[0])
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Printf("@%s/%s\n", args[0], name)
			}
			return nil
		}

		refs, err := reg.ListSkills(ctx)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			fmt.Printf("@%s/%s\n", ref.Namespace, ref.Name)
		}
		return nil
	},
}

var versionsCmd = &cobra.Command{
	Use:   "versions <namespace/name>",
	Short: "List all published versions of a skill, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		namespace, name, version, err := parseSkillRef(args[0])
		if err != nil {
			return err
		}
		if version != "" {
			return fmt.Errorf("versions takes a bare skill reference, got a version: %s", args[0])
		}

		ctx := cmd.Context()
		reg, s, err := openRegistry(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		versions, err := reg.ListVersions(ctx, namespace, name)
		if err != nil {
			return err
		}
		for _, v := range versions {
			fmt.Println(v)
		}
		return nil
	},
}
