package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jingkaihe/skillhub/pkg/registry"
)

type skillTemplate struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	License     string `yaml:"license,omitempty"`
}

var initCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Scaffold a SKILL.md with valid frontmatter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !registry.ValidSkillName(name) {
			return errors.Errorf("invalid skill name: %q (lowercase alphanumeric with internal hyphens)", name)
		}

		description, _ := cmd.Flags().GetString("description")
		license, _ := cmd.Flags().GetString("license")
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = "SKILL.md"
		}

		if _, err := os.Stat(output); err == nil {
			return errors.Errorf("%s already exists", output)
		}

		header, err := yaml.Marshal(skillTemplate{
			Name:        name,
			Description: description,
			License:     license,
		})
		if err != nil {
			return errors.Wrap(err, "failed to render frontmatter")
		}

		content := fmt.Sprintf("---\n%s---\n\n# %s\n\nDescribe what this skill does and how to use it.\n", header, name)
		if err := os.WriteFile(output, []byte(content), 0o644); err != nil {
			return errors.Wrap(err, "failed to write skill file")
		}

		out.Success(fmt.Sprintf("created %s", output))
		return nil
	},
}

func init() {
	initCmd.Flags().String("description", "Describe this skill", "Skill description for the frontmatter")
	initCmd.Flags().String("license", "", "Optional license identifier")
	initCmd.Flags().String("output", "SKILL.md", "Output file path")
}
