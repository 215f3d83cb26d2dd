package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillhub/pkg/registry"
)

var publishCmd = &cobra.Command{
	Use:   "publish <namespace/name@version> <file>",
	Short: "Publish a skill version from a markdown file",
	Long: `Publish reads a markdown file with skill frontmatter and stores it as an
immutable version. Versions can never be overwritten; publishing an existing
version fails.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		namespace, name, version, err := parseSkillRef(args[0])
		if err != nil {
			return err
		}
		if version == "" {
			return errors.New("publish requires an explicit version, e.g. acme/deploy@1.0.0")
		}

		content, err := os.ReadFile(args[1])
		if err != nil {
			return errors.Wrap(err, "failed to read skill file")
		}

		identity, err := cmd.Flags().GetString("as")
		if err != nil {
			return err
		}
		if identity == "" {
			// Local mode trusts the invoking user as the namespace owner.
			identity = namespace
		}

		ctx := cmd.Context()
		reg, s, err := openRegistry(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		result, err := reg.Publish(ctx, namespace, name, version, content, registry.Identity{Namespace: identity})
		if err != nil {
			return err
		}

		out.Success(fmt.Sprintf("published @%s/%s@%s (%d bytes, %s)",
			result.Namespace, result.Name, result.Version, result.Size, result.Checksum))
		return nil
	},
}

func init() {
	publishCmd.Flags().String("as", "", "Identity namespace to publish as (defaults to the target namespace)")
}
