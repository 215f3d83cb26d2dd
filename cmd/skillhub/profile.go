package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillhub/pkg/registry"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Read or update namespace profiles",
}

var profileGetCmd = &cobra.Command{
	Use:   "get <namespace>",
	Short: "Print a namespace profile as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		reg, s, err := openRegistry(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		profile, err := reg.GetProfile(ctx, args[0])
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update <namespace>",
	Short: "Update profile fields; unset flags keep their previous value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		namespace := args[0]

		var update registry.ProfileUpdate
		if cmd.Flags().Changed("display-name") {
			v, _ := cmd.Flags().GetString("display-name")
			update.DisplayName = &v
		}
		if cmd.Flags().Changed("bio") {
			v, _ := cmd.Flags().GetString("bio")
			update.Bio = &v
		}
		if cmd.Flags().Changed("website") {
			v, _ := cmd.Flags().GetString("website")
			update.Website = &v
		}

		ctx := cmd.Context()
		reg, s, err := openRegistry(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		profile, err := reg.UpdateProfile(ctx, namespace, update, registry.Identity{Namespace: namespace})
		if err != nil {
			return err
		}

		out.Success(fmt.Sprintf("updated profile for @%s (id %s)", profile.Namespace, profile.ID))
		return nil
	},
}

func init() {
	profileUpdateCmd.Flags().String("display-name", "", "Display name")
	profileUpdateCmd.Flags().String("bio", "", "Short bio")
	profileUpdateCmd.Flags().String("website", "", "Website URL")

	profileCmd.AddCommand(profileGetCmd)
	profileCmd.AddCommand(profileUpdateCmd)
}
