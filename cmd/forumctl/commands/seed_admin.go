package commands

import (
	"github.com/princinho/stackforum/utils"
	"github.com/spf13/cobra"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the admin account if it does not exist",
	Long: `Create the admin account from ADMIN_EMAIL, ADMIN_PASSWORD and ADMIN_NAME.

An existing account with the same email is left untouched.

Examples:
  forumctl seed-admin
  forumctl seed-admin --email root@example.com --password s3cret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if adminEmail != "" {
			cfg.AdminEmail = adminEmail
		}
		if adminPassword != "" {
			cfg.AdminPassword = adminPassword
		}
		if adminName != "" {
			cfg.AdminName = adminName
		}

		ctx := cmd.Context()
		repos, release, err := openSet(ctx, cfg)
		if err != nil {
			return err
		}
		defer release()

		if err := utils.SeedAdminUser(ctx, repos.Users, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
			return err
		}
		printf(cmd.OutOrStdout(), "admin %s ready\n", utils.NormalizeEmail(cfg.AdminEmail))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedAdminCmd)

	seedAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email (defaults to ADMIN_EMAIL)")
	seedAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password (defaults to ADMIN_PASSWORD)")
	seedAdminCmd.Flags().StringVar(&adminName, "name", "", "Admin display name (defaults to ADMIN_NAME)")
}
