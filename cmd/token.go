package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"jiskefet/internal/bootstrap"
	"jiskefet/internal/errs"
	"jiskefet/internal/httpapi"
	"jiskefet/internal/usecase/logbook"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage subsystem tokens and API bearer tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a subsystem token for a user",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		ctx := cmd.Context()
		externalID, _ := cmd.Flags().GetString("user")
		name, _ := cmd.Flags().GetString("name")
		subSystemName, _ := cmd.Flags().GetString("subsystem")
		description, _ := cmd.Flags().GetString("description")
		isMember, _ := cmd.Flags().GetBool("member")
		editEorReason, _ := cmd.Flags().GetBool("edit-eor-reason")

		tokens := app.Services.Tokens
		user, err := tokens.EnsureUser(ctx, externalID, name)
		if err != nil {
			return errs.Wrap(err, "ensure user")
		}
		subSystem, err := tokens.EnsureSubSystem(ctx, subSystemName)
		if err != nil {
			return errs.Wrap(err, "ensure subsystem")
		}

		issued, err := tokens.IssueToken(ctx, logbook.IssueTokenInput{
			UserID:        user.UserID,
			SubSystemID:   subSystem.SubSystemID,
			Description:   description,
			IsMember:      isMember,
			EditEorReason: editEorReason,
		})
		if err != nil {
			return errs.Wrap(err, "issue token")
		}

		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"issued token for user %d on %s: permission=%d token=%s\n",
			user.UserID,
			subSystem.Name,
			issued.Permission.PermissionID,
			issued.PlainToken,
		); err != nil {
			return errs.Wrap(err, "write token output")
		}
		return nil
	}),
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the subsystem tokens of a user",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		userID, _ := cmd.Flags().GetUint64("user-id")
		permissions, err := app.Services.Tokens.FindTokensByUserID(cmd.Context(), userID)
		if err != nil {
			return errs.Wrap(err, "list tokens")
		}

		out := cmd.OutOrStdout()
		if len(permissions) == 0 {
			if _, err := fmt.Fprintln(out, "no tokens"); err != nil {
				return errs.Wrap(err, "write token output")
			}
		}
		for _, permission := range permissions {
			if _, err := fmt.Fprintf(
				out,
				"%d\t%s\tmember=%v\tedit_eor=%v\t%s\n",
				permission.PermissionID,
				permission.SubSystem.Name,
				permission.IsMember,
				permission.EditEorReason,
				orDash(permission.TokenDescription),
			); err != nil {
				return errs.Wrap(err, "write token output")
			}
		}
		return nil
	}),
}

var tokenVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check a subsystem token against its stored hash",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		permissionID, _ := cmd.Flags().GetUint64("permission-id")
		token, _ := cmd.Flags().GetString("token")

		ok, err := app.Services.Tokens.VerifyToken(cmd.Context(), permissionID, token)
		if err != nil {
			return errs.Wrap(err, "verify token")
		}
		if !ok {
			return errs.Validationf("token does not match permission %d", permissionID)
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "token matches permission %d\n", permissionID); err != nil {
			return errs.Wrap(err, "write token output")
		}
		return nil
	}),
}

// tokenSignCmd mints an API bearer token; it only needs the configured secret.
var tokenSignCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign an API bearer token for a user",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		userID, _ := cmd.Flags().GetUint64("user-id")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		token, err := httpapi.GenerateToken(userID, app.Config.HTTP.JWTSecret, ttl)
		if err != nil {
			return errs.Wrap(err, "sign bearer token")
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), token); err != nil {
			return errs.Wrap(err, "write token output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenIssueCmd, tokenListCmd, tokenVerifyCmd, tokenSignCmd)

	tokenIssueCmd.Flags().String("user", "", "External user id")
	tokenIssueCmd.Flags().String("name", "", "User display name")
	tokenIssueCmd.Flags().String("subsystem", "", "Subsystem name")
	tokenIssueCmd.Flags().String("description", "", "Token description")
	tokenIssueCmd.Flags().Bool("member", false, "User is a member of the subsystem")
	tokenIssueCmd.Flags().Bool("edit-eor-reason", false, "Token may edit end-of-run reasons")
	_ = tokenIssueCmd.MarkFlagRequired("user")
	_ = tokenIssueCmd.MarkFlagRequired("subsystem")

	for _, command := range []*cobra.Command{tokenListCmd, tokenSignCmd} {
		command.Flags().Uint64("user-id", 0, "User id")
		_ = command.MarkFlagRequired("user-id")
	}
	tokenVerifyCmd.Flags().Uint64("permission-id", 0, "Subsystem permission id")
	tokenVerifyCmd.Flags().String("token", "", "Plain token to check")
	_ = tokenVerifyCmd.MarkFlagRequired("permission-id")
	_ = tokenVerifyCmd.MarkFlagRequired("token")
	tokenSignCmd.Flags().Duration("ttl", 12*time.Hour, "Token lifetime")
}
