package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	userCmd "github.com/Alturino/shopeasy/user/cmd"
	"github.com/Alturino/shopeasy/user/pkg/request"
)

func newRegisterCommand() *cobra.Command {
	param := request.Register{}
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Store a local credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := userCmd.RunRegister(cmd.Context(), configFrom(cmd.Context()), param); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", param.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&param.Email, "email", "", "email address")
	cmd.Flags().StringVar(&param.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&param.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&param.Password, "password", "", "8 to 16 characters with upper, lower, digit and symbol")
	cmd.Flags().StringVar(&param.ConfirmPassword, "confirm-password", "", "repeat the password")
	return cmd
}

func newLoginCommand() *cobra.Command {
	param := request.LoginRequest{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check an email and password against the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := userCmd.RunLogin(cmd.Context(), configFrom(cmd.Context()), param); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", param.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&param.Email, "email", "", "email address")
	cmd.Flags().StringVar(&param.Password, "password", "", "password")
	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := userCmd.RunLogout(cmd.Context(), configFrom(cmd.Context())); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}
