package cli

import (
	"github.com/spf13/cobra"
)

func newRegisterCommand(app func() *App) *cobra.Command {
	var email, rollNo string
	var fields []string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			extra, err := parseFields(fields)
			if err != nil {
				return err
			}
			return app().Register(cmd.Context(), email, rollNo, extra)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&rollNo, "roll-no", "", "roll number")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "profile field as name=value (repeatable)")
	return cmd
}

func newLoginCommand(app func() *App) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Login(cmd.Context(), email)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newGetCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get ROLL_NO",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Get(cmd.Context(), args[0])
		},
	}
}

func newUpdateCommand(app func() *App) *cobra.Command {
	var fields []string
	var email, rollNo string
	var password bool

	cmd := &cobra.Command{
		Use:   "update ROLL_NO",
		Short: "Change account fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := parseFields(fields)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("email") {
				body["email"] = email
			}
			if cmd.Flags().Changed("roll-no") {
				body["rollNo"] = rollNo
			}
			return app().Update(cmd.Context(), args[0], body, password)
		},
	}
	cmd.Flags().StringArrayVar(&fields, "field", nil, "field as name=value (repeatable)")
	cmd.Flags().StringVar(&email, "email", "", "new email")
	cmd.Flags().StringVar(&rollNo, "roll-no", "", "new roll number")
	cmd.Flags().BoolVar(&password, "password", false, "prompt for a new password")
	return cmd
}

func newDeleteCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ROLL_NO",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Delete(cmd.Context(), args[0])
		},
	}
}

func newLogoutCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Logout(cmd.Context())
		},
	}
}
