package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"taskflow/internal/validation"
)

func (a *app) loginCmd() *cobra.Command {
	var form validation.LoginForm
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Login(cmd.Context(), form); err != nil {
				return err
			}
			a.printf("Logged in as %s\n", a.store.State().Auth.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&form.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&form.Password, "password", "p", "", "Account password")
	return cmd
}

func (a *app) registerCmd() *cobra.Command {
	var form validation.RegisterForm
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if form.ConfirmPassword == "" {
				form.ConfirmPassword = form.Password
			}
			if err := a.store.Register(cmd.Context(), form); err != nil {
				return err
			}
			a.printf("Welcome, %s\n", a.store.State().Auth.User.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&form.Name, "name", "n", "", "Full name")
	cmd.Flags().StringVarP(&form.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&form.Password, "password", "p", "", "Password, at least 6 characters")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm", "", "Password confirmation (defaults to --password)")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Logout(cmd.Context()); err != nil {
				return err
			}
			a.printf("Logged out\n")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			u := a.store.State().Auth.User
			return a.render(u, func(w io.Writer) {
				fmt.Fprintf(w, "ID\t%s\nNAME\t%s\nEMAIL\t%s\n", u.ID, u.Name, u.Email)
			})
		}),
	}
}

func (a *app) profileCmd() *cobra.Command {
	var form validation.ProfileForm
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Change your display name",
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			if err := a.store.UpdateProfile(cmd.Context(), form); err != nil {
				return err
			}
			a.printf("Name changed to %s\n", a.store.State().Auth.User.Name)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&form.Name, "name", "n", "", "New display name")
	return cmd
}

func (a *app) passwordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Reset a forgotten password with an emailed OTP",
	}

	var forgot validation.ForgotPasswordForm
	forgotCmd := &cobra.Command{
		Use:   "forgot",
		Short: "Send a one-time code to your email",
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.store.ForgotPassword(cmd.Context(), forgot)
			if err != nil {
				return err
			}
			a.printf("%s\n", msg)
			return nil
		},
	}
	forgotCmd.Flags().StringVarP(&forgot.Email, "email", "e", "", "Account email")

	var verify validation.VerifyOTPForm
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Exchange the one-time code for a reset token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if verify.Email == "" {
				verify.Email = a.store.State().Auth.ResetEmail
			}
			if err := a.store.VerifyOTP(cmd.Context(), verify); err != nil {
				return err
			}
			a.printf("Code verified, run `taskflow password reset` to choose a new password\n")
			return nil
		},
	}
	verifyCmd.Flags().StringVarP(&verify.Email, "email", "e", "", "Account email")
	verifyCmd.Flags().StringVar(&verify.OTP, "otp", "", "The 6 digit code")

	var reset validation.ResetPasswordForm
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if reset.ConfirmPassword == "" {
				reset.ConfirmPassword = reset.Password
			}
			msg, err := a.store.ResetPassword(cmd.Context(), reset)
			if err != nil {
				return err
			}
			a.printf("%s\n", msg)
			return nil
		},
	}
	resetCmd.Flags().StringVarP(&reset.Password, "password", "p", "", "New password")
	resetCmd.Flags().StringVar(&reset.ConfirmPassword, "confirm", "", "Password confirmation (defaults to --password)")

	cmd.AddCommand(forgotCmd, verifyCmd, resetCmd)
	return cmd
}
