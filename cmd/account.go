package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintrack/internal/app"
	"github.com/theirongolddev/fintrack/internal/ledger"
)

var flagEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in",
	RunE:  runLogin,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and sign in",
	RunE:  runSignup,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the saved session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account and profile",
	RunE:  runWhoami,
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the sign-in password",
	RunE:  runPasswd,
}

func init() {
	loginCmd.Flags().StringVarP(&flagEmail, "email", "e", "", "Account email")
	signupCmd.Flags().StringVarP(&flagEmail, "email", "e", "", "Account email")
	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, whoamiCmd, passwdCmd)
}

func passwordInput(title string, v *string) *huh.Input {
	return huh.NewInput().Title(title).EchoMode(huh.EchoModePassword).Value(v)
}

func runForm(fields ...huh.Field) error {
	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeBase16()).Run()
}

func runLogin(_ *cobra.Command, _ []string) error {
	email, password := flagEmail, ""
	if err := runForm(
		huh.NewInput().Title("Email").Value(&email),
		passwordInput("Password", &password),
	); err != nil {
		return err
	}
	return withApp(func(ctx context.Context, rt *runtime, a *app.App) error {
		if err := a.Login(ctx, email, password); err != nil {
			return err
		}
		if !flagQuiet {
			fmt.Printf("  Signed in as %s\n", rt.auth.Current().Email)
		}
		return nil
	})
}

func runSignup(_ *cobra.Command, _ []string) error {
	in := ledger.SignupInput{Email: flagEmail}
	if err := runForm(
		huh.NewInput().Title("Full name").Value(&in.Name),
		huh.NewInput().Title("Email").Value(&in.Email),
		huh.NewInput().Title("Mobile").Value(&in.Mobile),
		passwordInput("Password", &in.Password),
		passwordInput("Confirm password", &in.Confirm),
	); err != nil {
		return err
	}
	return withApp(func(ctx context.Context, rt *runtime, a *app.App) error {
		if err := a.Signup(ctx, in); err != nil {
			return err
		}
		if !flagQuiet {
			fmt.Printf("  Account created. Signed in as %s\n", rt.auth.Current().Email)
		}
		return nil
	})
}

func runLogout(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, rt *runtime, a *app.App) error {
		if rt.auth.Current().IsZero() {
			if !flagQuiet {
				fmt.Println("  Not signed in.")
			}
			return nil
		}
		if err := a.Logout(ctx); err != nil {
			return err
		}
		if !flagQuiet {
			fmt.Println("  Signed out.")
		}
		return nil
	})
}

func runWhoami(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, rt *runtime, a *app.App) error {
		if err := requireSignIn(rt); err != nil {
			return err
		}
		p, err := a.Ledger.Profiles.Load(ctx)
		if err != nil {
			return err
		}
		mobile := p.Mobile
		if mobile == "" {
			mobile = "-"
		}
		fmt.Printf("  Name:    %s\n", p.Name)
		fmt.Printf("  Email:   %s\n", p.Email)
		fmt.Printf("  Mobile:  %s\n", mobile)
		fmt.Printf("  UID:     %s\n", p.UID)
		return nil
	})
}

func runPasswd(_ *cobra.Command, _ []string) error {
	var in ledger.PasswordInput
	if err := runForm(
		passwordInput("Current password", &in.Current),
		passwordInput("New password", &in.New),
		passwordInput("Confirm new password", &in.Confirm),
	); err != nil {
		return err
	}
	return withApp(func(ctx context.Context, rt *runtime, a *app.App) error {
		if err := requireSignIn(rt); err != nil {
			return err
		}
		return a.ChangePassword(ctx, in)
	})
}
