package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"flashdeck/internal/auth"
	"flashdeck/internal/config"
	"flashdeck/internal/payment"
	"flashdeck/internal/session"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the flashcard backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			if strings.TrimSpace(email) == "" {
				value, err := p.Text("Email")
				if err != nil {
					return err
				}
				email = value
			}
			password, err := p.Password("Password")
			if err != nil {
				return err
			}

			forms, sessions, err := cliForms(ctx)
			if err != nil {
				return err
			}
			res, err := forms.Login(runContext(cmd), sessions, auth.LoginInput{Email: email, Password: password})
			if err != nil {
				return err
			}
			if res.Error {
				return errors.New(res.Message)
			}
			return printSignedIn(cmd, sessions)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	return cmd
}

func newRegisterCommand(ctx *commandContext) *cobra.Command {
	var name string
	var email string
	var premium bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: "Create an account on the flashcard backend. With --premium the account\n" +
			"is activated after checkout completes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			if strings.TrimSpace(name) == "" {
				value, err := p.Text("Name")
				if err != nil {
					return err
				}
				name = value
			}
			if strings.TrimSpace(email) == "" {
				value, err := p.Text("Email")
				if err != nil {
					return err
				}
				email = value
			}
			password, err := p.Password("Password")
			if err != nil {
				return err
			}
			confirm, err := p.Password("Confirm password")
			if err != nil {
				return err
			}

			forms, sessions, err := cliForms(ctx)
			if err != nil {
				return err
			}
			in := auth.RegisterInput{Name: name, Email: email, Password: password, Confirm: confirm}
			if premium {
				in.Tier = auth.PremiumTier
			}
			runCtx := runContext(cmd)
			res, err := forms.Register(runCtx, sessions, in)
			if err != nil {
				return err
			}
			if res.Error {
				return errors.New(res.Message)
			}
			if res.PaymentContext != "" {
				return runCheckout(cmd, ctx, sessions, payment.ParseContext(res.PaymentContext))
			}
			return printSignedIn(cmd, sessions)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().BoolVar(&premium, "premium", false, "Register for the premium plan")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := ctx.sessions()
			if err != nil {
				return err
			}
			if _, err := auth.Logout(runContext(cmd), sessions); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

// cliForms always talks to the backend; stub mode only exists for the
// marketing page.
func cliForms(ctx *commandContext) (*auth.Forms, *session.Manager, error) {
	logger, err := ctx.commandLogger()
	if err != nil {
		return nil, nil, err
	}
	client, err := ctx.backendClient()
	if err != nil {
		return nil, nil, err
	}
	sessions, err := ctx.sessions()
	if err != nil {
		return nil, nil, err
	}
	return auth.NewForms(config.FormsModeRemote, client, logger), sessions, nil
}

func printSignedIn(cmd *cobra.Command, sessions *session.Manager) error {
	user, err := sessions.User(runContext(cmd))
	if err != nil {
		return err
	}
	if user == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Signed in")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", describeUser(user))
	return nil
}

func describeUser(user *session.User) string {
	label := strings.TrimSpace(user.Name)
	if label == "" {
		label = strings.TrimSpace(user.Email)
	}
	if label == "" {
		label = "user " + user.ID
	}
	if tier := strings.TrimSpace(user.Tier); tier != "" {
		label += " (" + tier + ")"
	}
	return label
}
