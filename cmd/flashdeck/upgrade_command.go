package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"flashdeck/internal/notifications"
	"flashdeck/internal/payment"
	"flashdeck/internal/session"
)

func newUpgradeCommand(ctx *commandContext) *cobra.Command {
	var contextFlag string

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Buy premium access",
		Long: "Create a checkout, print its payment URL, and wait until the payment is\n" +
			"confirmed, rejected, or the confirmation window closes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := ctx.sessions()
			if err != nil {
				return err
			}
			return runCheckout(cmd, ctx, sessions, payment.ParseContext(contextFlag))
		},
	}

	cmd.Flags().StringVar(&contextFlag, "context", string(payment.ContextUpgrade), "Checkout context (upgrade, generate, register)")
	return cmd
}

// runCheckout drives one checkout to a terminal state. Interrupting the
// command cancels polling without touching the stored session.
func runCheckout(cmd *cobra.Command, ctx *commandContext, sessions *session.Manager, tag payment.Context) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.commandLogger()
	if err != nil {
		return err
	}
	client, err := ctx.backendClient()
	if err != nil {
		return err
	}

	runCtx, cancel := signal.NotifyContext(runContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	flow := payment.NewFlow(client,
		payment.WithClock(payment.RealClock{}),
		payment.WithPolling(cfg.PollInterval(), cfg.Payment.MaxAttempts),
		payment.WithNotifier(notifications.NewService(cfg)),
		payment.WithLogger(logger),
	)
	defer func() {
		shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(runCtx), cfg.BackendTimeout())
		defer stop()
		_ = flow.Shutdown(shutdownCtx)
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintln(cmd.ErrOrStderr(), payment.MsgCreatingPayment)
	checkout, err := flow.Begin(runCtx, sessions, tag)
	if err != nil {
		return errors.New(payment.SetupFailureMessage(err))
	}
	fmt.Fprintf(out, "Complete payment at: %s\n", checkout.PaymentURL)
	fmt.Fprintf(cmd.ErrOrStderr(), "Waiting for confirmation of invoice %s (up to %s)...\n",
		checkout.InvoiceID, cfg.PollInterval()*time.Duration(cfg.Payment.MaxAttempts))

	task := flow.Watch(runCtx, checkout, nil)
	res, err := task.Wait(runCtx)
	if err != nil {
		task.Cancel()
		return err
	}

	switch res.State {
	case payment.StateSucceeded:
		if res.Err != nil {
			return fmt.Errorf("payment confirmed but the session could not be updated: %w", res.Err)
		}
		message := res.Message
		if message == "" {
			message = payment.MsgSucceeded
		}
		fmt.Fprintln(out, message)
		return printSignedIn(cmd, sessions)
	case payment.StateCanceled:
		return context.Canceled
	default:
		message := res.Message
		if message == "" {
			message = payment.MsgFailed
		}
		return errors.New(message)
	}
}
