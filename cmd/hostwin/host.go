package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/hostwin/internal/devclient"
)

func newHostCmd(a *app) *cobra.Command {
	var base string
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Inspect a running dev host over HTTP",
	}
	cmd.PersistentFlags().StringVar(&base, "devhost", "", "Dev host HTTP root (default: derived from --url)")

	client := func() (*devclient.Client, error) {
		root := base
		if root == "" {
			var err error
			if root, err = devclient.BaseURL(a.cfg.Bridge.URL); err != nil {
				return nil, err
			}
		}
		opts := devclient.DefaultOptions()
		opts.Logger = a.logger.Component("devclient")
		return devclient.New(root, opts), nil
	}

	status := &cobra.Command{
		Use:         "status",
		Short:       "Print the dev host's windows, monitors and counters",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{noBridge: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			st, err := c.Status(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.Print(st)
		},
	}

	var (
		timeout  time.Duration
		interval time.Duration
	)
	wait := &cobra.Command{
		Use:         "wait",
		Short:       "Block until the dev host answers its health check",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{noBridge: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return c.WaitReady(ctx, interval)
		},
	}
	wait.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Give up after this long")
	wait.Flags().DurationVar(&interval, "interval", 250*time.Millisecond, "Time between health checks")

	cmd.AddCommand(status, wait)
	return cmd
}
