package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"activitynotifier/internal/models"

	"github.com/spf13/cobra"
)

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, reqTimeout)
}

func trackCmd() *cobra.Command {
	var (
		channel   string
		contentID string
		query     string
		email     string
		phone     string
	)

	cmd := &cobra.Command{
		Use:   "track IDENTITY KIND",
		Short: "Track one activity and show the notification outcome",
		Long: `Track one activity for an identity.

KIND is one of login, logout, search, create, update, delete, like, unlike
or its numeric code. Without --channel the user's stored preference is used.

Examples:
  notifierctl track 0x1234... login
  notifierctl track 0x1234... like --content-id 5 --channel all
  notifierctl track 0x1234... search --query "solar punk" -o json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := models.ParseActivityKind(args[1])
			if err != nil {
				return err
			}
			req := &models.TrackActivityRequest{
				Identity: args[0],
				Email:    email,
				Phone:    phone,
				Kind:     kind,
				Payload:  models.ActivityPayload{Query: query, ContentID: contentID},
			}
			if channel != "" {
				sel, err := models.ParseChannelSelector(channel)
				if err != nil {
					return err
				}
				req.Channel = &sel
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			result, err := newAPIClient(serverURL).TrackActivity(ctx, req)
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), result, outputFmt)
		},
	}

	cmd.Flags().StringVarP(&channel, "channel", "c", "", "Channel selector: none, email, sms, chat, all")
	cmd.Flags().StringVar(&contentID, "content-id", "", "Content ID for create, update, delete, like and unlike")
	cmd.Flags().StringVar(&query, "query", "", "Search query for search activities")
	cmd.Flags().StringVar(&email, "email", "", "Override the email address")
	cmd.Flags().StringVar(&phone, "phone", "", "Override the phone number")

	return cmd
}

func simulateCmd() *cobra.Command {
	var (
		count      int
		local      bool
		configPath string
		seed       uint64
		delay      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Track randomly generated activities for the mock users",
		Long: `Generate random activities for the built-in mock users and track them.

By default the events are generated by the server. With --local the
pipeline runs in this process using --config, which makes --seed and
--delay available.

Examples:
  notifierctl simulate -n 25
  notifierctl simulate -n 25 --local --seed 42 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 || count > models.MaxSimulateCount {
				return fmt.Errorf("count must be between 1 and %d", models.MaxSimulateCount)
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			var (
				resp *models.SimulateResponse
				err  error
			)
			if local {
				resp, err = runLocalSimulation(ctx, configPath, count, seed, delay)
			} else {
				resp, err = newAPIClient(serverURL).Simulate(ctx, count)
			}
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), resp, outputFmt)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 10, "Number of events to generate")
	cmd.Flags().BoolVar(&local, "local", false, "Run the pipeline in-process instead of calling the server")
	cmd.Flags().StringVar(&configPath, "config", "", "Configuration file for --local")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed for --local (0 picks one)")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Pause between events for --local")

	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status IDENTITY",
		Short: "Show every rate limit window for an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			status, err := newAPIClient(serverURL).RateLimitStatus(ctx, args[0])
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), status, outputFmt)
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset IDENTITY",
		Short: "Clear every rate limit window for an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			resp, err := newAPIClient(serverURL).ResetRateLimits(ctx, args[0])
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), resp, outputFmt)
		},
	}
}

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage registered user profiles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			profiles, err := newAPIClient(serverURL).Users(ctx)
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), profiles, outputFmt)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get IDENTITY",
		Short: "Show one user profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			profile, err := newAPIClient(serverURL).GetUser(ctx, args[0])
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), profile, outputFmt)
		},
	})

	var email, phone string
	register := &cobra.Command{
		Use:   "register IDENTITY",
		Short: "Register a user with default preferences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			profile, err := newAPIClient(serverURL).RegisterUser(ctx, &models.RegisterUserRequest{
				Identity: args[0],
				Email:    email,
				Phone:    phone,
			})
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), profile, outputFmt)
		},
	}
	register.Flags().StringVar(&email, "email", "", "Email address")
	register.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.AddCommand(register)

	cmd.AddCommand(&cobra.Command{
		Use:   "prefer IDENTITY KIND CHANNEL",
		Short: "Set the channel used for one activity kind",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := models.ParseActivityKind(args[1])
			if err != nil {
				return err
			}
			sel, err := models.ParseChannelSelector(args[2])
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			profile, err := newAPIClient(serverURL).UpdatePreference(ctx, args[0], kind, sel)
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), profile, outputFmt)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete IDENTITY",
		Short: "Delete a user profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			if err := newAPIClient(serverURL).DeleteUser(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", strings.TrimSpace(args[0]))
			return nil
		},
	})

	return cmd
}
