package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/polisai/polis-replay/pkg/domain"
)

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Initialize the facade and report whether the SDK is active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(_ context.Context, a *app) error {
				appID := a.cfg.Replay.AppID
				if !a.cfg.AppIDConfigured() {
					appID = "(not configured)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "app_id: %s\nsdk: %s\ninitialized: %t\n",
					appID, a.cfg.Replay.SDK, a.facade.IsInitialized())
				return nil
			})
		},
	}
}

func newTagCmd(opts *globalOptions) *cobra.Command {
	var typeName string

	cmd := &cobra.Command{
		Use:   "tag NAME VALUE",
		Short: "Attach a typed tag to the current replay",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := domain.ParseTagType(typeName)
			if err != nil {
				return err
			}
			value, err := parseTagValue(args[1], typ)
			if err != nil {
				return err
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				a.facade.AddTag(ctx, args[0], value, typ)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&typeName, "type", "t", string(domain.TagTypeString), "Tag type (STR, LARGE_STR, NUM, DATETIME, BOOL)")
	return cmd
}

// parseTagValue converts a command-line value to the Go type the tag type expects.
func parseTagValue(raw string, typ domain.TagType) (any, error) {
	switch typ {
	case domain.TagTypeString, domain.TagTypeLargeString:
		return raw, nil
	case domain.TagTypeNumber:
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q is not a number", raw)
		}
		return f, nil
	case domain.TagTypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("value %q is not a boolean", raw)
		}
		return b, nil
	case domain.TagTypeDateTime:
		if strings.EqualFold(raw, "now") {
			return time.Now().UTC(), nil
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("value %q is not an RFC 3339 timestamp", raw)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported tag type %q", typ)
	}
}

func newUserCmd(opts *globalOptions) *cobra.Command {
	var data domain.UserData

	cmd := &cobra.Command{
		Use:   "user",
		Short: "Update identity and tenant metadata for the current replay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				a.facade.UpdateUserData(ctx, data)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&data.AppID, "app-id", "", "Application id reported with the user")
	flags.StringVar(&data.UserID, "user-id", "", "User id")
	flags.StringVar(&data.Username, "username", "", "Username")
	flags.StringVar(&data.UserEmail, "email", "", "User e-mail")
	flags.StringVar(&data.UserRole, "role", "", "User role")
	flags.StringVar(&data.UserStatus, "status", "", "User status")
	flags.StringVar(&data.Environment, "environment", "", "Environment name")
	flags.StringVar(&data.TenantID, "tenant-id", "", "Tenant id")
	flags.StringVar(&data.TenantType, "tenant-type", "", "Tenant type")
	flags.StringVar(&data.UserType, "user-type", "", "User type")
	return cmd
}

func newTransitionCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transition STATE [STATE...]",
		Short: "Record transitions into one or more application states, in order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				for _, state := range args {
					a.facade.TrackStateTransition(ctx, state)
				}
				return nil
			})
		},
	}
}
