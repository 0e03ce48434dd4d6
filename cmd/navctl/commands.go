package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/navigation"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/auth"
)

const secretEnv = "WAYFINDER_JWT_SECRET"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "navctl",
		Short:         "Wayfinding service tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newNormalizeCmd(), newTokenCmd())
	return root
}

func newNormalizeCmd() *cobra.Command {
	var round bool

	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Convert mapping-engine instructions into device steps",
		Long: `Reads a route as produced by the mapping engine and prints the normalized steps.

The input is either an array of instructions or an object with an "instructions" field:
  [{"action":"Departure","distance":12.4},{"action":"Turn","bearing":"Left","distance":3}]

Reads stdin when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if len(args) == 1 && args[0] != "-" {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read instructions: %w", err)
			}

			instructions, err := parseInstructions(data)
			if err != nil {
				return err
			}

			steps := navigation.Normalizer{RoundDistances: round}.Normalize(instructions)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(steps)
		},
	}
	cmd.Flags().BoolVar(&round, "round", true, "round distances to whole units")
	return cmd
}

func parseInstructions(data []byte) ([]navigation.RawInstruction, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("no instructions given")
	}

	if data[0] == '[' {
		var list []navigation.RawInstruction
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to parse instructions: %w", err)
		}
		return list, nil
	}

	var wrapped struct {
		Instructions []navigation.RawInstruction `json:"instructions"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse instructions: %w", err)
	}
	return wrapped.Instructions, nil
}

func newTokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		secret  string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for a kiosk, guidance device or operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv(secretEnv)
			}
			if secret == "" {
				return fmt.Errorf("signing secret is required, use --secret or %s", secretEnv)
			}
			r := auth.Role(role)
			if !r.IsValid() {
				return fmt.Errorf("unknown role %q", role)
			}

			token, err := auth.NewJWTManager(secret, ttl).Generate(subject, r)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject, e.g. kiosk-1")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleDevice), "assistant, device or admin")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (default $"+secretEnv+")")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime; 0 never expires")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
