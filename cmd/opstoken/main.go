package main

import (
	"errors"
	"fmt"
	"os"

	"payment-failure-monitor/config"
	"payment-failure-monitor/internal/service"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "opstoken",
		Short:         "Mint and check operator tokens for /logs and /test",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("PFM_CONFIG"), "config file (env PFM_* overrides)")

	tokens := func() (*service.JWTTokenService, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if cfg.Operator.JWTSecret == "" {
			return nil, errors.New("operator.jwt_secret is not set (PFM_OPERATOR_JWT_SECRET)")
		}
		return service.NewJWTTokenService(cfg.Operator.JWTSecret, cfg.Operator.TokenTTL, cfg.Operator.Issuer), nil
	}

	rootCmd.AddCommand(generateCmd(tokens), verifyCmd(tokens))
	return rootCmd
}

func generateCmd(tokens func() (*service.JWTTokenService, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a signed operator token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			svc, err := tokens()
			if err != nil {
				return err
			}
			token, err := svc.Generate(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringP("subject", "s", "", "operator name recorded in the token")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func verifyCmd(tokens func() (*service.JWTTokenService, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [token]",
		Short: "Validate a token and print its subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := tokens()
			if err != nil {
				return err
			}
			claims, err := svc.Validate(args[0])
			if err != nil {
				return fmt.Errorf("invalid token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid token for %s\n", claims.Subject)
			return nil
		},
	}
}
