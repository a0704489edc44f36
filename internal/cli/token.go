package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"AreYouDead/config"
	"AreYouDead/pkg/token"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token",
	Long: `Sign a bearer token with JWT_SECRET from the local environment. The token
is accepted by any server sharing the same secret.`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

var tokenSubject string

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", token.DefaultSubject, "token subject")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(_ *cobra.Command, _ []string) error {
	if config.Cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set, the server runs without authentication")
	}
	if err := token.Init(config.Cfg.JWTSecret, time.Duration(config.Cfg.JWTExpireMinutes)*time.Minute); err != nil {
		return fmt.Errorf("failed to initialize token generator: %w", err)
	}

	tok, expiresIn, err := token.GenerateToken(tokenSubject)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	fmt.Fprintln(out, tok)
	PrintInfo("# expires in %s, export it as API_TOKEN", (time.Duration(expiresIn) * time.Second).String())
	return nil
}
