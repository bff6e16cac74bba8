package cmd

import (
	"time"

	"github.com/habedi/cwactl/pkg/clierr"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// loginCmd acquires a token to check the configured credentials.
func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check the configured credentials by acquiring an API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient()
			if err != nil {
				return err
			}

			log.Info().Str("server", c.Config().ServerURL).Msg("Acquiring API token")
			tok, err := c.Auth().TokenSource(cmd.Context()).Token()
			if err != nil {
				return clierr.FromAPI("login", err)
			}

			status := c.RateLimitStatus()
			cmd.Println("Login was successful.")
			cmd.Printf("Token type: %s\n", tok.TokenType)
			cmd.Printf("Usable until: %s\n", tok.Expiry.Local().Format(time.RFC1123))
			cmd.Printf("Requests left in window: %d (%.0f%% used)\n", status.Remaining, status.Rate*100)
			return nil
		},
	}
}
