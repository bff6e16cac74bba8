package cmd

import (
	"bufio"

	"github.com/habedi/cwactl/auth"
	"github.com/habedi/cwactl/pkg/clierr"
	"github.com/habedi/cwactl/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// initCmd writes the config file from interactive answers.
func initCmd() *cobra.Command {
	var savePassword bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the cwactl config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println("Please enter the server details and integrator credentials.")
			fc, err := collectConfig(bufio.NewReader(stdin), savePassword)
			if err != nil {
				return err
			}
			if err := saveConfig(configPath, fc); err != nil {
				log.Error().Err(err).Str("path", configPath).Msg("Failed to save config")
				return clierr.New(clierr.Config, "failed to save the config file", err)
			}
			cmd.Printf("Configuration saved to %s\n", configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&savePassword, "save-password", false, "Store the password in the config file instead of prompting on each run")
	return cmd
}

func collectConfig(r *bufio.Reader, savePassword bool) (fileConfig, error) {
	fc := defaultFileConfig()

	var err error
	if fc.ServerURL, err = promptForInput(r, "Server URL (https://...): "); err != nil {
		return fc, clierr.New(clierr.Internal, err.Error(), err)
	}
	if err := validation.ValidateServerURL(fc.ServerURL); err != nil {
		return fc, clierr.New(clierr.Validation, err.Error(), err)
	}
	if fc.ClientID, err = promptForInput(r, "Client ID: "); err != nil {
		return fc, clierr.New(clierr.Internal, err.Error(), err)
	}
	if fc.Auth.Username, err = promptForInput(r, "Integrator username: "); err != nil {
		return fc, clierr.New(clierr.Internal, err.Error(), err)
	}

	for _, field := range []struct{ name, value string }{
		{"client ID", fc.ClientID},
		{"username", fc.Auth.Username},
	} {
		if err := validation.ValidateNonEmptyString(field.name, field.value); err != nil {
			return fc, clierr.New(clierr.Validation, err.Error(), err)
		}
	}

	if savePassword {
		pw, err := passwordPrompt("Integrator password: ")
		if err != nil {
			return fc, clierr.New(clierr.Internal, err.Error(), err)
		}
		creds := auth.Credentials{Method: auth.MethodIntegrator, Username: fc.Auth.Username, Password: pw}
		if err := creds.Validate(); err != nil {
			return fc, clierr.New(clierr.Validation, err.Error(), err)
		}
		fc.Auth.Password = pw
	}
	return fc, nil
}
