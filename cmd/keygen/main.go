package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arnavshah/skillmatch-api-go/pkg/auth"
	"github.com/arnavshah/skillmatch-api-go/pkg/config"
)

func main() {
	cmd := &cobra.Command{
		Use:   "keygen <owner>",
		Short: "Generate an HMAC-signed API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotEnv()
			secret := os.Getenv("API_MASTER_SECRET")
			if secret == "" {
				return errors.New("API_MASTER_SECRET not found in .env")
			}

			key := auth.New("", secret).GenerateHMACKey(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Generated Key for %s:\n%s\n", args[0], key)
			return nil
		},
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
