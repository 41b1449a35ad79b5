package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/secrets"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage the OpenAI API key in the OS keyring",
}

var secretSetCmd = &cobra.Command{
	Use:   "set [api-key]",
	Short: "Store the OpenAI API key in the OS keyring",
	Long:  "Store the OpenAI API key in the OS keyring. Reads the key from stdin when no argument is given. OPENAI_API_KEY and refine.api_key take precedence over the stored key.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSecretSet,
}

var secretDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored OpenAI API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.DeleteAPIKey(); err != nil {
			return fmt.Errorf("delete api key: %w", err)
		}
		fmt.Println("API key removed from keyring")
		return nil
	},
}

func init() {
	secretCmd.AddCommand(secretSetCmd, secretDeleteCmd)
	rootCmd.AddCommand(secretCmd)
}

func runSecretSet(cmd *cobra.Command, args []string) error {
	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		fmt.Fprint(os.Stderr, "OpenAI API key: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read api key: %w", err)
		}
		key = strings.TrimSpace(line)
	}

	if err := secrets.SetAPIKey(key); err != nil {
		return fmt.Errorf("store api key: %w", err)
	}
	fmt.Printf("API key stored in keyring (%s/%s)\n", secrets.KeyringService, secrets.OpenAIAccount)
	return nil
}
