package cmd

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/korfield/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML.",
	Long: "Print the configuration that run would use, after applying the " +
		"config file, the .env file and KORFIELD_* environment variables.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)

		if err := enc.Encode(cfg); err != nil {
			return err
		}

		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().String("config", "", "YAML configuration file")
	configCmd.Flags().String("env-file", ".env", "dotenv file to load")
}

// loadConfig resolves the settings of cmd. Flags listed in flagKeys override
// their settings keys when set.
func loadConfig(
	cmd *cobra.Command,
	flagKeys map[string]string,
) (config.Cluster, error) {
	path, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	if err := config.LoadDotEnv(envFile); err != nil {
		return config.Default(), err
	}

	loader := config.NewLoader()
	if err := loader.ReadFile(path); err != nil {
		return config.Default(), err
	}

	for name, key := range flagKeys {
		if err := loader.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return config.Default(), err
		}
	}

	return loader.Load()
}
