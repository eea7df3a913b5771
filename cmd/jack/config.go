package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"jack/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config to ~/.jack/config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := config.Home()
		if err != nil {
			return err
		}
		if err := config.Default().Save(home); err != nil {
			return err
		}
		fmt.Printf("Wrote %s/config.yaml\n", home)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}
