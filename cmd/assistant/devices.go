package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "Print the configured devices and their initial state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, setupLogger(cfg.Log))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.assistant.StatusReport())
			return nil
		},
	}
}
