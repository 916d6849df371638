package main

import (
	"context"
	"fmt"
	"os"

	"github.com/icodezjb/canarydossier/cmd"
	"github.com/icodezjb/canarydossier/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "canary-deploy",
		Short: "deploy the CanaryDossier contract on the local test network",
		Args:  cobra.NoArgs,
	}
)

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path (default ./canary.{yaml,json,toml})")
	rootCmd.Flags().String("artifact", cmd.DefaultArtifact, "compiled contract artifact")
	rootCmd.Flags().String("test-balance", cmd.DefaultTestBalance, "starting balance of each test account")

	rootCmd.SetUsageTemplate(cmd.UsageTemplate)
	rootCmd.Example = "  canary-deploy\n" +
		"  canary-deploy --artifact out/CanaryDossier.sol/CanaryDossier.json"
}

func main() {
	rootCmd.Version = cmd.VersionFunc()
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	rootCmd.RunE = func(c *cobra.Command, args []string) error {
		cfg, err := cmd.LoadConfig(c, configPath)
		if err != nil {
			return err
		}

		_, session, err := cmd.NewHandler(cfg).DeployDefault(context.Background())
		if err != nil {
			return err
		}
		return session.Close()
	}

	if err := rootCmd.Execute(); err != nil {
		logger.Error("%v", err)
		fmt.Fprintln(os.Stderr, "run 'canary-deploy --help' for usage")
		os.Exit(1)
	}
}
