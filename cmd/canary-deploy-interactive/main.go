package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/icodezjb/canarydossier/cmd"
	"github.com/icodezjb/canarydossier/logger"
	"github.com/icodezjb/canarydossier/network"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	networkName string
	account     string

	rootCmd = &cobra.Command{
		Use:   "canary-deploy-interactive",
		Short: "deploy the CanaryDossier contract to a chosen network with a chosen account",
		Args:  cobra.NoArgs,
	}
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "config file path (default ./canary.{yaml,json,toml})")
	flags.StringVarP(&networkName, "network", "n", network.DefaultChoice, "network to deploy on, ecosystem:network[:provider]")
	flags.StringVarP(&account, "account", "a", "0", "account index or alias to deploy from")
	flags.String("artifact", cmd.DefaultArtifact, "compiled contract artifact")
	flags.StringP("output", "o", cmd.DefaultOutput, "file the deployment summary is written to")
	flags.String("record-dir", "", "directory for JSON deployment records")
	flags.String("env-file", "", "dotenv file to store the contract address in")
	flags.String("env-key", "", "variable name used in --env-file")
	flags.String("keystore", "", "keystore directory")
	flags.Bool("yes", false, "answer yes to the low balance prompt")

	rootCmd.SetUsageTemplate(cmd.UsageTemplate)
	rootCmd.Example = "  canary-deploy-interactive\n" +
		"  canary-deploy-interactive --network ethereum:sepolia --account deployer\n" +
		"  canary-deploy-interactive -n polygon:amoy -a 1 --record-dir deployments"
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

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		_, err = cmd.NewHandler(cfg).DeployInteractive(ctx, networkName, account)
		if errors.Is(err, cmd.ErrAborted) {
			logger.Warn("%v", err)
			return nil
		}
		return err
	}

	if err := rootCmd.Execute(); err != nil {
		logger.FatalError("%v", err)
	}
}
