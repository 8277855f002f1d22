// Package main provides the entry point for the survey forwarder.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sngm3741/survey-forwarder/internal/config"
	"github.com/sngm3741/survey-forwarder/internal/logger"
	"github.com/sngm3741/survey-forwarder/internal/server"
	"github.com/sngm3741/survey-forwarder/internal/survey/domain"
)

const defaultEnvFile = ".env"

type options struct {
	envFile    string
	submitFile string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "survey-forwarder",
		Short: "Forward survey submissions to a Zoho Sheet",
		Long: `survey-forwarder accepts survey submissions over HTTP, exchanges the
configured Zoho refresh token for an access token and appends each
submission as a row to the configured worksheet.`,
		SilenceUsage: true,
		RunE:         opts.runServe,
	}
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", defaultEnvFile, "dotenv file loaded before reading the environment (the default may be absent)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  opts.runServe,
	}

	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Forward a single survey payload read from a JSON file",
		Args:  cobra.NoArgs,
		RunE:  opts.runSubmit,
	}
	submitCmd.Flags().StringVarP(&opts.submitFile, "file", "f", "-", "JSON payload file, - for stdin")

	rootCmd.AddCommand(serveCmd, submitCmd)
	return rootCmd
}

// setup は dotenv・設定・ロガーを読み込む。--env-file を明示した場合はファイルが必須。
func (o *options) setup(cmd *cobra.Command) (config.Config, *zap.SugaredLogger, error) {
	required := cmd.Flags().Changed("env-file")
	if err := config.LoadDotEnv(o.envFile, required); err != nil {
		return config.Config{}, nil, fmt.Errorf("%s の読み込みに失敗: %w", o.envFile, err)
	}
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("zap ロガーの初期化に失敗: %w", err)
	}
	log.Infow("設定を読み込みました", "addr", cfg.Addr, "credentials", cfg.Credentials.String())
	return cfg, log, nil
}

func (o *options) runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := o.setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	if err := server.New(cfg, log).Run(); err != nil {
		log.Errorw("サーバー起動に失敗", "error", err)
		return err
	}
	return nil
}

func (o *options) runSubmit(cmd *cobra.Command, _ []string) error {
	cfg, log, err := o.setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	var in io.Reader = cmd.InOrStdin()
	if o.submitFile != "-" {
		f, err := os.Open(o.submitFile)
		if err != nil {
			return fmt.Errorf("opening %s failed: %w", o.submitFile, err)
		}
		defer f.Close()
		in = f
	}

	var payload domain.SurveyPayload
	if err := json.NewDecoder(in).Decode(&payload); err != nil {
		return fmt.Errorf("payload must be a JSON object: %w", err)
	}

	forwarder := server.NewForwarder(cfg, log)
	ack, err := forwarder.Forward(context.Background(), payload, cfg.Credentials)
	if err != nil {
		return errors.New(domain.PublicMessage(err))
	}
	return json.NewEncoder(cmd.OutOrStdout()).Encode(ack)
}
