package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/packd-dev/packd/internal/config"
	"github.com/packd-dev/packd/internal/deploy"
)

func deployCmd() *cobra.Command {
	var bucket string

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Upload build output to S3",
		Long: `Upload the build output directory to the configured S3 bucket.

Credentials come from the standard AWS credential chain
(environment, shared config, instance metadata). The bucket and
key prefix come from the "deploy" section of packd.json.

Examples:
  packd deploy
  packd deploy --bucket=my-site-bucket`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(bucket)
		},
	}

	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "Bucket (default from packd.json)")

	return cmd
}

func runDeploy(bucket string) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}
	if bucket != "" {
		cfg.Deploy.Bucket = bucket
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	d, err := deploy.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	d.OnProgress = func(key string) {
		info(key)
	}

	result, err := d.Deploy(ctx, cfg.OutputPath())
	if err != nil {
		return err
	}

	success("Deployed %d files (%d bytes) to %s in %s",
		result.Uploaded, result.Bytes, cfg.Deploy.Bucket, result.Duration.Round(1000000))
	return nil
}
