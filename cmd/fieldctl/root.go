package main

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/fieldgo"
)

const (
	cfgVerbose        = "verbose"
	cfgJSON           = "json"
	cfgCompression    = "compression"
	cfgS3Region       = "s3-region"
	cfgS3Endpoint     = "s3-endpoint"
	cfgMinioEndpoint  = "minio-endpoint"
	cfgMinioAccessKey = "minio-access-key"
	cfgMinioSecretKey = "minio-secret-key"
	cfgMinioSecure    = "minio-secure"
)

// app carries the configuration shared by all subcommands.
type app struct {
	v      *viper.Viper
	logger *fieldgo.Logger
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	a := &app{v: v, logger: fieldgo.NoopLogger()}

	root := &cobra.Command{
		Use:   "fieldctl",
		Short: "Inspect and convert dumped fields",
		Long: `fieldctl works on dumped field streams using only their self-describing
headers, so it handles fields of any layer chain.

Locations are local paths, s3://bucket/key or minio://bucket/key.
Every flag can also be set through a FIELDCTL_* environment variable,
for example FIELDCTL_MINIO_ENDPOINT or FIELDCTL_COMPRESSION.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if v.GetBool(cfgVerbose) {
				a.logger = fieldgo.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
			}
		},
	}

	flags := root.PersistentFlags()
	flags.BoolP(cfgVerbose, "v", false, "log progress to stderr")
	flags.String(cfgS3Region, "", "region for s3:// locations (default from AWS config)")
	flags.String(cfgS3Endpoint, "", "custom endpoint for s3:// locations")
	flags.String(cfgMinioEndpoint, "", "host:port for minio:// locations")
	flags.String(cfgMinioAccessKey, "", "access key for minio:// locations")
	flags.String(cfgMinioSecretKey, "", "secret key for minio:// locations")
	flags.Bool(cfgMinioSecure, true, "use TLS for minio:// locations")

	v.SetEnvPrefix("fieldctl")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)

	root.AddCommand(
		newInspectCmd(a),
		newVerifyCmd(a),
		newConvertCmd(a),
	)
	return root
}
