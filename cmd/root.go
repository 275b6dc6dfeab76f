package cmd

import (
	"fmt"
	"os"
	"strings"

	"docingest/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "docingest",
	Short: "A document ingestion and processing system",
	Long: `Docingest accepts document uploads, assigns them content-addressed
identities, and runs each one through a validate/parse/chunk/embed pipeline.

The system supports:
- Content-addressed document identity and upload deduplication
- Asynchronous job processing with NATS JetStream
- Exponential-backoff retry with a dead-letter terminal state
- An append-only audit event log per document
- Job status and event queries over HTTP`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./configs/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format (json, text)")

	if err := viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-level flag: %v\n", err)
	}
	if err := viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-format flag: %v\n", err)
	}
}

func initConfig() {
	v := viper.New()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("DOCINGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
		// Config file not found; use defaults and environment
	}

	cfg = config.New(v)
}

func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.read_timeout", "10s")
	v.SetDefault("api.write_timeout", "10s")

	// Worker defaults
	v.SetDefault("worker.concurrency", 5)
	v.SetDefault("worker.queue_group", "ingest-workers")
	v.SetDefault("worker.job_timeout", "10m")
	v.SetDefault("worker.claim_timeout", "10m")
	v.SetDefault("worker.reap_interval", "1m")
	v.SetDefault("worker.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "docingest")
	v.SetDefault("database.schema", "docingest")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)

	// NATS defaults
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.max_reconnects", 5)
	v.SetDefault("nats.reconnect_wait", "2s")

	// Blob storage defaults
	v.SetDefault("storage.blob_dir", "/var/lib/docingest/blobs")

	// Pipeline provider defaults
	v.SetDefault("providers.parser.name", "passthrough")
	v.SetDefault("providers.parser.version", "1.0.0")
	v.SetDefault("providers.chunker.name", "paragraph")
	v.SetDefault("providers.chunker.version", "1.0.0")
	v.SetDefault("providers.chunker.max_chunk_chars", 4000)
	v.SetDefault("providers.embedder.model", "static-embed")
	v.SetDefault("providers.embedder.model_version", "1.0.0")
	v.SetDefault("providers.embedder.dimensions", 768)

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	return cfg
}
