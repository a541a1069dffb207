package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/frahmantamala/school-core/internal"
	"github.com/frahmantamala/school-core/pkg/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "SCHOOL"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "school-core",
	Short: "School Core",
	Long:  `Multi-tenant school backend: projects, roles and bulk attendance and exam uploads.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults also registers every key so AutomaticEnv can fill it when
// there is no config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("http_server.port", 8080)
	v.SetDefault("http_server.base_url", "http://localhost:8080")
	v.SetDefault("http_server.allowed_origins", "*")
	v.SetDefault("http_server.openapi_path", "api/openapi.yml")
	v.SetDefault("http_server.read_header_timeout", "5s")
	v.SetDefault("http_server.read_timeout", "30s")
	v.SetDefault("http_server.idle_timeout", "60s")
	v.SetDefault("http_server.write_timeout", "60s")
	v.SetDefault("http_server.upload_rate_limit", 30)

	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.conn_max_idle_time", "5m")
	v.SetDefault("database.source", "")

	v.SetDefault("security.access_token_secret", "")
	v.SetDefault("security.refresh_token_secret", "")
	v.SetDefault("security.access_token_duration", "15m")
	v.SetDefault("security.refresh_token_duration", "168h")
	v.SetDefault("security.bcrypt_cost", 12)

	v.SetDefault("upload.max_rows", 5000)
	v.SetDefault("upload.max_workers", 4)
	v.SetDefault("upload.job_queue_size", 32)
	v.SetDefault("upload.job_timeout", "2m")

	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "")
}

func loadConfig(path string) (*internal.Config, *viper.Viper, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("error validating config: %w", err)
	}

	return &cfg, v, nil
}

// watchConfig re-applies the log level when config.yml changes. Other
// settings need a restart.
func watchConfig(v *viper.Viper, lg *slog.Logger) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		lvl := v.GetString("observability.logging.level")
		logger.SetLevel(lvl)
		lg.Info("config reloaded", "file", e.Name, "log_level", logger.Level().String())
	})
	v.WatchConfig()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config-dir", ".", "directory containing config.yml")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
