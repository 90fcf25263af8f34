package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/fivetwenty-io/jsonapi-client/internal/constants"
	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapi"
	"github.com/fivetwenty-io/jsonapi-client/pkg/jsonapiclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the CLI configuration file.
type Config struct {
	Output   string                           `mapstructure:"output" yaml:"output,omitempty"`
	Channels map[string]jsonapi.ChannelConfig `mapstructure:"channels" yaml:"channels"`
}

// ConfigDir returns the default configuration directory, ~/.jsonapi.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}

	return filepath.Join(home, configDirName), nil
}

// configFile returns the --config path, or the default config file.
func configFile() (string, error) {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		return cfgFile, nil
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, configFileName), nil
}

// loadChannels reads channels from the configuration, then applies the
// --base-url and --token overrides to the default channel.
func loadChannels(baseURL, token string) (map[string]jsonapi.ChannelConfig, error) {
	channels := map[string]jsonapi.ChannelConfig{}
	if err := viper.UnmarshalKey("channels", &channels); err != nil {
		return nil, fmt.Errorf("failed to read channels: %w", err)
	}

	if baseURL != "" || token != "" {
		channel := channels[jsonapi.DefaultChannel]
		if baseURL != "" {
			channel.BaseURL = baseURL
		}

		if token != "" {
			channel.AccessToken = token
		}

		channels[jsonapi.DefaultChannel] = channel
	}

	return channels, nil
}

// createClient builds a client for registry over the configured channels.
// clientOptions are the per-invocation transport hooks of the CLI.
type clientOptions struct {
	logger  *ZapLogger
	headers http.Header
	metrics *jsonapi.MetricsCollector
}

func createClient(ctx context.Context, registry *jsonapi.Registry, channels map[string]jsonapi.ChannelConfig, opts clientOptions) (jsonapi.Client, error) {
	config := &jsonapi.Config{
		Channels:     channels,
		Registry:     registry,
		Interceptors: jsonapi.NewInterceptorChain(),
	}

	if len(opts.headers) > 0 {
		config.Interceptors.AddRequestInterceptor(jsonapi.HeaderInterceptor(opts.headers))
	}

	if opts.metrics != nil {
		config.Interceptors.AddRequestInterceptor(jsonapi.MetricsRequestInterceptor(opts.metrics))
		config.Interceptors.AddResponseInterceptor(jsonapi.MetricsResponseInterceptor(opts.metrics))
	}

	if opts.logger != nil {
		config.Logger = opts.logger
		config.Debug = viper.GetBool("verbose")
		config.Interceptors.AddResponseInterceptor(jsonapi.ErrorLoggingInterceptor(opts.logger))
	}

	return jsonapiclient.New(ctx, config)
}

// offlineClient builds query URLs without any transport.
type offlineClient struct {
	registry *jsonapi.Registry
}

func (c offlineClient) Registry() *jsonapi.Registry { return c.registry }

func (c offlineClient) Channel(id string) (jsonapi.Transport, error) {
	return nil, fmt.Errorf("%w: %q", jsonapi.ErrChannelNotFound, id)
}

func (c offlineClient) Logger() jsonapi.Logger { return nil }

// NewConfigCommand creates the config command group
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Create and inspect the channels used by the jsonapi CLI",
	}

	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		baseURL string
		token   string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file",
		Long:  "Write a configuration file with a default channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" {
				return jsonapi.ErrChannelBaseURLRequired
			}

			path, err := configFile()
			if err != nil {
				return err
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite: %w", path, os.ErrExist)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to check %s: %w", path, err)
			}

			config := Config{
				Channels: map[string]jsonapi.ChannelConfig{
					jsonapi.DefaultChannel: {BaseURL: baseURL, AccessToken: token},
				},
			}

			data, err := yaml.Marshal(config)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			if err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}

			if err := os.WriteFile(path, data, constants.ConfigFilePerm); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)

			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "base URL of the default channel")
	cmd.Flags().StringVar(&token, "token", "", "access token of the default channel")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}

// channelSummary is the config show view of one channel.
type channelSummary struct {
	ID             string `json:"id" yaml:"id"`
	BaseURL        string `json:"base_url" yaml:"base_url"`
	Authentication string `json:"authentication" yaml:"authentication"`
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show configured channels",
		Long:  "Display the configured channels with credentials masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			channels, err := loadChannels("", "")
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(channels))
			for id := range channels {
				ids = append(ids, id)
			}

			sort.Strings(ids)

			summaries := make([]channelSummary, 0, len(ids))
			rows := make([][]string, 0, len(ids))

			for _, id := range ids {
				summary := channelSummary{
					ID:             id,
					BaseURL:        channels[id].BaseURL,
					Authentication: authentication(channels[id]),
				}
				summaries = append(summaries, summary)
				rows = append(rows, []string{summary.ID, summary.BaseURL, summary.Authentication})
			}

			return render(cmd.OutOrStdout(), outputFormat(), summaries,
				[]string{"Channel", "Base URL", "Authentication"}, rows)
		},
	}
}

func authentication(channel jsonapi.ChannelConfig) string {
	switch {
	case channel.AccessToken != "":
		return "token " + Masked
	case channel.ClientID != "":
		return "client credentials (" + channel.ClientID + ")"
	default:
		return "none"
	}
}
