package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ma4z/Hydrenix-Node/internal/client"
	"github.com/ma4z/Hydrenix-Node/internal/infrastructure/logging"
)

// options are resolved by viper: flag, then HYDRENIX_* env, then the
// config file, then defaults.
type options struct {
	url        string
	apiKey     string
	timeout    time.Duration
	asJSON     bool
	verbose    bool
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	v := viper.New()
	def := client.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:           "nodectl",
		Short:         "Control a Hydrenix node",
		Long:          "nodectl checks a Hydrenix node, provisions sandboxes on it and lists recorded sessions.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.resolve(v)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default $HOME/.config/hydrenix/nodectl.toml)")
	flags.String("url", def.BaseURL, "node base URL")
	flags.String("key", "", "node API key")
	flags.Duration("timeout", def.Timeout, "request timeout")
	flags.BoolVar(&opts.asJSON, "json", false, "print raw JSON")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log requests to stderr")

	for _, name := range []string{"url", "key", "timeout"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}
	v.SetEnvPrefix("HYDRENIX")
	v.AutomaticEnv()
	_ = v.BindEnv("key", "HYDRENIX_API_KEY")

	rootCmd.AddCommand(
		newStatusCmd(opts),
		newCreateCmd(opts),
		newListCmd(opts),
	)
	return rootCmd
}

func (o *options) resolve(v *viper.Viper) error {
	if o.configFile != "" {
		v.SetConfigFile(o.configFile)
	} else {
		v.SetConfigName("nodectl")
		v.SetConfigType("toml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "hydrenix"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	o.url = v.GetString("url")
	o.apiKey = v.GetString("key")
	o.timeout = v.GetDuration("timeout")
	return nil
}

func (o *options) client() (*client.Client, error) {
	cfg := client.DefaultConfig()
	cfg.BaseURL = o.url
	cfg.APIKey = o.apiKey
	cfg.Timeout = o.timeout
	cfg.Logger = zap.NewNop()
	if o.verbose {
		logger, err := logging.New(logging.Config{Level: "debug", Development: true, OutputPaths: []string{"stderr"}})
		if err == nil {
			cfg.Logger = logger.Component("nodectl")
		}
	}
	return client.New(cfg)
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the node is online and the key is accepted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			status, err := c.Status(cmd.Context())
			if err != nil {
				return err
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"status": status})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", opts.url, status)
			return err
		},
	}
}

func newCreateCmd(opts *options) *cobra.Command {
	var req client.CreateRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Provision a sandbox and print its ssh command",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			session, err := c.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), session)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "container: %s\n", session.ContainerID)
			_, err = fmt.Fprintln(out, session.SSHCommand)
			return err
		},
	}

	cmd.Flags().StringVar(&req.RAM, "ram", "", "memory limit, e.g. 512m or 2g")
	cmd.Flags().StringVar(&req.Cores, "cores", "", "CPU limit, e.g. 1 or 0.5")
	cmd.Flags().StringVar(&req.Owner, "owner", "", "owner recorded in the session ledger")
	_ = cmd.MarkFlagRequired("ram")
	_ = cmd.MarkFlagRequired("cores")
	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			sessions, err := c.List(cmd.Context())
			if err != nil {
				return err
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), sessions)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "OWNER\tCONTAINER\tSSH COMMAND")
			for _, s := range sessions {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Owner, s.Handle, s.Command)
			}
			return tw.Flush()
		},
	}
}
