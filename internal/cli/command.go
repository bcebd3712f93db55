package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/nori/internal"
	"codeberg.org/snonux/nori/internal/client"
)

// RunFunc is the action behind a command
type RunFunc func(cmd *cobra.Command, args []string) error

// Handlers are the actions wired into the command tree. A nil handler
// leaves its command without an action.
type Handlers struct {
	Search        RunFunc
	ListServices  RunFunc
	AddService    RunFunc
	RemoveService RunFunc
	DetectService RunFunc
	History       RunFunc
	Serve         RunFunc
	DefaultQuery  RunFunc
}

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags, h Handlers) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nori [tags]",
		Short: "Search image boards from the command line",
		Long: `nori searches Danbooru, Gelbooru, Shimmie, e621, Derpibooru and Flickr
style image boards through one interface.

Examples:
  nori search cat_ears solo                 # First page from the default service
  nori search --service e926 --pages 3 fox  # Three pages from a named service
  nori search --batch queries.txt           # One query per line
  nori services detect https://example.org  # Find out which API a site speaks
  nori serve --addr :8080                   # Local JSON API`,
		Version:      internal.Version,
		SilenceUsage: true,
	}

	setupPersistentFlags(rootCmd, flags)

	searchCmd := &cobra.Command{
		Use:   "search [tags...]",
		Short: "Search a service for tags",
		RunE:  h.Search,
	}
	setupSearchFlags(searchCmd, flags)

	servicesCmd := &cobra.Command{
		Use:   "services",
		Short: "Manage configured services",
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List known services",
		Args:  cobra.NoArgs,
		RunE:  h.ListServices,
	}
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Store a service in the database",
		Args:  cobra.ExactArgs(1),
		RunE:  h.AddService,
	}
	setupAddFlags(addCmd, flags)
	removeCmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a stored service",
		Args:  cobra.ExactArgs(1),
		RunE:  h.RemoveService,
	}
	detectCmd := &cobra.Command{
		Use:   "detect <url>",
		Short: "Detect which API a site speaks",
		Args:  cobra.ExactArgs(1),
		RunE:  h.DetectService,
	}
	detectCmd.Flags().DurationVar(&flags.DetectTimeout, "probe-timeout", flags.DetectTimeout, "Timeout for each probe request")
	servicesCmd.AddCommand(listCmd, addCmd, removeCmd, detectCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent searches",
		Args:  cobra.NoArgs,
		RunE:  h.History,
	}
	historyCmd.Flags().BoolVar(&flags.ClearHistory, "clear", false, "Forget every remembered search")
	historyCmd.Flags().IntVarP(&flags.HistoryLimit, "limit", "n", flags.HistoryLimit, "Number of entries to show")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured services over a local JSON API",
		Args:  cobra.NoArgs,
		RunE:  h.Serve,
	}
	serveCmd.Flags().StringVar(&flags.Addr, "addr", flags.Addr, "Listen address")

	defaultQueryCmd := &cobra.Command{
		Use:   "default-query",
		Short: "Print a service's default query",
		Args:  cobra.NoArgs,
		RunE:  h.DefaultQuery,
	}
	defaultQueryCmd.Flags().StringVarP(&flags.Service, "service", "s", "", "Service name (default: first configured)")

	rootCmd.AddCommand(searchCmd, servicesCmd, historyCmd, serveCmd, defaultQueryCmd)

	// bare "nori tags..." searches like "nori search tags..."
	if h.Search != nil {
		setupSearchFlags(rootCmd, flags)
		rootCmd.Args = cobra.ArbitraryArgs
		rootCmd.RunE = h.Search
	}

	bindFlagsToViper(rootCmd)
	return rootCmd
}

func setupPersistentFlags(cmd *cobra.Command, flags *Flags) {
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.nori.yaml)")
	cmd.PersistentFlags().StringVar(&flags.Database, "db", "", "SQLite database path (default is $HOME/.local/state/nori/nori.db)")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: trace, debug, info, warn, error, off")
	cmd.PersistentFlags().DurationVar(&flags.Timeout, "timeout", flags.Timeout, "Per-request timeout")
}

func setupSearchFlags(cmd *cobra.Command, flags *Flags) {
	cmd.Flags().StringVarP(&flags.Service, "service", "s", "", "Service name (default: first configured)")
	cmd.Flags().IntVarP(&flags.Page, "page", "p", 0, "First page to fetch (0-indexed)")
	cmd.Flags().IntVar(&flags.Pages, "pages", flags.Pages, "Number of pages to fetch")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Run queries from file (one per line, optional 'service = tags')")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Print results as JSON")
}

func setupAddFlags(cmd *cobra.Command, flags *Flags) {
	cmd.Flags().StringVarP(&flags.APIType, "type", "t", "", "API type: "+strings.Join(apiTypeNames(), ", ")+" (detected when empty)")
	cmd.Flags().StringVarP(&flags.Endpoint, "endpoint", "e", "", "Base URL of the service")
	cmd.Flags().StringVarP(&flags.Username, "username", "u", "", "Login name or user id")
	cmd.Flags().StringVar(&flags.Password, "password", "", "Password or API key")
	cmd.MarkFlagRequired("endpoint")
}

func apiTypeNames() []string {
	types := client.AllAPITypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return names
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("database", cmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("timeout", cmd.PersistentFlags().Lookup("timeout"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	setDefaults(viper.GetViper())

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".nori" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".nori")
	}

	// Environment variables, NORI_CACHE_REDIS_ADDR sets cache.redis_addr
	viper.SetEnvPrefix("NORI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
