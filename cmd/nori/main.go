package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/nori/internal/api"
	"codeberg.org/snonux/nori/internal/cache"
	"codeberg.org/snonux/nori/internal/catalog"
	"codeberg.org/snonux/nori/internal/cli"
	"codeberg.org/snonux/nori/internal/client"
	"codeberg.org/snonux/nori/internal/log"
	"codeberg.org/snonux/nori/internal/processor"
	"codeberg.org/snonux/nori/internal/store"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()
	a := &app{flags: flags}
	defer a.close()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags, cli.Handlers{
		Search:        a.search,
		ListServices:  a.listServices,
		AddService:    a.addService,
		RemoveService: a.removeService,
		DetectService: a.detectService,
		History:       a.history,
		Serve:         a.serve,
		DefaultQuery:  a.defaultQuery,
	})

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		a.close()
		os.Exit(1)
	}
}

// app holds what the handlers share. It is set up on first use so that
// --help and --version never touch the database.
type app struct {
	flags *cli.Flags

	cfg       *cli.Config
	db        *store.DB
	pageCache cache.PageCache
	catalog   *catalog.Catalog
}

func (a *app) setup(ctx context.Context) error {
	if a.catalog != nil {
		return nil
	}

	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	log.Init(cfg.Log)

	db, err := store.Open(cfg.Database)
	if err != nil {
		return err
	}
	a.db = db

	opts := []catalog.Option{catalog.WithClientOptions(cfg.ClientOptions()...)}
	if pc := a.openCache(ctx); pc != nil {
		a.pageCache = pc
		opts = append(opts, catalog.WithCache(pc, cfg.Cache.TTL))
	}

	a.catalog = catalog.New(db.Services(), cfg.Services, opts...)
	return nil
}

// openCache prefers Redis when an address is configured and falls back to
// an in-process cache when Redis is unreachable.
func (a *app) openCache(ctx context.Context) cache.PageCache {
	cc := a.cfg.Cache
	if cc.Disabled {
		return nil
	}
	if cc.Address == "" {
		return cache.NewMemoryCache()
	}

	rc, err := cache.NewRedisCache(ctx, cc.RedisConfig)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Str("addr", cc.Address).Msg("Redis unavailable, caching in memory")
		return cache.NewMemoryCache()
	}
	return rc
}

func (a *app) close() {
	if a.pageCache != nil {
		_ = a.pageCache.Close()
		a.pageCache = nil
	}
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}

func (a *app) processor() *processor.Processor {
	return processor.NewProcessor(a.flags, a.cfg.Filters(), a.catalog, a.db.History())
}

func (a *app) search(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := a.setup(ctx); err != nil {
		return err
	}

	proc := a.processor()

	// Handle batch processing
	if a.flags.BatchFile != "" {
		return proc.ProcessBatch(ctx)
	}
	return proc.ProcessSingleQuery(ctx, a.flags.Service, strings.Join(args, " "))
}

func (a *app) listServices(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := a.setup(ctx); err != nil {
		return err
	}

	services, err := a.catalog.List(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tENDPOINT\tLOGIN")
	for _, s := range services {
		login := "-"
		if s.HasCredentials() {
			login = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, s.APIType, s.Endpoint, login)
	}
	return w.Flush()
}

func (a *app) addService(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := a.setup(ctx); err != nil {
		return err
	}

	s := client.Settings{
		Name:     args[0],
		Endpoint: strings.TrimRight(strings.TrimSpace(a.flags.Endpoint), "/"),
		Username: a.flags.Username,
		Password: a.flags.Password,
	}

	if a.flags.APIType != "" {
		t, err := client.ParseAPIType(a.flags.APIType)
		if err != nil {
			return err
		}
		s.APIType = t
	} else {
		fmt.Fprintf(cmd.ErrOrStderr(), "Detecting API of %s...\n", s.Endpoint)
		t, endpoint, ok := client.DetectServiceType(ctx, s.Endpoint, a.flags.DetectTimeout)
		if !ok {
			return fmt.Errorf("could not detect the API of %s, pass --type", s.Endpoint)
		}
		s.APIType = t
		s.Endpoint = endpoint
	}

	id, err := a.db.Services().Add(ctx, s)
	if errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("a service named %q already exists", s.Name)
	}
	if err != nil {
		return err
	}

	l := log.L()
	l.Debug().Str(log.FieldService, s.Name).Str("id", id).Msg("service stored")
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s) at %s\n", s.Name, s.APIType, s.Endpoint)
	return nil
}

func (a *app) removeService(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := a.setup(ctx); err != nil {
		return err
	}

	err := a.db.Services().Remove(ctx, args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no stored service named %q (services from the config file cannot be removed here)", args[0])
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
	return nil
}

func (a *app) detectService(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := a.setup(ctx); err != nil {
		return err
	}

	t, endpoint, ok := client.DetectServiceType(ctx, args[0], a.flags.DetectTimeout)
	if !ok {
		return fmt.Errorf("no known API found at %s", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", t, endpoint)
	return nil
}

func (a *app) history(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := a.setup(ctx); err != nil {
		return err
	}

	h := a.db.History()
	if a.flags.ClearHistory {
		if err := h.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
		return nil
	}

	entries, err := h.Recent(ctx, a.flags.HistoryLimit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", e.SearchedAt.Format("2006-01-02 15:04"), e.Query)
	}
	return nil
}

func (a *app) serve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := a.setup(ctx); err != nil {
		return err
	}

	srv := api.NewServer(a.catalog, a.cfg.Filters(), log.L())
	fmt.Fprintf(cmd.ErrOrStderr(), "Listening on %s\n", a.flags.Addr)
	return srv.ListenAndServe(ctx, a.flags.Addr)
}

func (a *app) defaultQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := a.setup(ctx); err != nil {
		return err
	}

	sc, err := a.catalog.Client(ctx, a.flags.Service)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), sc.DefaultQuery())
	return nil
}
