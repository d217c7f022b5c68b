package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/optimus"
	"pkt.systems/optimus/core"
	"pkt.systems/optimus/httpapi"
	"pkt.systems/optimus/internal/appconfig"
	"pkt.systems/optimus/internal/chromehost"
	"pkt.systems/optimus/internal/memhost"
	"pkt.systems/optimus/schema"
	"pkt.systems/pslog"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var hostKind string
	var debug bool
	var disableAuditTrails bool
	var noPrimary bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the window shell and its invocation API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if hostKind != "" {
				cfg.Host.Kind = hostKind
			}
			if debug {
				cfg.Shell.Debug = true
			}
			if disableAuditTrails {
				cfg.Logging.DisableAuditTrails = true
			}
			if noPrimary {
				cfg.Shell.OpenPrimaryOnStart = false
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			host, err := selectHost(ctx, cfg, logger)
			if err != nil {
				return err
			}
			logger.Info("window host selected", "kind", cfg.Host.Kind, "base_url", cfg.Windows.BaseURL)

			server, err := optimus.New(toServerConfig(cfg), optimus.ServerDeps{
				Host:   host,
				Logger: logger,
			}, optimus.WithHTTP())
			if err != nil {
				if closer, ok := host.(interface{ Shutdown() }); ok {
					closer.Shutdown()
				}
				return err
			}

			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&hostKind, "host", "", "window host (memory|chrome); overrides host.kind")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug mode (devtools on new windows)")
	cmd.Flags().BoolVar(&disableAuditTrails, "disable-audit-trails", false, "disable audit trail logging for commands")
	cmd.Flags().BoolVar(&noPrimary, "no-primary", false, "do not open the primary window on start")
	return cmd
}

func selectHost(ctx context.Context, cfg appconfig.Config, logger pslog.Logger) (core.Host, error) {
	switch cfg.Host.Kind {
	case appconfig.HostMemory:
		return memhost.New(logger), nil
	case appconfig.HostChrome:
		return chromehost.New(ctx, chromehost.Config{
			ExecPath:    cfg.Host.Chrome.ExecPath,
			BaseURL:     cfg.Windows.BaseURL,
			Headless:    cfg.Host.Chrome.Headless,
			NoSandbox:   cfg.Host.Chrome.NoSandbox,
			UserDataDir: cfg.Host.Chrome.UserDataDir,
			Debug:       cfg.Shell.Debug && cfg.Windows.Options.DevtoolsOnDebug,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported host.kind %q", cfg.Host.Kind)
	}
}

func toServerConfig(cfg appconfig.Config) optimus.ServerConfig {
	return optimus.ServerConfig{
		Shell:     cfg.ShellSettings(),
		Locations: cfg.Windows.Locations,
		HTTP: httpapi.Config{
			Addr:     cfg.HTTP.Addr,
			BasePath: cfg.HTTP.BasePath,
		},
		EventBufferDepth:   cfg.Events.BufferDepth,
		PrimaryWindow:      schema.WindowName(cfg.Shell.PrimaryWindow),
		OpenPrimaryOnStart: cfg.Shell.OpenPrimaryOnStart,
	}
}
