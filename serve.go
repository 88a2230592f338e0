package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"agentdesk/internal/clients"
	"agentdesk/internal/config"
	"agentdesk/internal/logger"
	"agentdesk/internal/retention"
	"agentdesk/internal/rtc"
	"agentdesk/internal/server"
)

type serveOptions struct {
	Addr       string
	ICEServers string
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST, websocket and WebRTC transports",
		Example: `  agentdesk serve
  agentdesk serve --addr :9000 --ice stun:stun.l.google.com:19302`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.ConfigFile)
			if err != nil {
				return err
			}
			if opts.Addr != "" {
				cfg.Server.Addr = opts.Addr
			}
			return runServe(cfg, opts, logger.New())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Addr, "addr", "", "listen address (overrides server.addr)")
	flags.StringVar(&opts.ICEServers, "ice", "", "comma separated STUN/TURN urls for WebRTC peers")

	return cmd
}

func runServe(cfg *config.Config, opts *serveOptions, log *logger.Logger) error {
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	var ice []string
	if opts.ICEServers != "" {
		ice = strings.Split(opts.ICEServers, ",")
	}
	peers := rtc.New(a.queue, rtc.Options{ICEServers: ice}, log)
	defer peers.Close()

	mgr := clients.NewManager()
	defer mgr.CloseAll()

	h := server.NewHandler(a.queue, a.computer, a.shots, peers, log)
	container := server.NewContainer(h, mgr, log)

	if cfg.Retention.Enabled {
		rm := retention.NewManager(log, cfg.Screenshot.Dir, cfg.Retention.Schedule, cfg.Retention.MaxAge)
		if err := rm.Start(); err != nil {
			return err
		}
		defer rm.Stop()
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: container}
	errc := make(chan error, 1)
	go func() {
		log.Info("http server started on %s", log.Highlight(cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errc:
		return err
	}
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown error: %v", err)
		return nil
	}
	log.Success("server stopped")
	return nil
}
