package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/decred/slog"
	"github.com/urfave/cli/v2"

	"github.com/whistlab/knockoutwhist/pkg/server"
)

func main() {
	app := &cli.App{
		Name:  "whistsrv",
		Usage: "Multiplayer Knockout Whist server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Value: "0.0.0.0",
				Usage: "Host to bind to",
			},
			&cli.IntFlag{
				Name:  "port",
				Value: 8000,
				Usage: "Port to bind to",
			},
			&cli.StringFlag{
				Name:  "webdir",
				Usage: "Directory with the browser front-end to serve at / (optional)",
			},
			&cli.StringFlag{
				Name:  "debuglevel",
				Value: "info",
				Usage: "Logging level: trace, debug, info, warn, error",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "Deterministic RNG seed for shuffles and random picks (0 = random)",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "whistsrv: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	backend := slog.NewBackend(os.Stdout)
	log := backend.Logger("MAIN")

	level, ok := slog.LevelFromString(c.String("debuglevel"))
	if !ok {
		return cli.Exit(fmt.Sprintf("unknown debug level %q", c.String("debuglevel")), 1)
	}
	log.SetLevel(level)

	srv := server.New(server.Config{
		LogBackend: backend,
		DebugLevel: c.String("debuglevel"),
		Seed:       c.Int64("seed"),
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.ServeWS)
	if webdir := c.String("webdir"); webdir != "" {
		mux.Handle("/", http.FileServer(http.Dir(webdir)))
	}

	addr := net.JoinHostPort(c.String("host"), strconv.Itoa(c.Int("port")))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to listen on %s: %v", addr, err), 1)
	}

	httpSrv := &http.Server{Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Serve(lis)
	}()
	log.Infof("Server running on http://%s", addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return cli.Exit(fmt.Sprintf("serve error: %v", err), 1)
		}
	case <-ctx.Done():
		log.Infof("Server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		srv.Shutdown()
	}

	return nil
}
