package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"
	bolt "go.etcd.io/bbolt"

	"domelink/pkg/alpaca"
	"domelink/pkg/drivers/dome_simulator"
	"domelink/pkg/drivers/serialdome"
	"domelink/templates"
)

func run(c *cli.Context) error {
	if c.Bool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	log.Info("Domelink Alpaca Server")

	tmpl, err := templates.LoadTemplates()
	if err != nil {
		return fmt.Errorf("failed to load templates: %v", err)
	}

	db, err := bolt.Open(c.String("db"), 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to open database: %v", err)
	}
	defer db.Close()

	store, err := alpaca.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create store: %v", err)
	}

	simDome, err := serialdome.NewDriver(0, db, tmpl, log.WithField("device", "sim"))
	if err != nil {
		return fmt.Errorf("failed to create simulated dome: %v", err)
	}
	simDome.SetDialer(dome_simulator.New(log.WithField("device", "sim")))
	defer simDome.Close()

	serialDome, err := serialdome.NewDriver(1, db, tmpl, log.WithField("device", "dome"))
	if err != nil {
		return fmt.Errorf("failed to create serial dome: %v", err)
	}
	defer serialDome.Close()

	serverDesc := alpaca.ServerDescription{
		Name:                "Domelink Alpaca Server",
		Manufacturer:        "Domelink",
		ManufacturerVersion: "1.0",
		Location:            "Observatory",
	}

	devices := []alpaca.Device{
		simDome,
		serialDome,
	}
	server := alpaca.NewServer(serverDesc, devices, store, tmpl)

	mux := server.AddRoutes()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", c.Int("port")),
		Handler: mux,
	}

	// Channel to listen for interrupt or terminate signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		log.Debugf("Server started on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", srv.Addr, err)
		}
		wg.Done()
	}()

	// Create discovery responder
	discoveryLogger := log.WithField("component", "discovery")
	dr, err := alpaca.NewDiscoveryResponder("0.0.0.0", c.Int("port"), discoveryLogger)
	if err != nil {
		log.Fatalf("Failed to start discovery responder: %v", err)
	}

	wg.Add(1)
	go func() {
		if err := dr.Run(ctx); err != nil {
			log.Fatalf("Discovery responder failed: %v", err)
		}
		wg.Done()
		log.Debug("Discovery responder stopped")
	}()

	<-ctx.Done()

	log.Info("Shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx2); err != nil {
		return fmt.Errorf("server forced to shutdown: %v", err)
	}

	wg.Wait()
	log.Info("Server stopped")
	return nil
}

func main() {
	app := cli.App{
		Name:  "Domelink Alpaca Server",
		Usage: "Serial dome controller behind an ASCOM Alpaca API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
				Value:   false,
				EnvVars: []string{"DEBUG"},
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				Value:   8090,
				EnvVars: []string{"ALPACA_PORT"},
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "Path to the configuration database",
				Value:   "domelink.db",
				EnvVars: []string{"DOMELINK_DB"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
