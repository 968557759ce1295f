package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ivan-angjelkoski/inj-sdk-bridge/internal/adapters/attestation"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/internal/adapters/file"
	httpAdapter "github.com/ivan-angjelkoski/inj-sdk-bridge/internal/adapters/http"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/internal/adapters/memory"
	redisstore "github.com/ivan-angjelkoski/inj-sdk-bridge/internal/adapters/redis"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/internal/adapters/relay"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/internal/adapters/sqlite"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/internal/config"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/internal/logging"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/internal/metrics"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/domain"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bridge HTTP daemon",
	Long: `Starts the bridge daemon, exposing the transfer API and Prometheus
metrics over HTTP. Store, attestation and relay endpoints come from the
config file and environment.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfgPath, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(cfgPath)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		logger := logging.New(logging.ParseLevel(cfg.Log.Level))
		if cfg.Log.Format == "json" {
			logger = logging.NewJSON(logging.ParseLevel(cfg.Log.Level))
		}

		store, err := buildStore(cfg)
		if err != nil {
			fmt.Printf("Error building store: %v\n", err)
			os.Exit(1)
		}

		observer := metrics.New(prometheus.DefaultRegisterer)

		handler := httpAdapter.NewHandler(store, buildChain(cfg),
			httpAdapter.WithLogger(logger),
			httpAdapter.WithListener(observer.Listener()),
		)

		srv := &http.Server{
			Addr:    cfg.Listen,
			Handler: handler,
		}

		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("bridge daemon listening", "addr", srv.Addr, "store", cfg.Store.Kind)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("starting shutdown", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "error", err)
				if err := srv.Close(); err != nil {
					logger.Error("error killing server", "error", err)
				}
			}
			logger.Info("bridge daemon stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func buildStore(cfg config.Config) (ports.SessionStore, error) {
	switch cfg.Store.Kind {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StoreFile:
		return file.New(cfg.Store.Path), nil
	case config.StoreRedis:
		r := cfg.Store.Redis
		var opts []redisstore.Option
		if r.TTL > 0 {
			opts = append(opts, redisstore.WithTTL(r.TTL.Std()))
		}
		return redisstore.New(r.Addr, r.Password, r.DB, opts...), nil
	case config.StoreSQLite:
		return sqlite.Open(cfg.Store.Path)
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}
}

// remoteChain is the daemon's chain adapter: attestation and relay go over
// HTTP, while operations that need a local signer are refused. Deployments
// that submit transactions plug their own ports.ChainAdapter in via the
// library API instead of the daemon.
type remoteChain struct {
	attestation *attestation.Client
	relay       *relay.Client
}

var errNoSigner = errors.New("no chain signer configured")

func buildChain(cfg config.Config) ports.ChainAdapter {
	return &remoteChain{
		attestation: attestation.New(cfg.Attestation.BaseURL,
			attestation.WithPollInterval(cfg.Attestation.PollInterval.Std())),
		relay: relay.New(cfg.Relay.BaseURL),
	}
}

func (c *remoteChain) Approve(ctx context.Context, amount string) (ports.ApproveResult, error) {
	return ports.ApproveResult{}, errNoSigner
}

func (c *remoteChain) Burn(ctx context.Context, amount, destinationAddress string) (string, error) {
	return "", errNoSigner
}

func (c *remoteChain) AwaitAttestation(ctx context.Context, burnTxHash string) (domain.Attestation, error) {
	return c.attestation.Await(ctx, burnTxHash)
}

func (c *remoteChain) MintDirect(ctx context.Context, attestation domain.Attestation) (string, error) {
	return "", errNoSigner
}

func (c *remoteChain) MintViaRelay(ctx context.Context, attestation domain.Attestation) (string, error) {
	return c.relay.Mint(ctx, attestation)
}

func (c *remoteChain) SubmitBundledApproveAndBurn(ctx context.Context, amount, destinationAddress string, usePaymaster bool) (string, error) {
	return "", errNoSigner
}

func (c *remoteChain) AwaitBundledOperation(ctx context.Context, operationID string, usePaymaster bool) (string, error) {
	return "", errNoSigner
}
