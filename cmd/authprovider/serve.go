package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/authnet/config"
	sagecrypto "github.com/sage-x-project/authnet/crypto"
	"github.com/sage-x-project/authnet/crypto/formats"
	"github.com/sage-x-project/authnet/internal/applog"
	"github.com/sage-x-project/authnet/internal/metrics"
	"github.com/sage-x-project/authnet/internal/model"
	"github.com/sage-x-project/authnet/internal/provider"
	"github.com/sage-x-project/authnet/internal/store"
	"github.com/sage-x-project/authnet/internal/store/memstore"
	"github.com/sage-x-project/authnet/internal/store/pgstore"
	"github.com/sage-x-project/authnet/internal/teamcrypto"
	"github.com/sage-x-project/authnet/wsadapter"
)

var (
	serveConfigDir string
	serveDialPeer  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a provider instance over a demo WebSocket adapter",
	Long: `serve loads configuration, restores any persisted share state, and
brings up one provider instance wrapping a WebSocket base adapter: it
listens for inbound peer connections at listen.addr and, if listen.dial_url
is set, also dials out to one peer (identified by --dial-peer).`,
	Example: `  # Listen only
  authprovider serve --config-dir ./config

  # Listen and dial a known peer
  authprovider serve --config-dir ./config --dial-peer other-device-id`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveConfigDir, "config-dir", "config", "Directory containing environment config YAML files")
	serveCmd.Flags().StringVar(&serveDialPeer, "dial-peer", "", "Peer id to dial at listen.dial_url, if set")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.LoaderOptions{ConfigDir: serveConfigDir})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := applog.New("authprovider", applog.ParseLevel(cfg.Logging.Level))

	device, secretKey, err := loadDeviceIdentity(cfg.Device)
	if err != nil {
		return fmt.Errorf("load device identity: %w", err)
	}

	backend, err := openStore(cmd.Context(), cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	prov := provider.New(provider.Config{
		Device:          device,
		DeviceSecretKey: secretKey,
		Engine:          teamcrypto.NewReferenceEngine(),
		TeamLoader:      teamLoaderFunc{},
		Store:           backend,
		Events:          loggingEvents{log: logger.With("events")},
		Logger:          logger.With("provider"),
	})
	defer prov.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := prov.LoadPersisted(ctx); err != nil {
		cancel()
		return fmt.Errorf("load persisted state: %w", err)
	}
	cancel()

	ws := wsadapter.New()
	prov.Wrap(ws)

	mux := http.NewServeMux()
	mux.Handle("/ws", ws.Handler(func(r *http.Request) model.PeerID {
		return model.PeerID(r.URL.Query().Get("peer_id"))
	}))

	srv := &http.Server{
		Addr:              cfg.Listen.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening for peers on %s/ws", cfg.Listen.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("listen server error: %v", err)
		}
	}()

	if cfg.Metrics.Enabled {
		go func() {
			logger.Infof("metrics listening on %s%s", cfg.Metrics.Addr, cfg.Metrics.Path)
			metricsMux := http.NewServeMux()
			metricsMux.Handle(cfg.Metrics.Path, metrics.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Addr, metricsMux); err != nil {
				logger.Errorf("metrics server error: %v", err)
			}
		}()
	}

	if cfg.Listen.DialURL != "" {
		if serveDialPeer == "" {
			logger.Warnf("listen.dial_url set but --dial-peer not given; skipping dial")
		} else {
			dialCtx, dialCancel := context.WithTimeout(context.Background(), cfg.Listen.HandshakeTimeout)
			err := ws.Dial(dialCtx, cfg.Listen.DialURL, model.PeerID(serveDialPeer))
			dialCancel()
			if err != nil {
				logger.Errorf("dial %s: %v", cfg.Listen.DialURL, err)
			}
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Infof("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	return nil
}

// teamLoaderFunc adapts the package-level teamcrypto.LoadTeam to the
// provider.TeamLoader interface.
type teamLoaderFunc struct{}

func (teamLoaderFunc) LoadTeam(teamData, keyringData []byte) (model.Team, error) {
	return teamcrypto.LoadTeam(teamData, keyringData)
}

// loadDeviceIdentity reads the device's Ed25519 key file and its sibling
// <path>.secret file (written by keygen) holding the 32-byte device secret
// used to encrypt the at-rest keyring.
func loadDeviceIdentity(cfg config.DeviceConfig) (model.DeviceIdentity, []byte, error) {
	if cfg.KeyPath == "" {
		return model.DeviceIdentity{}, nil, fmt.Errorf("device.key_path is not set")
	}

	keyData, err := os.ReadFile(cfg.KeyPath)
	if err != nil {
		return model.DeviceIdentity{}, nil, fmt.Errorf("read key file: %w", err)
	}

	var keyPair sagecrypto.KeyPair
	if strings.HasSuffix(cfg.KeyPath, ".pem") {
		keyPair, err = formats.NewPEMImporter().Import(keyData, sagecrypto.KeyFormatPEM)
	} else {
		keyPair, err = formats.NewJWKImporter().Import(keyData, sagecrypto.KeyFormatJWK)
	}
	if err != nil {
		return model.DeviceIdentity{}, nil, fmt.Errorf("import key: %w", err)
	}

	secretKey, err := os.ReadFile(cfg.KeyPath + ".secret")
	if err != nil {
		return model.DeviceIdentity{}, nil, fmt.Errorf("read device secret file: %w", err)
	}

	deviceID := cfg.ID
	if deviceID == "" {
		deviceID = keyPair.ID()
	}

	return model.DeviceIdentity{
		ID:     deviceID,
		UserID: cfg.UserID,
		Key:    keyPair,
	}, secretKey, nil
}

// openStore constructs the configured persistence backend.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Type {
	case "", "memory":
		return memstore.New(), nil
	case "postgres":
		pgCfg := pgstore.Config{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		}
		return pgstore.New(ctx, pgCfg)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}

// loggingEvents logs every provider.Events callback; it is the "print
// status" surface the CLI demo offers until a real consumer subscribes.
type loggingEvents struct {
	log *applog.Logger
}

func (e loggingEvents) OnJoined(_ context.Context, shareID model.ShareID, peerID model.PeerID, _ model.Team, user model.UserIdentity) {
	e.log.Infof("joined share=%s peer=%s user=%s", shareID, peerID, user.ID)
}

func (e loggingEvents) OnConnected(_ context.Context, shareID model.ShareID, peerID model.PeerID) {
	e.log.Infof("connected share=%s peer=%s", shareID, peerID)
}

func (e loggingEvents) OnUpdated(_ context.Context, shareID model.ShareID, peerID model.PeerID) {
	e.log.Infof("updated share=%s peer=%s", shareID, peerID)
}

func (e loggingEvents) OnDisconnected(_ context.Context, shareID model.ShareID, peerID model.PeerID) {
	e.log.Infof("disconnected share=%s peer=%s", shareID, peerID)
}

func (e loggingEvents) OnLocalError(_ context.Context, shareID model.ShareID, peerID model.PeerID, err error) {
	e.log.Errorf("local error share=%s peer=%s: %v", shareID, peerID, err)
}

func (e loggingEvents) OnRemoteError(_ context.Context, shareID model.ShareID, peerID model.PeerID, err error) {
	e.log.Errorf("remote error share=%s peer=%s: %v", shareID, peerID, err)
}

var _ provider.Events = loggingEvents{}
