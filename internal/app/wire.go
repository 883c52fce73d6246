package app

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"paykit/internal/config"
	"paykit/internal/directory"
	"paykit/internal/domain"
	"paykit/internal/pushwake"
	"paykit/internal/services/autopay"
	"paykit/internal/services/coordinator"
	"paykit/internal/services/exchange"
	"paykit/internal/services/keyring"
	"paykit/internal/store"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Keyring     *keyring.Keyring
	Directory   *directory.Client
	Exchange    *exchange.Service
	AutoPay     *autopay.Engine
	Coordinator *coordinator.Coordinator
	Wake        domain.WakeClient
	Scheduler   *TimerScheduler

	Requests domain.RequestStore
	Peers    domain.PeerStore
	Policy   domain.PolicyStore

	Log *zap.Logger
}

// Options override wiring defaults. All fields are optional.
type Options struct {
	HTTP *http.Client
	// Payments executes approved payments; when nil, auto-pay execution
	// reports PaymentFailed until a backend is configured.
	Payments domain.PaymentBackend
	// Resolver is the primary endpoint discovery mechanism; the directory
	// document is the fallback.
	Resolver domain.EndpointResolver
	Notifier domain.Notifier
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg *config.Config, log *zap.Logger, opts Options) (*Wire, error) {
	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	identityStore := store.NewIdentityFileStore(cfg.Home)
	keypairStore := store.NewKeypairFileStore(cfg.Home)
	requestStore := store.NewRequestFileStore(cfg.Home)
	seenStore := store.NewSeenFileStore(cfg.Home)
	policyStore := store.NewPolicyFileStore(cfg.Home)
	peerStore := store.NewPeerFileStore(cfg.Home)
	pendingStore := store.NewPendingFileStore(cfg.Home)

	ring := keyring.New(identityStore, keypairStore, cfg.Passphrase, cfg.DeviceID)

	dir := directory.New(cfg.Directory.BaseURL, httpClient)
	if cfg.Directory.Session != "" {
		dir.SetSession(cfg.Directory.Session)
	}

	resolver := exchange.NewResolver(opts.Resolver, dir, log)
	exchangeSvc := exchange.NewService(dir, resolver, ring, requestStore, log)
	autopayEngine := autopay.NewEngine(policyStore, log)

	var wake domain.WakeClient
	if cfg.Relay.BaseURL != "" {
		wake = pushwake.New(cfg.Relay.BaseURL, httpClient, ring)
	}

	payments := opts.Payments
	if payments == nil {
		payments = unconfiguredBackend{}
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = logNotifier{log: log}
	}

	scheduler := NewTimerScheduler(log)
	coord := coordinator.New(coordinator.Deps{
		Peers:     peerStore,
		Exchange:  exchangeSvc,
		Seen:      seenStore,
		Requests:  requestStore,
		AutoPay:   autopayEngine,
		Payments:  payments,
		Scheduler: scheduler,
		Notifier:  notifier,
		Pending:   pendingStore,
	}, log)
	coord.SetInterval(cfg.Poll.Interval)

	return &Wire{
		Keyring:     ring,
		Directory:   dir,
		Exchange:    exchangeSvc,
		AutoPay:     autopayEngine,
		Coordinator: coord,
		Wake:        wake,
		Scheduler:   scheduler,
		Requests:    requestStore,
		Peers:       peerStore,
		Policy:      policyStore,
		Log:         log,
	}, nil
}
