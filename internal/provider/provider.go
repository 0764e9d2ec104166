// Package provider is the orchestration core: it owns the share registry,
// the session table, the pending-message buffer, and every wrapped base
// adapter, and drives the routing, encryption, and persistence logic the
// rest of this module only provides building blocks for.
//
// Every exported method runs its work on a single internal command-loop
// goroutine (run), so handlers, handshake callbacks, and persistence
// completions never race with each other regardless of how many goroutines
// call into the Provider concurrently.
package provider

import (
	"fmt"
	"sync"

	"github.com/sage-x-project/authnet/internal/applog"
	"github.com/sage-x-project/authnet/internal/buffer"
	"github.com/sage-x-project/authnet/internal/model"
	"github.com/sage-x-project/authnet/internal/psession"
	"github.com/sage-x-project/authnet/internal/registry"
	"github.com/sage-x-project/authnet/internal/store"
	"github.com/sage-x-project/authnet/internal/teamcrypto"
)

// TeamLoader reconstructs a model.Team from the bytes persist.Load hands
// back, mirroring a "loadTeam(bytes, context, keys) → team" contract. It is kept
// distinct from teamcrypto.Engine because a production deployment may link
// a handshake engine that delegates team loading to a different object.
type TeamLoader interface {
	LoadTeam(teamData, keyringData []byte) (model.Team, error)
}

// Config constructs a Provider. Engine, TeamLoader and Store are the three
// external collaborators out of scope for this layer; everything
// else here is owned by the provider itself.
type Config struct {
	Device          model.DeviceIdentity
	User            *model.UserIdentity
	DeviceSecretKey []byte

	Engine     teamcrypto.Engine
	TeamLoader TeamLoader
	Store      store.Store

	Events Events
	Logger *applog.Logger
}

// Provider is one auth-provider instance: one device identity, one set of
// shares and invitations, any number of wrapped base adapters.
type Provider struct {
	device          model.DeviceIdentity
	userMu          sync.Mutex
	user            *model.UserIdentity
	deviceSecretKey []byte

	engine     teamcrypto.Engine
	teamLoader TeamLoader
	store      store.Store
	events     Events
	log        *applog.Logger

	registry *registry.ShareRegistry
	sessions *psession.Table
	pending  *buffer.Pending

	wrapMu sync.Mutex
	wraps  []*wrapBinding

	peerMu   sync.Mutex
	peerWrap map[model.PeerID]*wrapBinding

	cmds      chan func()
	closeOnce sync.Once
	closed    chan struct{}
}

// New constructs a Provider and starts its command loop. It schedules no
// persistence load by itself; call LoadPersisted once a Store is ready.
func New(cfg Config) *Provider {
	if cfg.Events == nil {
		cfg.Events = NoopEvents{}
	}
	if cfg.Logger == nil {
		cfg.Logger = applog.New("provider", applog.LevelInfo)
	}
	p := &Provider{
		device:          cfg.Device,
		user:            cfg.User,
		deviceSecretKey: cfg.DeviceSecretKey,
		engine:          cfg.Engine,
		teamLoader:      cfg.TeamLoader,
		store:           cfg.Store,
		events:          cfg.Events,
		log:             cfg.Logger,
		registry:        registry.New(),
		sessions:        psession.NewTable(),
		pending:         buffer.New(),
		peerWrap:        make(map[model.PeerID]*wrapBinding),
		cmds:            make(chan func(), 256),
		closed:          make(chan struct{}),
	}
	go p.run()
	return p
}

// run is the single logical executor: every command enqueued by
// exec runs here, one at a time, in submission order.
func (p *Provider) run() {
	for {
		select {
		case fn := <-p.cmds:
			fn()
		case <-p.closed:
			return
		}
	}
}

// exec runs fn on the command loop and blocks until it returns. Handlers
// that are themselves invoked from inside the command loop (e.g. a
// teamcrypto event callback triggered by another exec) must not call exec
// again; they already run on the loop.
func (p *Provider) exec(fn func()) {
	done := make(chan struct{})
	select {
	case p.cmds <- func() { fn(); close(done) }:
	case <-p.closed:
		return
	}
	select {
	case <-done:
	case <-p.closed:
	}
}

// Close stops the command loop and closes every session, for admitted
// shares and pending invitations alike. Wrapped adapters are not closed.
// Sessions are not restarted; cancellation is implicit.
func (p *Provider) Close() {
	p.closeOnce.Do(func() {
		close(p.closed)
		for _, key := range p.sessionKeys() {
			p.sessions.Remove(key)
		}
	})
}

func (p *Provider) sessionKeys() []psession.Key {
	var keys []psession.Key
	for _, shareID := range p.allShareIDs() {
		for _, sess := range p.sessions.ByShare(shareID) {
			keys = append(keys, sess.Key())
		}
	}
	return keys
}

// userIdentity returns the current user identity and whether one is set.
func (p *Provider) userIdentity() (model.UserIdentity, bool) {
	p.userMu.Lock()
	defer p.userMu.Unlock()
	if p.user == nil {
		return model.UserIdentity{}, false
	}
	return *p.user, true
}

// setUserIdentity stores user if none is set yet; it never overwrites an
// existing identity (joined: "stores the user identity if absent").
func (p *Provider) setUserIdentity(user model.UserIdentity) {
	p.userMu.Lock()
	defer p.userMu.Unlock()
	if p.user == nil {
		p.user = &user
	}
}

func (p *Provider) errf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	p.log.Errorf("%v", err)
	return err
}
