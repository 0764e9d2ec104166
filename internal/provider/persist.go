package provider

import (
	"context"

	"github.com/sage-x-project/authnet/internal/metrics"
	"github.com/sage-x-project/authnet/internal/model"
	"github.com/sage-x-project/authnet/internal/persist"
)

// LoadPersisted reads the persisted blob and admits every entry it
// can decrypt and reconstruct. It is safe to call with no store configured;
// it is then a no-op. Entries that fail to decrypt or reconstruct are
// logged and skipped rather than aborting the whole load, since a single
// corrupt share must not block every other share from coming up.
func (p *Provider) LoadPersisted(ctx context.Context) error {
	if p.store == nil {
		return nil
	}
	var outErr error
	p.exec(func() {
		blob, err := persist.Load(ctx, p.store)
		if err != nil {
			metrics.PersistenceOps.WithLabelValues("load", "error").Inc()
			p.log.Errorf("load persisted state: %v", err)
			outErr = err
			return
		}
		metrics.PersistenceOps.WithLabelValues("load", "ok").Inc()

		for shareID, entry := range blob.Shares {
			keyring, err := persist.DecryptKeyring(entry.EncryptedTeamKeys, p.deviceSecretKey)
			if err != nil {
				p.log.Errorf("decrypt keyring for %s: %v", shareID, err)
				continue
			}
			team, err := p.teamLoader.LoadTeam(entry.EncryptedTeam, keyring)
			if err != nil {
				p.log.Errorf("reconstruct team for %s: %v", shareID, err)
				continue
			}
			if err := p.addTeamLocked(ctx, team); err != nil {
				p.log.Errorf("admit restored share %s: %v", shareID, err)
			}
		}
	})
	return outErr
}

// save serializes every admitted share into the single persisted blob.
// Persistence failures are logged and surfaced, never fatal: in-memory
// state remains authoritative. Must only be called from the command
// loop.
func (p *Provider) save(ctx context.Context) {
	if p.store == nil {
		return
	}
	shares := p.registry.Shares()
	blob := persist.Blob{Shares: make(map[model.ShareID]persist.ShareEntry, len(shares))}
	for _, s := range shares {
		teamData, err := s.Team.Save()
		if err != nil {
			p.log.Errorf("serialize team %s: %v", s.ID, err)
			continue
		}
		keyring, err := s.Team.Keyring()
		if err != nil {
			p.log.Errorf("serialize keyring %s: %v", s.ID, err)
			continue
		}
		encKeyring, err := persist.EncryptKeyring(keyring, p.deviceSecretKey)
		if err != nil {
			p.log.Errorf("encrypt keyring %s: %v", s.ID, err)
			continue
		}
		blob.Shares[s.ID] = persist.ShareEntry{EncryptedTeam: teamData, EncryptedTeamKeys: encKeyring}
	}

	if err := persist.Save(ctx, p.store, blob); err != nil {
		metrics.PersistenceOps.WithLabelValues("save", "error").Inc()
		p.log.Errorf("save persisted state: %v", err)
		return
	}
	metrics.PersistenceOps.WithLabelValues("save", "ok").Inc()
}
