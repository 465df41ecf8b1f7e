// Package registry holds the process-wide identifier → Signer map plus
// per-consensus-key proxy signer sets (spec §2, §4.1). All mutations are
// serialised on one background worker so the maps have a total order of
// modification; readers take an atomic snapshot and never block on it.
package registry

import (
	"context"
	"fmt"

	"github.com/tos-network/tos-signer/common"
	"github.com/tos-network/tos-signer/log"
	"github.com/tos-network/tos-signer/signing"
)

// Supplier enumerates the current set of signers from disk/vaults —
// metadata.LoadDirectory, cloud bulk loaders, etc. — for load()/reload().
type Supplier func(ctx context.Context) (loaded []signing.Signer, errorCount int, err error)

// PostLoadFunc is invoked after a load/reload completes, with the set of
// identifiers present before the call that are no longer present after it.
type PostLoadFunc func(loaded int, stale []string)

// snapshot is the immutable state swapped in by every mutation. Readers
// hold a reference to one snapshot and never see a partially-built map.
type snapshot struct {
	primary map[string]signing.Signer            // identifier -> signer
	proxies map[string]map[signing.KeyType]map[string]signing.Signer // consensus id -> key type -> proxy id -> signer
}

func emptySnapshot() *snapshot {
	return &snapshot{
		primary: make(map[string]signing.Signer),
		proxies: make(map[string]map[signing.KeyType]map[string]signing.Signer),
	}
}

func (s *snapshot) clone() *snapshot {
	out := emptySnapshot()
	for k, v := range s.primary {
		out.primary[k] = v
	}
	for consensus, byType := range s.proxies {
		nb := make(map[signing.KeyType]map[string]signing.Signer, len(byType))
		for kt, ids := range byType {
			ni := make(map[string]signing.Signer, len(ids))
			for id, sg := range ids {
				ni[id] = sg
			}
			nb[kt] = ni
		}
		out.proxies[consensus] = nb
	}
	return out
}

// mutation is a closure executed on the worker goroutine against the
// current snapshot; it returns the replacement snapshot.
type mutation struct {
	apply func(cur *snapshot) *snapshot
	done  chan struct{}
}

// Registry is safe for concurrent use. Construct with New and call Start
// before issuing any mutating operation.
type Registry struct {
	logger *log.Logger

	cur  atomicSnapshot
	work chan mutation
	stop chan struct{}
}

// New returns an empty, unstarted registry.
func New(logger *log.Logger) *Registry {
	r := &Registry{
		logger: logger,
		work:   make(chan mutation),
		stop:   make(chan struct{}),
	}
	r.cur.store(emptySnapshot())
	return r
}

// Start launches the single serialising worker. Call once.
func (r *Registry) Start(ctx context.Context) {
	go r.run(ctx)
}

// Stop halts the worker; the registry keeps serving reads from its last snapshot.
func (r *Registry) Stop() {
	close(r.stop)
}

func (r *Registry) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case m := <-r.work:
			next := m.apply(r.cur.load())
			r.cur.store(next)
			close(m.done)
		}
	}
}

// mutate enqueues apply on the worker and blocks until it has been applied
// and is visible to readers.
func (r *Registry) mutate(ctx context.Context, apply func(cur *snapshot) *snapshot) error {
	m := mutation{apply: apply, done: make(chan struct{})}
	select {
	case r.work <- m:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Load replaces the primary map: it snapshots the current set, invokes
// supplier, keeps the first signer seen on a duplicate identifier (logging
// the rest), computes stale = old_keys − new_keys, and invokes post after
// the new map is visible (spec §4.1 "Load algorithm").
func (r *Registry) Load(ctx context.Context, supplier Supplier, post PostLoadFunc) (int, int, error) {
	loaded, errCount, err := supplier(ctx)
	if err != nil {
		return 0, errCount, fmt.Errorf("registry: load: %w", err)
	}

	var stale []string
	mutErr := r.mutate(ctx, func(cur *snapshot) *snapshot {
		next := emptySnapshot()
		// proxies carry over untouched; load() only replaces the primary map.
		for k, v := range cur.proxies {
			next.proxies[k] = v
		}
		seen := make(map[string]bool, len(loaded))
		for _, s := range loaded {
			id := common.NormalizeIdentifier(s.Identifier())
			if seen[id] {
				r.logger.Warn("registry: duplicate identifier on load, keeping first", "identifier", id)
				continue
			}
			seen[id] = true
			next.primary[id] = s
		}
		for old := range cur.primary {
			if !seen[old] {
				stale = append(stale, old)
			}
		}
		return next
	})
	if mutErr != nil {
		return 0, errCount, mutErr
	}
	if post != nil {
		post(len(loaded), stale)
	}
	return len(loaded), errCount, nil
}

// Get returns the signer registered under id, normalised first.
func (r *Registry) Get(id string) (signing.Signer, bool) {
	cur := r.cur.load()
	s, ok := cur.primary[common.NormalizeIdentifier(id)]
	return s, ok
}

// GetProxy returns the proxy signer registered under proxyID, regardless of
// which consensus key or key type it was added under.
func (r *Registry) GetProxy(proxyID string) (signing.Signer, bool) {
	id := common.NormalizeIdentifier(proxyID)
	cur := r.cur.load()
	for _, byType := range cur.proxies {
		for _, ids := range byType {
			if s, ok := ids[id]; ok {
				return s, true
			}
		}
	}
	return nil, false
}

// Available returns every primary identifier currently registered.
func (r *Registry) Available() []string {
	cur := r.cur.load()
	out := make([]string, 0, len(cur.primary))
	for id := range cur.primary {
		out = append(out, id)
	}
	return out
}

// ProxyIDs returns, for consensus, the set of proxy identifiers per key type.
func (r *Registry) ProxyIDs(consensus string) map[signing.KeyType][]string {
	cur := r.cur.load()
	byType, ok := cur.proxies[common.NormalizeIdentifier(consensus)]
	if !ok {
		return nil
	}
	out := make(map[signing.KeyType][]string, len(byType))
	for kt, ids := range byType {
		list := make([]string, 0, len(ids))
		for id := range ids {
			list = append(list, id)
		}
		out[kt] = list
	}
	return out
}

// Add registers s under its own identifier, replacing any prior entry.
func (r *Registry) Add(ctx context.Context, s signing.Signer) error {
	return r.mutate(ctx, func(cur *snapshot) *snapshot {
		next := cur.clone()
		next.primary[common.NormalizeIdentifier(s.Identifier())] = s
		return next
	})
}

// Remove deletes id from the primary map. No-op if absent.
func (r *Registry) Remove(ctx context.Context, id string) error {
	return r.mutate(ctx, func(cur *snapshot) *snapshot {
		next := cur.clone()
		delete(next.primary, common.NormalizeIdentifier(id))
		return next
	})
}

// AddProxy registers s as a proxy of consensus under its key type.
func (r *Registry) AddProxy(ctx context.Context, s signing.Signer, consensus string) error {
	return r.mutate(ctx, func(cur *snapshot) *snapshot {
		next := cur.clone()
		cid := common.NormalizeIdentifier(consensus)
		byType, ok := next.proxies[cid]
		if !ok {
			byType = make(map[signing.KeyType]map[string]signing.Signer)
			next.proxies[cid] = byType
		}
		ids, ok := byType[s.KeyType()]
		if !ok {
			ids = make(map[string]signing.Signer)
			byType[s.KeyType()] = ids
		}
		ids[common.NormalizeIdentifier(s.Identifier())] = s
		return next
	})
}

// RemoveConsensus drops consensus and its entire proxy set, used when a
// validator is deleted (spec §4.5/§4.8).
func (r *Registry) RemoveConsensus(ctx context.Context, consensus string) error {
	return r.mutate(ctx, func(cur *snapshot) *snapshot {
		next := cur.clone()
		delete(next.primary, common.NormalizeIdentifier(consensus))
		delete(next.proxies, common.NormalizeIdentifier(consensus))
		return next
	})
}
