package fakerolerepo

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-rolegate/roles"
	"github.com/jrsteele09/go-rolegate/rolestore"
)

var _ rolestore.Repo = (*FakeRoleRepo)(nil)

// FakeRoleRepo is an in-memory role store. Lookups can be held open per user
// so tests decide the order in which overlapping lookups complete.
type FakeRoleRepo struct {
	roles   map[string]string // user id to raw role value
	errs    map[string]error
	gates   map[string]chan struct{}
	calls   map[string]int
	latency time.Duration
	lock    sync.RWMutex
}

func NewFakeRoleRepo() *FakeRoleRepo {
	return &FakeRoleRepo{
		roles: make(map[string]string),
		errs:  make(map[string]error),
		gates: make(map[string]chan struct{}),
		calls: make(map[string]int),
	}
}

// WithLatency delays every lookup, simulating a remote store.
func (rr *FakeRoleRepo) WithLatency(d time.Duration) *FakeRoleRepo {
	rr.lock.Lock()
	defer rr.lock.Unlock()
	rr.latency = d
	return rr
}

func (rr *FakeRoleRepo) SetRole(_ context.Context, userID string, role roles.Role) error {
	rr.SetRaw(userID, string(role))
	return nil
}

func (rr *FakeRoleRepo) DeleteRole(_ context.Context, userID string) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()
	delete(rr.roles, userID)
	return nil
}

// SetRaw stores an unvalidated value, as a misbehaving backend would.
func (rr *FakeRoleRepo) SetRaw(userID, raw string) {
	rr.lock.Lock()
	defer rr.lock.Unlock()
	rr.roles[userID] = raw
}

// SetError makes lookups for userID fail with err until cleared with a nil err.
func (rr *FakeRoleRepo) SetError(userID string, err error) {
	rr.lock.Lock()
	defer rr.lock.Unlock()
	if err == nil {
		delete(rr.errs, userID)
		return
	}
	rr.errs[userID] = err
}

// Hold blocks lookups for userID until the returned release func is called.
// Lookups started while held stay blocked even if the role changes meanwhile;
// they read the store after release.
func (rr *FakeRoleRepo) Hold(userID string) (release func()) {
	gate := make(chan struct{})
	rr.lock.Lock()
	rr.gates[userID] = gate
	rr.lock.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			rr.lock.Lock()
			if rr.gates[userID] == gate {
				delete(rr.gates, userID)
			}
			rr.lock.Unlock()
			close(gate)
		})
	}
}

// Calls returns how many lookups were started for userID.
func (rr *FakeRoleRepo) Calls(userID string) int {
	rr.lock.RLock()
	defer rr.lock.RUnlock()
	return rr.calls[userID]
}

func (rr *FakeRoleRepo) LookupRole(ctx context.Context, userID string) (roles.Role, error) {
	rr.lock.Lock()
	rr.calls[userID]++
	gate := rr.gates[userID]
	latency := rr.latency
	rr.lock.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return roles.None, ctx.Err()
		}
	}
	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return roles.None, ctx.Err()
		}
	}

	rr.lock.RLock()
	defer rr.lock.RUnlock()
	if err, ok := rr.errs[userID]; ok {
		return roles.None, err
	}
	return roles.Parse(rr.roles[userID])
}
