package transfer_test

import (
	"context"
	"sync"

	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/domain"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/ports"
)

// mockStore is an in-memory SessionStore with failure injection and call
// counting, used to observe the engine's persistence behavior.
type mockStore struct {
	mu      sync.Mutex
	data    map[string]domain.Session
	saveErr error

	saveCalls   int
	removeCalls int
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]domain.Session)}
}

func (m *mockStore) Save(ctx context.Context, id string, session domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[id] = session.Clone()
	return nil
}

func (m *mockStore) Load(ctx context.Context, id string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.data[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (m *mockStore) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeCalls++
	delete(m.data, id)
	return nil
}

func (m *mockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockStore) get(id string) (domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[id]
	return s, ok
}

func (m *mockStore) setSaveErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// fakeAdapter is a scripted ChainAdapter. Each operation returns its
// configured result or error and counts invocations; burnGate, when set,
// blocks Burn until released so tests can observe in-flight state.
type fakeAdapter struct {
	mu sync.Mutex

	approveResult ports.ApproveResult
	approveErr    error
	approveCalls  int

	burnHash  string
	burnErr   error
	burnCalls int
	burnGate  chan struct{}

	attestation domain.Attestation
	attestErr   error
	attestCalls int

	mintHash        string
	mintErr         error
	mintDirectCalls int

	relayHash  string
	relayErr   error
	relayCalls int

	submitOpID  string
	submitErr   error
	submitCalls int

	awaitHash  string
	awaitErr   error
	awaitCalls int
}

func happyStandardAdapter() *fakeAdapter {
	return &fakeAdapter{
		approveResult: ports.ApproveResult{AlreadySufficient: true},
		burnHash:      "0xburn",
		attestation: domain.Attestation{
			Message: domain.HexBytes{0xaa},
			Proof:   domain.HexBytes{0xbb},
		},
		mintHash: "0xmint",
	}
}

func happySmartAdapter() *fakeAdapter {
	return &fakeAdapter{
		submitOpID: "0xuserop",
		awaitHash:  "0xreceipt",
		attestation: domain.Attestation{
			Message: domain.HexBytes{0xaa},
			Proof:   domain.HexBytes{0xbb},
		},
		relayHash: "0xmint",
	}
}

func (f *fakeAdapter) Approve(ctx context.Context, amount string) (ports.ApproveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approveCalls++
	return f.approveResult, f.approveErr
}

func (f *fakeAdapter) Burn(ctx context.Context, amount, destinationAddress string) (string, error) {
	f.mu.Lock()
	f.burnCalls++
	gate := f.burnGate
	hash, err := f.burnHash, f.burnErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return hash, err
}

func (f *fakeAdapter) AwaitAttestation(ctx context.Context, burnTxHash string) (domain.Attestation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attestCalls++
	return f.attestation, f.attestErr
}

func (f *fakeAdapter) MintDirect(ctx context.Context, attestation domain.Attestation) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mintDirectCalls++
	return f.mintHash, f.mintErr
}

func (f *fakeAdapter) MintViaRelay(ctx context.Context, attestation domain.Attestation) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.relayCalls++
	return f.relayHash, f.relayErr
}

func (f *fakeAdapter) SubmitBundledApproveAndBurn(ctx context.Context, amount, destinationAddress string, usePaymaster bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	return f.submitOpID, f.submitErr
}

func (f *fakeAdapter) AwaitBundledOperation(ctx context.Context, operationID string, usePaymaster bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.awaitCalls++
	return f.awaitHash, f.awaitErr
}

func (f *fakeAdapter) set(update func(*fakeAdapter)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	update(f)
}

func (f *fakeAdapter) calls(read func(*fakeAdapter) int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return read(f)
}

// recorder collects session snapshots delivered to a listener.
type recorder struct {
	mu        sync.Mutex
	snapshots []domain.Session
}

func (r *recorder) listen(s domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *recorder) steps() []domain.Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Step, len(r.snapshots))
	for i, s := range r.snapshots {
		out[i] = s.Step
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}
