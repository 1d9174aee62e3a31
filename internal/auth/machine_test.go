package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/PyPartners/MindVault/internal/totp"
	"github.com/PyPartners/MindVault/internal/vault"
)

var errIO = errors.New("simulated io failure")

type memStore struct {
	data     []byte
	hasData  bool
	failRead bool
}

func (m *memStore) Read() ([]byte, error) {
	if m.failRead {
		return nil, errIO
	}
	if !m.hasData {
		return nil, vault.ErrVaultNotFound
	}
	return append([]byte(nil), m.data...), nil
}

func (m *memStore) Write(b []byte) error {
	m.data = append([]byte(nil), b...)
	m.hasData = true
	return nil
}

func (m *memStore) Exists() bool { return m.hasData }

var master = []byte("CorrectHorse1!")

func setupUnlocked(t *testing.T) (*Machine, *memStore) {
	t.Helper()
	store := &memStore{}
	m := NewMachine(store)
	if m.State() != StateNoVault {
		t.Fatalf("expected NoVault, got %v", m.State())
	}
	if err := m.Setup(master); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if m.State() != StateUnlocked {
		t.Fatalf("expected Unlocked after setup, got %v", m.State())
	}
	return m, store
}

func TestInitialStateFollowsVaultExistence(t *testing.T) {
	if got := NewMachine(&memStore{}).State(); got != StateNoVault {
		t.Fatalf("expected NoVault, got %v", got)
	}
	if got := NewMachine(&memStore{hasData: true}).State(); got != StateLoggedOut {
		t.Fatalf("expected LoggedOut, got %v", got)
	}
}

func TestSetupOnlyFromNoVault(t *testing.T) {
	m, _ := setupUnlocked(t)
	if err := m.Setup(master); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestSetupFailureKeepsState(t *testing.T) {
	m := NewMachine(&memStore{})
	if err := m.Setup([]byte("short")); !errors.Is(err, vault.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if m.State() != StateNoVault {
		t.Fatalf("failed setup must stay in NoVault, got %v", m.State())
	}
}

func TestLoginWithoutTwoFactor(t *testing.T) {
	m, _ := setupUnlocked(t)
	m.Lock()
	if m.State() != StateLoggedOut {
		t.Fatalf("expected LoggedOut after lock, got %v", m.State())
	}

	// Wrong password: stays pending, retry allowed.
	if st, err := m.SubmitPassword([]byte("wrongpass")); !errors.Is(err, vault.ErrAuthentication) || st != StatePasswordPending {
		t.Fatalf("expected pending + ErrAuthentication, got %v %v", st, err)
	}
	if st, err := m.SubmitPassword(master); err != nil || st != StateUnlocked {
		t.Fatalf("expected Unlocked, got %v %v", st, err)
	}
}

func TestLoginIOFailureKeepsState(t *testing.T) {
	store := &memStore{hasData: true, failRead: true}
	m := NewMachine(store)
	if st, err := m.SubmitPassword(master); !errors.Is(err, errIO) || st != StatePasswordPending {
		t.Fatalf("expected pending + io error, got %v %v", st, err)
	}
	// Retry works once the store recovers (with real data present).
	m2, _ := setupUnlocked(t)
	m2.Lock()
	if st, err := m2.SubmitPassword(master); err != nil || st != StateUnlocked {
		t.Fatalf("retry after io failure: got %v %v", st, err)
	}
}

func TestTwoFactorGate(t *testing.T) {
	m, _ := setupUnlocked(t)
	secret, err := totp.GenerateSecret()
	if err != nil {
		t.Fatalf("secret: %v", err)
	}
	if err := m.Do(func(s *vault.Session) error { return s.SetTwoFactorSecret(secret) }); err != nil {
		t.Fatalf("enable 2fa: %v", err)
	}
	m.Lock()

	// Fixed clock so the generated code is always in-window.
	when := time.Unix(1700000000, 0)
	m.now = func() time.Time { return when }

	if st, err := m.SubmitPassword(master); err != nil || st != StateTwoFactorPending {
		t.Fatalf("expected TwoFactorPending, got %v %v", st, err)
	}

	// Wrong code: candidate discarded, back to LoggedOut, not pending.
	if st, err := m.SubmitCode("000000"); !errors.Is(err, ErrTwoFactor) || st != StateLoggedOut {
		t.Fatalf("expected LoggedOut + ErrTwoFactor, got %v %v", st, err)
	}
	if _, err := m.SubmitCode("000000"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("code entry must require a fresh password, got %v", err)
	}

	// Full re-authentication with a valid code.
	if st, err := m.SubmitPassword(master); err != nil || st != StateTwoFactorPending {
		t.Fatalf("expected TwoFactorPending, got %v %v", st, err)
	}
	code, err := totp.Code(secret, when)
	if err != nil {
		t.Fatalf("code: %v", err)
	}
	if st, err := m.SubmitCode(code); err != nil || st != StateUnlocked {
		t.Fatalf("expected Unlocked, got %v %v", st, err)
	}
}

func TestNoTwoFactorSkipsGate(t *testing.T) {
	m, _ := setupUnlocked(t)
	m.Lock()
	if st, err := m.SubmitPassword(master); err != nil || st != StateUnlocked {
		t.Fatalf("vault without 2fa secret must unlock directly, got %v %v", st, err)
	}
}

func TestCancel(t *testing.T) {
	m, _ := setupUnlocked(t)
	if err := m.Do(func(s *vault.Session) error { return s.SetTwoFactorSecret("GEZDGNBVGY3TQOJQ") }); err != nil {
		t.Fatalf("enable 2fa: %v", err)
	}
	m.Lock()

	if _, err := m.SubmitPassword([]byte("wrongpass")); err == nil {
		t.Fatal("expected auth failure")
	}
	m.Cancel()
	if m.State() != StateLoggedOut {
		t.Fatalf("cancel from PasswordPending: got %v", m.State())
	}

	if st, err := m.SubmitPassword(master); err != nil || st != StateTwoFactorPending {
		t.Fatalf("expected TwoFactorPending, got %v %v", st, err)
	}
	m.Cancel()
	if m.State() != StateLoggedOut {
		t.Fatalf("cancel from TwoFactorPending: got %v", m.State())
	}
}

func TestDoRequiresUnlocked(t *testing.T) {
	m, _ := setupUnlocked(t)
	m.Lock()
	err := m.Do(func(s *vault.Session) error { return nil })
	if !errors.Is(err, vault.ErrNotUnlocked) {
		t.Fatalf("expected ErrNotUnlocked, got %v", err)
	}
}

func TestCloseWipesSession(t *testing.T) {
	m, _ := setupUnlocked(t)
	m.Close()
	if m.State() != StateClosed {
		t.Fatalf("expected Closed, got %v", m.State())
	}
	if err := m.Do(func(s *vault.Session) error { return nil }); !errors.Is(err, vault.ErrNotUnlocked) {
		t.Fatalf("closed machine must reject operations, got %v", err)
	}
}

func TestEventLogChain(t *testing.T) {
	m, _ := setupUnlocked(t)
	m.Lock()
	if _, err := m.SubmitPassword([]byte("wrongpass")); err == nil {
		t.Fatal("expected auth failure")
	}
	if _, err := m.SubmitPassword(master); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := m.Events().Verify(); err != nil {
		t.Fatalf("chain verify: %v", err)
	}
	entries := m.Events().Entries()
	if len(entries) < 4 {
		t.Fatalf("expected created/locked/failed/unlocked entries, got %d", len(entries))
	}
}
