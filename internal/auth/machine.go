// Package auth owns the authentication lifecycle around a vault: setup,
// password verification, the optional TOTP gate, the unlocked session and
// the idle-lock watchdog. It is a plain synchronous API; whatever front end
// sits on top decides how to prompt and block.
package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PyPartners/MindVault/internal/totp"
	"github.com/PyPartners/MindVault/internal/vault"
)

// State is the machine's position in the lifecycle.
//
//	NoVault → Setup → Unlocked
//	LoggedOut → PasswordPending → [TwoFactorPending →] Unlocked → LoggedOut
//	Unlocked → Closed on normal exit
type State int

const (
	StateNoVault State = iota
	StateLoggedOut
	StatePasswordPending
	StateTwoFactorPending
	StateUnlocked
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNoVault:
		return "no-vault"
	case StateLoggedOut:
		return "logged-out"
	case StatePasswordPending:
		return "password-pending"
	case StateTwoFactorPending:
		return "2fa-pending"
	case StateUnlocked:
		return "unlocked"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	// ErrTwoFactor is a TOTP mismatch. The candidate password is discarded
	// and the machine returns to LoggedOut; the code cannot be retried
	// without re-entering the master password.
	ErrTwoFactor = errors.New("auth: invalid two-factor code")

	// ErrInvalidState marks an operation called outside its source state.
	ErrInvalidState = errors.New("auth: operation not valid in current state")
)

// Machine is the single owner of the unlocked session. No other component
// holds the master password.
type Machine struct {
	mu    sync.Mutex
	store vault.Store
	state State

	session *vault.Session
	// candidate session held between password success and 2FA success;
	// not yet the official session.
	pending *vault.Session

	events *EventLog

	idle      time.Duration
	idleTimer *time.Timer

	now func() time.Time
}

func NewMachine(store vault.Store) *Machine {
	m := &Machine{
		store:  store,
		state:  StateLoggedOut,
		events: NewEventLog(),
		now:    time.Now,
	}
	if !store.Exists() {
		m.state = StateNoVault
	}
	return m
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Events returns the hash-chained transition log.
func (m *Machine) Events() *EventLog { return m.events }

// Setup creates a brand-new vault and unlocks it immediately. Only valid
// when no vault exists; failures (policy, encryption, IO) leave the state
// unchanged and the vault file untouched.
func (m *Machine) Setup(master []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateNoVault {
		return fmt.Errorf("%w: setup from %s", ErrInvalidState, m.state)
	}
	sess, err := vault.Create(m.store, master)
	if err != nil {
		return err
	}
	m.session = sess
	m.state = StateUnlocked
	m.events.Append("vault created")
	m.armIdleLocked()
	return nil
}

// SubmitPassword tries a candidate master password. On success the machine
// moves to Unlocked, or to TwoFactorPending when the vault carries a 2FA
// secret. A wrong password keeps the machine in PasswordPending for another
// attempt; IO failures also leave the state where it was.
func (m *Machine) SubmitPassword(master []byte) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateLoggedOut && m.state != StatePasswordPending {
		return m.state, fmt.Errorf("%w: login from %s", ErrInvalidState, m.state)
	}
	m.state = StatePasswordPending

	sess, err := vault.Open(m.store, master)
	if err != nil {
		if errors.Is(err, vault.ErrAuthentication) {
			m.events.Append("login failed")
		}
		return m.state, err
	}

	if sess.TwoFactorSecret() != "" {
		m.pending = sess
		m.state = StateTwoFactorPending
		return m.state, nil
	}
	m.session = sess
	m.state = StateUnlocked
	m.events.Append("unlocked")
	m.armIdleLocked()
	return m.state, nil
}

// SubmitCode verifies the 6-digit TOTP code for the pending session. A
// mismatch discards the candidate entirely and returns to LoggedOut,
// forcing full re-authentication.
func (m *Machine) SubmitCode(code string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateTwoFactorPending {
		return m.state, fmt.Errorf("%w: 2fa verify from %s", ErrInvalidState, m.state)
	}
	if !totp.Verify(m.pending.TwoFactorSecret(), code, m.now()) {
		m.pending.Lock()
		m.pending = nil
		m.state = StateLoggedOut
		m.events.Append("2fa failed")
		return m.state, ErrTwoFactor
	}
	m.session = m.pending
	m.pending = nil
	m.state = StateUnlocked
	m.events.Append("unlocked")
	m.armIdleLocked()
	return m.state, nil
}

// Cancel aborts an in-flight login or 2FA prompt back to LoggedOut without
// side effects. A no-op in any other state.
func (m *Machine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StatePasswordPending:
		m.state = StateLoggedOut
	case StateTwoFactorPending:
		m.pending.Lock()
		m.pending = nil
		m.state = StateLoggedOut
	}
}

// Do runs an operation against the unlocked session. Operations are
// serialized with the watchdog, so an idle lock can never land mid-mutation,
// and every call counts as qualifying activity.
func (m *Machine) Do(fn func(*vault.Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateUnlocked {
		return vault.ErrNotUnlocked
	}
	m.touchLocked()
	return fn(m.session)
}

// Touch signals qualifying user activity, pushing the idle lock out.
func (m *Machine) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touchLocked()
}

// Lock clears the master password and document from memory and returns to
// LoggedOut. Explicit user action, restore and the idle watchdog all funnel
// through here.
func (m *Machine) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lockLocked()
}

func (m *Machine) lockLocked() {
	if m.state != StateUnlocked {
		return
	}
	m.disarmIdleLocked()
	m.session.Lock()
	m.session = nil
	m.state = StateLoggedOut
	m.events.Append("locked")
}

// Close shuts the machine down for process exit, wiping any session state.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disarmIdleLocked()
	if m.pending != nil {
		m.pending.Lock()
		m.pending = nil
	}
	if m.session != nil {
		m.session.Lock()
		m.session = nil
	}
	m.state = StateClosed
}
