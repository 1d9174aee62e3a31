package auth

import "time"

// Idle-lock watchdog. A background timer requests the lock transition when
// no qualifying activity arrives within the configured window; because the
// timer callback takes the machine mutex, the lock always executes between
// operations, never mid-mutation.

// SetAutoLock configures the idle window. Zero disables the watchdog. When
// the machine is already unlocked the timer is (re)armed immediately.
func (m *Machine) SetAutoLock(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idle = d
	m.disarmIdleLocked()
	if m.state == StateUnlocked {
		m.armIdleLocked()
	}
}

func (m *Machine) armIdleLocked() {
	if m.idle <= 0 {
		return
	}
	m.idleTimer = time.AfterFunc(m.idle, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.lockLocked()
	})
}

func (m *Machine) touchLocked() {
	if m.idleTimer != nil && m.state == StateUnlocked {
		m.idleTimer.Reset(m.idle)
	}
}

func (m *Machine) disarmIdleLocked() {
	if m.idleTimer != nil {
		m.idleTimer.Stop()
		m.idleTimer = nil
	}
}
