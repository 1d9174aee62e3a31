package vault

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	cr "github.com/PyPartners/MindVault/internal/crypto"
)

// ErrNotUnlocked is returned when an operation runs on a locked session.
var ErrNotUnlocked = errors.New("vault: not unlocked")

// Session is one unlocked vault: the decrypted document plus the master
// password, held in memory only while the session lives. Every mutation
// re-encrypts the whole document and writes it atomically before the
// in-memory copy is replaced, so memory and disk never diverge across a
// failed operation.
type Session struct {
	store  Store
	master []byte
	doc    *Document
}

// Create sets up a brand-new empty vault under the given master password.
// On any failure the vault file is left untouched and no session is
// returned.
func Create(store Store, master []byte) (*Session, error) {
	if err := ValidateMasterPassword(master); err != nil {
		return nil, err
	}
	s := newSession(store, master)
	if err := s.persist(NewDocument()); err != nil {
		s.Lock()
		return nil, err
	}
	s.doc = NewDocument()
	return s, nil
}

// Open reads and decrypts the existing vault. A wrong password and a
// corrupt file surface as the same ErrAuthentication.
func Open(store Store, master []byte) (*Session, error) {
	blob, err := store.Read()
	if err != nil {
		return nil, err
	}
	doc, err := DecodeBlob(blob, master)
	if err != nil {
		return nil, err
	}
	s := newSession(store, master)
	s.doc = doc
	return s, nil
}

func newSession(store Store, master []byte) *Session {
	own := make([]byte, len(master))
	copy(own, master)
	// Advisory: keeps the password page out of swap where the OS allows it.
	_ = cr.LockBuffer(own)
	return &Session{store: store, master: own}
}

// Lock wipes the master password and drops the document. The session is
// unusable afterwards.
func (s *Session) Lock() {
	cr.Zero(s.master)
	_ = cr.UnlockBuffer(s.master)
	s.master = nil
	s.doc = nil
}

func (s *Session) Unlocked() bool { return s.doc != nil }

// Records returns the accounts sorted by site name, case-insensitively.
// This is a presentation query; stored order is insertion order.
func (s *Session) Records() []Record {
	if s.doc == nil {
		return nil
	}
	return sortedBySite(s.doc.Accounts)
}

func (s *Session) Record(id string) (Record, error) {
	if s.doc == nil {
		return Record{}, ErrNotUnlocked
	}
	if i := s.doc.findRecord(id); i >= 0 {
		return s.doc.Accounts[i], nil
	}
	return Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
}

// AddRecord validates the required fields, assigns a fresh id and persists.
// The returned record carries the generated id.
func (s *Session) AddRecord(rec Record) (Record, error) {
	if s.doc == nil {
		return Record{}, ErrNotUnlocked
	}
	if err := validateRecord(rec); err != nil {
		return Record{}, err
	}
	rec.ID = uuid.NewString()

	next := s.doc.clone()
	next.Accounts = append(next.Accounts, rec)
	if err := s.commit(next); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// UpdateRecord replaces the fields of an existing record. The id is
// immutable; an unknown id fails with ErrRecordNotFound.
func (s *Session) UpdateRecord(id string, upd Record) error {
	if s.doc == nil {
		return ErrNotUnlocked
	}
	if err := validateRecord(upd); err != nil {
		return err
	}
	i := s.doc.findRecord(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	upd.ID = id

	next := s.doc.clone()
	next.Accounts[i] = upd
	return s.commit(next)
}

// DeleteRecord removes a record. Deleting an unknown id is a no-op success.
func (s *Session) DeleteRecord(id string) error {
	if s.doc == nil {
		return ErrNotUnlocked
	}
	i := s.doc.findRecord(id)
	if i < 0 {
		return nil
	}
	next := s.doc.clone()
	next.Accounts = append(next.Accounts[:i], next.Accounts[i+1:]...)
	return s.commit(next)
}

// DuplicatePasswords groups every non-empty password shared by two or more
// records, keyed by password with the sites using it. Pure read.
func (s *Session) DuplicatePasswords() map[string][]string {
	if s.doc == nil {
		return nil
	}
	return duplicatePasswords(s.doc.Accounts)
}

// TwoFactorSecret returns the stored TOTP secret, or "" when 2FA is off.
func (s *Session) TwoFactorSecret() string {
	if s.doc == nil {
		return ""
	}
	return s.doc.Config[ConfigTwoFactorSecret]
}

// SetTwoFactorSecret stores a TOTP secret, or removes it when secret is
// empty, disabling the second factor. Same persist-with-rollback discipline
// as record mutations.
func (s *Session) SetTwoFactorSecret(secret string) error {
	if s.doc == nil {
		return ErrNotUnlocked
	}
	next := s.doc.clone()
	if secret == "" {
		delete(next.Config, ConfigTwoFactorSecret)
	} else {
		next.Config[ConfigTwoFactorSecret] = secret
	}
	return s.commit(next)
}

// ExportBlob re-encrypts the current document and returns the raw vault
// blob, suitable for writing to an external location.
func (s *Session) ExportBlob() ([]byte, error) {
	if s.doc == nil {
		return nil, ErrNotUnlocked
	}
	return EncodeBlob(s.doc, s.master)
}

// ImportBlob decrypts an external blob with the session's master password
// and replaces the current document wholesale, persisting the result. On
// failure the in-memory document is unchanged.
func (s *Session) ImportBlob(blob []byte) error {
	if s.doc == nil {
		return ErrNotUnlocked
	}
	doc, err := DecodeBlob(blob, s.master)
	if err != nil {
		return err
	}
	return s.commit(doc)
}

// commit persists the prepared document and only then swaps it in. A failed
// persist leaves the in-memory document at its pre-mutation state.
func (s *Session) commit(next *Document) error {
	if err := s.persist(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

func (s *Session) persist(doc *Document) error {
	blob, err := EncodeBlob(doc, s.master)
	if err != nil {
		return err
	}
	return s.store.Write(blob)
}

func validateRecord(rec Record) error {
	if strings.TrimSpace(rec.Site) == "" {
		return fmt.Errorf("%w: site is required", ErrValidation)
	}
	if strings.TrimSpace(rec.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if rec.Password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	return nil
}
