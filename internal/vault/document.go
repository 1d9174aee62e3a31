package vault

import (
	"sort"
	"strings"
)

// ConfigTwoFactorSecret is the config key holding the base32 TOTP secret.
// Removing the key disables the second factor.
const ConfigTwoFactorSecret = "2fa_secret"

// Record is one stored credential. ID is assigned once at creation and never
// changes; site+username duplication is allowed (soft warning at the UI).
type Record struct {
	ID       string `json:"id"`
	Site     string `json:"site"`
	Username string `json:"username"`
	Password string `json:"password"`
	Notes    string `json:"notes"`
}

// Document is the decrypted vault content. Accounts and Config are always
// non-nil after load; absence in the JSON is normalized away.
type Document struct {
	Accounts []Record          `json:"accounts"`
	Config   map[string]string `json:"config"`
}

func NewDocument() *Document {
	return &Document{
		Accounts: []Record{},
		Config:   map[string]string{},
	}
}

func (d *Document) normalize() {
	if d.Accounts == nil {
		d.Accounts = []Record{}
	}
	if d.Config == nil {
		d.Config = map[string]string{}
	}
}

// clone deep-copies the document so a mutation can be prepared and persisted
// before it replaces the live copy.
func (d *Document) clone() *Document {
	c := &Document{
		Accounts: make([]Record, len(d.Accounts)),
		Config:   make(map[string]string, len(d.Config)),
	}
	copy(c.Accounts, d.Accounts)
	for k, v := range d.Config {
		c.Config[k] = v
	}
	return c
}

func (d *Document) findRecord(id string) int {
	for i := range d.Accounts {
		if d.Accounts[i].ID == id {
			return i
		}
	}
	return -1
}

// sortedBySite returns the accounts ordered by site name, case-insensitively.
// Display order only; the stored order is insertion order.
func sortedBySite(accounts []Record) []Record {
	out := make([]Record, len(accounts))
	copy(out, accounts)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Site) < strings.ToLower(out[j].Site)
	})
	return out
}

// duplicatePasswords groups every non-empty password used by two or more
// records, keyed by password with the list of site names using it.
func duplicatePasswords(accounts []Record) map[string][]string {
	bySite := make(map[string][]string)
	for _, a := range accounts {
		if a.Password == "" {
			continue
		}
		bySite[a.Password] = append(bySite[a.Password], a.Site)
	}
	for pw, sites := range bySite {
		if len(sites) < 2 {
			delete(bySite, pw)
		}
	}
	return bySite
}
