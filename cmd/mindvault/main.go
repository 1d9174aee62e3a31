package main

import (
	"bufio"
	"crypto/rand"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/PyPartners/MindVault/internal/auth"
	"github.com/PyPartners/MindVault/internal/platform"
	"github.com/PyPartners/MindVault/internal/settings"
	"github.com/PyPartners/MindVault/internal/totp"
	"github.com/PyPartners/MindVault/internal/vault"
)

const appName = "MindVault"

var logger = log.New(os.Stderr, "[mindvault] ", log.LstdFlags)

func main() {
	if err := platform.DisableCoreDumps(); err != nil {
		logger.Printf("warning: could not disable core dumps: %v", err)
	}

	// ---- init ----
	initCmd := flag.NewFlagSet("init", flag.ExitOnError)
	initVault := initCmd.String("vault", "data/vault.enc", "path to vault file")
	initSettings := initCmd.String("settings", "settings.json", "path to settings file")

	// ---- add ----
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	addVault := addCmd.String("vault", "data/vault.enc", "path to vault file")
	addSettings := addCmd.String("settings", "settings.json", "path to settings file")
	addSite := addCmd.String("site", "", "site name")
	addUser := addCmd.String("user", "", "username")
	addPass := addCmd.String("pass", "", "password or gen:N to generate N chars")
	addNotes := addCmd.String("notes", "", "free-form notes")

	// ---- list ----
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	listVault := listCmd.String("vault", "data/vault.enc", "path to vault file")
	listSettings := listCmd.String("settings", "settings.json", "path to settings file")

	// ---- get ----
	getCmd := flag.NewFlagSet("get", flag.ExitOnError)
	getVault := getCmd.String("vault", "data/vault.enc", "path to vault file")
	getSettings := getCmd.String("settings", "settings.json", "path to settings file")
	getID := getCmd.String("id", "", "record id")

	// ---- update ----
	updCmd := flag.NewFlagSet("update", flag.ExitOnError)
	updVault := updCmd.String("vault", "data/vault.enc", "path to vault file")
	updSettings := updCmd.String("settings", "settings.json", "path to settings file")
	updID := updCmd.String("id", "", "record id")
	updSite := updCmd.String("site", "", "new site name (keep current if empty)")
	updUser := updCmd.String("user", "", "new username (keep current if empty)")
	updPass := updCmd.String("pass", "", "new password or gen:N (keep current if empty)")
	updNotes := updCmd.String("notes", "", "new notes (keep current if empty)")

	// ---- delete ----
	delCmd := flag.NewFlagSet("delete", flag.ExitOnError)
	delVault := delCmd.String("vault", "data/vault.enc", "path to vault file")
	delSettings := delCmd.String("settings", "settings.json", "path to settings file")
	delID := delCmd.String("id", "", "record id")

	// ---- dups ----
	dupsCmd := flag.NewFlagSet("dups", flag.ExitOnError)
	dupsVault := dupsCmd.String("vault", "data/vault.enc", "path to vault file")
	dupsSettings := dupsCmd.String("settings", "settings.json", "path to settings file")

	// ---- twofa ----
	tfaCmd := flag.NewFlagSet("twofa", flag.ExitOnError)
	tfaVault := tfaCmd.String("vault", "data/vault.enc", "path to vault file")
	tfaSettings := tfaCmd.String("settings", "settings.json", "path to settings file")
	tfaEnable := tfaCmd.Bool("enable", false, "enable the TOTP second factor")
	tfaDisable := tfaCmd.Bool("disable", false, "disable the TOTP second factor")
	tfaAccount := tfaCmd.String("account", "vault", "account label for the authenticator app")

	// ---- backup / restore ----
	bakCmd := flag.NewFlagSet("backup", flag.ExitOnError)
	bakVault := bakCmd.String("vault", "data/vault.enc", "path to vault file")
	bakTo := bakCmd.String("to", "", "destination path (default mindvault_backup_<ts>.enc)")

	resCmd := flag.NewFlagSet("restore", flag.ExitOnError)
	resVault := resCmd.String("vault", "data/vault.enc", "path to vault file")
	resFrom := resCmd.String("from", "", "backup file to restore")

	// ---- export ----
	expCmd := flag.NewFlagSet("export", flag.ExitOnError)
	expVault := expCmd.String("vault", "data/vault.enc", "path to vault file")
	expSettings := expCmd.String("settings", "settings.json", "path to settings file")
	expTo := expCmd.String("to", "", "destination path for the exported blob")

	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "init":
		_ = initCmd.Parse(os.Args[2:])
		dieIf(cmdInit(*initVault, *initSettings))
	case "add":
		_ = addCmd.Parse(os.Args[2:])
		dieIf(withSession(*addVault, *addSettings, func(s *vault.Session) error {
			rec, err := s.AddRecord(vault.Record{
				Site:     *addSite,
				Username: *addUser,
				Password: expandPassword(*addPass),
				Notes:    *addNotes,
			})
			if err != nil {
				return err
			}
			fmt.Println("Added record id:", rec.ID)
			return nil
		}))
	case "list":
		_ = listCmd.Parse(os.Args[2:])
		dieIf(withSession(*listVault, *listSettings, func(s *vault.Session) error {
			return printJSON(s.Records())
		}))
	case "get":
		_ = getCmd.Parse(os.Args[2:])
		dieIf(withSession(*getVault, *getSettings, func(s *vault.Session) error {
			if *getID == "" {
				return errors.New("--id required")
			}
			rec, err := s.Record(*getID)
			if err != nil {
				return err
			}
			return printJSON(rec)
		}))
	case "update":
		_ = updCmd.Parse(os.Args[2:])
		dieIf(withSession(*updVault, *updSettings, func(s *vault.Session) error {
			if *updID == "" {
				return errors.New("--id required")
			}
			curr, err := s.Record(*updID)
			if err != nil {
				return err
			}
			upd := curr
			if *updSite != "" {
				upd.Site = *updSite
			}
			if *updUser != "" {
				upd.Username = *updUser
			}
			if *updPass != "" {
				upd.Password = expandPassword(*updPass)
			}
			if *updNotes != "" {
				upd.Notes = *updNotes
			}
			if err := s.UpdateRecord(*updID, upd); err != nil {
				return err
			}
			fmt.Println("Updated record id:", *updID)
			return nil
		}))
	case "delete":
		_ = delCmd.Parse(os.Args[2:])
		dieIf(withSession(*delVault, *delSettings, func(s *vault.Session) error {
			if *delID == "" {
				return errors.New("--id required")
			}
			if err := s.DeleteRecord(*delID); err != nil {
				return err
			}
			fmt.Println("Deleted record id:", *delID)
			return nil
		}))
	case "dups":
		_ = dupsCmd.Parse(os.Args[2:])
		dieIf(withSession(*dupsVault, *dupsSettings, func(s *vault.Session) error {
			dups := s.DuplicatePasswords()
			if len(dups) == 0 {
				fmt.Println("No duplicate passwords found.")
				return nil
			}
			for pw, sites := range dups {
				fmt.Printf("%s is reused by: %s\n", maskPassword(pw), strings.Join(sites, ", "))
			}
			return nil
		}))
	case "twofa":
		_ = tfaCmd.Parse(os.Args[2:])
		dieIf(cmdTwoFA(*tfaVault, *tfaSettings, *tfaEnable, *tfaDisable, *tfaAccount))
	case "backup":
		_ = bakCmd.Parse(os.Args[2:])
		dieIf(cmdBackup(*bakVault, *bakTo))
	case "restore":
		_ = resCmd.Parse(os.Args[2:])
		dieIf(cmdRestore(*resVault, *resFrom))
	case "export":
		_ = expCmd.Parse(os.Args[2:])
		dieIf(withSession(*expVault, *expSettings, func(s *vault.Session) error {
			if *expTo == "" {
				return errors.New("--to required")
			}
			blob, err := s.ExportBlob()
			if err != nil {
				return err
			}
			if err := os.WriteFile(*expTo, blob, 0o600); err != nil {
				return err
			}
			fmt.Println("Exported encrypted blob to:", *expTo)
			return nil
		}))
	default:
		usage()
	}
}

func usage() {
	fmt.Print(`mindvault commands:

  init    --vault path                      create a new vault
  add     --vault path --site example.com --user alice --pass gen:16 [--notes text]
  list    --vault path
  get     --vault path --id <ID>
  update  --vault path --id <ID> [--site s] [--user u] [--pass p|gen:N] [--notes n]
  delete  --vault path --id <ID>
  dups    --vault path                      list reused passwords
  twofa   --vault path --enable|--disable   manage the TOTP second factor
  backup  --vault path [--to file]
  restore --vault path --from file
  export  --vault path --to file            write a freshly encrypted blob copy

Examples:
  mindvault init
  mindvault add --site example.com --user alice --pass gen:16
  mindvault twofa --enable
`)
}

// cmdInit runs first-time setup: NoVault -> Setup -> Unlocked.
func cmdInit(vaultPath, settingsPath string) error {
	cfg, err := settings.Load(settingsPath, vaultPath)
	if err != nil {
		return err
	}
	store := vault.NewFileStore(vaultPath)
	m := auth.NewMachine(store)
	defer m.Close()
	if m.State() != auth.StateNoVault {
		return fmt.Errorf("vault already exists at %s", vaultPath)
	}

	master, err := promptSecret("New master password: ")
	if err != nil {
		return err
	}
	defer zero(master)
	if vault.CheckStrength(string(master)) < vault.StrengthMedium {
		fmt.Printf("Warning: master password strength is %s.\n", vault.CheckStrength(string(master)))
	}
	confirm, err := promptSecret("Confirm master password: ")
	if err != nil {
		return err
	}
	defer zero(confirm)
	if string(master) != string(confirm) {
		return errors.New("passwords do not match")
	}

	if err := m.Setup(master); err != nil {
		return err
	}
	cfg.Settings.FirstRun = false
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Println("Vault created:", vaultPath)
	return nil
}

// withSession authenticates (password, then the TOTP gate when enabled) and
// runs fn against the unlocked session.
func withSession(vaultPath, settingsPath string, fn func(*vault.Session) error) error {
	cfg, err := settings.Load(settingsPath, vaultPath)
	if err != nil {
		return err
	}
	store := vault.NewFileStore(vaultPath)
	m := auth.NewMachine(store)
	defer m.Close()
	if m.State() == auth.StateNoVault {
		return fmt.Errorf("no vault at %s, run: mindvault init", vaultPath)
	}
	m.SetAutoLock(cfg.AutoLock())

	if err := login(m); err != nil {
		return err
	}
	return m.Do(fn)
}

func login(m *auth.Machine) error {
	for {
		master, err := promptSecret("Master password: ")
		if err != nil {
			return err
		}
		if len(master) == 0 {
			m.Cancel()
			return errors.New("login cancelled")
		}
		st, err := m.SubmitPassword(master)
		zero(master)
		if err != nil {
			if errors.Is(err, vault.ErrAuthentication) {
				fmt.Println("Wrong master password or corrupt vault, try again.")
				continue
			}
			return err
		}
		if st == auth.StateUnlocked {
			return nil
		}
		// TwoFactorPending
		code, err := promptLine("2FA code: ")
		if err != nil {
			return err
		}
		if _, err := m.SubmitCode(code); err != nil {
			if errors.Is(err, auth.ErrTwoFactor) {
				fmt.Println("Invalid code; enter the master password again.")
				continue
			}
			return err
		}
		return nil
	}
}

func cmdTwoFA(vaultPath, settingsPath string, enable, disable bool, account string) error {
	if enable == disable {
		return errors.New("pass exactly one of --enable or --disable")
	}
	return withSession(vaultPath, settingsPath, func(s *vault.Session) error {
		if disable {
			if err := s.SetTwoFactorSecret(""); err != nil {
				return err
			}
			fmt.Println("Two-factor authentication disabled.")
			return nil
		}

		secret, err := totp.GenerateSecret()
		if err != nil {
			return err
		}
		fmt.Println("Secret key:", secret)
		fmt.Println("Enrollment URI:", totp.ProvisionURI(account, appName, secret))
		code, err := promptLine("Enter a code from your authenticator to confirm: ")
		if err != nil {
			return err
		}
		if !totp.Verify(secret, code, time.Now()) {
			return errors.New("code does not match; 2FA left disabled")
		}
		if err := s.SetTwoFactorSecret(secret); err != nil {
			return err
		}
		fmt.Println("Two-factor authentication enabled.")
		return nil
	})
}

func cmdBackup(vaultPath, dst string) error {
	if dst == "" {
		dst = fmt.Sprintf("mindvault_backup_%s.enc", time.Now().Format("20060102_150405"))
	}
	if err := vault.NewFileStore(vaultPath).Backup(dst); err != nil {
		return err
	}
	fmt.Println("Backup written to:", dst)
	return nil
}

func cmdRestore(vaultPath, src string) error {
	if src == "" {
		return errors.New("--from required")
	}
	if err := vault.NewFileStore(vaultPath).Restore(src); err != nil {
		return err
	}
	// The restored vault's key material is unknown; everyone logs in again.
	fmt.Println("Vault restored. Re-authentication required on next use.")
	return nil
}

// ============ Utilities ============

func promptSecret(prompt string) ([]byte, error) {
	fmt.Print(prompt)
	br := bufio.NewReader(os.Stdin)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimRight(string(line), "\r\n")), nil
}

func promptLine(prompt string) (string, error) {
	b, err := promptSecret(prompt)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// expandPassword turns gen:N into a random password with every character
// class represented; anything else passes through unchanged.
func expandPassword(pass string) string {
	if !strings.HasPrefix(pass, "gen:") {
		return pass
	}
	var n int
	_, _ = fmt.Sscanf(pass, "gen:%d", &n)
	if n < 8 {
		n = 16
	}
	return genPassword(n)
}

const (
	classUpper  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	classLower  = "abcdefghijklmnopqrstuvwxyz"
	classDigit  = "0123456789"
	classSymbol = "!@#$%^&*()-_=+[]{}"
)

func genPassword(n int) string {
	classes := []string{classUpper, classLower, classDigit, classSymbol}
	all := strings.Join(classes, "")

	buf := make([]byte, 0, n)
	for _, c := range classes {
		buf = append(buf, c[randIndex(len(c))])
	}
	for len(buf) < n {
		buf = append(buf, all[randIndex(len(all))])
	}
	for i := len(buf) - 1; i > 0; i-- {
		j := randIndex(i + 1)
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

func randIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand failure means no randomness at all; refuse to
		// generate a guessable password.
		logger.Fatalf("random source unavailable: %v", err)
	}
	return int(v.Int64())
}

func maskPassword(pw string) string {
	if len(pw) <= 5 {
		return pw
	}
	return pw[:3] + "****" + pw[len(pw)-2:]
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func dieIf(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
