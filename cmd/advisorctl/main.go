// Command advisorctl provisions and inspects advisor accounts in the
// configured store. It reads the same environment as the server.
//
//	advisorctl create --username jdoe --email jdoe@example.com --password ... [--advisor-id ADV-1 --firm "Acme" --role advisor --first-name John --last-name Doe]
//	advisorctl show --id <profile id>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/integra/advisor-profile/internal/config"
	applog "github.com/integra/advisor-profile/internal/platform/logging"
	"github.com/integra/advisor-profile/internal/platform/timeutil"
	"github.com/integra/advisor-profile/internal/service/account"
	profilesvc "github.com/integra/advisor-profile/internal/service/profile"
	"github.com/integra/advisor-profile/internal/storage"
)

const usage = `usage:
  advisorctl create --username NAME --email ADDR --password SECRET [--advisor-id ID] [--firm NAME] [--role ROLE] [--first-name NAME] [--last-name NAME]
  advisorctl show --id ID
`

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	defer func() { _ = applog.Sync() }()

	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "advisorctl: %v\n", err)
		os.Exit(exitUsage)
	}
	os.Exit(run(context.Background(), cfg, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one subcommand and returns the process exit code.
func run(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}
	if !storage.Persistent(cfg.StoreDriver) {
		fmt.Fprintf(stderr, "advisorctl: STORE_DRIVER=%s does not persist records; use sqlite or firestore\n", cfg.StoreDriver)
		return exitUsage
	}

	var cmd func(context.Context, profilesvc.Repository, []string, io.Writer) error
	switch args[0] {
	case "create":
		cmd = create
	case "show":
		cmd = show
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return exitOK
	default:
		fmt.Fprintf(stderr, "advisorctl: unknown command %q\n%s", args[0], usage)
		return exitUsage
	}

	h, err := storage.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "advisorctl: %v\n", err)
		return exitError
	}
	defer func() {
		if err := h.Close(); err != nil {
			fmt.Fprintf(stderr, "advisorctl: close store: %v\n", err)
		}
	}()

	if err := cmd(ctx, h.Repo, args[1:], stdout); err != nil {
		var uerr usageError
		if errors.As(err, &uerr) || errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "advisorctl: %v\n%s", err, usage)
			return exitUsage
		}
		fmt.Fprintf(stderr, "advisorctl: %v\n", err)
		return exitError
	}
	return exitOK
}

type usageError string

func (e usageError) Error() string { return string(e) }

func create(ctx context.Context, repo profilesvc.Repository, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		n         profilesvc.NewRecord
		password  string
		advisorID string
	)
	fs.StringVar(&n.Username, "username", "", "login name (required)")
	fs.StringVar(&n.Email, "email", "", "email address (required)")
	fs.StringVar(&password, "password", "", "initial password (required)")
	fs.StringVar(&advisorID, "advisor-id", "", "external advisor identifier")
	fs.StringVar(&n.FirmName, "firm", "", "firm name")
	fs.StringVar(&n.Role, "role", "", "role, defaults to advisor")
	fs.StringVar(&n.FirstName, "first-name", "", "first name")
	fs.StringVar(&n.LastName, "last-name", "", "last name")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if n.Username == "" || n.Email == "" || password == "" {
		return usageError("--username, --email and --password are required")
	}
	if advisorID != "" {
		n.AdvisorID = &advisorID
	}

	rec, err := account.NewService(repo, nil).Register(ctx, n, password)
	if err != nil {
		return fmt.Errorf("create advisor: %w", err)
	}
	return writeRecord(stdout, rec)
}

func show(ctx context.Context, repo profilesvc.Repository, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	id := fs.String("id", "", "profile id (required)")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if *id == "" {
		return usageError("--id is required")
	}
	rec, err := repo.Get(ctx, *id)
	if err != nil {
		return fmt.Errorf("show advisor: %w", err)
	}
	return writeRecord(stdout, rec)
}

type recordJSON struct {
	ID         string        `json:"id"`
	Username   string        `json:"username"`
	Email      string        `json:"email"`
	FirstName  string        `json:"first_name"`
	LastName   string        `json:"last_name"`
	AdvisorID  *string       `json:"advisor_id"`
	FirmName   string        `json:"firm_name"`
	Role       string        `json:"role"`
	Bio        string        `json:"bio"`
	AvatarURL  string        `json:"avatar_url"`
	DateJoined timeutil.Time `json:"date_joined"`
}

func writeRecord(w io.Writer, rec *profilesvc.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recordJSON{
		ID:         rec.ID,
		Username:   rec.Username,
		Email:      rec.Email,
		FirstName:  rec.FirstName,
		LastName:   rec.LastName,
		AdvisorID:  rec.AdvisorID,
		FirmName:   rec.FirmName,
		Role:       rec.Role,
		Bio:        rec.Bio,
		AvatarURL:  rec.AvatarURL,
		DateJoined: timeutil.NewTime(rec.CreatedAt),
	})
}
