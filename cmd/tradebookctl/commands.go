package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/subcommands"
	"github.com/username/tradebook/backend/src/config"
	"github.com/username/tradebook/backend/src/database"
	"github.com/username/tradebook/backend/src/logger"
	"github.com/username/tradebook/backend/src/models"
	"github.com/username/tradebook/backend/src/processors"
	"github.com/username/tradebook/backend/src/security"
	"github.com/username/tradebook/backend/src/services"
)

var commands = []subcommands.Command{
	&importCmd{},
	&rebuildCmd{},
	&accountsCmd{},
	&addAccountCmd{},
	&tokenCmd{},
}

// env bundles the services a command needs.
type env struct {
	accounts  services.AccountService
	imports   services.ImportService
	positions services.PositionService
	close     func()
}

func openEnv() (*env, error) {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	db, err := database.Open(config.Cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	store := database.NewStore(db)
	normalizer := processors.NewTradeNormalizer()
	return &env{
		accounts: services.NewAccountService(store, nil),
		imports: services.NewImportService(store, normalizer, services.ImportOptions{
			ErrorRatio:        config.Cfg.ImportErrorRatio,
			MaxReportedErrors: config.Cfg.ImportMaxReportedErrors,
		}),
		positions: services.NewPositionService(store, processors.NewPositionReconstructor(), nil, nil),
		close:     func() { db.Close() },
	}, nil
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

type importCmd struct {
	accountID int64
	format    string
	overwrite bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a brokerage CSV into an account" }
func (*importCmd) Usage() string {
	return `import -account <id> [-format robinhood|fidelity] [-overwrite] <file.csv>

  Imports every trade of the file into the account. Rows already in the
  ledger are reported as duplicates unless -overwrite is given.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.accountID, "account", 0, "target account id (required)")
	f.StringVar(&c.format, "format", "", "CSV layout; defaults to the account provider's")
	f.BoolVar(&c.overwrite, "overwrite", false, "update trades that are already recorded")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.accountID <= 0 || f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: -account and exactly one file are required.")
		return subcommands.ExitUsageError
	}
	var format models.BrokerageFormat
	if c.format != "" {
		var err error
		if format, err = models.ParseBrokerageFormat(c.format); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitUsageError
		}
	}

	file, err := os.Open(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}
	defer file.Close()

	e, err := openEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.close()

	result, err := e.imports.ImportLedger(ctx, services.ImportRequest{
		AccountID: c.accountID,
		Format:    format,
		Overwrite: c.overwrite,
		Filename:  filepath.Base(f.Arg(0)),
		Content:   file,
	})
	if result != nil {
		printJSON(os.Stdout, result)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type rebuildCmd struct {
	accountID int64
}

func (*rebuildCmd) Name() string     { return "rebuild" }
func (*rebuildCmd) Synopsis() string { return "regenerate positions from the trade ledger" }
func (*rebuildCmd) Usage() string {
	return `rebuild [-account <id>]

  Deletes and regenerates positions for one account, or for every active
  account when -account is omitted.
`
}

func (c *rebuildCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.accountID, "account", 0, "account id; all active accounts when 0")
}

func (c *rebuildCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.close()

	var accountID *int64
	if c.accountID > 0 {
		accountID = &c.accountID
	}
	result, err := e.positions.RebuildPositions(ctx, accountID)
	if result != nil {
		printJSON(os.Stdout, result)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type accountsCmd struct {
	activeOnly bool
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list accounts" }
func (*accountsCmd) Usage() string    { return "accounts [-active]\n" }

func (c *accountsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.activeOnly, "active", false, "hide deactivated accounts")
}

func (c *accountsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.close()

	accounts, err := e.accounts.ListAccounts(ctx, c.activeOnly)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	printJSON(os.Stdout, accounts)
	return subcommands.ExitSuccess
}

type addAccountCmd struct {
	name     string
	provider string
}

func (*addAccountCmd) Name() string     { return "add-account" }
func (*addAccountCmd) Synopsis() string { return "create an account" }
func (*addAccountCmd) Usage() string {
	return `add-account -name <name> -provider robinhood|fidelity|manual|api
`
}

func (c *addAccountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "unique account name (required)")
	f.StringVar(&c.provider, "provider", "", "brokerage provider (required)")
}

func (c *addAccountCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" || c.provider == "" {
		fmt.Fprintln(os.Stderr, "Error: -name and -provider are required.")
		return subcommands.ExitUsageError
	}
	e, err := openEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.close()

	account, err := e.accounts.CreateAccount(ctx, c.name, models.Provider(c.provider))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	printJSON(os.Stdout, account)
	return subcommands.ExitSuccess
}

type tokenCmd struct {
	subject string
	ttl     time.Duration
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "issue an API bearer token" }
func (*tokenCmd) Usage() string    { return "token [-subject <name>] [-ttl 24h]\n" }

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.subject, "subject", "cli", "token subject")
	f.DurationVar(&c.ttl, "ttl", security.DefaultTokenTTL, "token lifetime")
}

func (c *tokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	config.LoadConfig()
	token, err := security.NewAuthService(config.Cfg.JWTSecret).GenerateToken(c.subject, c.ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Println(token)
	return subcommands.ExitSuccess
}
