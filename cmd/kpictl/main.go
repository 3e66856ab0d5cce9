// main.go - Admin control tool for the KPI dashboard
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"supplykpi/internal"
	"supplykpi/internal/database"
	"supplykpi/internal/kpi"
	"supplykpi/internal/seeder"
	"supplykpi/internal/timeframe"

	"log/slog"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command with the given app and args
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

// The set of available commands
var commands = []Command{
	&MigrateCommand{},
	&SeedCommand{},
	&ReportCommand{},
	&KPICommand{},
	&ValidateCommand{},
	&CatalogCommand{},
	&StatusCommand{},
	&HelpCommand{},
}

func main() {
	flag.Parse()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	cmdName, args := parseArgs()

	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	app, err := internal.NewApp()
	if err != nil {
		log.Printf("Warning: Failed to initialize app: %v", err)
		log.Println("Proceeding with limited functionality...")
	}

	defer func() {
		if app != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
			defer cancel()
			if err := app.Shutdown(shutdownCtx); err != nil {
				log.Printf("Warning: Cleanup error: %v", err)
			}
		}
	}()

	if err := cmd.Execute(ctx, app, args); err != nil {
		log.Fatalf("Command failed: %v", err)
	}

	log.Printf("Command %s completed successfully", cmd.Name())
}

// windowFlags registers -from, -to and -limit on fs.
type windowFlags struct {
	from  *string
	to    *string
	limit *int
}

func newWindowFlags(fs *flag.FlagSet) windowFlags {
	return windowFlags{
		from:  fs.String("from", "", "start date (YYYY-MM-DD), inclusive"),
		to:    fs.String("to", "", "end date (YYYY-MM-DD), inclusive"),
		limit: fs.Int("limit", 0, "row limit of ranked KPIs"),
	}
}

func (w windowFlags) params(app *internal.Application) (kpi.Params, error) {
	r, err := app.Services.Parser.Parse(timeframe.DateRangeParserParams{FromDate: *w.from, ToDate: *w.to})
	if err != nil {
		return kpi.Params{}, err
	}
	p := app.Services.DefaultParams()
	p.Range = r
	if *w.limit > 0 {
		p.Limit = *w.limit
	}
	return p, nil
}

// MigrateCommand runs database migrations
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Creates or updates the schema tables" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("app initialization failed, cannot run migrations")
	}

	log.Println("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Println("Migrations completed successfully")
	return nil
}

// SeedCommand populates the DB with sample data
type SeedCommand struct{}

func (c *SeedCommand) Name() string { return "seed" }
func (c *SeedCommand) Description() string {
	return "Replaces all data with generated sample data (migrates first)"
}

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	seed := fs.Uint64("seed", seeder.DefaultSeed, "random seed")
	years := fs.String("years", "2013,2014,2015,2016", "comma separated years to generate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if app == nil {
		return fmt.Errorf("unable to initialise app")
	}

	parsed, err := parseYears(*years)
	if err != nil {
		return err
	}

	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	se := seeder.NewSeeder(app.DBManager, slog.Default())
	se.Seed = *seed
	se.Years = parsed
	return se.Run(ctx)
}

func parseYears(raw string) ([]int, error) {
	var years []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid year %q", part)
		}
		years = append(years, y)
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("no years given")
	}
	return lo.Uniq(years), nil
}

// ReportCommand prints the dashboard as text
type ReportCommand struct{}

func (c *ReportCommand) Name() string        { return "report" }
func (c *ReportCommand) Description() string { return "Prints the dashboard headlines and widgets" }

func (c *ReportCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	window := newWindowFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if app == nil {
		return fmt.Errorf("unable to initialise app")
	}

	p, err := window.params(app)
	if err != nil {
		return err
	}

	d := app.Services.Dashboard.Render(ctx, p)
	printReport(os.Stdout, d)
	return nil
}

// KPICommand runs a single KPI
type KPICommand struct{}

func (c *KPICommand) Name() string        { return "kpi" }
func (c *KPICommand) Description() string { return "Runs one KPI: kpi <name> [-from] [-to] [-limit]" }

func (c *KPICommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s <name> [-from YYYY-MM-DD] [-to YYYY-MM-DD] [-limit N]", c.Name())
	}
	name := args[0]
	def, ok := kpi.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown KPI %q, run 'catalog' for the list", name)
	}

	fs := flag.NewFlagSet("kpi", flag.ContinueOnError)
	window := newWindowFlags(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if app == nil {
		return fmt.Errorf("unable to initialise app")
	}

	p, err := window.params(app)
	if err != nil {
		return err
	}

	table, err := app.Services.Validator.Execute(ctx, def.ID, p)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", def.Title, p.Range)
	printTable(os.Stdout, table)
	return nil
}

// ValidateCommand checks the special deals data
type ValidateCommand struct{}

func (c *ValidateCommand) Name() string        { return "validate" }
func (c *ValidateCommand) Description() string { return "Checks that SalesSpecialDeals is populated" }

func (c *ValidateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("unable to initialise app")
	}

	check := app.Services.Dashboard.CheckSpecialDeals(ctx)
	printDealsCheck(os.Stdout, check)
	if check.Status != "ok" {
		return fmt.Errorf("special deals check failed: %s", strings.Join(check.Messages, "; "))
	}
	return nil
}

// CatalogCommand prints the KPI catalog as YAML
type CatalogCommand struct{}

func (c *CatalogCommand) Name() string        { return "catalog" }
func (c *CatalogCommand) Description() string { return "Prints the KPI catalog as YAML (-sql to include queries)" }

type catalogEntry struct {
	Name   string   `yaml:"name"`
	Title  string   `yaml:"title"`
	Params []string `yaml:"params,flow"`
	SQL    string   `yaml:"sql,omitempty"`
}

func (c *CatalogCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("catalog", flag.ContinueOnError)
	withSQL := fs.Bool("sql", false, "include the SQL templates")
	if err := fs.Parse(args); err != nil {
		return err
	}

	entries := lo.Map(kpi.All(), func(def kpi.Definition, _ int) catalogEntry {
		e := catalogEntry{
			Name:   def.Name,
			Title:  def.Title,
			Params: lo.Map(def.Slots, func(s kpi.Slot, _ int) string { return s.String() }),
		}
		if *withSQL {
			e.SQL = def.Template
		}
		return e
	})

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(map[string]any{"kpis": entries})
}

// StatusCommand implements a command to check the system status
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Shows the current system status" }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("cannot check status: app initialization failed")
	}

	db := app.DBManager.GetConnection()

	log.Println("System Status:")
	log.Println("- Database: Connected")

	missing := database.MissingTables(db)
	if len(missing) > 0 {
		log.Printf("- Missing tables: %s (run 'migrate')", strings.Join(missing, ", "))
	} else {
		var deals, lines int64
		db.Table("SalesSpecialDeals").Count(&deals)
		db.Table("SalesInvoiceLines").Count(&lines)
		log.Printf("- Special deals: %d", deals)
		log.Printf("- Invoice lines: %d", lines)
	}

	log.Printf("- KPIs: %d", len(kpi.All()))
	log.Printf("- Cache TTL: %s", app.Services.Cache.TTL())

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}

	log.Printf("- Max Open Connections: %d", sqlDB.Stats().MaxOpenConnections)
	log.Printf("- Open Connections: %d", sqlDB.Stats().OpenConnections)
	log.Printf("- In Use: %d", sqlDB.Stats().InUse)
	log.Printf("- Idle: %d", sqlDB.Stats().Idle)

	return nil
}

// HelpCommand implements a command to show usage information
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	printUsage()
	return nil
}

// Helper functions

// parseArgs parses the command name and arguments
func parseArgs() (string, []string) {
	args := os.Args[1:]
	if len(args) == 0 {
		return "help", []string{}
	}
	return args[0], args[1:]
}

// findCommand finds a command by name
func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func printUsage() {
	fmt.Println("Usage: kpictl [command] [args...]")
	fmt.Println("Available commands:")

	for _, cmd := range commands {
		fmt.Printf("  %s: %s\n", cmd.Name(), cmd.Description())
	}
}

// showUsageAndExit shows usage information and exits
func showUsageAndExit() {
	printUsage()
	os.Exit(1)
}
