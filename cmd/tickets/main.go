package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mobil-koeln/tickets/internal/config"
	"github.com/mobil-koeln/tickets/internal/logging"
	"github.com/mobil-koeln/tickets/internal/mirror"
	"github.com/mobil-koeln/tickets/internal/models"
	"github.com/mobil-koeln/tickets/internal/output"
	"github.com/mobil-koeln/tickets/internal/store"
	"github.com/mobil-koeln/tickets/internal/tui"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tickets",
	Short: "Track maintenance tickets kept in a live document store",
	Long: `tickets is a terminal ticket tracker. It mirrors a collection of
tickets from a document store and keeps the view up to date as other
clients add, edit or delete tickets.

Backends:
  - sqlite     local file, shared between processes (default)
  - redis      hash per collection with a pub/sub change feed
  - firestore  Cloud Firestore collection with realtime snapshots
  - memory     in-process, for trying things out

Quick Start:
  1. Launch TUI:          tickets (or tickets tui)
  2. List tickets:        tickets list
  3. Add a ticket:        tickets add --names Alice --location "Bldg A" --issue "No power"
  4. Follow changes:      tickets watch
  5. Bulk import:         tickets import tickets.yaml`,
	Version:      version,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// If no subcommand is provided, launch TUI
		if len(args) == 0 {
			return runTUI(cmd, args)
		}
		return cmd.Help()
	},
}

// Global flags
var (
	flagConfig     string
	flagBackend    string
	flagCollection string
	flagColor      string
	flagLogLevel   string
	flagLogFile    string
	flagJSON       bool
	flagFullIDs    bool
)

// Ticket field flags for add/edit
var (
	flagNames    string
	flagLocation string
	flagIssue    string
)

// Import flags
var (
	flagDryRun      bool
	flagConcurrency int
)

func init() {
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(importCmd)

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default $XDG_CONFIG_HOME/tickets/config.yaml)")
	pf.StringVar(&flagBackend, "backend", "", "Store backend: sqlite, redis, firestore, memory")
	pf.StringVar(&flagCollection, "collection", "", "Ticket collection name")
	pf.StringVar(&flagColor, "color", "auto", "Color output: auto, always, never")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flagLogFile, "log-file", "", "Log file used while the TUI is running")
	pf.BoolVar(&flagJSON, "json", false, "Output as JSON")
	pf.BoolVar(&flagFullIDs, "full-ids", false, "Print ticket ids unshortened")

	for _, c := range []*cobra.Command{addCmd, editCmd} {
		c.Flags().StringVar(&flagNames, "names", "", "Who reported the issue")
		c.Flags().StringVar(&flagLocation, "location", "", "Where the issue is")
		c.Flags().StringVar(&flagIssue, "issue", "", "What is wrong")
	}

	importCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Validate and import into a throwaway in-memory collection")
	importCmd.Flags().IntVar(&flagConcurrency, "concurrency", defaultImportConcurrency, "Number of tickets created in parallel")
}

// loadConfig loads configuration with command-line flags taking precedence
func loadConfig() (*config.Config, error) {
	loader := config.NewLoader()
	if flagConfig != "" {
		loader.SetConfigFile(flagConfig)
	}

	overrides := map[string]string{
		"store.backend":    flagBackend,
		"store.collection": flagCollection,
		"logging.level":    flagLogLevel,
		"logging.file":     flagLogFile,
	}
	for key, value := range overrides {
		if value != "" {
			loader.Set(key, value)
		}
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// setupLogging initializes the global logger. While the TUI owns the
// terminal logs go to the configured file instead of stderr.
func setupLogging(cfg *config.Config, toFile bool) (func(), error) {
	logCfg := logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	}

	closeFn := func() {}
	if toFile {
		f, err := logging.OpenFile(cfg.Logging.File)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logCfg.Output = f
		logCfg.Format = "json"
		logCfg.NoColor = true
		closeFn = func() { _ = f.Close() }
	}

	logging.Init(logCfg)
	return closeFn, nil
}

// session bundles what every command needs
type session struct {
	cfg    *config.Config
	mirror *mirror.Mirror
	close  func()
}

// openSession loads config, sets up logging and opens the configured store
func openSession(ctx context.Context, forTUI bool) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	closeLog, err := setupLogging(cfg, forTUI)
	if err != nil {
		return nil, err
	}

	coll, err := store.Open(ctx, cfg.Store)
	if err != nil {
		closeLog()
		return nil, err
	}

	log := logging.Component("cli")
	log.Debug().
		Str("backend", cfg.Store.Backend).
		Str("collection", cfg.Store.Collection).
		Msg("store opened")

	return &session{
		cfg:    cfg,
		mirror: newMirror(coll, cfg),
		close: func() {
			_ = coll.Close()
			closeLog()
		},
	}, nil
}

func newMirror(coll store.Collection, cfg *config.Config) *mirror.Mirror {
	return mirror.New(coll,
		mirror.WithLogger(logging.Component("mirror")),
		mirror.WithRetry(cfg.Mutation.RetryAttempts, cfg.Mutation.RetryBackoff),
	)
}

// withTimeout bounds a single CLI operation by the mutation timeout
func (s *session) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.Mutation.Timeout)
}

func getColorMode() output.ColorMode {
	return output.ParseColorMode(flagColor)
}

func tableOptions() output.TableOptions {
	return output.TableOptions{
		Colors:  output.NewColors(getColorMode()),
		FullIDs: flagFullIDs,
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	Long: `Launch the full-screen ticket tracker.

Keyboard shortcuts:
  ↑/↓ or j/k   Move through the list
  Enter        Open ticket
  a            Add ticket / return to the list
  e            Edit the open ticket
  d            Delete the open ticket (asks y/n)
  Tab          Next form field
  Ctrl+S       Save form
  Esc          Return to the ticket list
  q            Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer s.close()

	return tui.Run(cmd.Context(), s.mirror,
		tui.WithLogger(logging.Component("tui")),
		tui.WithMutationTimeout(s.cfg.Mutation.Timeout),
		tui.WithNoticeDuration(s.cfg.UI.NoticeDuration),
	)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tickets",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := s.withTimeout(cmd.Context())
	defer cancel()

	tickets, err := s.mirror.Snapshot(ctx)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), tickets.Tickets())
	}
	output.RenderTickets(cmd.OutOrStdout(), tickets, tableOptions())
	return nil
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single ticket",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.close()

	t, err := lookupTicket(cmd.Context(), s, args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), t)
	}
	output.RenderTicket(cmd.OutOrStdout(), t, tableOptions())
	return nil
}

// lookupTicket resolves id against a fresh snapshot
func lookupTicket(ctx context.Context, s *session, id string) (models.Ticket, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tickets, err := s.mirror.Snapshot(ctx)
	if err != nil {
		return models.Ticket{}, err
	}
	t, ok := tickets.Lookup(id)
	if !ok {
		return models.Ticket{}, fmt.Errorf("ticket %s: %w", id, store.ErrNotFound)
	}
	return t, nil
}

var addCmd = &cobra.Command{
	Use:     "add",
	Short:   "Add a ticket",
	Example: `  tickets add --names Alice --location "Bldg A" --issue "No power"`,
	Args:    cobra.NoArgs,
	RunE:    runAdd,
}

func runAdd(cmd *cobra.Command, _ []string) error {
	fields := models.Fields{
		Names:    flagNames,
		Location: flagLocation,
		Issue:    flagIssue,
	}.Trimmed()
	if err := fields.Validate(); err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := s.withTimeout(cmd.Context())
	defer cancel()

	id, err := s.mirror.CreateTicket(ctx, fields)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), models.Ticket{ID: id}.WithFields(fields))
	}
	c := output.NewColors(getColorMode())
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", c.Success("Created ticket"), c.ID("%s", id))
	return nil
}

var editCmd = &cobra.Command{
	Use:     "edit <id>",
	Short:   "Edit a ticket; fields without a flag keep their value",
	Example: `  tickets edit 3f2a9c1e --issue "Fixed"`,
	Args:    cobra.ExactArgs(1),
	RunE:    runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.close()

	current, err := lookupTicket(cmd.Context(), s, args[0])
	if err != nil {
		return err
	}

	fields := applyFieldFlags(cmd, current.Fields()).Trimmed()
	if err := fields.Validate(); err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(cmd.Context())
	defer cancel()

	if err := s.mirror.UpdateTicket(ctx, current.ID, fields); err != nil {
		return err
	}

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), current.WithFields(fields))
	}
	c := output.NewColors(getColorMode())
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", c.Success("Updated ticket"), c.ID("%s", current.ID))
	return nil
}

// applyFieldFlags overlays the field flags that were set on fields
func applyFieldFlags(cmd *cobra.Command, fields models.Fields) models.Fields {
	if cmd.Flags().Changed("names") {
		fields.Names = flagNames
	}
	if cmd.Flags().Changed("location") {
		fields.Location = flagLocation
	}
	if cmd.Flags().Changed("issue") {
		fields.Issue = flagIssue
	}
	return fields
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a ticket",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := s.withTimeout(cmd.Context())
	defer cancel()

	if err := s.mirror.DeleteTicket(ctx, args[0]); err != nil {
		return err
	}

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
	}
	c := output.NewColors(getColorMode())
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", c.Success("Deleted ticket"), c.ID("%s", args[0]))
	return nil
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the ticket list every time it changes",
	Long: `Follow the ticket collection. The table is redrawn whenever any
client adds, edits or deletes a ticket. Press Ctrl+C to exit.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.close()

	// Callbacks arrive one at a time; only the newest snapshot matters.
	updates := make(chan models.Collection, 1)
	failures := make(chan string, 1)
	handle := s.mirror.Start(
		func(c models.Collection) {
			select {
			case <-updates:
			default:
			}
			updates <- c
		},
		func(message string) { failures <- message },
	)
	defer handle.Stop()

	return watchLoop(cmd.Context(), cmd.OutOrStdout(), updates, failures)
}

// watchLoop redraws the table for each snapshot until interrupted or the
// subscription fails
func watchLoop(ctx context.Context, w io.Writer, updates <-chan models.Collection, failures <-chan string) error {
	sigChan := output.SetupSignalHandler()

	interactive := false
	if f, ok := w.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd())
	}
	screen := output.NewScreen(w, interactive && !flagJSON)
	screen.Begin()
	defer screen.End()

	for {
		select {
		case tickets := <-updates:
			if flagJSON {
				if err := printJSON(w, tickets.Tickets()); err != nil {
					return err
				}
				continue
			}
			screen.Redraw(func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "Last update: %s | %d tickets | Press Ctrl+C to exit\n\n",
					time.Now().Format("15:04:05"), tickets.Len())
				output.RenderTickets(w, tickets, tableOptions())
			})
		case message := <-failures:
			return fmt.Errorf("watch: subscription failed: %s", message)
		case <-sigChan:
			if interactive {
				output.ClearScreen(w)
			}
			_, _ = fmt.Fprintln(w, "Watch mode ended.")
			return nil
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		}
	}
}

var importCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Create tickets from a YAML list",
	Long: `Create every ticket listed in a YAML file. Each entry needs names,
location and issue:

  - names: Alice
    location: Bldg A
    issue: No power

All entries are validated before anything is written. With --dry-run the
tickets go into a throwaway in-memory collection instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer func() { _ = f.Close() }()

	entries, err := parseImport(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	var mir *mirror.Mirror
	if flagDryRun {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mem := store.NewMemory()
		defer func() { _ = mem.Close() }()
		mir = newMirror(mem, cfg)
	} else {
		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.close()
		mir = s.mirror
	}

	ids, err := importTickets(cmd.Context(), mir, entries, flagConcurrency)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), ids)
	}
	verb := "Imported"
	if flagDryRun {
		verb = "Validated"
	}
	c := output.NewColors(getColorMode())
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), c.Success("%s %d tickets", verb, len(ids)))
	return nil
}
