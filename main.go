package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lotas/tabtab/internal/applog"
	"github.com/lotas/tabtab/internal/config"
	"github.com/lotas/tabtab/internal/export"
	"github.com/lotas/tabtab/internal/grouping"
	"github.com/lotas/tabtab/internal/importer"
	"github.com/lotas/tabtab/internal/savedtabs"
	"github.com/lotas/tabtab/internal/server"
	"github.com/lotas/tabtab/internal/storage"
	"github.com/lotas/tabtab/internal/tui"
	"github.com/lotas/tabtab/internal/types"
)

// connectTimeout bounds how long commands wait for the extension.
const connectTimeout = 10 * time.Second

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "list":
			runList(os.Args[2:])
			return
		case "stats":
			runStats()
			return
		case "export":
			runExport(os.Args[2:])
			return
		case "import":
			runImport(os.Args[2:])
			return
		case "imports":
			runImports()
			return
		case "remove":
			runRemove(os.Args[2:])
			return
		case "remove-group":
			runRemoveGroup(os.Args[2:])
			return
		case "open-group":
			runOpenGroup(os.Args[2:])
			return
		case "save":
			runSave(os.Args[2:])
			return
		case "group-by-host":
			runGroupByHost(os.Args[2:], false)
			return
		case "ungroup":
			runGroupByHost(os.Args[2:], true)
			return
		case "serve":
			runServe(os.Args[2:])
			return
		case "help", "--help", "-h":
			printHelp()
			return
		}
	}

	a := setup()
	defer a.close()

	fs := flag.NewFlagSet("tabtab", flag.ExitOnError)
	port := fs.Int("port", a.cfg.Port, "WebSocket port for the extension bridge (0 disables it)")
	fs.Parse(os.Args[1:])

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var opener savedtabs.Opener
	if *port != 0 {
		srv := server.New(*port)
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil && ctx.Err() == nil {
				applog.Error("server.listen", err, "port", *port)
			}
		}()
		go srv.Run(ctx, a.svc)
		opener = srv
	}

	p := tea.NewProgram(tui.NewModel(a.svc, opener), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fail(err)
	}
}

func printHelp() {
	fmt.Print(`tabtab — saved browser tabs, grouped

Usage:
  tabtab                              Start the TUI browser (default)
    --port <n>             WebSocket port for the extension (default: 19192, 0 disables)

  tabtab list                         List saved tabs by group
    --query <text>         Only tabs whose title or URL contains text
    --host <glob>          Only tabs whose host matches glob (e.g. "*.github.com")

  tabtab stats                        Totals and top domains
  tabtab export                       Write the text export
    --out <file>           Output file, "-" for stdout (default: tabtab-export-<date>.txt)
    --json                 Export as JSON
    --markdown             Export as markdown
  tabtab import <file|->              Import an export file (or stdin)
  tabtab imports                      Show import history
  tabtab remove <url>                 Remove every saved tab with url
  tabtab remove-group <key>           Remove a group (keys are shown by list)
  tabtab open-group <key>             Open a group's tabs in the browser
  tabtab save [-]                     Save & close the browser's tabs (- reads tab JSON from stdin)
  tabtab group-by-host                Group the browser's tabs by host
  tabtab ungroup                      Ungroup the browser's tabs
  tabtab serve                        Run the extension bridge
    --port <n>             WebSocket port (default: 19192)

Environment:
  TABTAB_DB              SQLite database path (default: ~/.local/share/tabtab/tabtab.db)
  TABTAB_PORT            WebSocket port
  TABTAB_LOG_DIR         Directory for tabtab.log

Configuration is read from ~/.config/tabtab/tabtab.toml.
`)
}

type app struct {
	cfg     config.Config
	db      *sql.DB
	svc     *savedtabs.Service
	imports *storage.ImportLog
}

// setup loads the config, starts logging and opens the database. Failures
// exit the process.
func setup() *app {
	cfg, err := config.Load()
	if err != nil {
		fail(fmt.Errorf("load config: %w", err))
	}
	if err := applog.Init(cfg.LogDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}

	db, err := storage.OpenDB(cfg.DBPath)
	if err != nil {
		fail(fmt.Errorf("open database: %w", err))
	}

	svc := savedtabs.New(storage.NewKV(db))
	svc.Favicon = importer.FaviconService(cfg.FaviconService)
	imports := storage.NewImportLog(db)
	svc.Imports = imports

	return &app{cfg: cfg, db: db, svc: svc, imports: imports}
}

func (a *app) close() {
	a.db.Close()
	applog.Close()
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	query := fs.String("query", "", "Only tabs whose title or URL contains text")
	host := fs.String("host", "", "Only tabs whose host matches glob")
	fs.Parse(args)

	a := setup()
	defer a.close()

	var filter *grouping.HostFilter
	if *host != "" {
		f, err := grouping.NewHostFilter(*host)
		if err != nil {
			fail(err)
		}
		filter = f
	}

	groups, err := a.svc.Search(context.Background(), *query, filter)
	if err != nil {
		fail(err)
	}
	if len(groups) == 0 {
		if *query != "" || *host != "" {
			fmt.Println(tui.NoMatchesFor(*query))
		} else {
			fmt.Println(tui.NoSavedTabs)
		}
		return
	}

	for i, g := range groups {
		if i > 0 {
			fmt.Println()
		}
		label := export.GroupHeader(g)
		if grouping.IsDateKey(g.Key) {
			label += " [by date]"
		}
		fmt.Printf("%s  %s\n", g.Key, label)
		for _, tab := range g.Tabs {
			title := tab.Title
			if title == "" {
				title = export.UntitledTitle
			}
			fmt.Printf("  %s\n    %s\n", title, tab.URL)
		}
	}
}

func runStats() {
	a := setup()
	defer a.close()

	stats, err := a.svc.Stats(context.Background())
	if err != nil {
		fail(err)
	}
	fmt.Printf("Tabs:    %d\n", stats.Total)
	fmt.Printf("Domains: %d\n", stats.Domains)
	if len(stats.TopDomains) > 0 {
		fmt.Println("\nTop domains:")
		for _, d := range stats.TopDomains {
			fmt.Printf("  %5d  %s\n", d.Count, d.Domain)
		}
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	outFile := fs.String("out", "", `Output file, "-" for stdout`)
	jsonFlag := fs.Bool("json", false, "Export as JSON")
	mdFlag := fs.Bool("markdown", false, "Export as markdown")
	fs.Parse(args)

	if *jsonFlag && *mdFlag {
		fail(errors.New("--json and --markdown are mutually exclusive"))
	}

	a := setup()
	defer a.close()

	ctx := context.Background()
	tabs, err := a.svc.Store.Load(ctx)
	if err != nil {
		fail(err)
	}

	now := time.Now()
	var output string
	switch {
	case *jsonFlag:
		output, err = export.JSON(tabs, now)
		if err != nil {
			fail(fmt.Errorf("generate JSON: %w", err))
		}
	case *mdFlag:
		output = export.Markdown(tabs, now)
	default:
		output = export.Text(tabs)
	}

	path := *outFile
	if path == "-" {
		fmt.Print(output)
		return
	}
	if path == "" {
		name := export.Filename(now)
		switch {
		case *jsonFlag:
			name = strings.TrimSuffix(name, ".txt") + ".json"
		case *mdFlag:
			name = strings.TrimSuffix(name, ".txt") + ".md"
		}
		path = filepath.Join(a.cfg.ExportDir, name)
	}
	if err := os.WriteFile(path, []byte(output), 0644); err != nil {
		fail(fmt.Errorf("write export: %w", err))
	}
	fmt.Fprintf(os.Stderr, "Exported %d tabs to %s\n", len(tabs), path)
}

func runImport(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: tabtab import <file|->")
		os.Exit(1)
	}

	var (
		data   []byte
		err    error
		source = args[0]
	)
	if source == "-" {
		data, err = io.ReadAll(os.Stdin)
		source = "stdin"
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		fail(fmt.Errorf("read import: %w", err))
	}

	a := setup()
	defer a.close()

	res, err := a.svc.Import(context.Background(), string(data), source)
	if err != nil {
		fail(err)
	}
	fmt.Println(res.Message())
	if res.Skipped > 0 {
		fmt.Printf("Skipped %d tabs already saved\n", res.Skipped)
	}
}

func runImports() {
	a := setup()
	defer a.close()

	records, err := a.imports.List(context.Background())
	if err != nil {
		fail(err)
	}
	if len(records) == 0 {
		fmt.Println("No imports yet.")
		return
	}
	for _, r := range records {
		fmt.Printf("%s  %-30s  %d tabs in %d groups, %d skipped\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Source, r.Imported, r.Groups, r.Skipped)
	}
}

func runRemove(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: tabtab remove <url>")
		os.Exit(1)
	}
	a := setup()
	defer a.close()

	n, err := a.svc.RemoveTab(context.Background(), args[0])
	if err != nil {
		fail(err)
	}
	fmt.Printf("Removed %d tab(s)\n", n)
}

func runRemoveGroup(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: tabtab remove-group <key>")
		os.Exit(1)
	}
	a := setup()
	defer a.close()

	n, err := a.svc.RemoveGroup(context.Background(), args[0])
	if err != nil {
		fail(err)
	}
	fmt.Printf("Removed %d tab(s) from group %s\n", n, args[0])
}

// connect starts a bridge on port and waits for the extension.
func connect(ctx context.Context, port int) *server.Server {
	srv := server.New(port)
	go srv.ListenAndServe(ctx)

	fmt.Fprintf(os.Stderr, "Waiting for browser extension on port %d...\n", port)
	wctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := srv.WaitConnected(wctx); err != nil {
		fail(fmt.Errorf("timed out waiting for extension (%s)", connectTimeout))
	}
	return srv
}

func runOpenGroup(args []string) {
	fs := flag.NewFlagSet("open-group", flag.ExitOnError)
	port := fs.Int("port", 0, "WebSocket port (default from config)")
	fs.Parse(reorderArgs(args))
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: tabtab open-group <key> [--port n]")
		os.Exit(1)
	}

	a := setup()
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groups, err := a.svc.Groups(ctx)
	if err != nil {
		fail(err)
	}
	if _, ok := grouping.Find(groups, fs.Arg(0)); !ok {
		fail(fmt.Errorf("no saved group %q", fs.Arg(0)))
	}
	srv := connect(ctx, portOr(*port, a.cfg.Port))

	n, err := a.svc.OpenGroup(ctx, fs.Arg(0), srv)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Opened %d tab(s)\n", n)
}

func runSave(args []string) {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	port := fs.Int("port", 0, "WebSocket port (default from config)")
	fs.Parse(reorderArgs(args))

	a := setup()
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if fs.NArg() == 1 && fs.Arg(0) == "-" {
		var open []types.OpenTab
		if err := json.NewDecoder(os.Stdin).Decode(&open); err != nil {
			fail(fmt.Errorf("parse tabs: %w", err))
		}
		saved, _, err := a.svc.SaveTabs(ctx, open)
		if err != nil {
			fail(err)
		}
		fmt.Printf("Saved %d tab(s)\n", len(saved))
		return
	}

	srv := connect(ctx, portOr(*port, a.cfg.Port))
	qctx, qcancel := context.WithTimeout(ctx, connectTimeout)
	defer qcancel()
	open, err := srv.Query(qctx)
	if err != nil {
		fail(err)
	}

	saved, ids, err := a.svc.SaveTabs(ctx, open)
	if err != nil {
		fail(err)
	}
	if err := srv.Close(ctx, ids); err != nil {
		fail(fmt.Errorf("close saved tabs: %w", err))
	}
	fmt.Printf("Saved and closed %d tab(s)\n", len(saved))
}

func runGroupByHost(args []string, ungroup bool) {
	fs := flag.NewFlagSet("group-by-host", flag.ExitOnError)
	port := fs.Int("port", 0, "WebSocket port (default from config)")
	fs.Parse(args)

	a := setup()
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := connect(ctx, portOr(*port, a.cfg.Port))

	qctx, qcancel := context.WithTimeout(ctx, connectTimeout)
	defer qcancel()
	open, err := srv.Query(qctx)
	if err != nil {
		fail(err)
	}

	if ungroup {
		if err := srv.UngroupAll(ctx, open); err != nil {
			fail(err)
		}
		fmt.Printf("Ungrouped %d tab(s)\n", len(open))
		return
	}

	plan, err := srv.GroupByHost(ctx, open)
	if err != nil {
		fail(err)
	}
	for _, g := range plan {
		fmt.Printf("  %-8s %3d  %s\n", g.Color, len(g.TabIDs), g.Host)
	}
	fmt.Printf("Grouped tabs into %d group(s)\n", len(plan))
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", 0, "WebSocket port (default from config)")
	fs.Parse(args)

	a := setup()
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv := server.New(portOr(*port, a.cfg.Port))
	go srv.Run(ctx, a.svc)

	fmt.Fprintf(os.Stderr, "Listening for the browser extension on 127.0.0.1:%d\n", srv.Port())
	if err := srv.ListenAndServe(ctx); err != nil && ctx.Err() == nil {
		fail(err)
	}
}

func portOr(flagValue, configured int) int {
	if flagValue != 0 {
		return flagValue
	}
	return configured
}

// reorderArgs moves flag arguments before positional arguments so that
// flag.Parse handles them correctly (it stops at the first non-flag arg).
// A lone "-" is positional.
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") && args[i] != "-" {
			flags = append(flags, args[i])
			if !strings.Contains(args[i], "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				flags = append(flags, args[i+1])
				i++
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
