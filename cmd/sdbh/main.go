package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/highbeam/sdbh/internal/config"
	"github.com/highbeam/sdbh/internal/doctor"
	"github.com/highbeam/sdbh/internal/histfile"
	"github.com/highbeam/sdbh/internal/query"
	"github.com/highbeam/sdbh/internal/render"
	"github.com/highbeam/sdbh/internal/shell"
	"github.com/highbeam/sdbh/internal/store"
	"github.com/highbeam/sdbh/internal/template"
)

var dbPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "sdbh",
		Short: "Shell DB History",
		Long:  "sdbh records shell commands into a SQLite database and answers questions about them: listing, search, summaries, stats, and cross-database merges.",
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (default: ~/.sdbh.sqlite, or SDBH_DB)")

	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(importFileCmd())
	rootCmd.AddCommand(shellCmd())
	rootCmd.AddCommand(templateCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveDBPath applies the flag > env > home-dir default precedence.
func resolveDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return config.DefaultDBPath()
}

func openStore() (*store.Store, error) {
	s, err := store.Open(resolveDBPath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

// sessionFor returns the current session identity unless the caller asked
// for all sessions. Missing env degrades to unfiltered.
func sessionFor(all bool) query.Session {
	if all {
		return query.Session{}
	}
	return config.SessionFromEnv()
}

// locationFor builds the working-directory filter from the here/under flags.
func locationFor(here, under bool) (query.Location, error) {
	if !here && !under {
		return query.Location{}, nil
	}
	pwd, err := os.Getwd()
	if err != nil {
		return query.Location{}, fmt.Errorf("resolve working directory: %w", err)
	}
	mode := query.LocationHere
	if under {
		mode = query.LocationUnder
	}
	return query.Location{Mode: mode, Pwd: pwd}, nil
}

func logCmd() *cobra.Command {
	var (
		cmdText string
		epoch   int64
		ppid    int64
		pwd     string
		salt    int64
		histID  int64
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Insert one history row (intended for shell integration)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.EnsureIndexes(); err != nil {
				return err
			}

			row := store.Row{
				Cmd:   cmdText,
				Epoch: epoch,
				PPID:  ppid,
				Pwd:   pwd,
				Salt:  salt,
			}
			if cmd.Flags().Changed("hist-id") {
				row.HistID = store.HistIDOf(histID)
			}

			_, err = s.Insert(row)
			return err
		},
	}

	cmd.Flags().StringVar(&cmdText, "cmd", "", "Command text")
	cmd.Flags().Int64Var(&epoch, "epoch", 0, "Unix timestamp of execution")
	cmd.Flags().Int64Var(&ppid, "ppid", 0, "Parent process id of the shell")
	cmd.Flags().StringVar(&pwd, "pwd", "", "Working directory at invocation")
	cmd.Flags().Int64Var(&salt, "salt", 0, "Per-session random value")
	cmd.Flags().Int64Var(&histID, "hist-id", 0, "Shell's own history number")
	_ = cmd.MarkFlagRequired("cmd")
	_ = cmd.MarkFlagRequired("epoch")
	_ = cmd.MarkFlagRequired("ppid")
	_ = cmd.MarkFlagRequired("pwd")
	_ = cmd.MarkFlagRequired("salt")

	return cmd
}

func listCmd() *cobra.Command {
	var (
		limit, offset int64
		all           bool
		here, under   bool
		format        string
	)

	cmd := &cobra.Command{
		Use:   "list [query]",
		Short: "Raw chronological history, oldest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := locationFor(here, under)
			if err != nil {
				return err
			}

			opts := query.ListOptions{
				Session:  sessionFor(all),
				Location: loc,
				Limit:    limit,
				Offset:   offset,
				All:      all,
			}
			if len(args) == 1 {
				opts.Pattern = args[0]
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			sqlText, binds := query.List(opts)
			rows, err := s.DB().Query(sqlText, binds...)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}
			lines, err := render.ScanHistory(rows)
			if err != nil {
				return err
			}
			return emitHistory(lines, format)
		},
	}

	cmd.Flags().Int64Var(&limit, "limit", 100, "Maximum rows to return")
	cmd.Flags().Int64Var(&offset, "offset", 0, "Rows to skip")
	cmd.Flags().BoolVar(&all, "all", false, "All sessions, no row cap")
	cmd.Flags().BoolVar(&here, "here", false, "Only this directory")
	cmd.Flags().BoolVar(&under, "under", false, "This directory and below")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	cmd.MarkFlagsMutuallyExclusive("here", "under")

	return cmd
}

func searchCmd() *cobra.Command {
	var (
		limit, offset int64
		all           bool
		here, under   bool
		since, days   int64
		format        string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Substring search, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := locationFor(here, under)
			if err != nil {
				return err
			}

			opts := query.SearchOptions{
				Session:  sessionFor(all),
				Pattern:  args[0],
				Location: loc,
				Since:    since,
				LastDays: days,
				Limit:    limit,
				Offset:   offset,
				All:      all,
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			sqlText, binds := query.Search(opts)
			rows, err := s.DB().Query(sqlText, binds...)
			if err != nil {
				return fmt.Errorf("search history: %w", err)
			}
			lines, err := render.ScanHistory(rows)
			if err != nil {
				return err
			}
			return emitHistory(lines, format)
		},
	}

	cmd.Flags().Int64Var(&limit, "limit", 100, "Maximum rows to return")
	cmd.Flags().Int64Var(&offset, "offset", 0, "Rows to skip")
	cmd.Flags().BoolVar(&all, "all", false, "All sessions, no row cap")
	cmd.Flags().BoolVar(&here, "here", false, "Only this directory")
	cmd.Flags().BoolVar(&under, "under", false, "This directory and below")
	cmd.Flags().Int64Var(&since, "since", 0, "Only rows at or after this epoch")
	cmd.Flags().Int64Var(&days, "days", 0, "Only rows within the last N days")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	cmd.MarkFlagsMutuallyExclusive("here", "under")
	cmd.MarkFlagsMutuallyExclusive("since", "days")

	return cmd
}

func summaryCmd() *cobra.Command {
	var (
		limit       int64
		starts      bool
		all         bool
		byPwd       bool
		here, under bool
		verbose     bool
		format      string
	)

	cmd := &cobra.Command{
		Use:   "summary [query]",
		Short: "Grouped-by-command summary (last seen + count)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := locationFor(here, under)
			if err != nil {
				return err
			}

			opts := query.SummaryOptions{
				Session:  sessionFor(all),
				Prefix:   starts,
				Location: loc,
				GroupPwd: byPwd,
				Limit:    limit,
				All:      all,
			}
			if len(args) == 1 {
				opts.Pattern = args[0]
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			sqlText, binds := query.Summary(opts)
			if verbose {
				fmt.Fprintf(os.Stderr, "db: %s\n", resolveDBPath())
				fmt.Fprintf(os.Stderr, "sql: %s\n", sqlText)
			}

			rows, err := s.DB().Query(sqlText, binds...)
			if err != nil {
				return fmt.Errorf("summarize history: %w", err)
			}
			lines, err := render.ScanSummary(rows, byPwd)
			if err != nil {
				return err
			}
			if format == "json" {
				fmt.Println(render.JSON(lines))
				return nil
			}
			fmt.Print(render.SummaryTable(lines, byPwd))
			return nil
		},
	}

	cmd.Flags().Int64Var(&limit, "limit", 100, "Maximum groups to return")
	cmd.Flags().BoolVar(&starts, "starts", false, "Match query as a prefix")
	cmd.Flags().BoolVar(&all, "all", false, "All sessions, no row cap")
	cmd.Flags().BoolVar(&byPwd, "pwd", false, "Group by directory as well")
	cmd.Flags().BoolVar(&here, "here", false, "Only this directory")
	cmd.Flags().BoolVar(&under, "under", false, "This directory and below")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Echo db path and SQL to stderr")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	cmd.MarkFlagsMutuallyExclusive("here", "under")

	return cmd
}

func statsCmd() *cobra.Command {
	var (
		days, limit int64
		all         bool
		format      string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Usage statistics over a trailing window",
	}

	cmd.PersistentFlags().Int64Var(&days, "days", 30, "Window size in days")
	cmd.PersistentFlags().Int64Var(&limit, "limit", 25, "Maximum rows to return")
	cmd.PersistentFlags().BoolVar(&all, "all", false, "No row cap")
	cmd.PersistentFlags().StringVar(&format, "format", "table", "Output format: table or json")

	opts := func() query.StatsOptions {
		return query.StatsOptions{Days: days, Limit: limit, All: all}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "top",
		Short: "Most-run commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlText, binds := query.StatsTop(opts())
			return runStats(sqlText, binds, format, render.ScanTop, render.TopTable)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "dirs",
		Short: "Most-run commands per directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlText, binds := query.StatsDirs(opts())
			return runStats(sqlText, binds, format, render.ScanDirs, render.TopTable)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "daily",
		Short: "Commands per calendar day",
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlText, binds := query.StatsDaily(opts())
			return runStats(sqlText, binds, format, render.ScanDaily, render.DailyTable)
		},
	})

	return cmd
}

func importCmd() *cobra.Command {
	var (
		fromPaths []string
		toPath    string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import/merge another sdbh-compatible SQLite database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(fromPaths) == 0 {
				return fmt.Errorf("--from must be specified at least once")
			}
			if toPath != "" {
				dbPath = toPath
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.EnsureIndexes(); err != nil {
				return err
			}

			var total store.ImportResult
			for _, p := range fromPaths {
				res, err := s.ImportFrom(p)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "imported from %s: considered %d, inserted %d\n",
					p, res.Considered, res.Inserted)
				if res.Skipped > 0 {
					fmt.Fprintf(os.Stderr, "import skipped %d corrupted row(s) (non-integer hist_id/epoch/ppid/salt)\n",
						res.Skipped)
				}
				total.Considered += res.Considered
				total.Inserted += res.Inserted
				total.Skipped += res.Skipped
			}

			fmt.Fprintf(os.Stderr, "total: considered %d, inserted %d\n",
				total.Considered, total.Inserted)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&fromPaths, "from", nil, "Source SQLite path (repeatable)")
	cmd.Flags().StringVar(&toPath, "to", "", "Destination db path (defaults to ~/.sdbh.sqlite)")

	return cmd
}

func importFileCmd() *cobra.Command {
	var (
		ppid, salt, epoch int64
		pwd               string
	)

	cmd := &cobra.Command{
		Use:   "import-file <path>",
		Short: "Import a plain-text bash or zsh history file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.EnsureIndexes(); err != nil {
				return err
			}

			res, err := histfile.Import(s, args[0], histfile.Options{
				PPID:          ppid,
				Salt:          salt,
				Pwd:           pwd,
				FallbackEpoch: epoch,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "imported from %s: considered %d, inserted %d\n",
				args[0], res.Considered, res.Inserted)
			return nil
		},
	}

	cmd.Flags().Int64Var(&ppid, "ppid", 0, "ppid to record on synthetic rows")
	cmd.Flags().Int64Var(&salt, "salt", 0, "salt to record on synthetic rows")
	cmd.Flags().StringVar(&pwd, "pwd", "", "pwd to record on synthetic rows")
	cmd.Flags().Int64Var(&epoch, "epoch", 0, "Base epoch for entries without timestamps (default: file mtime)")

	return cmd
}

func shellCmd() *cobra.Command {
	var bash, zsh, intercept bool

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Print shell integration snippets",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default: print both if neither specified.
			wantBash := bash || !zsh
			wantZsh := zsh || !bash

			if intercept {
				if wantBash {
					fmt.Println(shell.BashIntercept())
				}
				if wantZsh {
					fmt.Println(shell.ZshIntercept())
				}
				return nil
			}

			if wantBash {
				fmt.Println(shell.BashHook())
			}
			if wantZsh {
				fmt.Println(shell.ZshHook())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&bash, "bash", false, "Print bash integration")
	cmd.Flags().BoolVar(&zsh, "zsh", false, "Print zsh integration")
	cmd.Flags().BoolVar(&intercept, "intercept", false, "Print intercept-style integration (more invasive)")

	return cmd
}

func templateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage and render command templates",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "Templates directory (default: ~/.sdbh/templates)")

	engine := func() (*template.Engine, error) {
		d := dir
		if d == "" {
			d = config.DefaultTemplatesDir()
		}
		return template.NewEngine(d)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := engine()
			if err != nil {
				return err
			}
			templates, err := e.List()
			if err != nil {
				return err
			}
			for _, t := range templates {
				desc := t.Description
				if desc == "" {
					desc = t.Name
				}
				fmt.Printf("%-20s %s\n", t.ID, desc)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := engine()
			if err != nil {
				return err
			}
			t, err := e.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Println(render.JSON(t))
			return nil
		},
	})

	var vars []string
	renderCmd := &cobra.Command{
		Use:   "render <id>",
		Short: "Resolve a template's variables and print the command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := engine()
			if err != nil {
				return err
			}
			values := map[string]string{}
			for _, kv := range vars {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("invalid --var %q, expected name=value", kv)
				}
				values[k] = v
			}
			resolved, err := e.Resolve(args[0], values)
			if err != nil {
				return err
			}
			fmt.Println(resolved)
			return nil
		},
	}
	renderCmd.Flags().StringArrayVar(&vars, "var", nil, "Variable value as name=value (repeatable)")
	cmd.AddCommand(renderCmd)

	return cmd
}

func doctorCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the sdbh installation",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := doctor.Run(resolveDBPath())
			if err != nil {
				return err
			}
			if jsonOutput {
				fmt.Println(render.JSON(r))
				return nil
			}
			fmt.Print(doctor.Format(r))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func emitHistory(lines []render.HistoryLine, format string) error {
	switch format {
	case "json":
		fmt.Println(render.JSON(lines))
	case "table", "":
		fmt.Print(render.HistoryTable(lines))
	default:
		return fmt.Errorf("unknown format %q (want table or json)", format)
	}
	return nil
}

// runStats executes a built stats query against the store and emits it.
func runStats[T any](sqlText string, binds []any, format string, scan func(rows *sql.Rows) ([]T, error), table func([]T) string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	rows, err := s.DB().Query(sqlText, binds...)
	if err != nil {
		return fmt.Errorf("stats query: %w", err)
	}
	lines, err := scan(rows)
	if err != nil {
		return err
	}
	if format == "json" {
		fmt.Println(render.JSON(lines))
		return nil
	}
	fmt.Print(table(lines))
	return nil
}
