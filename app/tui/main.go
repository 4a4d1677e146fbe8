package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noelzubin/notes_search/editor"
	"github.com/noelzubin/notes_search/logger"
	"github.com/noelzubin/notes_search/search"
	"github.com/noelzubin/notes_search/search/engine"
	"github.com/noelzubin/notes_search/utils"
	"github.com/noelzubin/notes_search/vault"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	queryLimit int
	queryJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "notes_search",
	Short: "Fuzzy search over a directory of notes",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
	},
	RunE:         runTUI,
	SilenceUsage: true,
}

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search the notes once and print the results",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.config/notes_search/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 0, "maximum number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

// app holds everything both commands need.
type app struct {
	config *utils.Config
	vault  *vault.FileVault
	engine *engine.Engine
}

func setup() (*app, error) {
	// read application config
	config, err := utils.NewConfig(configPath)
	if err != nil {
		return nil, err
	}

	opts, err := config.EngineOptions()
	if err != nil {
		return nil, err
	}

	v := vault.NewFileVault(config.RootPath, config.Extensions, config.Search.MaxDocumentSize)
	logger.Debug("notes root %s, extensions %v", v.Root(), config.Extensions)

	return &app{config: config, vault: v, engine: engine.New(v, opts)}, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Setup logging. The terminal belongs to bubbletea.
	homedir, _ := os.UserHomeDir()
	log_path := path.Join(homedir, "/.config/notes_search/debug.log")
	f, err := tea.LogToFile(log_path, "debug")
	if err != nil {
		return err
	}
	defer f.Close()
	logger.SetOutput(f)

	a, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Drop cached results whenever a note changes on disk.
	go func() {
		if err := a.vault.Watch(ctx, a.engine.Invalidate); err != nil {
			logger.Warn("watcher stopped: %v", err)
		}
	}()

	m := New(a.engine, a.vault.Abs, editor.New(a.config.Editor), a.config.Search.Debounce, a.config.Search.DefaultLimit)
	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}

	results := a.engine.Search(cmd.Context(), strings.Join(args, " "), queryLimit)
	return writeResults(cmd.OutOrStdout(), results, queryJSON)
}

// writeResults prints results as JSON or as a numbered list.
func writeResults(w io.Writer, results []search.SearchResult, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No results found.")
		return err
	}

	for i, r := range results {
		fmt.Fprintf(w, "  [%d] %s (%.0f)\n", i+1, r.Path, r.Score)
		if r.Snippet != "" {
			fmt.Fprintf(w, "      %s\n", formatContent(r.Snippet))
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
