package utils

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/noelzubin/notes_search/search/bleve_indexer"
	"github.com/noelzubin/notes_search/search/engine"
	"github.com/noelzubin/notes_search/search/filename"
	"github.com/spf13/viper"
)

// Config is the cofiguration for the application
type Config struct {
	RootPath   string       `mapstructure:"root_path"`  // Root path of the notes.
	Editor     string       `mapstructure:"editor"`     // Editor to open the notes with
	Extensions []string     `mapstructure:"extensions"` // Extensions of notes to be indexed
	Search     SearchConfig `mapstructure:"search"`     // Tuning of the search engine
}

// SearchConfig holds the search engine knobs. Zero values fall back to
// the engine defaults.
type SearchConfig struct {
	IndexUpdateInterval time.Duration `mapstructure:"index_update_interval"`
	MaxIndexSize        int           `mapstructure:"max_index_size"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
	MaxCacheSize        int           `mapstructure:"max_cache_size"`
	BatchSize           int           `mapstructure:"batch_size"`
	ContentScore        float64       `mapstructure:"content_score"`
	SnippetContext      int           `mapstructure:"snippet_context"`
	DefaultLimit        int           `mapstructure:"default_limit"`
	FuzzyThreshold      float64       `mapstructure:"fuzzy_threshold"`
	FuzzyBackend        string        `mapstructure:"fuzzy_backend"`     // "subsequence" or "bleve"
	MaxDocumentSize     int64         `mapstructure:"max_document_size"` // Bytes, larger notes are skipped
	Debounce            time.Duration `mapstructure:"debounce"`          // Idle time before the TUI searches
}

// DefaultConfigPath is where the config file is looked up by default.
func DefaultConfigPath() string {
	homedir, _ := os.UserHomeDir()
	return path.Join(homedir, "/.config/notes_search/config.yaml")
}

// NewConfig reads the config file at configPath, DefaultConfigPath if
// empty. Every key can be overridden from the environment with the
// NOTES_SEARCH_ prefix, e.g. NOTES_SEARCH_SEARCH_CACHE_TTL=1m.
func NewConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath()
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("notes_search")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	// AutomaticEnv only sees keys viper already knows, root_path has no default
	if err := v.BindEnv("root_path"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to parse the config file: %w", err)
	}
	if config.RootPath == "" {
		return nil, fmt.Errorf("root_path is not set in %s", configPath)
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	d := engine.DefaultOptions()

	v.SetDefault("editor", "vim")
	v.SetDefault("extensions", []string{".md"})
	v.SetDefault("search.index_update_interval", d.IndexUpdateInterval)
	v.SetDefault("search.max_index_size", d.MaxIndexSize)
	v.SetDefault("search.cache_ttl", d.CacheTTL)
	v.SetDefault("search.max_cache_size", d.MaxCacheSize)
	v.SetDefault("search.batch_size", d.BatchSize)
	v.SetDefault("search.content_score", d.ContentScore)
	v.SetDefault("search.snippet_context", d.SnippetContext)
	v.SetDefault("search.default_limit", d.DefaultLimit)
	v.SetDefault("search.fuzzy_threshold", d.FuzzyThreshold)
	v.SetDefault("search.fuzzy_backend", "subsequence")
	v.SetDefault("search.max_document_size", 10<<20)
	v.SetDefault("search.debounce", 150*time.Millisecond)
}

// EngineOptions converts the search section into engine options.
func (c *Config) EngineOptions() (engine.Options, error) {
	s := c.Search
	opts := engine.Options{
		IndexUpdateInterval: s.IndexUpdateInterval,
		MaxIndexSize:        s.MaxIndexSize,
		CacheTTL:            s.CacheTTL,
		MaxCacheSize:        s.MaxCacheSize,
		BatchSize:           s.BatchSize,
		ContentScore:        s.ContentScore,
		SnippetContext:      s.SnippetContext,
		DefaultLimit:        s.DefaultLimit,
		FuzzyThreshold:      s.FuzzyThreshold,
	}

	switch strings.ToLower(s.FuzzyBackend) {
	case "", "subsequence":
		opts.Matcher = filename.SubsequenceBuilder{}
	case "bleve":
		opts.Matcher = bleve_indexer.Builder{}
	default:
		return engine.Options{}, fmt.Errorf("unknown fuzzy_backend %q", s.FuzzyBackend)
	}
	return opts, nil
}
