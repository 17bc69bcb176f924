// Command lexicache is a caching English/Chinese dictionary.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ZaguanLabs/lexicache"
	"github.com/ZaguanLabs/lexicache/internal/config"
	"github.com/ZaguanLabs/lexicache/internal/logger"
	"github.com/ZaguanLabs/lexicache/markup"
	"github.com/ZaguanLabs/lexicache/provider"
	"github.com/ZaguanLabs/lexicache/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = lexicache.Version
	commit    = lexicache.GitCommit
	buildDate = lexicache.BuildDate
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the state shared by all subcommands of one invocation.
type app struct {
	stdout  io.Writer
	stderr  io.Writer
	v       *viper.Viper
	cfgFile string

	cfg    *config.Config
	logger *slog.Logger
	store  lexicache.Store
	dict   *lexicache.Dictionary
}

func run(args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout, stderr: stderr, v: config.New("")}
	defer a.close()

	root := a.rootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "lexicache",
		Short:         "Caching English/Chinese dictionary",
		Long:          "lexicache translates words and short phrases between English and Chinese,\nremembering every answer so repeated lookups never hit the network.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.lexicache.yaml)")
	flags.String("store", "", "record store: sqlite, memory or redis (default sqlite)")
	flags.String("db", "", "SQLite database path (default dictionary_cache.db)")
	flags.String("redis-url", "", "Redis URL for the redis store")
	flags.String("provider", "", "translation provider: mymemory or openai (default mymemory)")
	flags.String("endpoint", "", "MyMemory endpoint URL")
	flags.Duration("timeout", 0, "provider timeout (default 15s)")
	flags.String("log-level", "", "log level: debug, info, warn, error (default info)")
	flags.String("log-format", "", "log format: text or json (default text)")

	bindings := map[string]string{
		"store.driver":      "store",
		"store.path":        "db",
		"store.redis_url":   "redis-url",
		"provider.name":     "provider",
		"provider.endpoint": "endpoint",
		"provider.timeout":  "timeout",
		"log.level":         "log-level",
		"log.format":        "log-format",
	}
	for key, flag := range bindings {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		a.translateCommand(),
		a.historyCommand(),
		a.showCommand(),
		a.deleteCommand(),
		a.clearCommand(),
		a.exportCommand(),
		a.importCommand(),
		a.versionCommand(),
	)
	return root
}

// open loads the configuration and builds the dictionary. A store that cannot
// be opened is reported once; the dictionary then runs without history.
func (a *app) open() error {
	if a.dict != nil {
		return nil
	}

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	}
	if err := config.ReadFile(a.v, a.cfgFile != ""); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger.New(a.stderr, logger.ParseLevel(cfg.Log.Level), cfg.Log.Format)

	s, err := openStore(cfg.Store)
	if err != nil {
		a.logger.Warn("record store unavailable, history disabled",
			"driver", cfg.Store.Driver, "error", err)
	} else {
		a.store = s
	}

	opts := []lexicache.Option{
		lexicache.WithLogger(a.logger),
		lexicache.WithTimeout(cfg.Provider.Timeout),
		lexicache.WithNormalizer(newNormalizer(cfg.Normalize)),
	}
	if a.store != nil {
		opts = append(opts, lexicache.WithStore(a.store))
	}
	a.dict = lexicache.NewDictionary(newProvider(cfg.Provider), opts...)
	return nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil && a.logger != nil {
			a.logger.Warn("closing record store", "error", err)
		}
		a.store = nil
	}
}

func openStore(cfg config.StoreConfig) (lexicache.Store, error) {
	switch cfg.Driver {
	case "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		return store.NewRedisStore(store.RedisConfig{URL: cfg.RedisURL, KeyPrefix: cfg.RedisPrefix})
	default:
		return store.OpenSQLite(cfg.Path)
	}
}

func newProvider(cfg config.ProviderConfig) lexicache.Provider {
	if cfg.Name == "openai" {
		return provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:  cfg.OpenAIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
	}
	return provider.NewMyMemoryProvider(provider.MyMemoryConfig{
		Endpoint:  cfg.Endpoint,
		UserAgent: cfg.UserAgent,
		Email:     cfg.Email,
		Timeout:   cfg.Timeout,
	})
}

func newNormalizer(cfg config.NormalizeConfig) *lexicache.Normalizer {
	opts := []lexicache.NormalizerOption{
		lexicache.WithExampleLabels(cfg.OriginalLabel, cfg.TranslationLabel),
	}
	if cfg.StripMarkup {
		opts = append(opts, lexicache.WithCleaner(markup.NewHTMLCleaner()))
	}
	return lexicache.NewNormalizer(opts...)
}
