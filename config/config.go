package config

import (
	"errors"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug             = "debug"
	ConfigLayout            = "layout"
	ConfigArenaCapacity     = "arena-capacity"
	ConfigSearchSoftPly     = "search-soft-ply"
	ConfigSearchHardPly     = "search-hard-ply"
	ConfigSearchThreads     = "search-threads"
	ConfigSearchBatchSize   = "search-batch-size"
	ConfigSearchTimeBudget  = "search-time-budget"
	ConfigSearchLogPath     = "search-log-path"
	ConfigScoreStoreURL     = "score-store-url"
	ConfigScoreStoreTimeout = "score-store-timeout"
	ConfigScoreStoreRetries = "score-store-retries"
	ConfigNatsURL           = "nats-url"
	ConfigNatsSubject       = "nats-subject"
	ConfigSelfPlayGames     = "selfplay-games"
	ConfigSelfPlayRounds    = "selfplay-max-rounds"
	ConfigSelfPlayLogPath   = "selfplay-log-path"
	ConfigEvalGoal          = "eval-goal"
	ConfigEvalGoalSecure    = "eval-goal-secure"
	ConfigEvalBase          = "eval-base"
	ConfigEvalEdgeAdjacent  = "eval-edge-adjacent"
	ConfigEvalEdgeTrapped   = "eval-edge-trapped"
	ConfigEvalMobility      = "eval-mobility"
	ConfigEvalSupport       = "eval-support"
)

// Config wraps a viper instance. Everything the engine, shell and
// services need to know at startup lives here.
type Config struct {
	*viper.Viper
}

func defaultThreads() int {
	return max(1, runtime.NumCPU()-1)
}

func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigLayout, "standard")
	c.SetDefault(ConfigArenaCapacity, 4096)
	c.SetDefault(ConfigSearchSoftPly, 1)
	c.SetDefault(ConfigSearchHardPly, 2)
	c.SetDefault(ConfigSearchThreads, defaultThreads())
	c.SetDefault(ConfigSearchBatchSize, 16)
	c.SetDefault(ConfigSearchTimeBudget, 10*time.Second)
	c.SetDefault(ConfigSearchLogPath, "")
	c.SetDefault(ConfigScoreStoreURL, "memory://")
	c.SetDefault(ConfigScoreStoreTimeout, 50*time.Millisecond)
	c.SetDefault(ConfigScoreStoreRetries, 3)
	c.SetDefault(ConfigNatsURL, "nats://localhost:4222")
	c.SetDefault(ConfigNatsSubject, "pushfight.bot")
	c.SetDefault(ConfigSelfPlayGames, 100)
	c.SetDefault(ConfigSelfPlayRounds, 100)
	c.SetDefault(ConfigSelfPlayLogPath, "")
	c.SetDefault(ConfigEvalGoal, 50)
	c.SetDefault(ConfigEvalGoalSecure, 15)
	c.SetDefault(ConfigEvalBase, 20)
	c.SetDefault(ConfigEvalEdgeAdjacent, -100)
	c.SetDefault(ConfigEvalEdgeTrapped, -150)
	c.SetDefault(ConfigEvalMobility, 1)
	c.SetDefault(ConfigEvalSupport, 5)
}

// Load parses command-line flags, binds PUSHFIGHT_* environment variables
// and reads an optional config file. Flags win over the environment, which
// wins over the file.
func (c *Config) Load(args []string) error {
	c.setDefaults()

	fs := pflag.NewFlagSet("pushfight", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigLayout, "standard", "board layout to play on")
	fs.Int(ConfigArenaCapacity, 4096, "number of boards the arena preallocates")
	fs.Int(ConfigSearchSoftPly, 1, "ply at which the search stops unless a piece is next to an edge")
	fs.Int(ConfigSearchHardPly, 2, "ply at which the search always stops")
	fs.Int(ConfigSearchThreads, defaultThreads(), "number of search workers")
	fs.Int(ConfigSearchBatchSize, 16, "root candidates per work batch")
	fs.Duration(ConfigSearchTimeBudget, 10*time.Second, "time budget per planned turn")
	fs.String(ConfigSearchLogPath, "", "write a YAML dump of ranked root candidates here")
	fs.String(ConfigScoreStoreURL, "memory://", "score store: memory://, sqlite:///path or redis://host:port/db")
	fs.Duration(ConfigScoreStoreTimeout, 50*time.Millisecond, "timeout for a single score store operation")
	fs.Int(ConfigScoreStoreRetries, 3, "connection attempts for the score store")
	fs.String(ConfigNatsURL, "nats://localhost:4222", "the NATS server URL")
	fs.String(ConfigNatsSubject, "pushfight.bot", "subject the plan service listens on")
	fs.Int(ConfigSelfPlayGames, 100, "number of self-play games to run")
	fs.Int(ConfigSelfPlayRounds, 100, "rounds after which a self-play game is abandoned")
	fs.String(ConfigSelfPlayLogPath, "", "write one CSV line per self-play game here")
	configFile := fs.String("config", "", "path to a config file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	c.SetEnvPrefix("pushfight")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if *configFile != "" {
		c.SetConfigFile(*configFile)
		if err := c.ReadInConfig(); err != nil {
			return err
		}
		log.Debug().Str("file", c.ConfigFileUsed()).Msg("read-config")
	}
	return nil
}

// Write persists the current settings to the config file in use, or to
// ./pushfight.yaml if none was given.
func (c *Config) Write() error {
	if c.ConfigFileUsed() != "" {
		return c.WriteConfig()
	}
	err := c.SafeWriteConfigAs("pushfight.yaml")
	var exists viper.ConfigFileAlreadyExistsError
	if errors.As(err, &exists) {
		return c.WriteConfigAs("pushfight.yaml")
	}
	return err
}

// DataPath expands a leading ~ in a configured path.
func DataPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return home + p[1:]
		}
	}
	return p
}
