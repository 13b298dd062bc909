package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/always-cache/easyrequest"
	cachekey "github.com/always-cache/easyrequest/pkg/cache-key"
	"github.com/always-cache/easyrequest/policy"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// headerFlags collects repeated -header flags
type headerFlags []string

func (h *headerFlags) String() string {
	return strings.Join(*h, ", ")
}

func (h *headerFlags) Set(value string) error {
	if !strings.Contains(value, ":") {
		return fmt.Errorf("header %q is not in the form 'Name: value'", value)
	}
	*h = append(*h, value)
	return nil
}

var (
	// CLI flags
	configFilenameFlag string
	urlFlag            string
	methodFlag         string
	modeFlag           string
	dataFlag           string
	headerFlag         headerFlags
	dbFilenameFlag     string
	timeoutFlag        time.Duration
	retriesFlag        int
	listFlag           bool
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&configFilenameFlag, "config", "", "Path to config file")
	flag.StringVar(&urlFlag, "url", "", "URL to request")
	flag.StringVar(&methodFlag, "method", "GET", "Request method")
	flag.StringVar(&modeFlag, "mode", policy.Default.String(), "Caching mode: default, no-cache, offline-only or bypass-read-but-write")
	flag.StringVar(&dataFlag, "data", "", "Request body")
	flag.Var(&headerFlag, "header", "Request header 'Name: value' (repeatable)")
	flag.StringVar(&dbFilenameFlag, "db", "cache.db", "Cache DB file name (use 'memory' for in-memory db, overrides config)")
	flag.DurationVar(&timeoutFlag, "timeout", 0, "Timeout of a single attempt (overrides config)")
	flag.IntVar(&retriesFlag, "retries", 0, "Number of retries (overrides config)")
	flag.BoolVar(&listFlag, "list", false, "List the cached requests and exit")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stderr)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.InfoLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stderr, stdout is for the response
	// also output to a rotated logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stderr})
	if logFilenameFlag != "" {
		logOutputs = append(logOutputs, &lumberjack.Logger{
			Filename:   logFilenameFlag,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		})
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Timestamp().Str("version", version).Logger()

	config, err := easyrequest.LoadConfig(configFilenameFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if isFlagSet("db") || config.CacheDB == "" {
		config.CacheDB = dbFilenameFlag
	}
	if timeoutFlag > 0 {
		config.Timeout = timeoutFlag
	}
	if retriesFlag > 0 {
		config.MaxRetries = retriesFlag
	}

	store, err := easyrequest.OpenCache(config.CacheDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not open cache")
	}
	defer store.Close()

	if listFlag {
		keyer := cachekey.NewCacheKeyer(config.Namespace)
		err := store.Keys(func(key string) {
			method, uri, err := keyer.ParseKey(key)
			if err != nil {
				log.Warn().Err(err).Msg("Skipping key")
				return
			}
			fmt.Printf("%s %s\n", method, uri)
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Could not list cache")
		}
		return
	}

	if urlFlag == "" {
		log.Fatal().Msg("Please specify url")
	}
	mode, err := policy.ParseCachingMode(modeFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid mode")
	}

	clientConfig := config.ClientConfig(store)
	clientConfig.Logger = &log.Logger
	client := easyrequest.New(clientConfig)
	defer client.Close()

	builder := client.NewRequest(strings.ToUpper(methodFlag), urlFlag).SetCachingMode(mode)
	if dataFlag != "" {
		builder.SetBodyString(dataFlag)
	}
	for _, header := range headerFlag {
		name, value, _ := strings.Cut(header, ":")
		builder.AddHeader(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	res, err := builder.Do(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Request failed")
		client.Close()
		store.Close()
		os.Exit(1)
	}
	log.Info().Int("status", res.StatusCode).Str("cache", res.CacheStatus.String()).Msgf("%s %s", methodFlag, urlFlag)
	os.Stdout.Write(res.Body)
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
