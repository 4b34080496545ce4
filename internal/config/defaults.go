package config

const (
	defaultLogDir            = "~/.local/share/fetcharr/logs"
	defaultLogLevel          = "info"
	defaultLogFormat         = "console"
	defaultIndexerTimeout    = 30
	defaultOracleTimeout     = 10
	defaultOracleThreshold   = 0.85
	defaultGroupingThreshold = 0.7
	defaultMinimumIndexers   = 2
	defaultDatabasePath      = "~/.local/share/fetcharr/catalog.db"
	defaultFetchCap          = 500
	defaultBatchSize         = 50
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Logging: Logging{
			Dir:    expandHome(defaultLogDir),
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Indexer: Indexer{
			TimeoutSeconds: defaultIndexerTimeout,
			SearchAliases:  true,
		},
		Oracle: Oracle{
			TimeoutSeconds: defaultOracleTimeout,
			MatchThreshold: defaultOracleThreshold,
		},
		Matching: Matching{
			GroupingThreshold: defaultGroupingThreshold,
			MinimumIndexers:   defaultMinimumIndexers,
		},
		Catalog: Catalog{
			DatabasePath: expandHome(defaultDatabasePath),
			FetchCap:     defaultFetchCap,
			BatchSize:    defaultBatchSize,
		},
	}
}
