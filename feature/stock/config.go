package stock

// Config holds configuration for the stock reconciliation feature.
type Config struct {
	// API configures the marketplace stock API source.
	API APIConfig `mapstructure:"api"`
	// Report configures the UI-export report source.
	Report ReportConfig `mapstructure:"report"`
	// Workers bounds the comparison/persistence worker pool.
	Workers int `mapstructure:"workers" default:"8"`
}

// APIConfig holds connection settings for the marketplace stock API.
type APIConfig struct {
	// BaseURL is the root URL of the marketplace API.
	BaseURL string `mapstructure:"base_url" default:"http://localhost:8081"`
	// APIKey authenticates against the marketplace API.
	APIKey string `mapstructure:"api_key" default:""`
	// PageSize is the number of stock rows requested per page.
	PageSize int `mapstructure:"page_size" default:"500"`
}

// ReportConfig holds settings for locating UI-exported report files.
type ReportConfig struct {
	// Prefix is the object key prefix under which report files are uploaded.
	Prefix string `mapstructure:"prefix" default:"reports/"`
	// QuarantinePrefix is where malformed report files are moved.
	QuarantinePrefix string `mapstructure:"quarantine_prefix" default:"quarantine/"`
}
