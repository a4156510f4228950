package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "sealforge/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RSSFeed names one RSS source for the scanner.
type RSSFeed struct {
	URL   string `json:"url" yaml:"url"`
	Label string `json:"label" yaml:"label"`
}

// ScanConfig holds settings for the environment-scan stage.
type ScanConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxYields caps the number of yield pools kept (default 25).
	MaxYields int `json:"max_yields" yaml:"max_yields"`

	// MaxProtocols caps the number of protocols kept (default 20).
	MaxProtocols int `json:"max_protocols" yaml:"max_protocols"`

	// MaxTrending caps the number of trending coins kept (default 10).
	MaxTrending int `json:"max_trending" yaml:"max_trending"`

	// MaxNewsPerFeed caps items kept per RSS feed (default 10).
	MaxNewsPerFeed int `json:"max_news_per_feed" yaml:"max_news_per_feed"`

	// Feeds lists the RSS sources to scan.
	Feeds []RSSFeed `json:"feeds" yaml:"feeds"`
}

// LLMConfig holds settings for the language-model backend.
type LLMConfig struct {
	// APIToken authenticates against the prediction API.
	APIToken string `json:"api_token,omitempty" yaml:"api_token,omitempty"`

	// PrimaryModel is tried first (e.g. "anthropic/claude-4.5-sonnet").
	PrimaryModel string `json:"primary_model" yaml:"primary_model"`

	// SecondaryModel is tried when the primary fails.
	SecondaryModel string `json:"secondary_model" yaml:"secondary_model"`

	// MaxTokens caps the model response length (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// PollInterval is the prediction poll interval (default 2s).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// MaxWait is the overall ceiling for one prediction (default 120s).
	MaxWait time.Duration `json:"max_wait" yaml:"max_wait"`

	// MaxRetries bounds secondary-model attempts (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryBackoff is the fixed wait between rate-limited secondary
	// attempts (default 12s).
	RetryBackoff time.Duration `json:"retry_backoff" yaml:"retry_backoff"`
}

// SelectorConfig holds clamping rules for the signal selector.
type SelectorConfig struct {
	// MinPriceSUI and MaxPriceSUI bound listing prices (defaults 0.1, 2.0).
	MinPriceSUI float64 `json:"min_price_sui" yaml:"min_price_sui"`
	MaxPriceSUI float64 `json:"max_price_sui" yaml:"max_price_sui"`

	// MaxHuntQueries truncates each signal's follow-up list (default 5).
	MaxHuntQueries int `json:"max_hunt_queries" yaml:"max_hunt_queries"`
}

// HuntConfig holds settings for the source-hunting stage.
type HuntConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxSnippetBytes truncates fetched content (default 3000).
	MaxSnippetBytes int `json:"max_snippet_bytes" yaml:"max_snippet_bytes"`
}

// SuiConfig holds ledger connection settings.
type SuiConfig struct {
	HTTPConfig `yaml:",inline"`

	// RPCURL is the full-node JSON-RPC endpoint.
	RPCURL string `json:"rpc_url" yaml:"rpc_url"`

	// GasBudget is the per-transaction gas budget in MIST (default 100000000).
	GasBudget uint64 `json:"gas_budget" yaml:"gas_budget"`
}

// CustodianConfig identifies one threshold-key custodian.
type CustodianConfig struct {
	// ObjectID is the custodian's on-chain object id (0x + 64 hex chars).
	ObjectID string `json:"object_id" yaml:"object_id"`

	// URL is the custodian's key-fetch endpoint base.
	URL string `json:"url" yaml:"url"`

	// PublicKey is the custodian's encryption public key (hex).
	PublicKey string `json:"public_key" yaml:"public_key"`
}

// SealConfig holds threshold-encryption settings.
type SealConfig struct {
	// Threshold is the number of custodian shares required to decrypt (default 2).
	Threshold int `json:"threshold" yaml:"threshold"`

	// Custodians lists the key custodians.
	Custodians []CustodianConfig `json:"custodians" yaml:"custodians"`

	// SessionTTLMin is the credential time-to-live in minutes (default 10).
	SessionTTLMin int `json:"session_ttl_min" yaml:"session_ttl_min"`

	// FetchTimeout bounds each custodian key-fetch call (default 15s).
	FetchTimeout time.Duration `json:"fetch_timeout" yaml:"fetch_timeout"`
}

// WalrusConfig holds content-addressed storage settings.
type WalrusConfig struct {
	// PublisherURL accepts uploads; AggregatorURL serves downloads.
	PublisherURL  string `json:"publisher_url" yaml:"publisher_url"`
	AggregatorURL string `json:"aggregator_url" yaml:"aggregator_url"`

	// Epochs is the retention period requested on upload (default 10).
	Epochs int `json:"epochs" yaml:"epochs"`

	// Timeout bounds each storage call (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// ActivityConfig holds activity-log persistence settings.
type ActivityConfig struct {
	// JSONPath is where the replay log is exported (default
	// "output/agent-activity.json").
	JSONPath string `json:"json_path" yaml:"json_path"`

	// DBPath is the sqlite bookkeeping database (default
	// "output/sealforge.db").
	DBPath string `json:"db_path" yaml:"db_path"`
}

// PipelineConfig groups all stage configurations for the agent.
type PipelineConfig struct {
	Scan     ScanConfig     `json:"scan" yaml:"scan"`
	LLM      LLMConfig      `json:"llm" yaml:"llm"`
	Selector SelectorConfig `json:"selector" yaml:"selector"`
	Hunt     HuntConfig     `json:"hunt" yaml:"hunt"`
	Sui      SuiConfig      `json:"sui" yaml:"sui"`
	Seal     SealConfig     `json:"seal" yaml:"seal"`
	Walrus   WalrusConfig   `json:"walrus" yaml:"walrus"`
	Activity ActivityConfig `json:"activity" yaml:"activity"`

	// AgentName labels generated payloads (default "SealForge Agent v2.0").
	AgentName string `json:"agent_name" yaml:"agent_name"`

	// InterItemDelay is the pause between published listings (default 5s).
	InterItemDelay time.Duration `json:"inter_item_delay" yaml:"inter_item_delay"`
}

// DeployedConfig records the contract addresses a deployment targets. It is
// read from and written to deployed.yaml next to the working directory.
type DeployedConfig struct {
	PackageID     string `json:"package_id" yaml:"package_id"`
	MarketplaceID string `json:"marketplace_id" yaml:"marketplace_id"`
	TreasuryID    string `json:"treasury_id,omitempty" yaml:"treasury_id,omitempty"`
}
