package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/agent"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/llm"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/seal"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/secrets"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/sui"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/walrus"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/pkg/types"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultUserAgent   = "sealforge/0.1"
	defaultGasBudget   = 100_000_000
)

// loadConfig reads the pipeline configuration from the resolved config file
// and fills defaults for anything the file leaves out.
func loadConfig() (types.PipelineConfig, error) {
	var cfg types.PipelineConfig

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *types.PipelineConfig) {
	if cfg.Scan.Timeout == 0 {
		cfg.Scan.Timeout = defaultHTTPTimeout
	}
	if cfg.Scan.UserAgent == "" {
		cfg.Scan.UserAgent = defaultUserAgent
	}
	if cfg.Hunt.Timeout == 0 {
		cfg.Hunt.Timeout = defaultHTTPTimeout
	}
	if cfg.Hunt.UserAgent == "" {
		cfg.Hunt.UserAgent = defaultUserAgent
	}
	if cfg.LLM.APIToken == "" {
		cfg.LLM.APIToken = secrets.Get(loadedSecrets, secrets.KeyReplicateAPIToken)
	}
	if cfg.LLM.PrimaryModel == "" {
		cfg.LLM.PrimaryModel = "anthropic/claude-4.5-sonnet"
	}
	if cfg.LLM.SecondaryModel == "" {
		cfg.LLM.SecondaryModel = "deepseek-ai/deepseek-v3.1"
	}
	if cfg.Sui.GasBudget == 0 {
		cfg.Sui.GasBudget = defaultGasBudget
	}
	if cfg.Sui.RPCURL == "" {
		cfg.Sui.RPCURL = "https://fullnode.testnet.sui.io:443"
	}
	if cfg.Seal.Threshold == 0 {
		cfg.Seal.Threshold = 2
	}
	if cfg.Seal.SessionTTLMin == 0 {
		cfg.Seal.SessionTTLMin = 10
	}
	if cfg.Walrus.Epochs == 0 {
		cfg.Walrus.Epochs = 10
	}
	if cfg.Activity.JSONPath == "" {
		cfg.Activity.JSONPath = "output/agent-activity.json"
	}
	if cfg.Activity.DBPath == "" {
		cfg.Activity.DBPath = "output/sealforge.db"
	}
	if cfg.AgentName == "" {
		cfg.AgentName = "SealForge Agent v2.0"
	}
	if cfg.InterItemDelay == 0 {
		cfg.InterItemDelay = 5 * time.Second
	}
}

// loadDeployed reads the contract addresses the CLI targets.
func loadDeployed(cmd *cobra.Command) (types.DeployedConfig, error) {
	var deployed types.DeployedConfig

	path, _ := cmd.Flags().GetString("deployed")
	data, err := os.ReadFile(path)
	if err != nil {
		return deployed, fmt.Errorf("reading %s (deploy the marketplace first): %w", path, err)
	}
	if err := yaml.Unmarshal(data, &deployed); err != nil {
		return deployed, fmt.Errorf("parsing %s: %w", path, err)
	}
	if deployed.PackageID == "" || deployed.MarketplaceID == "" {
		return deployed, fmt.Errorf("%s must name package_id and marketplace_id", path)
	}
	return deployed, nil
}

// newSigner builds the transaction signer from the configured private key.
func newSigner() (*sui.Signer, error) {
	key := secrets.Get(loadedSecrets, secrets.KeySuiPrivateKey)
	if key == "" {
		return nil, fmt.Errorf("no Sui private key: set SUI_PRIVATE_KEY or .secrets/%s", secrets.KeySuiPrivateKey)
	}
	return sui.LoadSigner(key)
}

func newLedger(cfg types.PipelineConfig, deployed types.DeployedConfig, signer *sui.Signer) *sui.Client {
	timeout := cfg.Sui.Timeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}
	return &sui.Client{
		RPCURL:        cfg.Sui.RPCURL,
		HTTP:          &http.Client{Timeout: timeout},
		Signer:        signer,
		PackageID:     deployed.PackageID,
		MarketplaceID: deployed.MarketplaceID,
		GasBudget:     cfg.Sui.GasBudget,
	}
}

func newBlobStore(cfg types.PipelineConfig) (*walrus.Client, error) {
	if cfg.Walrus.PublisherURL == "" && cfg.Walrus.AggregatorURL == "" {
		return nil, fmt.Errorf("no Walrus gateways configured")
	}
	return &walrus.Client{
		PublisherURL:  cfg.Walrus.PublisherURL,
		AggregatorURL: cfg.Walrus.AggregatorURL,
		HTTP:          &http.Client{},
		Epochs:        cfg.Walrus.Epochs,
		Timeout:       cfg.Walrus.Timeout,
	}, nil
}

func newLLM(cfg types.PipelineConfig) (*llm.Client, error) {
	if cfg.LLM.APIToken == "" {
		return nil, fmt.Errorf("no Replicate token: set REPLICATE_API_TOKEN or .secrets/%s", secrets.KeyReplicateAPIToken)
	}
	return llm.New(cfg.LLM, &http.Client{}, os.Stdout), nil
}

func newDecryptor(cfg types.PipelineConfig) *seal.Decryptor {
	endpoints := make([]seal.Endpoint, 0, len(cfg.Seal.Custodians))
	for _, c := range cfg.Seal.Custodians {
		endpoints = append(endpoints, seal.Endpoint{ObjectID: c.ObjectID, URL: c.URL})
	}
	return &seal.Decryptor{
		HTTP:      &http.Client{},
		Endpoints: endpoints,
		Timeout:   cfg.Seal.FetchTimeout,
	}
}

func newEncryptor(cfg types.PipelineConfig, deployed types.DeployedConfig) (*seal.Encryptor, error) {
	return agent.NewEncryptor(deployed.PackageID, cfg.Seal)
}
