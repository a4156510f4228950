// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/pkg/types"
)

// TVL-feed endpoints. Declared as vars so tests can substitute an httptest server.
var (
	llamaChainsURL    = "https://api.llama.fi/v2/chains"
	llamaYieldsURL    = "https://yields.llama.fi/pools"
	llamaProtocolsURL = "https://api.llama.fi/protocols"
)

// targetChain is the chain whose ecosystem the agent covers.
const targetChain = "Sui"

func getJSON(ctx context.Context, client *http.Client, url, userAgent string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing response from %s: %w", url, err)
	}
	return nil
}

type llamaChain struct {
	Name     string  `json:"name"`
	TVL      float64 `json:"tvl"`
	Change1d float64 `json:"change_1d"`
	Change7d float64 `json:"change_7d"`
}

func fetchChainStats(ctx context.Context, client *http.Client, cfg types.ScanConfig) (*types.ChainStats, error) {
	var chains []llamaChain
	if err := getJSON(ctx, client, llamaChainsURL, cfg.UserAgent, &chains); err != nil {
		return nil, err
	}
	for _, c := range chains {
		if c.Name == targetChain {
			return &types.ChainStats{
				Name:     c.Name,
				TVL:      c.TVL,
				Change1d: c.Change1d,
				Change7d: c.Change7d,
			}, nil
		}
	}
	return nil, fmt.Errorf("chain %q not present in TVL feed", targetChain)
}

type llamaPool struct {
	Project string  `json:"project"`
	Symbol  string  `json:"symbol"`
	APY     float64 `json:"apy"`
	TVLUSD  float64 `json:"tvlUsd"`
	Pool    string  `json:"pool"`
	Chain   string  `json:"chain"`
}

func fetchYieldPools(ctx context.Context, client *http.Client, cfg types.ScanConfig) ([]types.YieldPool, error) {
	var body struct {
		Data []llamaPool `json:"data"`
	}
	if err := getJSON(ctx, client, llamaYieldsURL, cfg.UserAgent, &body); err != nil {
		return nil, err
	}

	var pools []types.YieldPool
	for _, p := range body.Data {
		if p.Chain != targetChain {
			continue
		}
		pools = append(pools, types.YieldPool{
			Project: orDefault(p.Project, "unknown"),
			Symbol:  orDefault(p.Symbol, "???"),
			APY:     p.APY,
			TVLUSD:  p.TVLUSD,
			Pool:    p.Pool,
			Chain:   targetChain,
		})
	}
	sort.Slice(pools, func(i, j int) bool { return pools[i].TVLUSD > pools[j].TVLUSD })

	max := cfg.MaxYields
	if max <= 0 {
		max = 25
	}
	if len(pools) > max {
		pools = pools[:max]
	}
	return pools, nil
}

type llamaProtocol struct {
	Name     string   `json:"name"`
	TVL      float64  `json:"tvl"`
	Change1d float64  `json:"change_1d"`
	Change7d float64  `json:"change_7d"`
	Category string   `json:"category"`
	Chains   []string `json:"chains"`
}

func fetchProtocols(ctx context.Context, client *http.Client, cfg types.ScanConfig) ([]types.Protocol, error) {
	var raw []llamaProtocol
	if err := getJSON(ctx, client, llamaProtocolsURL, cfg.UserAgent, &raw); err != nil {
		return nil, err
	}

	var protos []types.Protocol
	for _, p := range raw {
		if !containsString(p.Chains, targetChain) {
			continue
		}
		protos = append(protos, types.Protocol{
			Name:     p.Name,
			TVL:      p.TVL,
			Change1d: p.Change1d,
			Change7d: p.Change7d,
			Category: orDefault(p.Category, "unknown"),
			Chains:   p.Chains,
		})
	}
	sort.Slice(protos, func(i, j int) bool { return protos[i].TVL > protos[j].TVL })

	max := cfg.MaxProtocols
	if max <= 0 {
		max = 20
	}
	if len(protos) > max {
		protos = protos[:max]
	}
	return protos, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
