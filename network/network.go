package network

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/icodezjb/canarydossier/contract"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/pkg/errors"
)

const (
	DefaultEcosystem = "ethereum"
	DefaultNetwork   = "local"
	DefaultChoice    = "ethereum:local:test"
)

var ErrUnknownNetwork = errors.New("unknown network")

// Config describes how to reach one network.
type Config struct {
	URL       string `mapstructure:"url"`
	URLEnv    string `mapstructure:"url_env"`
	ChainID   int64  `mapstructure:"chain_id"`
	Currency  string `mapstructure:"currency"`
	Explorer  string `mapstructure:"explorer"`
	Local     bool   `mapstructure:"local"`
	Simulated bool   `mapstructure:"simulated"`
}

// Builtins are the networks known without any configuration.
var Builtins = map[string]Config{
	"ethereum:local:test": {ChainID: 1337, Currency: "ETH", Local: true, Simulated: true},
	"ethereum:local:node": {URL: "http://127.0.0.1:8545", ChainID: 31337, Currency: "ETH", Local: true},
	"ethereum:sepolia": {
		URLEnv: "SEPOLIA_RPC_URL", ChainID: 11155111, Currency: "ETH",
		Explorer: "https://sepolia.etherscan.io",
	},
	"ethereum:mainnet": {
		URLEnv: "MAINNET_RPC_URL", ChainID: 1, Currency: "ETH",
		Explorer: "https://etherscan.io",
	},
	"polygon:amoy": {
		URLEnv: "POLYGON_AMOY_RPC_URL", ChainID: 80002, Currency: "POL",
		Explorer: "https://amoy.polygonscan.com",
	},
	"polygon:mainnet": {
		URLEnv: "POLYGON_RPC_URL", ChainID: 137, Currency: "POL",
		Explorer: "https://polygonscan.com",
	},
	"status:sepolia": {
		URL: "https://public.sepolia.rpc.status.network", ChainID: 1660990954, Currency: "ETH",
		Explorer: "https://sepoliascan.status.network",
	},
}

// Merge overlays the non-zero fields of override on base.
func Merge(base, override Config) Config {
	out := base
	if override.URL != "" {
		out.URL = override.URL
	}
	if override.URLEnv != "" {
		out.URLEnv = override.URLEnv
	}
	if override.ChainID != 0 {
		out.ChainID = override.ChainID
	}
	if override.Currency != "" {
		out.Currency = override.Currency
	}
	if override.Explorer != "" {
		out.Explorer = override.Explorer
	}
	out.Local = out.Local || override.Local
	out.Simulated = out.Simulated || override.Simulated
	return out
}

// Table returns the builtins with the given overrides applied.
func Table(overrides map[string]Config) map[string]Config {
	table := make(map[string]Config, len(Builtins)+len(overrides))
	for name, cfg := range Builtins {
		table[name] = cfg
	}
	for name, cfg := range overrides {
		name = strings.ToLower(name)
		table[name] = Merge(table[name], cfg)
	}
	return table
}

// Choice is a parsed "ecosystem:network[:provider]" selector.
type Choice struct {
	Ecosystem string
	Network   string
	Provider  string
}

func (c Choice) String() string {
	if c.Provider == "" {
		return c.Ecosystem + ":" + c.Network
	}
	return c.Ecosystem + ":" + c.Network + ":" + c.Provider
}

// ParseChoice fills in the parts a selector leaves out: "" and "ethereum"
// both mean ethereum:local:test, "sepolia" means ethereum:sepolia.
func ParseChoice(s string) (Choice, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return Choice{}, errors.Errorf("invalid network choice %q", s)
	}

	c := Choice{Ecosystem: DefaultEcosystem, Network: DefaultNetwork}
	switch len(parts) {
	case 1:
		if parts[0] != "" && parts[0] != DefaultEcosystem {
			c.Network = parts[0]
		}
	case 2:
		c.Ecosystem, c.Network = parts[0], parts[1]
	case 3:
		c.Ecosystem, c.Network, c.Provider = parts[0], parts[1], parts[2]
	}

	if c.Ecosystem == "" {
		c.Ecosystem = DefaultEcosystem
	}
	if c.Network == "" {
		c.Network = DefaultNetwork
	}
	if c.Network == DefaultNetwork && c.Provider == "" {
		c.Provider = "test"
	}

	return c, nil
}

// Resolve looks up a selector in table, first with its provider, then without.
func Resolve(table map[string]Config, name string) (Choice, Config, error) {
	choice, err := ParseChoice(name)
	if err != nil {
		return Choice{}, Config{}, err
	}

	if cfg, ok := table[choice.String()]; ok {
		return choice, cfg, nil
	}

	bare := Choice{Ecosystem: choice.Ecosystem, Network: choice.Network}
	if cfg, ok := table[bare.String()]; ok {
		return choice, cfg, nil
	}

	known := make([]string, 0, len(table))
	for k := range table {
		known = append(known, k)
	}
	sort.Strings(known)

	return Choice{}, Config{}, errors.Wrapf(ErrUnknownNetwork, "%v (known: %v)", name, strings.Join(known, ", "))
}

// RPCURL expands ${VAR} references and falls back to URLEnv.
func (c Config) RPCURL() string {
	url := os.ExpandEnv(c.URL)
	if url == "" && c.URLEnv != "" {
		url = os.Getenv(c.URLEnv)
	}
	return url
}

// Backend is everything the deploy flow asks of a connected node.
type Backend interface {
	contract.Backend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Provider is a live connection. Close it when done; Close is idempotent.
type Provider struct {
	Choice  Choice
	Config  Config
	ChainID *big.Int
	Backend Backend

	once   sync.Once
	closer func() error
	err    error
}

// NewProvider wraps an already connected backend.
func NewProvider(choice Choice, cfg Config, chainID *big.Int, backend Backend, closer func() error) *Provider {
	return &Provider{Choice: choice, Config: cfg, ChainID: chainID, Backend: backend, closer: closer}
}

func (p *Provider) Name() string {
	return p.Choice.String()
}

func (p *Provider) Currency() string {
	if p.Config.Currency == "" {
		return "ETH"
	}
	return p.Config.Currency
}

// ExplorerURL links to address on the network's block explorer, if it has one.
func (p *Provider) ExplorerURL(address common.Address) string {
	if p.Config.Explorer == "" {
		return ""
	}
	return fmt.Sprintf("%s/address/%s", strings.TrimSuffix(p.Config.Explorer, "/"), address.Hex())
}

func (p *Provider) Close() error {
	p.once.Do(func() {
		if p.closer != nil {
			p.err = p.closer()
		}
	})
	return p.err
}

// Connect opens the network described by cfg. Simulated networks start an
// in-process chain where alloc is the genesis state and every transaction is
// mined as soon as it is sent.
func Connect(ctx context.Context, choice Choice, cfg Config, alloc types.GenesisAlloc) (*Provider, error) {
	if cfg.Simulated {
		sim := simulated.NewBackend(alloc)
		backend := &autoMine{Client: sim.Client(), sim: sim}

		chainID, err := backend.ChainID(ctx)
		if err != nil {
			sim.Close()
			return nil, errors.Wrap(err, "get simulated chain id")
		}

		return NewProvider(choice, cfg, chainID, backend, sim.Close), nil
	}

	url := cfg.RPCURL()
	if url == "" {
		if cfg.URLEnv != "" {
			return nil, errors.Errorf("network %v has no rpc url (set %v)", choice, cfg.URLEnv)
		}
		return nil, errors.Errorf("network %v has no rpc url", choice)
	}

	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "connect %v", choice)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "connect %v: get chain id", choice)
	}

	if cfg.ChainID != 0 && chainID.Cmp(big.NewInt(cfg.ChainID)) != 0 {
		client.Close()
		return nil, errors.Errorf("network %v: node reports chainID = %v, expected %v", choice, chainID, cfg.ChainID)
	}

	return NewProvider(choice, cfg, chainID, client, func() error {
		client.Close()
		return nil
	}), nil
}

// Dial resolves name in table and connects to it.
func Dial(ctx context.Context, table map[string]Config, name string, alloc types.GenesisAlloc) (*Provider, error) {
	choice, cfg, err := Resolve(table, name)
	if err != nil {
		return nil, err
	}
	return Connect(ctx, choice, cfg, alloc)
}

type autoMine struct {
	simulated.Client
	sim *simulated.Backend
}

func (a *autoMine) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := a.Client.SendTransaction(ctx, tx); err != nil {
		return err
	}
	a.sim.Commit()
	return nil
}
