package network

import (
	"context"
	"math/big"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEth struct {
	id int64
}

func (f *fakeEth) ChainId() *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(f.id))
}

func fakeNode(t *testing.T, chainID int64) string {
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", &fakeEth{id: chainID}))

	ts := httptest.NewServer(server)
	t.Cleanup(func() {
		ts.Close()
		server.Stop()
	})

	return ts.URL
}

func TestParseChoice(t *testing.T) {
	cases := map[string]string{
		"":                         "ethereum:local:test",
		"ethereum":                 "ethereum:local:test",
		"ethereum:local":           "ethereum:local:test",
		"ethereum:local:node":      "ethereum:local:node",
		"sepolia":                  "ethereum:sepolia",
		"Polygon:Amoy":             "polygon:amoy",
		"ethereum:sepolia:alchemy": "ethereum:sepolia:alchemy",
		":mainnet":                 "ethereum:mainnet",
	}

	for in, want := range cases {
		choice, err := ParseChoice(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, choice.String(), in)
	}

	_, err := ParseChoice("a:b:c:d")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	table := Table(map[string]Config{
		"ethereum:sepolia": {URL: "https://rpc.example"},
		"gnosis:chiado":    {URL: "https://chiado.example", ChainID: 10200, Currency: "xDAI"},
	})

	_, cfg, err := Resolve(table, "ethereum:sepolia:alchemy")
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.example", cfg.URL)
	assert.Equal(t, int64(11155111), cfg.ChainID)
	assert.Equal(t, "SEPOLIA_RPC_URL", cfg.URLEnv)

	choice, cfg, err := Resolve(table, "gnosis:chiado")
	require.NoError(t, err)
	assert.Equal(t, "gnosis:chiado", choice.String())
	assert.Equal(t, "xDAI", cfg.Currency)

	_, cfg, err = Resolve(table, DefaultChoice)
	require.NoError(t, err)
	assert.True(t, cfg.Simulated)

	_, _, err = Resolve(table, "solana:devnet")
	assert.Equal(t, ErrUnknownNetwork, errors.Cause(err))
}

func TestRPCURL(t *testing.T) {
	t.Setenv("TEST_ALCHEMY_KEY", "secret")
	t.Setenv("POLYGON_AMOY_RPC_URL", "https://amoy.example")

	cfg := Config{URL: "https://polygon-amoy.g.alchemy.com/v2/${TEST_ALCHEMY_KEY}"}
	assert.Equal(t, "https://polygon-amoy.g.alchemy.com/v2/secret", cfg.RPCURL())

	assert.Equal(t, "https://amoy.example", Builtins["polygon:amoy"].RPCURL())
}

func TestConnectSimulated(t *testing.T) {
	ctx := context.Background()
	funded := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	p, err := Dial(ctx, Table(nil), DefaultChoice, types.GenesisAlloc{
		funded: {Balance: big.NewInt(5_000_000_000_000_000)},
	})
	require.NoError(t, err)

	assert.Equal(t, "ethereum:local:test", p.Name())
	assert.Equal(t, int64(1337), p.ChainID.Int64())
	assert.Equal(t, "ETH", p.Currency())
	assert.Empty(t, p.ExplorerURL(funded))

	balance, err := p.Backend.BalanceAt(ctx, funded, nil)
	require.NoError(t, err)
	assert.Equal(t, "5000000000000000", balance.String())

	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
}

func TestConnectNode(t *testing.T) {
	ctx := context.Background()
	url := fakeNode(t, 80002)

	choice, _ := ParseChoice("polygon:amoy")
	p, err := Connect(ctx, choice, Merge(Builtins["polygon:amoy"], Config{URL: url}), nil)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, int64(80002), p.ChainID.Int64())
	assert.Equal(t, "POL", p.Currency())
	addr := common.HexToAddress("0xbb")
	assert.Equal(t, "https://amoy.polygonscan.com/address/"+addr.Hex(), p.ExplorerURL(addr))
}

func TestConnectChainIDMismatch(t *testing.T) {
	url := fakeNode(t, 1)

	choice, _ := ParseChoice("polygon:mainnet")
	_, err := Connect(context.Background(), choice, Config{URL: url, ChainID: 137}, nil)
	assert.EqualError(t, err, "network polygon:mainnet: node reports chainID = 1, expected 137")
}

func TestConnectFailures(t *testing.T) {
	ctx := context.Background()

	choice, _ := ParseChoice("ethereum:mainnet")
	_, err := Connect(ctx, choice, Config{URLEnv: "TEST_UNSET_RPC_URL"}, nil)
	assert.EqualError(t, err, "network ethereum:mainnet has no rpc url (set TEST_UNSET_RPC_URL)")

	choice, _ = ParseChoice("ethereum:local:node")
	_, err = Connect(ctx, choice, Config{URL: "http://127.0.0.1:1"}, nil)
	assert.Error(t, err)
}
