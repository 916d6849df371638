package accounts

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	ethaccounts "github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
)

var (
	ErrNoAccounts       = errors.New("no accounts configured")
	ErrIndexOutOfRange  = errors.New("account index out of range")
	ErrUnknownAlias     = errors.New("unknown account alias")
	ErrLocked           = errors.New("account is locked")
	ErrInvalidSelection = errors.New("invalid account selector")
)

// Well-known development keys, the same set local dev nodes pre-fund.
var testKeys = []string{
	"ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	"59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
	"5de4111afa1a4b94908f83103eb1d1706367c2e68ca870fc3fb9a804cdab365a",
	"7c852118294e51e653712a81e05800f419141751be58f605c371e15141b007a6",
	"47e179ec197488593b187f80a00eb0da91f1b9d0b13f8733639f19c30a34926a",
}

// Kind tells where an account's key lives.
type Kind string

const (
	KindTest     Kind = "test"
	KindKeystore Kind = "keystore"
	KindEnv      Kind = "env"
)

// Account is a signing identity.
type Account struct {
	Alias   string
	Address common.Address
	Kind    Kind

	key      *ecdsa.PrivateKey
	ks       *keystore.KeyStore
	unlocked bool
}

func (a *Account) String() string {
	return fmt.Sprintf("%s (%s)", a.Address.Hex(), a.Alias)
}

// NeedsPassword reports whether Unlock must run before Transactor.
func (a *Account) NeedsPassword() bool {
	return a.Kind == KindKeystore && !a.unlocked
}

func (a *Account) Unlock(password string) error {
	if a.ks == nil {
		return nil
	}

	if err := a.ks.Unlock(ethaccounts.Account{Address: a.Address}, password); err != nil {
		return errors.Wrapf(err, "unlock %v", a.Alias)
	}
	a.unlocked = true

	return nil
}

// Transactor returns signing options bound to chainID.
func (a *Account) Transactor(chainID *big.Int) (*bind.TransactOpts, error) {
	switch {
	case a.key != nil:
		return bind.NewKeyedTransactorWithChainID(a.key, chainID)
	case a.ks != nil:
		if !a.unlocked {
			return nil, errors.Wrapf(ErrLocked, "account=%v", a.Alias)
		}
		return bind.NewKeyStoreTransactorWithChainID(a.ks, ethaccounts.Account{Address: a.Address}, chainID)
	default:
		return nil, errors.Errorf("account=%v has no signer", a.Alias)
	}
}

// NewKeyAccount builds an account around a raw secp256k1 key in hex.
func NewKeyAccount(alias string, kind Kind, hexKey string) (*Account, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, errors.Wrapf(err, "parse private key for %v", alias)
	}

	return &Account{
		Alias:   alias,
		Address: crypto.PubkeyToAddress(key.PublicKey),
		Kind:    kind,
		key:     key,
	}, nil
}

// TestAccounts returns the development accounts, aliased test0, test1, ...
func TestAccounts() []*Account {
	out := make([]*Account, 0, len(testKeys))
	for i, k := range testKeys {
		acc, err := NewKeyAccount(fmt.Sprintf("test%d", i), KindTest, k)
		if err != nil {
			panic(err)
		}
		out = append(out, acc)
	}
	return out
}

// KeystoreAccounts opens every key file in dir. The alias of an account is
// its entry in aliases (alias -> address) or, failing that, its file name
// without the .json extension.
func KeystoreAccounts(dir string, aliases map[string]string) ([]*Account, error) {
	ks := keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)

	byAddress := make(map[common.Address]string, len(aliases))
	for alias, addr := range aliases {
		if !common.IsHexAddress(addr) {
			return nil, errors.Errorf("alias %v: invalid address %q", alias, addr)
		}
		byAddress[common.HexToAddress(addr)] = alias
	}

	var out []*Account
	for _, acc := range ks.Accounts() {
		alias, ok := byAddress[acc.Address]
		if !ok {
			alias = strings.TrimSuffix(filepath.Base(acc.URL.Path), ".json")
		}
		out = append(out, &Account{
			Alias:   alias,
			Address: acc.Address,
			Kind:    KindKeystore,
			ks:      ks,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })

	return out, nil
}

// Options select the account sources of a Container.
type Options struct {
	Local       bool // include the development accounts
	KeystoreDir string
	Aliases     map[string]string
	PrivateKey  string
}

// Container is an ordered set of accounts: development accounts first on
// local networks, then keystore accounts by alias, then the env key.
type Container struct {
	accounts []*Account
}

func New(accs ...*Account) *Container {
	return &Container{accounts: accs}
}

func Load(opts Options) (*Container, error) {
	c := new(Container)

	if opts.Local {
		c.accounts = append(c.accounts, TestAccounts()...)
	}

	if opts.KeystoreDir != "" {
		accs, err := KeystoreAccounts(opts.KeystoreDir, opts.Aliases)
		if err != nil {
			return nil, err
		}
		c.accounts = append(c.accounts, accs...)
	}

	if opts.PrivateKey != "" {
		acc, err := NewKeyAccount("env", KindEnv, opts.PrivateKey)
		if err != nil {
			return nil, err
		}
		c.accounts = append(c.accounts, acc)
	}

	return c, nil
}

func (c *Container) Len() int {
	return len(c.accounts)
}

func (c *Container) All() []*Account {
	return c.accounts
}

func (c *Container) At(i int) (*Account, error) {
	if len(c.accounts) == 0 {
		return nil, ErrNoAccounts
	}
	if i < 0 || i >= len(c.accounts) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "index=%d, have %d", i, len(c.accounts))
	}
	return c.accounts[i], nil
}

// Load finds an account by its exact alias.
func (c *Container) Load(alias string) (*Account, error) {
	for _, acc := range c.accounts {
		if acc.Alias == alias {
			return acc, nil
		}
	}

	if suggestions := c.Suggest(alias); len(suggestions) > 0 {
		return nil, errors.Wrapf(ErrUnknownAlias, "%q (did you mean %v?)", alias, strings.Join(suggestions, ", "))
	}
	return nil, errors.Wrapf(ErrUnknownAlias, "%q", alias)
}

// Resolve treats an all-digit selector as an index and anything else as an alias.
func (c *Container) Resolve(selector string) (*Account, error) {
	if isDigits(selector) {
		i, err := strconv.Atoi(selector)
		if err != nil {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "index=%v", selector)
		}
		return c.At(i)
	}

	if selector == "" {
		return nil, errors.Wrap(ErrInvalidSelection, "empty selector")
	}

	return c.Load(selector)
}

func (c *Container) Aliases() []string {
	return lo.Map(c.accounts, func(a *Account, _ int) string { return a.Alias })
}

func (c *Container) Addresses() []common.Address {
	return lo.Map(c.accounts, func(a *Account, _ int) common.Address { return a.Address })
}

// Suggest returns up to three aliases close to alias.
func (c *Container) Suggest(alias string) []string {
	if alias == "" {
		return nil
	}

	matches := fuzzy.Find(alias, c.Aliases())
	return lo.Map(lo.Slice(matches, 0, 3), func(m fuzzy.Match, _ int) string { return m.Str })
}

// GenesisAlloc funds every account with balance, for in-process chains.
func (c *Container) GenesisAlloc(balance *big.Int) types.GenesisAlloc {
	alloc := make(types.GenesisAlloc, len(c.accounts))
	for _, addr := range c.Addresses() {
		alloc[addr] = types.Account{Balance: new(big.Int).Set(balance)}
	}
	return alloc
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
