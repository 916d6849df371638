package accounts

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const envKey = "0x8b3a350cf5c34c9194ca85829a2df0ec3153be0318b5e2d3348e872092edffba"

// newKeystore writes one light-scrypt key file named <alias>.json into a temp dir.
func newKeystore(t *testing.T, alias, password string) (string, common.Address) {
	dir := t.TempDir()
	ks := keystore.NewKeyStore(dir, keystore.LightScryptN, keystore.LightScryptP)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	acc, err := ks.ImportECDSA(key, password)
	require.NoError(t, err)

	require.NoError(t, os.Rename(acc.URL.Path, filepath.Join(dir, alias+".json")))

	return dir, acc.Address
}

func TestResolveByIndex(t *testing.T) {
	c, err := Load(Options{Local: true, PrivateKey: envKey})
	require.NoError(t, err)
	require.Equal(t, len(testKeys)+1, c.Len())

	for i := 0; i < c.Len(); i++ {
		direct, err := c.At(i)
		require.NoError(t, err)

		resolved, err := c.Resolve(big.NewInt(int64(i)).String())
		require.NoError(t, err)
		assert.Same(t, direct, resolved)
	}

	first, _ := c.Resolve("0")
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", first.Address.Hex())
	assert.Equal(t, KindTest, first.Kind)

	last, _ := c.Resolve("5")
	assert.Equal(t, "env", last.Alias)

	_, err = c.Resolve("6")
	assert.Equal(t, ErrIndexOutOfRange, errors.Cause(err))

	_, err = c.Resolve("99999999999999999999999")
	assert.Equal(t, ErrIndexOutOfRange, errors.Cause(err))
}

func TestResolveByAlias(t *testing.T) {
	c, err := Load(Options{Local: true, PrivateKey: envKey})
	require.NoError(t, err)

	acc, err := c.Resolve("test2")
	require.NoError(t, err)
	assert.Equal(t, "test2", acc.Alias)

	_, err = c.Resolve("TEST2")
	assert.Equal(t, ErrUnknownAlias, errors.Cause(err))
	assert.Contains(t, err.Error(), "did you mean")

	acc, err = c.Resolve("env")
	require.NoError(t, err)
	assert.Equal(t, KindEnv, acc.Kind)

	for _, selector := range []string{"deployer", "-1", "1.0", "０"} {
		_, err = c.Resolve(selector)
		assert.Equal(t, ErrUnknownAlias, errors.Cause(err), selector)
	}

	_, err = c.Resolve("")
	assert.Equal(t, ErrInvalidSelection, errors.Cause(err))
}

func TestSuggest(t *testing.T) {
	c := New(TestAccounts()...)

	_, err := c.Load("tst1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean test1")

	assert.Len(t, c.Suggest("t"), 3)
	assert.Empty(t, c.Suggest("zzz"))
	assert.Empty(t, c.Suggest(""))
}

func TestEmptyContainer(t *testing.T) {
	c, err := Load(Options{})
	require.NoError(t, err)

	_, err = c.Resolve("0")
	assert.Equal(t, ErrNoAccounts, errors.Cause(err))
}

func TestKeystoreAccounts(t *testing.T) {
	dir, addr := newKeystore(t, "deployer", "secret")

	c, err := Load(Options{KeystoreDir: dir})
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	acc, err := c.Resolve("deployer")
	require.NoError(t, err)
	assert.Equal(t, addr, acc.Address)
	assert.True(t, acc.NeedsPassword())

	_, err = acc.Transactor(big.NewInt(1337))
	assert.Equal(t, ErrLocked, errors.Cause(err))

	assert.Error(t, acc.Unlock("wrong"))
	require.NoError(t, acc.Unlock("secret"))
	assert.False(t, acc.NeedsPassword())

	auth, err := acc.Transactor(big.NewInt(1337))
	require.NoError(t, err)
	assert.Equal(t, addr, auth.From)
}

func TestKeystoreAliasOverride(t *testing.T) {
	dir, addr := newKeystore(t, "UTC--key", "secret")

	c, err := Load(Options{Local: true, KeystoreDir: dir, Aliases: map[string]string{"ops": addr.Hex()}})
	require.NoError(t, err)

	acc, err := c.Resolve("ops")
	require.NoError(t, err)
	assert.Equal(t, addr, acc.Address)

	// keystore accounts follow the development accounts
	idx, err := c.Resolve("5")
	require.NoError(t, err)
	assert.Same(t, acc, idx)

	_, err = Load(Options{KeystoreDir: dir, Aliases: map[string]string{"bad": "0x12"}})
	assert.Error(t, err)
}

func TestGenesisAlloc(t *testing.T) {
	c := New(TestAccounts()...)
	alloc := c.GenesisAlloc(big.NewInt(7))

	require.Len(t, alloc, len(testKeys))
	for _, addr := range c.Addresses() {
		assert.Equal(t, int64(7), alloc[addr].Balance.Int64())
	}
}

func TestInvalidPrivateKey(t *testing.T) {
	_, err := Load(Options{PrivateKey: "0xnothex"})
	assert.Error(t, err)
}
