// Copyright 2019 icodezjb
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"context"
	"io"
	"math/big"
	"os"
	"time"

	"github.com/icodezjb/canarydossier/accounts"
	"github.com/icodezjb/canarydossier/contract"
	"github.com/icodezjb/canarydossier/contract/helper"
	"github.com/icodezjb/canarydossier/logger"
	"github.com/icodezjb/canarydossier/network"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// ErrAborted ends a deployment without deploying and without failing.
var ErrAborted = errors.New("deployment aborted")

// MinDeployBalance is 0.01 whole units; below it the interactive deploy
// asks before going on.
var MinDeployBalance = helper.MustEtherToWei("0.01")

// LowBalance reports whether balance (in wei) is under MinDeployBalance.
func LowBalance(balance *big.Int) bool {
	return balance.Cmp(MinDeployBalance) < 0
}

type DialFunc func(ctx context.Context, table map[string]network.Config, name string, alloc types.GenesisAlloc) (*network.Provider, error)

type Handler struct {
	Config *Config
	Out    io.Writer

	Confirm  func(label string) (bool, error)
	Password func(alias string) (string, error)
	Dial     DialFunc
	Now      func() time.Time
}

func NewHandler(cfg *Config) *Handler {
	h := &Handler{
		Config:   cfg,
		Out:      os.Stdout,
		Confirm:  promptConfirm,
		Password: promptPassword,
		Dial:     network.Dial,
		Now:      time.Now,
	}

	if cfg.AssumeYes {
		h.Confirm = func(string) (bool, error) {
			logger.Info("Your chose: y (--yes)")
			return true, nil
		}
	}

	return h
}

// Session is an open network connection plus the accounts usable on it.
type Session struct {
	Provider *network.Provider
	Accounts *accounts.Container
}

func (s *Session) Close() error {
	return s.Provider.Close()
}

// Connect opens the named network. The caller must Close the session.
func (h *Handler) Connect(ctx context.Context, name string) (*Session, error) {
	table := h.Config.NetworkTable()

	_, netCfg, err := network.Resolve(table, name)
	if err != nil {
		return nil, err
	}

	container, err := accounts.Load(accounts.Options{
		Local:       netCfg.Local,
		KeystoreDir: h.Config.Keystore,
		Aliases:     h.Config.Aliases,
		PrivateKey:  h.Config.PrivateKey,
	})
	if err != nil {
		return nil, err
	}

	var alloc types.GenesisAlloc
	if netCfg.Simulated {
		balance, err := helper.EtherToWei(h.Config.TestBalance)
		if err != nil {
			return nil, errors.Wrap(err, "test_balance")
		}
		alloc = container.GenesisAlloc(balance)
	}

	provider, err := h.Dial(ctx, table, name, alloc)
	if err != nil {
		return nil, err
	}

	return &Session{Provider: provider, Accounts: container}, nil
}

func (h *Handler) transactor(ctx context.Context, s *Session, acc *accounts.Account) (*bind.TransactOpts, error) {
	if acc.NeedsPassword() {
		password := h.Config.Password
		if password == "" {
			var err error
			if password, err = h.Password(acc.Alias); err != nil {
				return nil, err
			}
		}
		if err := acc.Unlock(password); err != nil {
			return nil, err
		}
	}

	auth, err := acc.Transactor(s.Provider.ChainID)
	if err != nil {
		return nil, errors.Wrapf(err, "make transactor %v", acc.Alias)
	}

	auth.Context = ctx
	auth.GasLimit = h.Config.GasLimit

	return auth, nil
}

// DeployFrom deploys the contract artifact with acc as sender and waits for
// the receipt, bounded by the configured timeout.
func (h *Handler) DeployFrom(ctx context.Context, s *Session, acc *accounts.Account) (*contract.Dossier, error) {
	artifact, err := contract.LoadArtifact(h.Config.Artifact)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, h.Config.Timeout)
	defer cancel()

	auth, err := h.transactor(ctx, s, acc)
	if err != nil {
		return nil, err
	}

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	sp.Suffix = " waiting for the deploy transaction to be mined"
	sp.Start()
	defer sp.Stop()

	return contract.Deploy(ctx, auth, s.Provider.Backend, artifact)
}

func (h *Handler) balance(ctx context.Context, s *Session, acc *accounts.Account) (*big.Int, error) {
	balance, err := s.Provider.Backend.BalanceAt(ctx, acc.Address, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "account=%v get balance", acc.Address.Hex())
	}

	logger.Info("balance = %v %v", helper.FormatEther(balance), s.Provider.Currency())

	return balance, nil
}

// DeployDefault deploys from account 0 on the default local network and
// prints the timing constants. The returned session keeps the contract
// reachable; the caller must Close it.
func (h *Handler) DeployDefault(ctx context.Context) (*contract.Dossier, *Session, error) {
	logger.Info("Deploy %v contract...", contract.Name)

	s, err := h.Connect(ctx, network.DefaultChoice)
	if err != nil {
		return nil, nil, err
	}

	dossier, err := h.deployDefault(ctx, s)
	if err != nil {
		s.Close() //nolint:errcheck
		return nil, nil, err
	}

	return dossier, s, nil
}

func (h *Handler) deployDefault(ctx context.Context, s *Session) (*contract.Dossier, error) {
	acc, err := s.Accounts.At(0)
	if err != nil {
		return nil, err
	}

	logger.Info("from = %v", acc)

	if _, err := h.balance(ctx, s, acc); err != nil {
		return nil, err
	}

	dossier, err := h.DeployFrom(ctx, s, acc)
	if err != nil {
		return nil, err
	}

	logger.Event("contract address = %v", dossier.Address.Hex())
	logger.Event("transaction hash = %v", dossier.TxHash.Hex())

	logger.Info("Verify deployment...")
	settings, err := dossier.Settings(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, err
	}
	renderSettings(h.Out, settings, true)

	logger.Success("deployment completed")

	return dossier, nil
}

// DeployInteractive runs the full interactive flow against networkName with
// the account picked by selector (an index or an alias). Declining the
// low-balance prompt or naming an unknown account returns ErrAborted; an
// interrupted prompt is an error.
func (h *Handler) DeployInteractive(ctx context.Context, networkName, selector string) (*contract.Dossier, error) {
	logger.Info("selected network: %v", networkName)

	s, err := h.Connect(ctx, networkName)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	p := s.Provider
	logger.Info("connected to %v (chainID = %v)", p.Name(), p.ChainID)

	acc, err := s.Accounts.Resolve(selector)
	if err != nil {
		logger.Error("Fatal to load account '%v': %v", selector, err)
		renderAccounts(h.Out, s.Accounts)
		return nil, errors.Wrapf(ErrAborted, "account %q", selector)
	}

	logger.Info("from = %v", acc)

	balance, err := h.balance(ctx, s, acc)
	if err != nil {
		return nil, err
	}

	if LowBalance(balance) {
		logger.Warn("low balance for deployment (below %v %v)", helper.FormatEther(MinDeployBalance), p.Currency())
		ok, err := h.Confirm("Continue anyway")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Wrap(ErrAborted, "low balance")
		}
	}

	logger.Info("Deploy %v contract...", contract.Name)

	dossier, err := h.deployAndReport(ctx, s, acc, networkName)
	if err != nil {
		logger.Error("deployment failed: %v", err)
		return nil, err
	}

	return dossier, nil
}

func (h *Handler) deployAndReport(ctx context.Context, s *Session, acc *accounts.Account, networkName string) (*contract.Dossier, error) {
	p := s.Provider

	dossier, err := h.DeployFrom(ctx, s, acc)
	if err != nil {
		return nil, err
	}

	logger.Success("deployment successful")
	logger.Event("contract address = %v", dossier.Address.Hex())
	logger.Event("transaction hash = %v", dossier.TxHash.Hex())
	logger.Info("block number = %v, gas used = %v", dossier.BlockNumber, dossier.GasUsed)

	explorer := p.ExplorerURL(dossier.Address)
	if explorer != "" {
		logger.Info("explorer = %v", explorer)
	}

	settings, err := dossier.Settings(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, err
	}
	renderSettings(h.Out, settings, false)

	if err := WriteAddressFile(h.Config.Output, networkName, dossier.Address.Hex(), dossier.TxHash.Hex()); err != nil {
		return nil, err
	}
	logger.Info("contract address saved to %v", h.Config.Output)

	if h.Config.RecordDir != "" {
		path, err := WriteDeployment(h.Config.RecordDir, &Deployment{
			Contract:    contract.Name,
			Network:     p.Name(),
			ChainID:     p.ChainID.Int64(),
			Address:     dossier.Address.Hex(),
			Deployer:    acc.Address.Hex(),
			Timestamp:   h.Now().UTC(),
			TxHash:      dossier.TxHash.Hex(),
			BlockNumber: dossier.BlockNumber,
			ExplorerURL: explorer,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("deployment record saved to %v", path)
	}

	if h.Config.EnvFile != "" && h.Config.EnvKey != "" {
		if err := UpdateEnvFile(h.Config.EnvFile, h.Config.EnvKey, dossier.Address.Hex()); err != nil {
			return nil, err
		}
		logger.Info("%v updated in %v", h.Config.EnvKey, h.Config.EnvFile)
	}

	return dossier, nil
}
