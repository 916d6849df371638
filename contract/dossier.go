package contract

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

const Name = "CanaryDossier"

// Accessor method names exposed by every CanaryDossier build.
const (
	MethodMinCheckInInterval = "MIN_CHECK_IN_INTERVAL"
	MethodMaxCheckInInterval = "MAX_CHECK_IN_INTERVAL"
	MethodGracePeriod        = "GRACE_PERIOD"
	MethodMaxDossiersPerUser = "MAX_DOSSIERS_PER_USER"
)

var accessors = []string{
	MethodMinCheckInInterval,
	MethodMaxCheckInInterval,
	MethodGracePeriod,
	MethodMaxDossiersPerUser,
}

// DossierABI is the subset of the contract interface the deploy tooling relies on.
const DossierABI = `[
{"inputs":[],"stateMutability":"nonpayable","type":"constructor"},
{"inputs":[],"name":"MIN_CHECK_IN_INTERVAL","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"MAX_CHECK_IN_INTERVAL","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"GRACE_PERIOD","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"MAX_DOSSIERS_PER_USER","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

var ErrNoCode = errors.New("no contract code at given address")

// Backend is what deploying and reading the contract needs from a node.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Artifact is a compiled contract: its ABI and creation bytecode.
type Artifact struct {
	Name     string
	ABI      abi.ABI
	Bytecode []byte
}

type artifactJSON struct {
	ContractName       string          `json:"contractName"`
	ABI                json.RawMessage `json:"abi"`
	Bytecode           json.RawMessage `json:"bytecode"`
	DeploymentBytecode *struct {
		Bytecode string `json:"bytecode"`
	} `json:"deploymentBytecode"`
}

// LoadArtifact reads a compiled artifact from disk. Hardhat ("bytecode":"0x.."),
// foundry ("bytecode":{"object":"0x.."}) and ape ("deploymentBytecode") layouts
// are understood.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read artifact (%s)", path)
	}

	artifact, err := ParseArtifact(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse artifact (%s)", path)
	}

	return artifact, nil
}

func ParseArtifact(data []byte) (*Artifact, error) {
	var raw artifactJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decode json")
	}

	artifact := &Artifact{Name: raw.ContractName}
	if artifact.Name == "" {
		artifact.Name = Name
	}

	abiJSON := DossierABI
	if len(raw.ABI) > 0 && string(raw.ABI) != "null" {
		abiJSON = string(raw.ABI)
	}

	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, errors.Wrap(err, "parse abi")
	}

	for _, method := range accessors {
		if _, ok := parsed.Methods[method]; !ok {
			return nil, errors.Errorf("abi has no %v() accessor", method)
		}
	}
	artifact.ABI = parsed

	code, err := creationCode(raw)
	if err != nil {
		return nil, err
	}
	artifact.Bytecode = code

	return artifact, nil
}

func creationCode(raw artifactJSON) ([]byte, error) {
	var code string

	switch {
	case raw.DeploymentBytecode != nil && raw.DeploymentBytecode.Bytecode != "":
		code = raw.DeploymentBytecode.Bytecode
	case len(raw.Bytecode) > 0:
		if err := json.Unmarshal(raw.Bytecode, &code); err != nil {
			var object struct {
				Object string `json:"object"`
			}
			if err := json.Unmarshal(raw.Bytecode, &object); err != nil {
				return nil, errors.Wrap(err, "decode bytecode")
			}
			code = object.Object
		}
	}

	if !strings.HasPrefix(code, "0x") {
		code = "0x" + code
	}

	bin, err := hexutil.Decode(code)
	if err != nil {
		return nil, errors.Wrap(err, "decode bytecode")
	}

	if len(bin) == 0 {
		return nil, errors.New("artifact has no creation bytecode")
	}

	return bin, nil
}

// Dossier is a deployed CanaryDossier contract.
type Dossier struct {
	Address     common.Address
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64

	contract *bind.BoundContract
}

// Settings are the constants a deployment exposes through its accessors.
type Settings struct {
	MinCheckInInterval *big.Int // seconds
	MaxCheckInInterval *big.Int // seconds
	GracePeriod        *big.Int // seconds
	MaxDossiersPerUser *big.Int
}

// Deploy sends the creation transaction and waits until it is mined.
func Deploy(ctx context.Context, auth *bind.TransactOpts, backend Backend, artifact *Artifact) (*Dossier, error) {
	address, tx, bound, err := bind.DeployContract(auth, artifact.ABI, artifact.Bytecode, backend)
	if err != nil {
		return nil, errors.Wrapf(err, "account=%v send deploy tx", auth.From.Hex())
	}

	receipt, err := bind.WaitMined(ctx, backend, tx)
	if err != nil {
		return nil, errors.Wrapf(err, "wait for tx=%v", tx.Hash().Hex())
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, errors.Errorf("deploy tx=%v reverted in block %v", tx.Hash().Hex(), receipt.BlockNumber)
	}

	code, err := backend.CodeAt(ctx, address, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "get code at %v", address.Hex())
	}
	if len(code) == 0 {
		return nil, ErrNoCode
	}

	return &Dossier{
		Address:     address,
		TxHash:      tx.Hash(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
		contract:    bound,
	}, nil
}

func (d *Dossier) MinCheckInInterval(opts *bind.CallOpts) (*big.Int, error) {
	return d.callUint(opts, MethodMinCheckInInterval)
}

func (d *Dossier) MaxCheckInInterval(opts *bind.CallOpts) (*big.Int, error) {
	return d.callUint(opts, MethodMaxCheckInInterval)
}

func (d *Dossier) GracePeriod(opts *bind.CallOpts) (*big.Int, error) {
	return d.callUint(opts, MethodGracePeriod)
}

func (d *Dossier) MaxDossiersPerUser(opts *bind.CallOpts) (*big.Int, error) {
	return d.callUint(opts, MethodMaxDossiersPerUser)
}

// Settings reads all four accessors.
func (d *Dossier) Settings(opts *bind.CallOpts) (*Settings, error) {
	var (
		s   Settings
		err error
	)

	if s.MinCheckInInterval, err = d.MinCheckInInterval(opts); err != nil {
		return nil, err
	}
	if s.MaxCheckInInterval, err = d.MaxCheckInInterval(opts); err != nil {
		return nil, err
	}
	if s.GracePeriod, err = d.GracePeriod(opts); err != nil {
		return nil, err
	}
	if s.MaxDossiersPerUser, err = d.MaxDossiersPerUser(opts); err != nil {
		return nil, err
	}

	return &s, nil
}

func (d *Dossier) callUint(opts *bind.CallOpts, method string) (*big.Int, error) {
	var out []interface{}
	if err := d.contract.Call(opts, &out, method); err != nil {
		return nil, errors.Wrapf(err, "call %v()", method)
	}

	if len(out) == 0 {
		return nil, errors.Errorf("call %v(): empty result", method)
	}

	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
