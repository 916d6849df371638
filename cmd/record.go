package cmd

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Deployment is the JSON record kept per deployment in the record dir.
type Deployment struct {
	Contract    string    `json:"contract"`
	Network     string    `json:"network"`
	ChainID     int64     `json:"chainId"`
	Address     string    `json:"address"`
	Deployer    string    `json:"deployer"`
	Timestamp   time.Time `json:"timestamp"`
	TxHash      string    `json:"txHash"`
	BlockNumber uint64    `json:"blockNumber"`
	ExplorerURL string    `json:"explorerUrl,omitempty"`
}

// WriteAddressFile replaces path with the three-line deployment summary.
func WriteAddressFile(path, network, address, txHash string) error {
	content := fmt.Sprintf("Network: %s\nContract: %s\nTransaction: %s\n", network, address, txHash)
	return replaceFile(path, []byte(content))
}

// WriteDeployment stores d as <dir>/<contract>_<network>_<unix>.json and
// returns the file name.
func WriteDeployment(dir string, d *Deployment) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "create %v", dir)
	}

	name := fmt.Sprintf("%s_%s_%d.json", d.Contract, strings.ReplaceAll(d.Network, ":", "-"), d.Timestamp.Unix())
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return "", errors.Wrap(err, "encode deployment")
	}

	if err := replaceFile(path, append(data, '\n')); err != nil {
		return "", err
	}

	return path, nil
}

// UpdateEnvFile sets key=value in a dotenv file, keeping its other entries.
func UpdateEnvFile(path, key, value string) error {
	env := map[string]string{}

	if _, err := os.Stat(path); err == nil {
		existing, err := godotenv.Read(path)
		if err != nil {
			return errors.Wrapf(err, "read %v", path)
		}
		env = existing
	}

	env[key] = value

	if err := godotenv.Write(env, path); err != nil {
		return errors.Wrapf(err, "write %v", path)
	}

	return nil
}

// replaceFile writes path.new and renames it over path.
func replaceFile(path string, data []byte) error {
	tmp := path + ".new"

	if err := ioutil.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, "write %v", tmp)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return errors.Wrapf(err, "replace %v", path)
	}

	return nil
}
