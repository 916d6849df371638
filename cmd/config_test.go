package cmd

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/cobra"
)

const testConfigYAML = `
artifact: out/CanaryDossier.json
output: from-file.txt
timeout: 90s
gas_limit: 3000000
aliases:
  deployer: 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266
networks:
  ethereum:sepolia:
    url: http://127.0.0.1:9545
    chain_id: 11155111
`

func testCommand() *cobra.Command {
	c := &cobra.Command{Use: "test"}
	c.Flags().String("config", "", "")
	c.Flags().String("output", DefaultOutput, "")
	c.Flags().String("record-dir", "", "")
	return c
}

func TestSetupViper(t *testing.T) {
	Convey("Without a config file the defaults apply", t, func() {
		v, err := SetupViper(nil, "")
		So(err, ShouldBeNil)

		cfg, err := ParseConfig(v)
		So(err, ShouldBeNil)
		So(cfg.Artifact, ShouldEqual, DefaultArtifact)
		So(cfg.Output, ShouldEqual, DefaultOutput)
		So(cfg.Timeout, ShouldEqual, DefaultTimeout)
		So(cfg.TestBalance, ShouldEqual, DefaultTestBalance)
	})

	Convey("A config file is layered under env and flags", t, func() {
		path := filepath.Join(t.TempDir(), "canary.yaml")
		So(ioutil.WriteFile(path, []byte(testConfigYAML), 0644), ShouldBeNil)

		c := testCommand()

		Convey("file values are read", func() {
			v, err := SetupViper(c, path)
			So(err, ShouldBeNil)
			cfg, err := ParseConfig(v)
			So(err, ShouldBeNil)

			So(cfg.Artifact, ShouldEqual, "out/CanaryDossier.json")
			So(cfg.Output, ShouldEqual, "from-file.txt")
			So(cfg.Timeout, ShouldEqual, 90*time.Second)
			So(cfg.GasLimit, ShouldEqual, uint64(3000000))
			So(cfg.Aliases["deployer"], ShouldEqual, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

			sepolia := cfg.NetworkTable()["ethereum:sepolia"]
			So(sepolia.URL, ShouldEqual, "http://127.0.0.1:9545")
			So(sepolia.URLEnv, ShouldEqual, "SEPOLIA_RPC_URL")
			So(sepolia.Explorer, ShouldEqual, "https://sepolia.etherscan.io")
		})

		Convey("CANARY_ variables win over the file", func() {
			t.Setenv("CANARY_OUTPUT", "from-env.txt")
			t.Setenv("CANARY_RECORD_DIR", "records")

			v, err := SetupViper(c, path)
			So(err, ShouldBeNil)
			cfg, err := ParseConfig(v)
			So(err, ShouldBeNil)
			So(cfg.Output, ShouldEqual, "from-env.txt")
			So(cfg.RecordDir, ShouldEqual, "records")
		})

		Convey("a set flag wins over everything", func() {
			t.Setenv("CANARY_OUTPUT", "from-env.txt")
			So(c.Flags().Set("output", "from-flag.txt"), ShouldBeNil)

			v, err := SetupViper(c, path)
			So(err, ShouldBeNil)
			cfg, err := ParseConfig(v)
			So(err, ShouldBeNil)
			So(cfg.Output, ShouldEqual, "from-flag.txt")
		})

		Convey("PRIVATE_KEY is read as a fallback", func() {
			t.Setenv("PRIVATE_KEY", "0x01")

			v, err := SetupViper(c, path)
			So(err, ShouldBeNil)
			cfg, err := ParseConfig(v)
			So(err, ShouldBeNil)
			So(cfg.PrivateKey, ShouldEqual, "0x01")
		})
	})

	Convey("An explicit config path must exist", t, func() {
		_, err := SetupViper(nil, filepath.Join(t.TempDir(), "nope.yaml"))
		So(err, ShouldNotBeNil)
	})
}

func TestLoadDotEnv(t *testing.T) {
	Convey("LoadDotEnv skips missing files and keeps set variables", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, ".env")
		So(ioutil.WriteFile(path, []byte("CANARY_TEST_A=file\nCANARY_TEST_B=file\n"), 0644), ShouldBeNil)

		t.Setenv("CANARY_TEST_A", "shell")

		So(LoadDotEnv(filepath.Join(dir, "missing.env"), path), ShouldBeNil)
		So(os.Getenv("CANARY_TEST_A"), ShouldEqual, "shell")
		So(os.Getenv("CANARY_TEST_B"), ShouldEqual, "file")
		os.Unsetenv("CANARY_TEST_B") //nolint:errcheck
	})
}
