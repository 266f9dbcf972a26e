// Package config loads trading credentials from the environment and
// optional runtime settings from a YAML file.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/perpbot/gostandx/standx/types"
)

// Credentials holds the wallet identity used to sign in. Loaded from the
// environment so private keys never live in config files.
type Credentials struct {
	WalletAddress string
	PrivateKey    string
	Chain         types.Chain
}

// CredentialsFromEnv reads STANDX_WALLET_ADDRESS, STANDX_PRIVATE_KEY and
// STANDX_CHAIN. Chain defaults to bsc when unset.
func CredentialsFromEnv() (Credentials, error) {
	address := strings.TrimSpace(os.Getenv("STANDX_WALLET_ADDRESS"))
	if address == "" {
		return Credentials{}, errors.New("STANDX_WALLET_ADDRESS is not set")
	}

	key := strings.TrimSpace(os.Getenv("STANDX_PRIVATE_KEY"))
	if key == "" {
		return Credentials{}, errors.New("STANDX_PRIVATE_KEY is not set")
	}

	chain := types.Chain(strings.ToLower(strings.TrimSpace(os.Getenv("STANDX_CHAIN"))))
	if chain == "" {
		chain = types.ChainBSC
	}
	if chain != types.ChainBSC && chain != types.ChainArbitrum {
		return Credentials{}, errors.Errorf("unsupported chain %q", chain)
	}

	return Credentials{
		WalletAddress: address,
		PrivateKey:    key,
		Chain:         chain,
	}, nil
}

// Duration parses YAML duration strings like "500ms" or "15s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "parse duration %q", s)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts to the standard library type.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Settings are the optional runtime knobs. Zero values fall back to the
// package defaults of the component that consumes them.
type Settings struct {
	Ticker string `yaml:"ticker"`

	API struct {
		BaseURL string   `yaml:"baseUrl"`
		AuthURL string   `yaml:"authUrl"`
		Timeout Duration `yaml:"timeout"`
	} `yaml:"api"`

	Stream struct {
		URL            string   `yaml:"url"`
		ReconnectDelay Duration `yaml:"reconnectDelay"`
		MaxFailures    int      `yaml:"maxFailures"`
		QueueSize      int      `yaml:"queueSize"`
	} `yaml:"stream"`

	Retry struct {
		MaxAttempts int      `yaml:"maxAttempts"`
		Backoff     Duration `yaml:"backoff"`
	} `yaml:"retry"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

// Load reads settings from path. A missing file is not an error; the
// zero Settings is returned so every component uses its defaults.
func Load(path string) (Settings, error) {
	var s Settings

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, errors.Wrap(err, "read config file")
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, errors.Wrap(err, "parse config file")
	}
	return s, nil
}
