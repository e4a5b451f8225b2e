package utils

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/tyler-smith/go-bip39"
)

var HomeDir string

func init() {
	var err error
	HomeDir, err = os.UserHomeDir()
	if err != nil {
		log.Fatal("failed to get $HOME value")
	}
}

func DefaultDirectory() string {
	return filepath.Join(HomeDir, ".htlcd")
}

func DefaultConfigPath() string {
	return filepath.Join(HomeDir, ".htlcd", "config.json")
}

func DefaultStorePath() string {
	return filepath.Join(HomeDir, ".htlcd", "data.db")
}

func DefaultLogPath() string {
	return filepath.Join(HomeDir, ".htlcd", "htlcd.log")
}

// Config is the daemon configuration, read from a JSON file under ~/.htlcd.
type Config struct {
	// Listen is the RPC listen address, e.g. ":8299".
	Listen string
	// DB is the sqlite path; DefaultStorePath when empty.
	DB string
	// Mnemonic seeds the operator key tree. Generated and written back on
	// first load when empty.
	Mnemonic string
	// Admin is the initial contract admin address, used only to seed a
	// fresh store. Defaults to the operator address when empty.
	Admin string
	// JWTSecret signs session tokens.
	JWTSecret string
	// EthURL enables the token funding path when set.
	EthURL string
	// RedisURL enables the revealed-secret store when set.
	RedisURL string
	// SIWEDomain is the domain pinned into login messages.
	SIWEDomain string
}

// LoadConfig reads the config file, generating a mnemonic and a JWT secret on
// first run and persisting them back.
func LoadConfig(path string) (Config, error) {
	config := Config{}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &config); err != nil {
			return config, err
		}
	}

	dirty := false
	if config.Mnemonic == "" {
		entropy := make([]byte, 32)
		if _, err := rand.Read(entropy); err != nil {
			return config, err
		}
		mnemonic, err := bip39.NewMnemonic(entropy)
		if err != nil {
			return config, err
		}
		config.Mnemonic = mnemonic
		dirty = true
	}
	if config.JWTSecret == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return config, err
		}
		config.JWTSecret = hex.EncodeToString(secret)
		dirty = true
	}
	if config.Listen == "" {
		config.Listen = ":8299"
	}
	if config.SIWEDomain == "" {
		config.SIWEDomain = "localhost"
	}

	if dirty {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return config, err
		}
		data, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			return config, err
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return config, err
		}
	}
	return config, nil
}
