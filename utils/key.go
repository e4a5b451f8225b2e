package utils

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// evmCoinIndex is the BIP-44 coin type for Ethereum-style keys.
const evmCoinIndex uint32 = 60

type Key struct {
	inner *bip32.Key
}

func (key *Key) ECDSA() (*ecdsa.PrivateKey, error) {
	return crypto.ToECDSA(key.inner.Key)
}

func (key *Key) Address() (common.Address, error) {
	ecdsaKey, err := key.ECDSA()
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(ecdsaKey.PublicKey), nil
}

// LoadKey derives the key at (account, selector) under the EVM coin branch.
func LoadKey(seed []byte, account, selector uint32) (*Key, error) {
	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	for _, idx := range []uint32{evmCoinIndex, account, selector} {
		masterKey, err = masterKey.NewChildKey(idx)
		if err != nil {
			return nil, fmt.Errorf("failed to create child key: %v", err)
		}
	}
	return &Key{masterKey}, nil
}

// Keys lazily derives and caches keys from a mnemonic's entropy.
type Keys struct {
	seed []byte
	m    map[uint64]*Key
}

func NewKeys(mnemonic string) (*Keys, error) {
	seed := bip39.NewSeed(mnemonic, "")
	return &Keys{seed: seed, m: map[uint64]*Key{}}, nil
}

func (keys *Keys) GetKey(account, selector uint32) (*Key, error) {
	id := uint64(account)<<32 | uint64(selector)
	if key, ok := keys.m[id]; ok {
		return key, nil
	}
	key, err := LoadKey(keys.seed, account, selector)
	if err != nil {
		return nil, err
	}
	keys.m[id] = key
	return key, nil
}

// OperatorKey is the daemon's own key: account 0, selector 0. Its address is
// the token custodian and the default admin.
func (keys *Keys) OperatorKey() (*Key, error) {
	return keys.GetKey(0, 0)
}
