package eth

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrMissingCredential = errors.New("private key or keystore file is required")

// Parses a hex encoded private key, with or without the 0x prefix
func LoadPrivateKey(hex string) (key *ecdsa.PrivateKey, err error) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "0x")
	if hex == "" {
		err = ErrMissingCredential
		return
	}

	key, err = crypto.HexToECDSA(hex)
	if err != nil {
		err = fmt.Errorf("invalid private key: %w", err)
	}
	return
}

// Decrypts a JSON keystore file (web3 secret storage)
func LoadKeystore(path, password string) (key *ecdsa.PrivateKey, err error) {
	if path == "" {
		err = ErrMissingCredential
		return
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return
	}

	decrypted, err := keystore.DecryptKey(buf, password)
	if err != nil {
		err = fmt.Errorf("failed to decrypt keystore %s: %w", path, err)
		return
	}

	key = decrypted.PrivateKey
	return
}
