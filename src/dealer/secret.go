package dealer

import (
	"crypto/rand"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Random value and its commitment, keccak256 of the value encoded as uint256
type Secret struct {
	Value *uint256.Int
	Hash  common.Hash
}

func NewSecret() (self *Secret, err error) {
	var buf [32]byte
	_, err = rand.Read(buf[:])
	if err != nil {
		return
	}

	value := new(uint256.Int).SetBytes32(buf[:])
	self = &Secret{
		Value: value,
		Hash:  HashSecret(value),
	}
	return
}

func GenerateSecrets(n uint64) (secrets []*Secret, err error) {
	secrets = make([]*Secret, n)
	for i := range secrets {
		secrets[i], err = NewSecret()
		if err != nil {
			return nil, err
		}
	}
	return
}

func HashSecret(value *uint256.Int) common.Hash {
	b := value.Bytes32()
	return crypto.Keccak256Hash(b[:])
}

// 0x prefixed, always 32 bytes
func EncodeSecretValue(value *uint256.Int) string {
	b := value.Bytes32()
	return hexutil.Encode(b[:])
}

func DecodeSecretValue(s string) (value *uint256.Int, err error) {
	buf, err := hexutil.Decode(s)
	if err != nil {
		return
	}
	if len(buf) > 32 {
		err = fmt.Errorf("secret value too long: %d bytes", len(buf))
		return
	}
	value = new(uint256.Int).SetBytes(buf)
	return
}

func hashes(secrets []*Secret) []common.Hash {
	out := make([]common.Hash, len(secrets))
	for i, secret := range secrets {
		out[i] = secret.Hash
	}
	return out
}
