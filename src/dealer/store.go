package dealer

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/warp-contracts/dealer/src/utils/config"
	"github.com/warp-contracts/dealer/src/utils/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// Redis backed persistence of secrets and scan progress, namespaced by the randomizer address:
//
//	Randomizer:<address>:submittedSecrets            hash, secret hash -> secret value
//	Randomizer:<address>:waitForRevealing            sorted set, score block, member <index>:<secret hash>
//	Randomizer:<address>:<event>:lastScannedBlock    string
type SecretStore struct {
	log     *logrus.Entry
	config  *config.Dealer
	client  redis.UniversalClient
	address common.Address
}

func NewSecretStore(config *config.Config) (self *SecretStore) {
	self = new(SecretStore)
	self.log = logger.NewSublogger("secret-store")
	self.config = &config.Dealer
	return
}

func (self *SecretStore) WithClient(client redis.UniversalClient) *SecretStore {
	self.client = client
	return self
}

func (self *SecretStore) WithAddress(address common.Address) *SecretStore {
	self.address = address
	return self
}

func (self *SecretStore) keyOf(item string) string {
	return fmt.Sprintf("Randomizer:%s:%s", self.address.Hex(), item)
}

func (self *SecretStore) submittedSecretsKey() string {
	return self.keyOf("submittedSecrets")
}

func (self *SecretStore) waitingSecretsKey() string {
	return self.keyOf("waitForRevealing")
}

func (self *SecretStore) cursorKey(event string) string {
	return self.keyOf(event + ":lastScannedBlock")
}

func (self *SecretStore) timeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if self.config.StorageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, self.config.StorageTimeout)
}

func readError(err error) error {
	return fmt.Errorf("%w: %w", ErrStorageRead, err)
}

func writeError(err error) error {
	return fmt.Errorf("%w: %w", ErrStorageWrite, err)
}

// Saves all secrets in one command
func (self *SecretStore) SaveSubmittedSecrets(ctx context.Context, secrets []*Secret) (err error) {
	if len(secrets) == 0 {
		return
	}

	ctx, cancel := self.timeout(ctx)
	defer cancel()

	values := make([]interface{}, 0, 2*len(secrets))
	for _, secret := range secrets {
		values = append(values, secret.Hash.Hex(), EncodeSecretValue(secret.Value))
	}

	err = self.client.HSet(ctx, self.submittedSecretsKey(), values...).Err()
	if err != nil {
		return writeError(err)
	}
	return
}

func (self *SecretStore) RemoveSecrets(ctx context.Context, hashes ...common.Hash) (err error) {
	if len(hashes) == 0 {
		return
	}

	ctx, cancel := self.timeout(ctx)
	defer cancel()

	fields := make([]string, len(hashes))
	for i, hash := range hashes {
		fields[i] = hash.Hex()
	}

	err = self.client.HDel(ctx, self.submittedSecretsKey(), fields...).Err()
	if err != nil {
		return writeError(err)
	}
	return
}

func (self *SecretStore) ExistsSecret(ctx context.Context, hash common.Hash) (exists bool, err error) {
	ctx, cancel := self.timeout(ctx)
	defer cancel()

	exists, err = self.client.HExists(ctx, self.submittedSecretsKey(), hash.Hex()).Result()
	if err != nil {
		return false, readError(err)
	}
	return
}

// Returns ErrSecretNotFound if there's no (valid) value stored for the hash
func (self *SecretStore) GetSecret(ctx context.Context, hash common.Hash) (value *uint256.Int, err error) {
	ctx, cancel := self.timeout(ctx)
	defer cancel()

	encoded, err := self.client.HGet(ctx, self.submittedSecretsKey(), hash.Hex()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSecretNotFound
	}
	if err != nil {
		return nil, readError(err)
	}

	value, err = DecodeSecretValue(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSecretNotFound, err)
	}
	return
}

func (self *SecretStore) SaveWaitingSecret(ctx context.Context, secret WaitingSecret) (err error) {
	ctx, cancel := self.timeout(ctx)
	defer cancel()

	err = self.client.ZAdd(ctx, self.waitingSecretsKey(), redis.Z{
		Score:  float64(secret.Block),
		Member: secret.member(),
	}).Err()
	if err != nil {
		return writeError(err)
	}
	return
}

func (self *SecretStore) RemoveWaitingSecret(ctx context.Context, secret WaitingSecret) (err error) {
	ctx, cancel := self.timeout(ctx)
	defer cancel()

	err = self.client.ZRem(ctx, self.waitingSecretsKey(), secret.member()).Err()
	if err != nil {
		return writeError(err)
	}
	return
}

// Waiting secrets assigned in blocks [minBlock, maxBlock], sorted by index
func (self *SecretStore) GetWaitingSecretsInRange(ctx context.Context, minBlock, maxBlock uint64) (secrets []WaitingSecret, err error) {
	ctx, cancel := self.timeout(ctx)
	defer cancel()

	entries, err := self.client.ZRangeByScoreWithScores(ctx, self.waitingSecretsKey(), &redis.ZRangeBy{
		Min: strconv.FormatUint(minBlock, 10),
		Max: strconv.FormatUint(maxBlock, 10),
	}).Result()
	if err != nil {
		return nil, readError(err)
	}

	secrets = make([]WaitingSecret, 0, len(entries))
	for _, entry := range entries {
		member, ok := entry.Member.(string)
		if !ok {
			continue
		}

		secret, err := parseWaitingMember(member, uint64(entry.Score))
		if err != nil {
			self.log.WithError(err).Warn("Skipping malformed waiting secret")
			continue
		}
		secrets = append(secrets, secret)
	}

	slices.SortStableFunc(secrets, func(a, b WaitingSecret) int {
		switch {
		case a.Index < b.Index:
			return -1
		case a.Index > b.Index:
			return 1
		}
		return 0
	})

	return
}

// Last block fully scanned for the event. Returns false if the event was never scanned.
func (self *SecretStore) GetCursor(ctx context.Context, event string) (block uint64, ok bool, err error) {
	ctx, cancel := self.timeout(ctx)
	defer cancel()

	value, err := self.client.Get(ctx, self.cursorKey(event)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, readError(err)
	}

	block, err = strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, false, readError(err)
	}
	return block, true, nil
}

func (self *SecretStore) SetCursor(ctx context.Context, event string, block uint64) (err error) {
	ctx, cancel := self.timeout(ctx)
	defer cancel()

	err = self.client.Set(ctx, self.cursorKey(event), strconv.FormatUint(block, 10), 0).Err()
	if err != nil {
		return writeError(err)
	}
	return
}
