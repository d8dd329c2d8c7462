package dealer

import (
	"context"
	"testing"

	"github.com/warp-contracts/dealer/src/utils/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var testRandomizer = common.HexToAddress("0x023A6146119DF61E60893821Eba4082812FfA9fE")

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

type StoreTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config
	redis  *miniredis.Miniredis
	client *redis.Client
	store  *SecretStore
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.config = config.Default()
	s.redis = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.redis.Addr()})
	s.store = NewSecretStore(s.config).
		WithClient(s.client).
		WithAddress(testRandomizer)
}

func (s *StoreTestSuite) TearDownTest() {
	s.client.Close()
	s.cancel()
}

func (s *StoreTestSuite) TestSubmittedSecrets() {
	secrets, err := GenerateSecrets(3)
	s.Require().NoError(err)

	require.NoError(s.T(), s.store.SaveSubmittedSecrets(s.ctx, secrets))

	for _, secret := range secrets {
		exists, err := s.store.ExistsSecret(s.ctx, secret.Hash)
		require.NoError(s.T(), err)
		require.True(s.T(), exists)

		value, err := s.store.GetSecret(s.ctx, secret.Hash)
		require.NoError(s.T(), err)
		require.True(s.T(), value.Eq(secret.Value))
		require.Equal(s.T(), secret.Hash, HashSecret(value))
	}

	require.NoError(s.T(), s.store.RemoveSecrets(s.ctx, secrets[0].Hash, secrets[1].Hash))

	exists, err := s.store.ExistsSecret(s.ctx, secrets[0].Hash)
	require.NoError(s.T(), err)
	require.False(s.T(), exists)

	exists, err = s.store.ExistsSecret(s.ctx, secrets[2].Hash)
	require.NoError(s.T(), err)
	require.True(s.T(), exists)
}

func (s *StoreTestSuite) TestKeyLayout() {
	secret, err := NewSecret()
	s.Require().NoError(err)

	require.NoError(s.T(), s.store.SaveSubmittedSecrets(s.ctx, []*Secret{secret}))
	require.NoError(s.T(), s.store.SaveWaitingSecret(s.ctx, WaitingSecret{Index: 7, Hash: secret.Hash, Block: 10}))
	require.NoError(s.T(), s.store.SetCursor(s.ctx, "SecretHashAssigned", 123))

	prefix := "Randomizer:" + testRandomizer.Hex() + ":"

	value := s.redis.HGet(prefix+"submittedSecrets", secret.Hash.Hex())
	require.Equal(s.T(), EncodeSecretValue(secret.Value), value)

	members, err := s.redis.ZMembers(prefix + "waitForRevealing")
	require.NoError(s.T(), err)
	require.Equal(s.T(), []string{"7:" + secret.Hash.Hex()}, members)

	score, err := s.redis.ZScore(prefix+"waitForRevealing", "7:"+secret.Hash.Hex())
	require.NoError(s.T(), err)
	require.Equal(s.T(), float64(10), score)

	cursor, err := s.redis.Get(prefix + "SecretHashAssigned:lastScannedBlock")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "123", cursor)
}

func (s *StoreTestSuite) TestGetSecretNotFound() {
	_, err := s.store.GetSecret(s.ctx, common.Hash{1})
	require.ErrorIs(s.T(), err, ErrSecretNotFound)
}

func (s *StoreTestSuite) TestGetSecretMalformed() {
	s.redis.HSet("Randomizer:"+testRandomizer.Hex()+":submittedSecrets", common.Hash{1}.Hex(), "not hex")

	_, err := s.store.GetSecret(s.ctx, common.Hash{1})
	require.ErrorIs(s.T(), err, ErrSecretNotFound)
}

func (s *StoreTestSuite) TestWaitingSecretsInRange() {
	a := WaitingSecret{Index: 5, Hash: common.Hash{0xa}, Block: 10}
	b := WaitingSecret{Index: 2, Hash: common.Hash{0xb}, Block: 12}
	c := WaitingSecret{Index: 1, Hash: common.Hash{0xc}, Block: 13}

	for _, secret := range []WaitingSecret{a, b, c} {
		require.NoError(s.T(), s.store.SaveWaitingSecret(s.ctx, secret))
	}

	// currentBlock=14, depth 2
	secrets, err := s.store.GetWaitingSecretsInRange(s.ctx, 0, 12)
	require.NoError(s.T(), err)
	require.Equal(s.T(), []WaitingSecret{b, a}, secrets)

	secrets, err = s.store.GetWaitingSecretsInRange(s.ctx, 11, 13)
	require.NoError(s.T(), err)
	require.Equal(s.T(), []WaitingSecret{c, b}, secrets)

	require.NoError(s.T(), s.store.RemoveWaitingSecret(s.ctx, b))

	secrets, err = s.store.GetWaitingSecretsInRange(s.ctx, 0, 100)
	require.NoError(s.T(), err)
	require.Equal(s.T(), []WaitingSecret{c, a}, secrets)
}

func (s *StoreTestSuite) TestWaitingSecretsSkipMalformed() {
	key := "Randomizer:" + testRandomizer.Hex() + ":waitForRevealing"
	_, err := s.redis.ZAdd(key, 5, "garbage")
	s.Require().NoError(err)
	_, err = s.redis.ZAdd(key, 5, "x:"+common.Hash{1}.Hex())
	s.Require().NoError(err)

	good := WaitingSecret{Index: 3, Hash: common.Hash{2}, Block: 5}
	require.NoError(s.T(), s.store.SaveWaitingSecret(s.ctx, good))

	secrets, err := s.store.GetWaitingSecretsInRange(s.ctx, 0, 10)
	require.NoError(s.T(), err)
	require.Equal(s.T(), []WaitingSecret{good}, secrets)
}

func (s *StoreTestSuite) TestCursor() {
	_, ok, err := s.store.GetCursor(s.ctx, "SecretHashAssigned")
	require.NoError(s.T(), err)
	require.False(s.T(), ok)

	require.NoError(s.T(), s.store.SetCursor(s.ctx, "SecretHashAssigned", 21607600))

	block, ok, err := s.store.GetCursor(s.ctx, "SecretHashAssigned")
	require.NoError(s.T(), err)
	require.True(s.T(), ok)
	require.Equal(s.T(), uint64(21607600), block)

	// Other events have their own cursor
	_, ok, err = s.store.GetCursor(s.ctx, "SecretHashCommitted")
	require.NoError(s.T(), err)
	require.False(s.T(), ok)
}

func (s *StoreTestSuite) TestStorageErrors() {
	s.redis.Close()

	_, err := s.store.ExistsSecret(s.ctx, common.Hash{1})
	require.ErrorIs(s.T(), err, ErrStorageRead)

	err = s.store.SaveWaitingSecret(s.ctx, WaitingSecret{Index: 1, Hash: common.Hash{1}, Block: 1})
	require.ErrorIs(s.T(), err, ErrStorageWrite)

	_, _, err = s.store.GetCursor(s.ctx, "SecretHashAssigned")
	require.ErrorIs(s.T(), err, ErrStorageRead)
}

func (s *StoreTestSuite) TestSecretEncoding() {
	value := uint256.NewInt(1)
	encoded := EncodeSecretValue(value)
	require.Len(s.T(), encoded, 66)

	decoded, err := DecodeSecretValue(encoded)
	require.NoError(s.T(), err)
	require.True(s.T(), decoded.Eq(value))

	// keccak256(uint256(1))
	require.Equal(s.T(), "0xb10e2d527612073b26eecdfd717e6a320cf44b4afac2b0732d9fcbe2b7fa0cf6", HashSecret(value).Hex())
}
