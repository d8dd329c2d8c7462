package eth

import (
	"math/big"
	"testing"

	"github.com/warp-contracts/dealer/src/utils/config"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestRandomizerTestSuite(t *testing.T) {
	suite.Run(t, new(RandomizerTestSuite))
}

type RandomizerTestSuite struct {
	suite.Suite
	config     *config.Config
	network    Network
	randomizer *Randomizer
}

func (s *RandomizerTestSuite) SetupTest() {
	s.config = config.Default()

	var err error
	s.network, err = GetNetwork(&s.config.Chain)
	s.Require().NoError(err)

	s.randomizer = NewRandomizer(&s.config.Chain, s.network, nil)
}

func (s *RandomizerTestSuite) assignedLog(hash common.Hash, index int64) types.Log {
	event := RandomizerABI.Events[EventSecretHashAssigned]
	data, err := event.Inputs.Pack([32]byte(hash), big.NewInt(index))
	s.Require().NoError(err)

	return types.Log{
		Address:     s.network.RandomizerAddress,
		Topics:      []common.Hash{event.ID},
		Data:        data,
		BlockNumber: 1234,
	}
}

func (s *RandomizerTestSuite) TestDecodeAssigned() {
	hash := crypto.Keccak256Hash([]byte("secret"))

	decoded, err := s.randomizer.decodeSecretHashAssigned(s.assignedLog(hash, 42))
	require.NoError(s.T(), err)
	require.Equal(s.T(), hash, decoded.SecretHash)
	require.Equal(s.T(), uint64(42), decoded.SecretIndex)
	require.Equal(s.T(), uint64(1234), decoded.Block)
}

func (s *RandomizerTestSuite) TestDecodeWrongEvent() {
	log := s.assignedLog(common.Hash{1}, 1)
	log.Topics = []common.Hash{RandomizerABI.Events[EventSecretHashCommitted].ID}

	_, err := s.randomizer.decodeSecretHashAssigned(log)
	require.Error(s.T(), err)
}

func (s *RandomizerTestSuite) TestDecodeTruncatedData() {
	log := s.assignedLog(common.Hash{1}, 1)
	log.Data = log.Data[:40]

	_, err := s.randomizer.decodeSecretHashAssigned(log)
	require.Error(s.T(), err)
}

func (s *RandomizerTestSuite) TestCountCommitted() {
	committed := RandomizerABI.Events[EventSecretHashCommitted].ID
	receipt := &types.Receipt{
		Logs: []*types.Log{
			{Address: s.network.RandomizerAddress, Topics: []common.Hash{committed}},
			{Address: s.network.RandomizerAddress, Topics: []common.Hash{committed}},
			{Address: common.Address{1}, Topics: []common.Hash{committed}},
			{Address: s.network.RandomizerAddress},
		},
	}
	require.Equal(s.T(), 2, s.randomizer.CountCommitted(receipt))
}

func (s *RandomizerTestSuite) TestNetworkOverrides() {
	s.config.Chain.Network = "polygontest"
	s.config.Chain.ChainId = 1337
	s.config.Chain.RpcUrl = "http://localhost:8545"

	network, err := GetNetwork(&s.config.Chain)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(1337), network.ChainId)
	require.Equal(s.T(), "http://localhost:8545", network.RpcProviderUrl)
	require.Equal(s.T(), common.HexToAddress("0xEc2F7347221eeFFE55561D50651638fCEFFee083"), network.RandomizerAddress)
}

func (s *RandomizerTestSuite) TestUnknownNetwork() {
	s.config.Chain.Network = "nope"
	_, err := GetNetwork(&s.config.Chain)
	require.ErrorIs(s.T(), err, ErrUnknownNetwork)
}

func (s *RandomizerTestSuite) TestMainnetNeedsAddresses() {
	s.config.Chain.Network = "avaxmain"
	_, err := GetNetwork(&s.config.Chain)
	require.Error(s.T(), err)
}

func (s *RandomizerTestSuite) TestLoadPrivateKey() {
	key, err := crypto.GenerateKey()
	s.Require().NoError(err)

	loaded, err := LoadPrivateKey("0x" + common.Bytes2Hex(crypto.FromECDSA(key)))
	require.NoError(s.T(), err)
	require.Equal(s.T(), crypto.PubkeyToAddress(key.PublicKey), crypto.PubkeyToAddress(loaded.PublicKey))

	_, err = LoadPrivateKey("")
	require.ErrorIs(s.T(), err, ErrMissingCredential)
}
