package gossip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gossipchain/gossipchain/pkg/ledger"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	block := &ledger.Block{
		Index:        1,
		Timestamp:    1700000000000,
		ProofOfWork:  7,
		PreviousHash: "aa",
		Hash:         "0bb",
		Transactions: []ledger.Transaction{{Sender: "a", Receiver: "b", Amount: 10}},
	}

	envs := []*Envelope{
		NewChainSyncRequest("peer-1"),
		NewChainSyncResponse([]*ledger.Block{block}, "peer-2"),
		NewBlockAnnounce(block),
	}

	for _, env := range envs {
		raw, err := env.Marshal()
		assert.NoError(t, err)

		got, err := Decode(raw)
		assert.NoError(t, err)
		assert.Equal(t, env, got)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not msgpack at all"))
	assert.Error(t, err)
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	env := NewChainSyncRequest("peer-1")
	env.Version = ProtocolVersion + 1

	raw, err := env.Marshal()
	assert.NoError(t, err)

	_, err = Decode(raw)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	raw, err := msgpack.Marshal(&Envelope{Version: ProtocolVersion, Kind: Kind(99)})
	assert.NoError(t, err)

	_, err = Decode(raw)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDecodeRejectsMissingPayload(t *testing.T) {
	raw, err := msgpack.Marshal(&Envelope{Version: ProtocolVersion, Kind: KindBlockAnnounce})
	assert.NoError(t, err)

	_, err = Decode(raw)
	assert.ErrorIs(t, err, ErrMissingPayload)
}
