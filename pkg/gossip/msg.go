package gossip

import (
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gossipchain/gossipchain/pkg/ledger"
)

// ProtocolVersion is carried on every envelope. Peers discard versions they
// do not speak.
const ProtocolVersion uint8 = 1

// Kind is the explicit discriminant selecting which payload an envelope
// carries.
type Kind uint8

const (
	KindChainSyncRequest Kind = iota + 1
	KindChainSyncResponse
	KindBlockAnnounce
)

// ChainSyncRequest asks the named peer to publish its chain snapshot.
type ChainSyncRequest struct {
	FromPeer string `msgpack:"p"`
}

// ChainSyncResponse carries a full chain snapshot addressed to one peer.
type ChainSyncResponse struct {
	Blocks []*ledger.Block `msgpack:"b"`
	ToPeer string          `msgpack:"p"`
}

// BlockAnnounce carries a newly proposed or newly mined block.
type BlockAnnounce struct {
	Block *ledger.Block `msgpack:"b"`
}

// Envelope is the wire wrapper for all gossip payloads. Exactly one payload
// pointer is set, selected by Kind.
type Envelope struct {
	Version       uint8              `msgpack:"v"`
	Kind          Kind               `msgpack:"k"`
	ChainRequest  *ChainSyncRequest  `msgpack:"cq,omitempty"`
	ChainResponse *ChainSyncResponse `msgpack:"cr,omitempty"`
	Announce      *BlockAnnounce     `msgpack:"ba,omitempty"`
}

func NewChainSyncRequest(fromPeer string) *Envelope {
	return &Envelope{
		Version:      ProtocolVersion,
		Kind:         KindChainSyncRequest,
		ChainRequest: &ChainSyncRequest{FromPeer: fromPeer},
	}
}

func NewChainSyncResponse(blocks []*ledger.Block, toPeer string) *Envelope {
	return &Envelope{
		Version:       ProtocolVersion,
		Kind:          KindChainSyncResponse,
		ChainResponse: &ChainSyncResponse{Blocks: blocks, ToPeer: toPeer},
	}
}

func NewBlockAnnounce(b *ledger.Block) *Envelope {
	return &Envelope{
		Version:  ProtocolVersion,
		Kind:     KindBlockAnnounce,
		Announce: &BlockAnnounce{Block: b},
	}
}

func (e *Envelope) Marshal() ([]byte, error) {
	b, err := msgpack.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling envelope")
	}

	return b, nil
}

var (
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
	ErrUnknownKind        = errors.New("unknown message kind")
	ErrMissingPayload     = errors.New("payload missing for kind")
)

// Decode parses and screens a raw gossip payload. Gossip is best effort:
// callers discard, never escalate, a decode error.
func Decode(raw []byte) (*Envelope, error) {
	e := &Envelope{}
	if err := msgpack.Unmarshal(raw, e); err != nil {
		return nil, errors.Wrap(err, "unmarshaling envelope")
	}

	if e.Version != ProtocolVersion {
		return nil, ErrUnsupportedVersion
	}

	switch e.Kind {
	case KindChainSyncRequest:
		if e.ChainRequest == nil {
			return nil, ErrMissingPayload
		}
	case KindChainSyncResponse:
		if e.ChainResponse == nil {
			return nil, ErrMissingPayload
		}
	case KindBlockAnnounce:
		if e.Announce == nil || e.Announce.Block == nil {
			return nil, ErrMissingPayload
		}
	default:
		return nil, ErrUnknownKind
	}

	return e, nil
}
