package gossip

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gossipchain/gossipchain/pkg/ledger"
	"github.com/gossipchain/gossipchain/pkg/miner"
)

// Topics names the pubsub channels the router speaks on.
type Topics struct {
	Chains string
	Blocks string
}

// Publisher is the outbound side of the messaging layer. Publishes are fire
// and forget: no acknowledgment, no retries.
type Publisher interface {
	Publish(ctx context.Context, topic string, env *Envelope) error
}

const responseBuf = 10

// Router owns the handler logic for the three gossip message kinds. Its
// methods must only be called from the node's event loop: the chain and the
// mining state are single-writer resources.
type Router struct {
	self   string
	chain  *ledger.Chain
	miner  *miner.Miner
	pub    Publisher
	topics Topics
	seen   *announceFilter

	responses chan *Envelope

	log *logrus.Entry
}

func NewRouter(self string, chain *ledger.Chain, m *miner.Miner, pub Publisher, topics Topics, log *logrus.Entry) *Router {
	return &Router{
		self:      self,
		chain:     chain,
		miner:     m,
		pub:       pub,
		topics:    topics,
		seen:      newAnnounceFilter(),
		responses: make(chan *Envelope, responseBuf),
		log:       log,
	}
}

// Responses yields locally generated chain-sync responses. The event loop,
// as sole owner of the messaging handle, performs the actual publish.
func (r *Router) Responses() <-chan *Envelope { return r.responses }

func (r *Router) Chain() *ledger.Chain { return r.chain }

// HandleMessage dispatches a decoded envelope received from a peer.
func (r *Router) HandleMessage(ctx context.Context, env *Envelope, from string) {
	switch env.Kind {
	case KindChainSyncRequest:
		r.handleChainRequest(env.ChainRequest, from)
	case KindChainSyncResponse:
		r.handleChainResponse(env.ChainResponse, from)
	case KindBlockAnnounce:
		r.handleAnnounce(ctx, env.Announce.Block, from)
	}
}

func (r *Router) handleChainRequest(req *ChainSyncRequest, from string) {
	if req.FromPeer != r.self {
		return
	}

	r.log.WithField("peer", from).Info("sending local chain")

	resp := NewChainSyncResponse(r.chain.Blocks(), from)

	select {
	case r.responses <- resp:
	default:
		r.log.Error("response channel full, dropping chain response")
	}
}

func (r *Router) handleChainResponse(resp *ChainSyncResponse, from string) {
	if resp.ToPeer != r.self {
		return
	}

	r.log.WithFields(logrus.Fields{
		"peer":   from,
		"blocks": len(resp.Blocks),
	}).Info("received remote chain")

	if err := r.chain.Replace(resp.Blocks); err != nil {
		// Both candidates invalid: keep the last known good chain and
		// keep running.
		r.log.WithError(err).Error("fork choice failed, retaining local chain")
	}
}

func (r *Router) handleAnnounce(ctx context.Context, b *ledger.Block, from string) {
	if r.seen.Seen(b) {
		r.log.WithField("index", b.Index).Debug("duplicate announce")
		return
	}

	if ledger.IsMined(b, r.chain.Difficulty()) {
		r.log.WithFields(logrus.Fields{
			"peer":  from,
			"index": b.Index,
		}).Info("received mined block")

		r.miner.Cancel(b.Index)

		if err := r.chain.Append(b); err != nil {
			r.log.WithError(err).Warn("rejecting announced block")
		}
		return
	}

	// Mining delegation: any peer may finish the proof-of-work and
	// re-broadcast. The first finisher wins; everyone converges on its
	// mined announce above.
	r.log.WithFields(logrus.Fields{
		"peer":  from,
		"index": b.Index,
	}).Info("mining delegated block")

	r.miner.Start(ctx, b, r.chain.Difficulty())
}

// OnMined broadcasts a block the local miner solved, then appends it.
func (r *Router) OnMined(ctx context.Context, b *ledger.Block) {
	if err := r.pub.Publish(ctx, r.topics.Blocks, NewBlockAnnounce(b)); err != nil {
		r.log.WithError(err).Error("broadcasting mined block")
	}

	if err := r.chain.Append(b); err != nil {
		r.log.WithError(err).Warn("rejecting locally mined block")
	}
}

// AnnounceTemplate broadcasts an unmined block extending the current tip,
// delegating the proof-of-work to the network.
func (r *Router) AnnounceTemplate(ctx context.Context, txs []ledger.Transaction) error {
	b := ledger.NewBlock(r.chain.Tip(), txs)

	r.log.WithField("index", b.Index).Info("broadcasting new block for mining")

	if err := r.pub.Publish(ctx, r.topics.Blocks, NewBlockAnnounce(b)); err != nil {
		return errors.Wrap(err, "publishing block template")
	}

	return nil
}

// RequestSync asks peerID to publish its chain.
func (r *Router) RequestSync(ctx context.Context, peerID string) error {
	if err := r.pub.Publish(ctx, r.topics.Chains, NewChainSyncRequest(peerID)); err != nil {
		return errors.Wrap(err, "publishing chain sync request")
	}

	return nil
}
