package node

import (
	"context"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gossipchain/gossipchain/internal/config"
	"github.com/gossipchain/gossipchain/internal/utils/logging"
	"github.com/gossipchain/gossipchain/pkg/gossip"
	"github.com/gossipchain/gossipchain/pkg/ledger"
	"github.com/gossipchain/gossipchain/pkg/miner"
)

const bootstrapAttempts = 5

type Node struct {
	cfg *config.Config
	p2p *p2pHost

	chain  *ledger.Chain
	miner  *miner.Miner
	router *gossip.Router

	logger *logrus.Logger
}

func (n *Node) Chain() *ledger.Chain { return n.chain }

func NewNode(ctx context.Context, opts ...NodeOption) (*Node, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, err
	}

	n := &Node{cfg: cfg}

	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}

	if n.logger == nil {
		n.logger = logging.Entry().Logger
	}
	if n.chain == nil {
		n.chain = ledger.NewChain(cfg.Chain().Difficulty)
	}

	entry := logrus.NewEntry(n.logger)

	n.p2p, err = newP2PHost(ctx, cfg, entry)
	if err != nil {
		return nil, err
	}

	n.miner = miner.New(entry)
	n.router = gossip.NewRouter(
		n.p2p.host.ID().String(),
		n.chain,
		n.miner,
		n.p2p,
		gossip.Topics{Chains: cfg.Chain().ChainsTopic, Blocks: cfg.Chain().BlocksTopic},
		entry,
	)

	if err := n.bootstrap(ctx, cfg); err != nil {
		return nil, errors.Wrap(err, "bootstrapping p2p")
	}

	return n, nil
}

// eventKind tags the union of everything the loop reacts to.
type eventKind uint8

const (
	evtConsoleLine eventKind = iota + 1
	evtChainResponse
	evtInitSync
	evtGossip
	evtMined
)

// event is the loop's tagged union. Exactly one payload field is set,
// selected by kind.
type event struct {
	kind eventKind

	line     string
	response *gossip.Envelope
	gossip   gossipEvent
	mined    *ledger.Block
}

// Run drives the node. A single goroutine consumes console, timer, miner
// and network events in arrival order and dispatches each synchronously;
// only this goroutine touches the chain. Mining runs off-loop as an
// interruptible job, so the loop stays responsive to competing blocks.
func (n *Node) Run(ctx context.Context) error {
	n.logger.WithFields(logging.Fields{
		"id":    n.p2p.host.ID().String(),
		"addrs": n.p2p.host.Addrs(),
	}).Info("node listening")

	chains, err := n.p2p.Msgs(ctx, n.cfg.Chain().ChainsTopic)
	if err != nil {
		return err
	}
	blocks, err := n.p2p.Msgs(ctx, n.cfg.Chain().BlocksTopic)
	if err != nil {
		return err
	}

	console := readConsole(ctx)
	initSync := time.After(n.cfg.Chain().SyncDelay)

	for {
		var ev event

		select {
		case <-ctx.Done():
			n.miner.CancelAll()
			return nil

		case line, ok := <-console:
			if !ok {
				console = nil
				continue
			}
			ev = event{kind: evtConsoleLine, line: line}

		case resp := <-n.router.Responses():
			ev = event{kind: evtChainResponse, response: resp}

		case <-initSync:
			initSync = nil
			ev = event{kind: evtInitSync}

		case m, ok := <-chains:
			if !ok {
				if ctx.Err() != nil {
					n.miner.CancelAll()
					return nil
				}
				return errors.New("chain topic subscription closed")
			}
			ev = event{kind: evtGossip, gossip: m}

		case m, ok := <-blocks:
			if !ok {
				if ctx.Err() != nil {
					n.miner.CancelAll()
					return nil
				}
				return errors.New("block topic subscription closed")
			}
			ev = event{kind: evtGossip, gossip: m}

		case res := <-n.miner.Results():
			ev = event{kind: evtMined, mined: res.Block}
		}

		n.dispatch(ctx, ev)
	}
}

func (n *Node) dispatch(ctx context.Context, ev event) {
	switch ev.kind {
	case evtConsoleLine:
		n.handleCommand(ctx, ev.line)

	case evtChainResponse:
		if err := n.p2p.Publish(ctx, n.cfg.Chain().ChainsTopic, ev.response); err != nil {
			n.logger.WithError(err).Error("publishing chain response")
		}

	case evtInitSync:
		n.initialSync(ctx)

	case evtGossip:
		n.router.HandleMessage(ctx, ev.gossip.env, ev.gossip.from.String())

	case evtMined:
		n.router.OnMined(ctx, ev.mined)
	}
}

// initialSync asks the most recently discovered peer for its chain, giving a
// fresh node a chance to catch up shortly after startup. No response simply
// leaves local state unchanged.
func (n *Node) initialSync(ctx context.Context) {
	peers := n.p2p.Peers()
	n.logger.WithField("peers", len(peers)).Info("connected nodes")

	if len(peers) == 0 {
		return
	}

	target := peers[len(peers)-1]
	if err := n.router.RequestSync(ctx, target.String()); err != nil {
		n.logger.WithError(err).Error("requesting initial chain sync")
	}
}

func (n *Node) bootstrap(ctx context.Context, cfg *config.Config) error {
	peers := cfg.P2P().BootstrapPeers
	if len(peers) == 0 {
		n.logger.Debug("no bootstrap peers")
		return nil
	}

	var wg sync.WaitGroup

	for _, peerAddr := range peers {
		ma, err := multiaddr.NewMultiaddr(peerAddr)
		if err != nil {
			return errors.Wrap(err, "parsing bootstrap multiaddr")
		}

		peerinfo, err := peer.AddrInfoFromP2pAddr(ma)
		if err != nil {
			return errors.Wrap(err, "resolving bootstrap peer info")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			n.dialBootstrap(ctx, *peerinfo)
		}()
	}
	wg.Wait()

	return nil
}

// dialBootstrap retries a bootstrap dial a few times before giving up.
// Bootstrap peers are best effort, not a startup requirement.
func (n *Node) dialBootstrap(ctx context.Context, pi peer.AddrInfo) {
	b := &backoff.Backoff{Min: time.Second, Max: 30 * time.Second, Jitter: true}

	for b.Attempt() < bootstrapAttempts {
		if err := n.p2p.host.Connect(ctx, pi); err == nil {
			n.logger.WithField("peer", pi.ID).Debug("connected to bootstrap peer")
			return
		} else {
			n.logger.WithError(err).WithField("peer", pi.ID).Warning("bootstrap dial failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(b.Duration()):
		}
	}
}
