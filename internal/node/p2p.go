package node

import (
	"context"
	"sync"

	"github.com/libp2p/go-libp2p"
	dht "github.com/libp2p/go-libp2p-kad-dht"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	connmgriFace "github.com/libp2p/go-libp2p/core/connmgr"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/peerstore"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	discovery "github.com/libp2p/go-libp2p/p2p/discovery/routing"
	"github.com/libp2p/go-libp2p/p2p/host/peerstore/pstoremem"
	"github.com/libp2p/go-libp2p/p2p/net/connmgr"
	"github.com/multiformats/go-multiaddr"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gossipchain/gossipchain/internal/config"
	"github.com/gossipchain/gossipchain/pkg/gossip"
)

const pubsubBuf = 10

type p2pHost struct {
	host host.Host

	peerStore peerstore.Peerstore
	connMgr   connmgriFace.ConnManager
	pubsub    *pubsub.PubSub
	dht       *dht.IpfsDHT
	discovery *discovery.RoutingDiscovery
	mdns      mdns.Service

	topics map[string]*pubsub.Topic

	peersMu    sync.RWMutex
	discovered []peer.ID
	known      map[peer.ID]struct{}

	log *logrus.Entry
}

func newP2PHost(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*p2pHost, error) {
	var err error
	h := &p2pHost{
		topics: make(map[string]*pubsub.Topic),
		known:  make(map[peer.ID]struct{}),
		log:    log,
	}

	id, err := getIdentity(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	listeningAddrs, err := buildListeningAddrs(ctx, cfg)
	if err != nil {
		return nil, err
	}

	h.connMgr, err = connmgr.NewConnManager(
		cfg.P2P().Connections.PeersCountLow,
		cfg.P2P().Connections.PeersCountHigh,
	)
	if err != nil {
		return nil, err
	}

	h.peerStore, err = pstoremem.NewPeerstore()
	if err != nil {
		return nil, err
	}

	opts := []libp2p.Option{
		id,
		listeningAddrs,
		libp2p.DefaultTransports,
		libp2p.DefaultResourceManager,
		libp2p.DefaultMuxers,
		libp2p.DefaultSecurity,
		libp2p.ConnectionManager(h.connMgr),
		libp2p.Peerstore(h.peerStore),
		libp2p.NATPortMap(),
		libp2p.EnableNATService(),
	}

	if cfg.P2P().Relay {
		opts = append(opts, libp2p.EnableRelay(), libp2p.EnableAutoRelay())
	}

	h.host, err = libp2p.NewWithoutDefaults(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating libp2p host")
	}

	h.host.Network().Notify(&network.NotifyBundle{
		DisconnectedF: func(_ network.Network, c network.Conn) {
			h.forgetPeer(c.RemotePeer())
		},
	})

	h.dht, err = dht.New(ctx, h.host)
	if err != nil {
		return nil, errors.Wrap(err, "initing DHT")
	}
	if err := h.dht.Bootstrap(ctx); err != nil {
		return nil, errors.Wrap(err, "bootstrapping DHT")
	}

	h.discovery = discovery.NewRoutingDiscovery(h.dht)

	h.pubsub, err = newGossipSub(ctx, h)
	if err != nil {
		return nil, err
	}

	h.mdns = mdns.NewMdnsService(h.host, cfg.P2P().MdnsService, h)
	if err := h.mdns.Start(); err != nil {
		return nil, errors.Wrap(err, "starting mdns discovery")
	}

	return h, nil
}

func newGossipSub(ctx context.Context, h *p2pHost) (*pubsub.PubSub, error) {
	p, err := pubsub.NewGossipSub(ctx, h.host,
		pubsub.WithPeerExchange(true),
		pubsub.WithDiscovery(h.discovery),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating gossipsub router")
	}

	return p, nil
}

func buildListeningAddrs(ctx context.Context, cfg *config.Config) (libp2p.Option, error) {
	maAddrs := []multiaddr.Multiaddr{}

	for _, addr := range cfg.P2P().ListenAddrs {
		maddr, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			return nil, err
		}
		maAddrs = append(maAddrs, maddr)
	}

	return libp2p.ListenAddrs(maAddrs...), nil
}

// HandlePeerFound implements mdns.Notifee. Discovered LAN peers are recorded
// and dialed so gossipsub can pull them into the mesh.
func (h *p2pHost) HandlePeerFound(pi peer.AddrInfo) {
	if pi.ID == h.host.ID() {
		return
	}

	h.peersMu.Lock()
	if _, ok := h.known[pi.ID]; !ok {
		h.known[pi.ID] = struct{}{}
		h.discovered = append(h.discovered, pi.ID)
		h.log.WithField("peer", pi.ID).Info("discovered peer")
	}
	h.peersMu.Unlock()

	go func() {
		if err := h.host.Connect(context.Background(), pi); err != nil {
			h.log.WithError(err).WithField("peer", pi.ID).Debug("connecting to discovered peer")
			h.forgetPeer(pi.ID)
		}
	}()
}

func (h *p2pHost) forgetPeer(id peer.ID) {
	h.peersMu.Lock()
	defer h.peersMu.Unlock()

	if _, ok := h.known[id]; !ok {
		return
	}

	delete(h.known, id)
	for i, p := range h.discovered {
		if p == id {
			h.discovered = append(h.discovered[:i], h.discovered[i+1:]...)
			break
		}
	}

	h.log.WithField("peer", id).Debug("peer left")
}

// Peers returns currently discovered peers in discovery order.
func (h *p2pHost) Peers() []peer.ID {
	h.peersMu.RLock()
	defer h.peersMu.RUnlock()

	out := make([]peer.ID, len(h.discovered))
	copy(out, h.discovered)
	return out
}

func (h *p2pHost) joinTopic(name string) (*pubsub.Topic, error) {
	t, ok := h.topics[name]
	if !ok {
		var err error
		t, err = h.pubsub.Join(name)
		if err != nil {
			return nil, errors.Wrapf(err, "joining topic %s", name)
		}
		h.topics[name] = t
	}

	return t, nil
}

// Publish implements gossip.Publisher. Delivery is best effort.
func (h *p2pHost) Publish(ctx context.Context, topic string, env *gossip.Envelope) error {
	t, err := h.joinTopic(topic)
	if err != nil {
		return err
	}

	b, err := env.Marshal()
	if err != nil {
		return err
	}

	return t.Publish(ctx, b)
}

type gossipEvent struct {
	env  *gossip.Envelope
	from peer.ID
}

// Msgs pumps decoded envelopes from topic into a channel. Malformed or
// unrecognized payloads and our own publishes are dropped.
func (h *p2pHost) Msgs(ctx context.Context, topic string) (<-chan gossipEvent, error) {
	t, err := h.joinTopic(topic)
	if err != nil {
		return nil, err
	}

	sub, err := t.Subscribe()
	if err != nil {
		return nil, errors.Wrapf(err, "subscribing to %s", topic)
	}

	ch := make(chan gossipEvent, pubsubBuf)

	go func() {
		defer close(ch)
		for {
			m, err := sub.Next(ctx)
			if err != nil {
				h.log.WithError(err).Debugf("sub %s closed", topic)
				return
			}

			if m.GetFrom() == h.host.ID() {
				continue
			}

			env, err := gossip.Decode(m.Data)
			if err != nil {
				h.log.WithError(err).WithField("from", m.GetFrom()).Debug("discarding message")
				continue
			}

			ch <- gossipEvent{env: env, from: m.GetFrom()}
		}
	}()

	return ch, nil
}
