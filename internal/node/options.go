package node

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/gossipchain/gossipchain/internal/utils/logging"
	"github.com/gossipchain/gossipchain/pkg/ledger"
)

type NodeOption func(*Node) error

func WithLogger(l *logrus.Logger) NodeOption {
	return func(n *Node) error {
		n.logger = l
		return nil
	}
}

// WithChain seeds the node with an existing chain instead of a fresh
// genesis.
func WithChain(c *ledger.Chain) NodeOption {
	return func(n *Node) error {
		n.chain = c
		return nil
	}
}

func WithDefaultOptions(ctx context.Context) NodeOption {
	return func(n *Node) error {
		n.logger = logging.Entry().Logger
		return nil
	}
}
