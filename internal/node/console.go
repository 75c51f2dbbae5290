package node

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/gossipchain/gossipchain/pkg/ledger"
)

// readConsole feeds stdin lines to the event loop. The channel closes on
// EOF; the node keeps running without a console.
func readConsole(ctx context.Context) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	return lines
}

func (n *Node) handleCommand(ctx context.Context, line string) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")

	switch cmd {
	case "":
	case "list-peers":
		n.printPeers()
	case "list-chain":
		n.printChain()
	case "create-block":
		n.createBlock(ctx, rest)
	default:
		fmt.Printf("unknown command %q (try list-peers, list-chain, create-block)\n", cmd)
	}
}

func (n *Node) printPeers() {
	peers := n.p2p.Peers()
	fmt.Printf("discovered %d peers\n", len(peers))
	for _, p := range peers {
		fmt.Println(p.String())
	}
}

func (n *Node) printChain() {
	out, err := json.MarshalIndent(n.chain.Blocks(), "", "  ")
	if err != nil {
		n.logger.WithError(err).Error("rendering chain")
		return
	}

	fmt.Println(string(out))
}

// createBlock parses a JSON transaction array and broadcasts an unmined
// block template, delegating the proof-of-work to the network.
func (n *Node) createBlock(ctx context.Context, raw string) {
	var txs []ledger.Transaction
	if err := json.Unmarshal([]byte(raw), &txs); err != nil {
		fmt.Printf("create-block expects a JSON transaction array: %v\n", err)
		return
	}

	if err := n.router.AnnounceTemplate(ctx, txs); err != nil {
		n.logger.WithError(err).Error("broadcasting block template")
	}
}
