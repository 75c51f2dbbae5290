package config

import (
	"github.com/spf13/viper"
)

type P2P struct {
	Connections struct {
		PeersCountHigh int
		PeersCountLow  int
	}
	BootstrapPeers []string
	ListenAddrs    []string
	IdentityFile   string
	MdnsService    string
	Relay          bool
}

const (
	Cfg_p2p_connections_peerCountLow  = "p2p.connections.peerCountLow"
	Cfg_p2p_connections_peerCountHigh = "p2p.connections.peerCountHigh"
	Cfg_p2p_bootstrapPeers            = "p2p.bootstrapPeers"
	Cfg_p2p_listeningAddrs            = "p2p.listeningAddrs"
	Cfg_p2p_identityFile              = "p2p.identityFile"
	Cfg_p2p_mdnsService               = "p2p.mdnsService"
	Cfg_p2p_enableRelay               = "p2p.enableRelay"
)

var (
	p2pDefaults = map[string]interface{}{
		Cfg_p2p_connections_peerCountLow:  160,
		Cfg_p2p_connections_peerCountHigh: 192,
		Cfg_p2p_bootstrapPeers:            []string{},
		Cfg_p2p_listeningAddrs: []string{
			"/ip4/0.0.0.0/tcp/0",
			"/ip6/::0/tcp/0",
		},
		Cfg_p2p_identityFile: "gossipchain.key",
		Cfg_p2p_mdnsService:  "gossipchain",
		Cfg_p2p_enableRelay:  false,
	}
)

func init() {
	for k, v := range p2pDefaults {
		viper.SetDefault(k, v)
	}
}

func buildP2PConfig() (*P2P, error) {
	c := &P2P{}

	c.Connections.PeersCountLow = viper.GetInt(Cfg_p2p_connections_peerCountLow)
	c.Connections.PeersCountHigh = viper.GetInt(Cfg_p2p_connections_peerCountHigh)
	c.BootstrapPeers = viper.GetStringSlice(Cfg_p2p_bootstrapPeers)
	c.ListenAddrs = viper.GetStringSlice(Cfg_p2p_listeningAddrs)
	c.IdentityFile = viper.GetString(Cfg_p2p_identityFile)
	c.MdnsService = viper.GetString(Cfg_p2p_mdnsService)
	c.Relay = viper.GetBool(Cfg_p2p_enableRelay)

	return c, nil
}
