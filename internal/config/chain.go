package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Chain struct {
	Difficulty  int
	ChainsTopic string
	BlocksTopic string
	SyncDelay   time.Duration
}

const (
	Cfg_chain_difficulty  = "chain.difficulty"
	Cfg_chain_chainsTopic = "chain.topics.chains"
	Cfg_chain_blocksTopic = "chain.topics.blocks"
	Cfg_chain_syncDelay   = "chain.syncDelay"
)

var (
	chainDefaults = map[string]interface{}{
		Cfg_chain_difficulty:  3,
		Cfg_chain_chainsTopic: "chains",
		Cfg_chain_blocksTopic: "blocks",
		Cfg_chain_syncDelay:   time.Second,
	}
)

func init() {
	for k, v := range chainDefaults {
		viper.SetDefault(k, v)
	}
}

func buildChainConfig() (*Chain, error) {
	c := &Chain{}

	c.Difficulty = viper.GetInt(Cfg_chain_difficulty)
	if c.Difficulty < 1 || c.Difficulty > 64 {
		return nil, errors.Errorf("difficulty %d out of range", c.Difficulty)
	}

	c.ChainsTopic = viper.GetString(Cfg_chain_chainsTopic)
	c.BlocksTopic = viper.GetString(Cfg_chain_blocksTopic)
	c.SyncDelay = viper.GetDuration(Cfg_chain_syncDelay)

	return c, nil
}
