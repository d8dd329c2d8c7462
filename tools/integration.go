package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/warp-contracts/dealer/src/utils/config"
	"github.com/warp-contracts/dealer/src/utils/eth"
	"github.com/warp-contracts/dealer/src/utils/logger"
)

// Prints the randomizer's state and the latest assignments, without sending anything
func main() {
	network := flag.String("network", "avaxtest", "network preset")
	blocks := flag.Uint64("blocks", 1000, "number of recent blocks to scan")
	flag.Parse()

	conf := config.Default()
	conf.Chain.Network = *network

	net, err := eth.GetNetwork(&conf.Chain)
	if err != nil {
		log.Fatal(err)
	}

	client, err := eth.GetEthClient(logger.NewSublogger("integration"), net)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	randomizer := eth.NewRandomizer(&conf.Chain, net, client)

	state, err := randomizer.ControlState(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("block: %d requestCounter: %d totalUsableHashes: %d\n", state.Block, state.RequestCounter, state.TotalUsableHashes)

	from := uint64(0)
	if state.Block > *blocks {
		from = state.Block - *blocks
	}

	events, err := randomizer.SecretHashAssigned(ctx, from, state.Block)
	if err != nil {
		log.Fatal(err)
	}

	for _, event := range events {
		revealed, err := randomizer.IsHashRevealed(ctx, event.SecretHash)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("block: %d index: %d hash: %s revealed: %t\n", event.Block, event.SecretIndex, event.SecretHash.Hex(), revealed)
	}
}
