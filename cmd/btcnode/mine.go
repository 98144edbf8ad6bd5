package main

import (
	"context"
	"os"

	"github.com/dmills/btcnode/internal/miner"
	"github.com/dmills/btcnode/internal/wire"
)

func mineFile(path string) (nonce uint32, hash [32]byte, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, hash, false, err
	}
	block, err := wire.ReadBlock(wire.NewReader(data))
	if err != nil {
		return 0, hash, false, err
	}
	nonce, ok = miner.Mine(context.Background(), block.Header, 0)
	if !ok {
		return nonce, hash, false, nil
	}
	block.Header.Nonce = nonce
	return nonce, block.Header.Hash(), true, nil
}
