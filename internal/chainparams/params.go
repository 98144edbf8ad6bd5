// Package chainparams exposes the network-specific constants (magic,
// default port, genesis hash) the node is configured against, sourced
// from btcsuite/btcd's chaincfg rather than hand-copied literals.
package chainparams

import (
	"github.com/btcsuite/btcd/chaincfg"
)

// Params is the subset of chaincfg.Params this node consults.
type Params struct {
	Name          string
	Magic         uint32
	DefaultPort   uint16
	GenesisHash   [32]byte
	PowLimitBits  uint32
}

var portByNetwork = map[string]uint16{
	"mainnet":  8333,
	"testnet3": 18333,
	"regtest":  18444,
}

func fromChaincfg(p *chaincfg.Params) Params {
	var hash [32]byte
	copy(hash[:], p.GenesisHash[:])
	return Params{
		Name:         p.Name,
		Magic:        uint32(p.Net),
		DefaultPort:  portByNetwork[p.Name],
		GenesisHash:  hash,
		PowLimitBits: p.PowLimitBits,
	}
}

// Mainnet is the node's default network: magic 0xD9B4BEF9, port 8333.
var Mainnet = fromChaincfg(&chaincfg.MainNetParams)

// Testnet3 is the legacy Bitcoin test network.
var Testnet3 = fromChaincfg(&chaincfg.TestNet3Params)

// Regtest is the local regression-test network.
var Regtest = fromChaincfg(&chaincfg.RegressionNetParams)

// ByName resolves one of "mainnet", "testnet3", or "regtest" (chaincfg's
// own network names), returning ok=false for anything else.
func ByName(name string) (Params, bool) {
	switch name {
	case chaincfg.MainNetParams.Name:
		return Mainnet, true
	case chaincfg.TestNet3Params.Name:
		return Testnet3, true
	case chaincfg.RegressionNetParams.Name:
		return Regtest, true
	default:
		return Params{}, false
	}
}
