// Package selftest implements "node test": the node's built-in
// self-tests (spec §6 CLI contract), exercising the concrete end-to-end
// fixtures named in spec §8 without requiring `go test`.
package selftest

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/dmills/btcnode/internal/bchash"
	"github.com/dmills/btcnode/internal/chain"
	"github.com/dmills/btcnode/internal/wire"
)

type check struct {
	name string
	fn   func() error
}

// Run executes every self-test, writing a PASS/FAIL line per check to w,
// and returns true iff all checks passed.
func Run(w io.Writer) bool {
	checks := []check{
		{"genesis header hash", checkGenesisHash},
		{"genesis merkle root", checkGenesisMerkle},
		{"sharipe(\"hello\")", checkSharipe},
		{"varint minimality", checkVarintMinimality},
		{"codec round-trip: version", checkVersionRoundTrip},
		{"target comparison", checkTargetComparison},
	}

	ok := true
	for _, c := range checks {
		if err := c.fn(); err != nil {
			fmt.Fprintf(w, "FAIL %s: %v\n", c.name, err)
			ok = false
			continue
		}
		fmt.Fprintf(w, "PASS %s\n", c.name)
	}
	return ok
}

// genesisHeaderHex is the canonical 80-byte mainnet genesis block header.
const genesisHeaderHex = "01000000" +
	"0000000000000000000000000000000000000000000000000000000000000000" +
	"3ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a" +
	"29ab5f49ffff001d1dac2b7c"

// genesisHashHex is dsha256 of the genesis header, in wire byte order.
const genesisHashHex = "6fe28c0ab6f1b372c1a6a246ae63f74f931e8365e15a089c68d6190000000000"

// genesisCoinbaseHex is the serialized coinbase, the genesis block's only
// transaction.
const genesisCoinbaseHex = "01000000010000000000000000000000000000000000000000000000000000000000000000ffffffff4d04ffff001d0104455468652054696d65732030332f4a616e2f32303039204368616e63656c6c6f72206f6e206272696e6b206f66207365636f6e64206261696c6f757420666f722062616e6b73ffffffff0100f2052a01000000434104678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a4c702b6bf11d5fac00000000"

func genesisHeader() (wire.BlockHeader, error) {
	raw, err := hex.DecodeString(genesisHeaderHex)
	if err != nil {
		return wire.BlockHeader{}, err
	}
	if len(raw) != wire.BlockHeaderSize {
		return wire.BlockHeader{}, fmt.Errorf("genesis header fixture has %d bytes, want %d", len(raw), wire.BlockHeaderSize)
	}
	return wire.ReadBlockHeader(wire.NewReader(raw))
}

func checkGenesisHash() error {
	h, err := genesisHeader()
	if err != nil {
		return err
	}
	hash := h.Hash()
	if hex.EncodeToString(hash[:]) != genesisHashHex {
		return fmt.Errorf("genesis hash %x, want %s", hash, genesisHashHex)
	}
	if !chain.HashSatisfiesTarget(hash, h.Target) {
		return fmt.Errorf("genesis hash %x does not satisfy its own target", hash)
	}
	return nil
}

func checkGenesisMerkle() error {
	h, err := genesisHeader()
	if err != nil {
		return err
	}
	// The genesis block carries exactly one (coinbase) transaction, so
	// its Merkle root must equal dsha256(serialize(tx0)).
	raw, err := hex.DecodeString(genesisCoinbaseHex)
	if err != nil {
		return err
	}
	tx, err := wire.ReadTransaction(wire.NewReader(raw))
	if err != nil {
		return err
	}
	root := chain.MerkleRoot([][32]byte{tx.TxID()})
	if root != h.MerkleRoot {
		return fmt.Errorf("genesis merkle root %x, header has %x", root, h.MerkleRoot)
	}
	return nil
}

func checkSharipe() error {
	got := bchash.Hash160([]byte("hello"))
	want, err := hex.DecodeString("b6a9c8c230722b7c748331a8b450f05566dc7d0f")
	if err != nil {
		return err
	}
	if hex.EncodeToString(got[:]) != hex.EncodeToString(want) {
		return fmt.Errorf("sharipe(\"hello\") = %x, want %x", got, want)
	}
	return nil
}

func checkVarintMinimality() error {
	cases := []uint64{0, 0xFC, 0xFD, 0xFFFF, 0x10000, 0xFFFFFFFF, 0x100000000}
	for _, n := range cases {
		w := wire.NewWriter()
		w.WriteVarInt(n)
		if w.Len() != wire.VarIntWidth(n) {
			return fmt.Errorf("varint(%d) wrote %d bytes, want %d", n, w.Len(), wire.VarIntWidth(n))
		}
		r := wire.NewReader(w.Bytes())
		got, err := r.ReadVarInt()
		if err != nil {
			return err
		}
		if got != n {
			return fmt.Errorf("varint round-trip: got %d, want %d", got, n)
		}
	}
	return nil
}

func checkVersionRoundTrip() error {
	v := wire.VersionPayload{
		Version:     70015,
		Services:    1,
		Timestamp:   1700000000,
		Nonce:       123456789,
		UserAgent:   "/btcnode:0.1.0/",
		StartHeight: 0,
		Relay:       true,
	}
	encoded := v.Encode()
	decoded, err := wire.DecodeVersionPayload(encoded)
	if err != nil {
		return err
	}
	if decoded != v {
		return fmt.Errorf("version payload round-trip mismatch: got %+v, want %+v", decoded, v)
	}
	return nil
}

func checkTargetComparison() error {
	const compact = 0x1d00ffff
	target := chain.ExpandTarget(compact)
	atTarget := reverseBigIntTo32(target)
	if !chain.HashSatisfiesTarget(atTarget, compact) {
		return fmt.Errorf("hash == target must satisfy the target")
	}
	above := atTarget
	above[0]++ // atTarget[0] is the integer's least-significant byte; the
	// genesis-era target's low 26 bytes are zero, so this can't carry.
	if chain.HashSatisfiesTarget(above, compact) {
		return fmt.Errorf("hash == target+1 must not satisfy the target")
	}
	return nil
}

func reverseBigIntTo32(n interface {
	Bytes() []byte
}) [32]byte {
	raw := n.Bytes()
	var be [32]byte
	copy(be[32-len(raw):], raw)
	var out [32]byte
	for i := 0; i < 32; i++ {
		out[i] = be[31-i]
	}
	return out
}
