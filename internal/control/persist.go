package control

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/dmills/btcnode/internal/wire"
)

// addrRecordSize is the fixed on-disk width of one peers.dat record:
// NetworkAddress (services u64 + ip 16 + port u16) plus its timestamp u32.
const addrRecordSize = 8 + 16 + 2 + 4

// savePeersBinary writes peers.dat: a u32 count followed by that many
// fixed-size address records, per spec §6.
func (n *Node) savePeersBinary(path string) error {
	records := n.addrBook.Snapshot()

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("control: create %s: %w", tmp, err)
	}
	w := bufio.NewWriter(f)

	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(records)))
	if _, err := w.Write(countBuf[:]); err != nil {
		f.Close()
		return err
	}
	for _, rec := range records {
		ww := wire.NewWriter()
		rec.Write(ww)
		if _, err := w.Write(ww.Bytes()); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// loadPeersBinary reads a peers.dat file written by savePeersBinary.
func loadPeersBinary(path string) ([]wire.AddressRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := wire.NewReader(data)
	count, err := r.ReadU32LE()
	if err != nil {
		return nil, err
	}
	out := make([]wire.AddressRecord, 0, count)
	for i := uint32(0); i < count; i++ {
		rec, err := wire.ReadAddressRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// LoadPeers seeds the address book from a previously-saved peers.dat.
func (n *Node) LoadPeers(path string) error {
	records, err := loadPeersBinary(path)
	if err != nil {
		return err
	}
	for _, rec := range records {
		n.addrBook.Add(rec.Addr, rec.Timestamp)
	}
	return nil
}

// exportPeersCSV writes a textual peers.csv export (timestamp, ip, port,
// services), the supplemented feature named in spec §6's persistent
// state layout.
func (n *Node) exportPeersCSV(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("control: create %s: %w", tmp, err)
	}
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "timestamp,ip,port,services")
	for _, rec := range n.addrBook.Snapshot() {
		fmt.Fprintf(w, "%d,%s,%d,%d\n", rec.Timestamp, rec.Addr.IPString(), rec.Addr.Port, rec.Addr.Services)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
