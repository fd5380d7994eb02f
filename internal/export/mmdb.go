package export

import (
	"fmt"
	"net/netip"
	"os"

	"github.com/maxmind/mmdbwriter"
	"github.com/maxmind/mmdbwriter/mmdbtype"
	"go4.org/netipx"

	"github.com/cidrkit/cidrkit/internal/config"
	"github.com/cidrkit/cidrkit/internal/ipaddr"
)

// MMDBWriter stores each network with its tabular metadata in an MMDB tree
// and writes the tree to disk on Flush.
type MMDBWriter struct {
	tree     *mmdbwriter.Tree
	filePath string
}

// NewMMDBWriter creates an MMDB writer at outputPath. The tree is built
// with IP version 6 so IPv4 and IPv6 networks can share one database, and
// reserved networks are kept because private blocks are routine input here.
func NewMMDBWriter(outputPath string, cfg config.MMDB) (*MMDBWriter, error) {
	tree, err := mmdbwriter.New(mmdbwriter.Options{
		DatabaseType:            cfg.DatabaseType,
		Description:             cfg.Description,
		RecordSize:              *cfg.RecordSize,
		IPVersion:               6,
		IncludeReservedNetworks: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating MMDB tree: %w", err)
	}
	return &MMDBWriter{tree: tree, filePath: outputPath}, nil
}

// WriteNetwork records a network and its derived metadata.
func (w *MMDBWriter) WriteNetwork(ip ipaddr.IP) error {
	row, err := RowFor(ip)
	if err != nil {
		return err
	}

	p, err := ipaddr.ToPrefix(ip)
	if err != nil {
		return err
	}
	ipnet := netipx.PrefixIPNet(p.Masked())
	if err := w.tree.Insert(ipnet, rowData(row)); err != nil {
		return fmt.Errorf("inserting %s: %w", p, err)
	}
	return nil
}

// WriteRange records every CIDR block covering the span start to end with
// the same metadata.
func (w *MMDBWriter) WriteRange(start, end netip.Addr, row Row) error {
	cidrs := netipx.IPRangeFrom(start, end).Prefixes()
	for _, cidr := range cidrs {
		ipnet := netipx.PrefixIPNet(cidr)
		if err := w.tree.Insert(ipnet, rowData(row)); err != nil {
			return fmt.Errorf("inserting %s: %w", cidr, err)
		}
	}
	return nil
}

// Flush writes the MMDB tree to disk.
func (w *MMDBWriter) Flush() error {
	f, err := os.Create(w.filePath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	if _, err := w.tree.WriteTo(f); err != nil {
		return fmt.Errorf("writing MMDB to file: %w", err)
	}
	return nil
}

func rowData(row Row) mmdbtype.Map {
	return mmdbtype.Map{
		"network": mmdbtype.String(row.Network),
		"version": mmdbtype.Int32(row.Version),
		"first":   mmdbtype.String(row.First),
		"last":    mmdbtype.String(row.Last),
		"size":    mmdbtype.String(row.Size),
	}
}
