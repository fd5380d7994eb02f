// Package export writes computed networks to the configured destination in
// text, MMDB or Parquet form.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/cidrkit/cidrkit/internal/ipaddr"
	"github.com/cidrkit/cidrkit/internal/ipv4"
	"github.com/cidrkit/cidrkit/internal/ipv6"
)

// Writer receives each computed network and persists it on Flush.
type Writer interface {
	WriteNetwork(ip ipaddr.IP) error
	Flush() error
}

// Row is the tabular view of one network, shared by the Parquet and MMDB
// exporters. Counts are rendered as decimal strings because an IPv6 block
// size exceeds uint64.
type Row struct {
	Network string `parquet:"network"`
	Version int32  `parquet:"version"`
	First   string `parquet:"first"`
	Last    string `parquet:"last"`
	Size    string `parquet:"size"`
}

// RowFor derives the tabular view of a network.
func RowFor(ip ipaddr.IP) (Row, error) {
	switch a := ip.(type) {
	case *ipv4.Address:
		return Row{
			Network: a.Network().Canonical(),
			Version: 4,
			First:   a.First().String(),
			Last:    a.Last().String(),
			Size:    strconv.FormatUint(a.Size(), 10),
		}, nil
	case *ipv6.Address:
		return rowForV6(a)
	case *ipv6.Mapped:
		return rowForV6(&a.Address)
	default:
		return Row{}, fmt.Errorf("unsupported address type %T", ip)
	}
}

func rowForV6(a *ipv6.Address) (Row, error) {
	upper, err := ipv6.FromBigInt(a.BroadcastBigInt(), a.Prefix().Len())
	if err != nil {
		return Row{}, fmt.Errorf("deriving upper bound of %s: %w", a.Canonical(), err)
	}
	return Row{
		Network: a.Network().Canonical(),
		Version: 6,
		First:   a.Network().String(),
		Last:    upper.String(),
		Size:    a.Prefix().Size().String(),
	}, nil
}

// TextWriter writes one canonical network per line.
type TextWriter struct {
	w io.Writer
}

// NewTextWriter constructs a text writer over w.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

// WriteNetwork writes the canonical form of ip followed by a newline.
func (t *TextWriter) WriteNetwork(ip ipaddr.IP) error {
	if _, err := fmt.Fprintln(t.w, ip.Canonical()); err != nil {
		return fmt.Errorf("writing text row: %w", err)
	}
	return nil
}

// Flush is a no-op; text rows are written as they arrive.
func (t *TextWriter) Flush() error { return nil }
