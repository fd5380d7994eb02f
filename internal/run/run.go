// Package run wires a configured cidrkit invocation together: load the
// input networks, apply one operation, write the result.
package run

import (
	"fmt"
	"io"
	"os"

	"github.com/cidrkit/cidrkit/internal/config"
	"github.com/cidrkit/cidrkit/internal/export"
	"github.com/cidrkit/cidrkit/internal/ipaddr"
	"github.com/cidrkit/cidrkit/internal/ipv4"
	"github.com/cidrkit/cidrkit/internal/ipv6"
	"github.com/cidrkit/cidrkit/internal/source"
)

// Run executes one configured invocation. Text output without a path goes
// to stdout; progress lines go to stderr unless quiet is set.
func Run(cfg *config.Config, stdout io.Writer, quiet bool) error {
	ips, err := source.Load(cfg.Input.Networks, cfg.Input.MMDB)
	if err != nil {
		return err
	}
	progress(quiet, "loaded %d network(s)", len(ips))

	results, err := apply(cfg.Operation, ips)
	if err != nil {
		return err
	}
	progress(quiet, "operation %s produced %d network(s)", cfg.Operation.Kind, len(results))

	writer, closeOut, err := newWriter(cfg.Output, stdout)
	if err != nil {
		return err
	}
	defer closeOut()

	for _, ip := range results {
		if err := writer.WriteNetwork(ip); err != nil {
			return err
		}
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	progress(quiet, "wrote %s output", cfg.Output.Format)
	return nil
}

func progress(quiet bool, format string, args ...any) {
	if quiet {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func apply(op config.Operation, ips []ipaddr.IP) ([]ipaddr.IP, error) {
	switch op.Kind {
	case config.OpInfo:
		return ips, nil

	case config.OpSummarize:
		v4s, err := asIPv4All(op.Kind, ips)
		if err != nil {
			return nil, err
		}
		return wrap(ipv4.Summarize(v4s...)), nil

	case config.OpSplit:
		if len(ips) != 1 {
			return nil, fmt.Errorf("operation 'split' takes exactly one network, got %d", len(ips))
		}
		a, err := asIPv4(op.Kind, ips[0])
		if err != nil {
			return nil, err
		}
		nets, err := a.Split(op.Count)
		if err != nil {
			return nil, err
		}
		return wrap(nets), nil

	case config.OpSubnet:
		var out []ipaddr.IP
		for _, ip := range ips {
			a, err := asIPv4(op.Kind, ip)
			if err != nil {
				return nil, err
			}
			nets, err := a.Subnet(op.Prefix)
			if err != nil {
				return nil, err
			}
			out = append(out, wrap(nets)...)
		}
		return out, nil

	case config.OpSupernet:
		var out []ipaddr.IP
		for _, ip := range ips {
			a, err := asIPv4(op.Kind, ip)
			if err != nil {
				return nil, err
			}
			net, err := a.Supernet(op.Prefix)
			if err != nil {
				return nil, err
			}
			out = append(out, net)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown operation kind '%s'", op.Kind)
	}
}

// asIPv4 narrows an input to IPv4. Mapped addresses unwrap to their
// embedded IPv4 view, carrying over the host part of the mapped prefix.
func asIPv4(kind string, ip ipaddr.IP) (*ipv4.Address, error) {
	switch a := ip.(type) {
	case *ipv4.Address:
		return a, nil
	case *ipv6.Mapped:
		v4 := a.IPv4()
		if l := a.Prefix().Len(); l >= 96 {
			return v4.WithPrefix(l - 96)
		}
		return v4, nil
	default:
		return nil, fmt.Errorf("operation '%s' supports IPv4 networks only, got %s", kind, ip.Canonical())
	}
}

func asIPv4All(kind string, ips []ipaddr.IP) ([]*ipv4.Address, error) {
	out := make([]*ipv4.Address, 0, len(ips))
	for _, ip := range ips {
		a, err := asIPv4(kind, ip)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func wrap(nets []*ipv4.Address) []ipaddr.IP {
	out := make([]ipaddr.IP, len(nets))
	for i, n := range nets {
		out[i] = n
	}
	return out
}

func newWriter(out config.Output, stdout io.Writer) (export.Writer, func(), error) {
	noop := func() {}
	switch out.Format {
	case config.FormatText:
		if out.Path == "" {
			return export.NewTextWriter(stdout), noop, nil
		}
		f, err := os.Create(out.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("creating output file: %w", err)
		}
		return export.NewTextWriter(f), func() { f.Close() }, nil
	case config.FormatMMDB:
		w, err := export.NewMMDBWriter(out.Path, out.MMDB)
		return w, noop, err
	case config.FormatParquet:
		return export.NewParquetWriter(out.Path), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown output format '%s'", out.Format)
	}
}
