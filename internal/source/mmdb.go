// Package source loads the input network set for a run, either from the
// inline config list or from the records of an MMDB database.
package source

import (
	"fmt"
	"net/netip"

	"github.com/oschwald/maxminddb-golang/v2"

	"github.com/cidrkit/cidrkit/internal/ipaddr"
)

// MMDB reads the recorded networks out of an MMDB database file.
type MMDB struct {
	reader *maxminddb.Reader
}

// OpenMMDB opens an MMDB database file.
func OpenMMDB(path string) (*MMDB, error) {
	reader, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening MMDB file '%s': %w", path, err)
	}
	return &MMDB{reader: reader}, nil
}

// Close closes the underlying database.
func (m *MMDB) Close() error {
	if err := m.reader.Close(); err != nil {
		return fmt.Errorf("closing MMDB reader: %w", err)
	}
	return nil
}

// Networks returns every network with data recorded in the database.
func (m *MMDB) Networks() ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for result := range m.reader.Networks() {
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("iterating MMDB networks: %w", err)
		}
		prefixes = append(prefixes, result.Prefix())
	}
	return prefixes, nil
}

// Load resolves the input networks as core address values. Exactly one of
// networks and mmdbPath is expected; config validation enforces that.
func Load(networks []string, mmdbPath string) ([]ipaddr.IP, error) {
	if mmdbPath == "" {
		out := make([]ipaddr.IP, 0, len(networks))
		for _, s := range networks {
			ip, err := ipaddr.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("input network %q: %w", s, err)
			}
			out = append(out, ip)
		}
		return out, nil
	}

	db, err := OpenMMDB(mmdbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	prefixes, err := db.Networks()
	if err != nil {
		return nil, err
	}
	out := make([]ipaddr.IP, 0, len(prefixes))
	for _, p := range prefixes {
		ip, err := ipaddr.FromPrefix(p)
		if err != nil {
			return nil, fmt.Errorf("MMDB network %s: %w", p, err)
		}
		out = append(out, ip)
	}
	return out, nil
}
