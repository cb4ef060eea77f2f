package zone

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/miekg/dns"
)

// Parse reads a master file into a Zone. The file must contain an SOA
// record somewhere; without one the zone is rejected.
func Parse(f io.Reader, origin, fileName string, codecs CodecRegistry) (*Zone, error) {
	zp := dns.NewZoneParser(f, dns.Fqdn(origin), fileName)
	zp.SetIncludeAllowed(true)
	z := New(dns.Fqdn(origin), codecs)
	seenSOA := false
	for rr, ok := zp.Next(); ok; rr, ok = zp.Next() {
		if !seenSOA {
			if _, ok := rr.(*dns.SOA); ok {
				seenSOA = true
			}
		}
		if err := z.Insert(rr); err != nil {
			return nil, err
		}
	}
	if err := zp.Err(); err != nil {
		return nil, err
	}
	if !seenSOA {
		return nil, fmt.Errorf("zone %s has no SOA record", origin)
	}
	return z, nil
}

// Load parses the zone file at path.
func Load(path, origin string, codecs CodecRegistry) (*Zone, error) {
	reader, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return Parse(reader, origin, path, codecs)
}

// WriteTo writes the zone in master file format. The origin node comes
// first with its SOA set leading; every other name follows in plain
// string order. Records whose type has a registered codec render
// through it, with generic selecting RFC 3597 unknown-type form.
func (z *Zone) WriteTo(w io.Writer, generic bool) error {
	bw := bufio.NewWriter(w)
	names := z.Names()
	sort.Strings(names)
	ordered := make([]string, 0, len(names))
	if _, ok := z.names[z.origin]; ok {
		ordered = append(ordered, z.origin)
	}
	for _, name := range names {
		if name != z.origin {
			ordered = append(ordered, name)
		}
	}
	for _, name := range ordered {
		sets := z.Sets(name)
		sort.Slice(sets, func(i, j int) bool {
			a, b := sets[i], sets[j]
			// SOA leads its node, then type order.
			if (a.Rrtype == dns.TypeSOA) != (b.Rrtype == dns.TypeSOA) {
				return a.Rrtype == dns.TypeSOA
			}
			if a.Rrtype != b.Rrtype {
				return a.Rrtype < b.Rrtype
			}
			return a.Covers < b.Covers
		})
		for _, set := range sets {
			for _, rr := range set.Records {
				line, err := z.renderRR(rr, generic)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintln(bw, line); err != nil {
					return err
				}
			}
		}
	}
	return bw.Flush()
}

func (z *Zone) renderRR(rr dns.RR, generic bool) (string, error) {
	if c := z.Codec(rr.Header().Rrtype); c != nil {
		return c.Text(rr, generic)
	}
	return rr.String(), nil
}

// Save writes the zone to the file at path.
func (z *Zone) Save(path string, generic bool) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	if err := z.WriteTo(f, generic); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
