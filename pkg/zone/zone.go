// Package zone holds an in-memory DNS zone keyed by owner name and
// RRset, the shape the digest engine walks. It is loaded from a master
// file and written back out after a ZONEMD record has been added.
package zone

import (
	"fmt"

	"github.com/miekg/dns"
)

// RRCodec renders and canonicalizes the RDATA of one record type. The
// registry is handed to the zone at construction time so that record
// types the rest of the toolkit has no deep knowledge of (ZONEMD) get
// their bytes and presentation text from their own codec instead of a
// process-wide table.
type RRCodec interface {
	// CanonicalRdata returns the canonical wire encoding of the
	// record's RDATA, embedded names lowercased.
	CanonicalRdata(rr dns.RR) ([]byte, error)
	// Text returns the full presentation line for the record. With
	// generic set the RDATA is rendered in RFC 3597 unknown-type form.
	Text(rr dns.RR, generic bool) (string, error)
}

// CodecRegistry maps a record type code to its codec.
type CodecRegistry map[uint16]RRCodec

// SetKey identifies one RRset within a node. Covers is zero except for
// RRSIG sets, where it holds the covered type so that a signature set
// covering ZONEMD is a distinct set from the other apex signatures.
type SetKey struct {
	Rrtype uint16
	Covers uint16
}

// RRset is all records sharing owner name, type and class. The TTL is
// the TTL of the first record inserted; members are expected to agree.
type RRset struct {
	Rrtype  uint16
	Covers  uint16
	Class   uint16
	TTL     uint32
	Records []dns.RR
}

type node struct {
	sets map[SetKey]*RRset
}

// Zone is a mapping from owner name to node. Iteration order over
// names and sets is map order; callers that need canonical order sort
// for themselves.
type Zone struct {
	origin string
	codecs CodecRegistry
	names  map[string]*node
}

// New creates an empty zone for origin with the given codec registry.
// The registry may be nil, in which case every record renders and
// packs through miekg/dns alone.
func New(origin string, codecs CodecRegistry) *Zone {
	return &Zone{
		origin: dns.CanonicalName(origin),
		codecs: codecs,
		names:  make(map[string]*node),
	}
}

// Origin returns the zone origin as a canonical FQDN.
func (z *Zone) Origin() string { return z.origin }

// Codec returns the registered codec for a type, or nil.
func (z *Zone) Codec(rrtype uint16) RRCodec {
	if z.codecs == nil {
		return nil
	}
	return z.codecs[rrtype]
}

func keyFor(rr dns.RR) SetKey {
	k := SetKey{Rrtype: rr.Header().Rrtype}
	if sig, ok := rr.(*dns.RRSIG); ok {
		k.Covers = sig.TypeCovered
	}
	return k
}

// Insert adds a record to the zone, creating the owner node and RRset
// as needed. The owner name is stored in canonical (lowercased, fully
// qualified) form.
func (z *Zone) Insert(rr dns.RR) error {
	h := rr.Header()
	name := dns.CanonicalName(h.Name)
	if _, ok := dns.IsDomainName(name); !ok {
		return fmt.Errorf("invalid owner name %q", h.Name)
	}
	n, ok := z.names[name]
	if !ok {
		n = &node{sets: make(map[SetKey]*RRset)}
		z.names[name] = n
	}
	key := keyFor(rr)
	set, ok := n.sets[key]
	if !ok {
		set = &RRset{
			Rrtype: key.Rrtype,
			Covers: key.Covers,
			Class:  h.Class,
			TTL:    h.Ttl,
		}
		n.sets[key] = set
	}
	set.Records = append(set.Records, rr)
	return nil
}

// Names returns all owner names in the zone, in no particular order.
func (z *Zone) Names() []string {
	names := make([]string, 0, len(z.names))
	for name := range z.names {
		names = append(names, name)
	}
	return names
}

// Sets returns the RRsets at a name, in no particular order. The name
// must be in canonical form.
func (z *Zone) Sets(name string) []*RRset {
	n, ok := z.names[name]
	if !ok {
		return nil
	}
	sets := make([]*RRset, 0, len(n.sets))
	for _, set := range n.sets {
		sets = append(sets, set)
	}
	return sets
}

// Lookup returns the RRset for key at name, or nil.
func (z *Zone) Lookup(name string, key SetKey) *RRset {
	n, ok := z.names[dns.CanonicalName(name)]
	if !ok {
		return nil
	}
	return n.sets[key]
}

// Replace installs set as the only RRset of its key at name, creating
// the node if needed.
func (z *Zone) Replace(name string, set *RRset) {
	name = dns.CanonicalName(name)
	n, ok := z.names[name]
	if !ok {
		n = &node{sets: make(map[SetKey]*RRset)}
		z.names[name] = n
	}
	n.sets[SetKey{Rrtype: set.Rrtype, Covers: set.Covers}] = set
}

// DeleteType removes every RRset of the given type at name, regardless
// of covered type. It reports whether anything was removed.
func (z *Zone) DeleteType(name string, rrtype uint16) bool {
	n, ok := z.names[dns.CanonicalName(name)]
	if !ok {
		return false
	}
	removed := false
	for key := range n.sets {
		if key.Rrtype == rrtype {
			delete(n.sets, key)
			removed = true
		}
	}
	if len(n.sets) == 0 {
		delete(z.names, dns.CanonicalName(name))
	}
	return removed
}

// SOA returns the zone's SOA record and the TTL of its RRset. The SOA
// is looked up at the origin.
func (z *Zone) SOA() (*dns.SOA, uint32, error) {
	set := z.Lookup(z.origin, SetKey{Rrtype: dns.TypeSOA})
	if set == nil || len(set.Records) == 0 {
		return nil, 0, fmt.Errorf("zone %s has no SOA record", z.origin)
	}
	soa, ok := set.Records[0].(*dns.SOA)
	if !ok {
		return nil, 0, fmt.Errorf("zone %s has a malformed SOA record", z.origin)
	}
	return soa, set.TTL, nil
}

// Len returns the total number of records in the zone.
func (z *Zone) Len() int {
	total := 0
	for _, n := range z.names {
		for _, set := range n.sets {
			total += len(set.Records)
		}
	}
	return total
}

// All returns every record in the zone, in no particular order.
func (z *Zone) All() []dns.RR {
	rrs := make([]dns.RR, 0, z.Len())
	for _, n := range z.names {
		for _, set := range n.sets {
			rrs = append(rrs, set.Records...)
		}
	}
	return rrs
}
