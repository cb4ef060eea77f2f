package zonemd

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/miekg/dns"

	"github.com/zonemd/digestify/pkg/zone"
)

// ownerWire returns the canonical wire encoding of a name: lowercased,
// fully qualified, no compression.
func ownerWire(name string) ([]byte, error) {
	buf := make([]byte, 256)
	off, err := dns.PackDomainName(dns.CanonicalName(name), buf, 0, nil, false)
	if err != nil {
		return nil, fmt.Errorf("packing owner name %q: %w", name, err)
	}
	return buf[:off], nil
}

func wireLabels(name string) ([][]byte, error) {
	wire, err := ownerWire(name)
	if err != nil {
		return nil, err
	}
	var labels [][]byte
	for i := 0; wire[i] != 0; {
		n := int(wire[i])
		labels = append(labels, wire[i+1:i+1+n])
		i += n + 1
	}
	return labels, nil
}

// CompareNames orders owner names canonically: label by label starting
// from the label closest to the root, case-insensitively, with a name
// that is a proper prefix of another sorting first. This is the DNSSEC
// canonical zone order, and it puts the zone apex before every other
// name in the zone.
func CompareNames(a, b string) int {
	la, err := wireLabels(a)
	if err != nil {
		la = nil
	}
	lb, err := wireLabels(b)
	if err != nil {
		lb = nil
	}
	i, j := len(la)-1, len(lb)-1
	for i >= 0 && j >= 0 {
		if c := bytes.Compare(la[i], lb[j]); c != 0 {
			return c
		}
		i--
		j--
	}
	switch {
	case i >= 0:
		return 1
	case j >= 0:
		return -1
	}
	return 0
}

func sortedNames(z *zone.Zone) []string {
	names := z.Names()
	sort.Slice(names, func(i, j int) bool {
		return CompareNames(names[i], names[j]) < 0
	})
	return names
}

// canonicalRdata returns the canonical wire RDATA of a record: packed
// without compression, embedded names lowercased. A codec registered
// with the zone takes precedence over the generic packer.
func canonicalRdata(z *zone.Zone, rr dns.RR) ([]byte, error) {
	if c := z.Codec(rr.Header().Rrtype); c != nil {
		return c.CanonicalRdata(rr)
	}
	cp := dns.Copy(rr)
	cp.Header().Name = dns.CanonicalName(cp.Header().Name)
	canonicalizeRdataNames(cp)
	buf := make([]byte, dns.Len(cp)+1)
	off, err := dns.PackRR(cp, buf, 0, nil, false)
	if err != nil {
		return nil, fmt.Errorf("packing %s record: %w", dns.TypeToString[rr.Header().Rrtype], err)
	}
	owner, err := ownerWire(cp.Header().Name)
	if err != nil {
		return nil, err
	}
	// Skip the owner name and the fixed 10-byte type/class/ttl/rdlength
	// header to leave just the RDATA.
	return buf[len(owner)+10 : off], nil
}

// canonicalizeRdataNames lowercases the names embedded in RDATA for
// the record types whose canonical form requires it (RFC 4034 section
// 6.2). The record is modified in place, so callers pass a copy.
func canonicalizeRdataNames(rr dns.RR) {
	switch x := rr.(type) {
	case *dns.NS:
		x.Ns = dns.CanonicalName(x.Ns)
	case *dns.CNAME:
		x.Target = dns.CanonicalName(x.Target)
	case *dns.SOA:
		x.Ns = dns.CanonicalName(x.Ns)
		x.Mbox = dns.CanonicalName(x.Mbox)
	case *dns.MB:
		x.Mb = dns.CanonicalName(x.Mb)
	case *dns.MG:
		x.Mg = dns.CanonicalName(x.Mg)
	case *dns.MR:
		x.Mr = dns.CanonicalName(x.Mr)
	case *dns.PTR:
		x.Ptr = dns.CanonicalName(x.Ptr)
	case *dns.MINFO:
		x.Rmail = dns.CanonicalName(x.Rmail)
		x.Email = dns.CanonicalName(x.Email)
	case *dns.MX:
		x.Mx = dns.CanonicalName(x.Mx)
	case *dns.RP:
		x.Mbox = dns.CanonicalName(x.Mbox)
		x.Txt = dns.CanonicalName(x.Txt)
	case *dns.AFSDB:
		x.Hostname = dns.CanonicalName(x.Hostname)
	case *dns.RT:
		x.Host = dns.CanonicalName(x.Host)
	case *dns.SIG:
		x.SignerName = dns.CanonicalName(x.SignerName)
	case *dns.RRSIG:
		x.SignerName = dns.CanonicalName(x.SignerName)
	case *dns.PX:
		x.Map822 = dns.CanonicalName(x.Map822)
		x.Mapx400 = dns.CanonicalName(x.Mapx400)
	case *dns.NAPTR:
		x.Replacement = dns.CanonicalName(x.Replacement)
	case *dns.KX:
		x.Exchanger = dns.CanonicalName(x.Exchanger)
	case *dns.SRV:
		x.Target = dns.CanonicalName(x.Target)
	case *dns.DNAME:
		x.Target = dns.CanonicalName(x.Target)
	case *dns.NSEC:
		x.NextDomain = dns.CanonicalName(x.NextDomain)
	}
}

// orderedSet pairs an RRset with the canonical RDATA of its members,
// computed once, in stored member order.
type orderedSet struct {
	set    *zone.RRset
	rdatas [][]byte
}

func (o *orderedSet) first() []byte {
	if len(o.rdatas) == 0 {
		return nil
	}
	return o.rdatas[0]
}

// orderedSets returns the RRsets at a name in canonical visiting
// order: by type code, then by the wire RDATA of the first stored
// member, shorter first.
func orderedSets(z *zone.Zone, name string) ([]*orderedSet, error) {
	sets := z.Sets(name)
	ordered := make([]*orderedSet, 0, len(sets))
	for _, set := range sets {
		o := &orderedSet{set: set, rdatas: make([][]byte, 0, len(set.Records))}
		for _, rr := range set.Records {
			rd, err := canonicalRdata(z, rr)
			if err != nil {
				return nil, err
			}
			o.rdatas = append(o.rdatas, rd)
		}
		ordered = append(ordered, o)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.set.Rrtype != b.set.Rrtype {
			return a.set.Rrtype < b.set.Rrtype
		}
		fa, fb := a.first(), b.first()
		if len(fa) != len(fb) {
			return len(fa) < len(fb)
		}
		return bytes.Compare(fa, fb) < 0
	})
	return ordered, nil
}

// sortedRdatas returns the member RDATAs in ascending wire-byte order,
// leaving the stored order alone.
func (o *orderedSet) sortedRdatas() [][]byte {
	rdatas := make([][]byte, len(o.rdatas))
	copy(rdatas, o.rdatas)
	sort.Slice(rdatas, func(i, j int) bool {
		return bytes.Compare(rdatas[i], rdatas[j]) < 0
	})
	return rdatas
}
