package zonemd

import (
	"encoding/binary"

	"github.com/miekg/dns"

	"github.com/zonemd/digestify/pkg/zone"
)

// ComputeDigest hashes the whole zone with the given algorithm and
// returns the digest. Records are visited in canonical order: owner
// names sorted per CompareNames, RRsets per orderedSets, members by
// wire RDATA. At the apex, ZONEMD RRsets and RRSIG RRsets covering
// ZONEMD are skipped; every other record in the zone is hashed as
//
//	owner | type | class | ttl | rdlength | rdata
//
// all in uncompressed, lowercased wire form. The zone is not modified;
// two calls over identical record content yield identical bytes no
// matter what order the zone's maps iterate in.
func ComputeDigest(z *zone.Zone, code uint8) ([]byte, error) {
	h, err := newHash(code)
	if err != nil {
		return nil, err
	}

	names := sortedNames(z)
	apex := ""
	if len(names) > 0 {
		// Canonical order puts the apex first.
		apex = names[0]
	}

	var fixed [8]byte
	for _, name := range names {
		owner, err := ownerWire(name)
		if err != nil {
			return nil, err
		}
		sets, err := orderedSets(z, name)
		if err != nil {
			return nil, err
		}
		for _, o := range sets {
			set := o.set
			if name == apex {
				if set.Rrtype == dns.TypeZONEMD {
					continue
				}
				if set.Rrtype == dns.TypeRRSIG && set.Covers == dns.TypeZONEMD {
					continue
				}
			}
			binary.BigEndian.PutUint16(fixed[0:], set.Rrtype)
			binary.BigEndian.PutUint16(fixed[2:], set.Class)
			binary.BigEndian.PutUint32(fixed[4:], set.TTL)
			var rdlen [2]byte
			for _, rdata := range o.sortedRdatas() {
				binary.BigEndian.PutUint16(rdlen[:], uint16(len(rdata)))
				h.Write(owner)
				h.Write(fixed[:])
				h.Write(rdlen[:])
				h.Write(rdata)
			}
		}
	}
	return h.Sum(nil), nil
}
