package zonemd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/miekg/dns"

	"github.com/zonemd/digestify/pkg/zone"
)

// The workflow is a two step process so the record can be signed:
//
//  1. Add places an all-zero placeholder ZONEMD at the apex, removing
//     any existing ZONEMD records. The zone can then be signed.
//  2. Update computes the real digest and rewrites the placeholder in
//     place, leaving the serial alone. The result can be signed again.
//
// Validate re-runs the same computation against a zone that already
// carries a digest and reports whether it matches.

// apexName returns the zone apex: the first owner name in canonical
// order, which sorts before every name below it.
func apexName(z *zone.Zone) string {
	names := sortedNames(z)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// Add inserts a placeholder ZONEMD record at the zone apex, removing
// every existing ZONEMD record first. The serial is taken from the
// apex SOA. A ttl of 0 means "use the SOA RRset's TTL". The returned
// record has an all-zero digest of the length the algorithm requires.
func Add(z *zone.Zone, code uint8, ttl uint32) (*Record, error) {
	placeholder, err := Placeholder(code)
	if err != nil {
		return nil, err
	}
	apex := apexName(z)
	if apex == "" {
		return nil, fmt.Errorf("%w: zone is empty", ErrMissingApexSerial)
	}
	soaSet := z.Lookup(apex, zone.SetKey{Rrtype: dns.TypeSOA})
	if soaSet == nil || len(soaSet.Records) == 0 {
		return nil, ErrMissingApexSerial
	}
	soa, ok := soaSet.Records[0].(*dns.SOA)
	if !ok {
		return nil, ErrMissingApexSerial
	}
	if ttl == 0 {
		ttl = soaSet.TTL
	}

	z.DeleteType(apex, dns.TypeZONEMD)

	rec := &Record{
		Serial:    soa.Serial,
		Scheme:    SchemeSimple,
		Algorithm: code,
		Digest:    placeholder,
	}
	z.Replace(apex, &zone.RRset{
		Rrtype:  dns.TypeZONEMD,
		Class:   soaSet.Class,
		TTL:     ttl,
		Records: []dns.RR{rec.RR(apex, soaSet.Class, ttl)},
	})
	return rec, nil
}

// Update computes the zone digest and writes it into the placeholder
// ZONEMD record for the given algorithm. The record must already be
// present; its serial is never touched. The digest is computed fully
// before the record is written, so a failed computation leaves the
// zone as it was.
func Update(z *zone.Zone, code uint8) (*Record, error) {
	apex := apexName(z)
	set := z.Lookup(apex, zone.SetKey{Rrtype: dns.TypeZONEMD})
	if set == nil || len(set.Records) == 0 {
		return nil, ErrMissingZonemdRecord
	}
	var target *dns.ZONEMD
	for _, rr := range set.Records {
		if zrr, ok := rr.(*dns.ZONEMD); ok && zrr.Hash == code {
			target = zrr
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: no record for algorithm %d", ErrMissingZonemdRecord, code)
	}
	digest, err := ComputeDigest(z, code)
	if err != nil {
		return nil, err
	}
	target.Digest = hex.EncodeToString(digest)
	return FromRR(target)
}

// Validate checks every scheme 1 ZONEMD record at the apex against a
// fresh computation. Records with other schemes are skipped. The
// outcome is (ok, reason): reason names the first failing check, "" on
// success. err reports fatal conditions only (no SOA, an unknown
// stored algorithm); validation failures never surface as errors so a
// caller can keep batching. The zone is returned exactly as it came
// in: digests are swapped for placeholders only for the duration of
// the computation.
func Validate(z *zone.Zone) (bool, string, error) {
	apex := apexName(z)
	if apex == "" {
		return false, "no ZONEMD record found", nil
	}
	soaSet := z.Lookup(apex, zone.SetKey{Rrtype: dns.TypeSOA})
	if soaSet == nil || len(soaSet.Records) == 0 {
		return false, "", ErrMissingApexSerial
	}
	soa, ok := soaSet.Records[0].(*dns.SOA)
	if !ok {
		return false, "", ErrMissingApexSerial
	}
	set := z.Lookup(apex, zone.SetKey{Rrtype: dns.TypeZONEMD})
	if set == nil || len(set.Records) == 0 {
		return false, "no ZONEMD record found", nil
	}

	type saved struct {
		rr     *dns.ZONEMD
		digest string
	}
	var originals []saved
	defer func() {
		for _, s := range originals {
			s.rr.Digest = s.digest
		}
	}()

	stored := make(map[uint8]string)
	var algs []uint8
	for _, rr := range set.Records {
		zrr, ok := rr.(*dns.ZONEMD)
		if !ok {
			continue
		}
		if zrr.Scheme != SchemeSimple {
			continue
		}
		if zrr.Serial != soa.Serial {
			return false, fmt.Sprintf("SOA serial %d does not match ZONEMD serial %d", soa.Serial, zrr.Serial), nil
		}
		if _, dup := stored[zrr.Hash]; dup {
			return false, fmt.Sprintf("digest algorithm %d used more than once", zrr.Hash), nil
		}
		stored[zrr.Hash] = zrr.Digest
		algs = append(algs, zrr.Hash)
		originals = append(originals, saved{rr: zrr, digest: zrr.Digest})

		// Working copy: all collected records hold their placeholder
		// while any digest is recomputed.
		if ph, err := Placeholder(zrr.Hash); err == nil {
			zrr.Digest = hex.EncodeToString(ph)
		} else {
			zrr.Digest = strings.Repeat("0", len(zrr.Digest))
		}
	}
	if len(algs) == 0 {
		return false, "no ZONEMD record found", nil
	}

	for _, code := range algs {
		digest, err := ComputeDigest(z, code)
		if err != nil {
			return false, "", err
		}
		got := hex.EncodeToString(digest)
		if !strings.EqualFold(got, stored[code]) {
			reason := fmt.Sprintf("digest mismatch for algorithm %d: ZONEMD digest %s does not match calculated digest %s",
				code, strings.ToLower(stored[code]), got)
			return false, reason, nil
		}
	}
	return true, "", nil
}
