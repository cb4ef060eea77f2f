// Package zonemd computes and verifies ZONEMD zone digests
// (draft-wessels-dns-zone-digest). It owns the ZONEMD record codec,
// the canonical ordering of a zone's records, the digest engine that
// streams their wire form into a hash, and the add/update/validate
// workflow that keeps the self-referential record consistent.
package zonemd

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/miekg/dns"
)

// Record is the RDATA of one ZONEMD record. Serial mirrors the SOA
// serial at the time the record was added; Digest length is fixed by
// Algorithm.
type Record struct {
	Serial    uint32
	Scheme    uint8
	Algorithm uint8
	Digest    []byte
}

// Digestable returns the byte string other records hash when they
// include a ZONEMD record: serial, scheme and algorithm in network
// order followed by the digest.
func (r *Record) Digestable() []byte {
	buf := make([]byte, 6, 6+len(r.Digest))
	binary.BigEndian.PutUint32(buf, r.Serial)
	buf[4] = r.Scheme
	buf[5] = r.Algorithm
	return append(buf, r.Digest...)
}

// ToWire returns the wire RDATA. ZONEMD has no framing beyond the
// digestable form.
func (r *Record) ToWire() []byte {
	return r.Digestable()
}

// FromWire decodes wire RDATA into a Record.
func FromWire(wire []byte) (*Record, error) {
	if len(wire) < 6 {
		return nil, fmt.Errorf("%w: RDATA too short (%d bytes)", ErrMalformedRecord, len(wire))
	}
	digest := make([]byte, len(wire)-6)
	copy(digest, wire[6:])
	return &Record{
		Serial:    binary.BigEndian.Uint32(wire),
		Scheme:    wire[4],
		Algorithm: wire[5],
		Digest:    digest,
	}, nil
}

// ToText renders the RDATA in presentation format. With generic set
// the RFC 3597 unknown-type form is used, for toolkits that have no
// native ZONEMD parser.
func (r *Record) ToText(generic bool) string {
	if generic {
		rdata := r.Digestable()
		return fmt.Sprintf(`\# %d %s`, len(rdata), hex.EncodeToString(rdata))
	}
	return fmt.Sprintf("%d %d %d %s", r.Serial, r.Scheme, r.Algorithm, hex.EncodeToString(r.Digest))
}

// FromText parses presentation format tokens: serial, scheme and
// algorithm, then the digest as one or more hex tokens running to the
// end of the record.
func FromText(tokens []string) (*Record, error) {
	if len(tokens) < 3 {
		return nil, fmt.Errorf("%w: want at least 3 fields, got %d", ErrMalformedRecord, len(tokens))
	}
	serial, err := strconv.ParseUint(tokens[0], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: bad serial %q", ErrMalformedRecord, tokens[0])
	}
	scheme, err := strconv.ParseUint(tokens[1], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: bad scheme %q", ErrMalformedRecord, tokens[1])
	}
	alg, err := strconv.ParseUint(tokens[2], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: bad algorithm %q", ErrMalformedRecord, tokens[2])
	}
	digest, err := hex.DecodeString(strings.Join(tokens[3:], ""))
	if err != nil {
		return nil, fmt.Errorf("%w: bad digest hex: %v", ErrMalformedRecord, err)
	}
	return &Record{
		Serial:    uint32(serial),
		Scheme:    uint8(scheme),
		Algorithm: uint8(alg),
		Digest:    digest,
	}, nil
}

// FromRR converts the toolkit's native ZONEMD struct, whose digest is
// a hex string, into a Record.
func FromRR(rr *dns.ZONEMD) (*Record, error) {
	digest, err := hex.DecodeString(rr.Digest)
	if err != nil {
		return nil, fmt.Errorf("%w: bad digest hex: %v", ErrMalformedRecord, err)
	}
	return &Record{
		Serial:    rr.Serial,
		Scheme:    rr.Scheme,
		Algorithm: rr.Hash,
		Digest:    digest,
	}, nil
}

// RR converts the Record into the toolkit's native ZONEMD struct with
// the given owner name, class and TTL.
func (r *Record) RR(name string, class uint16, ttl uint32) *dns.ZONEMD {
	return &dns.ZONEMD{
		Hdr: dns.RR_Header{
			Name:   dns.CanonicalName(name),
			Rrtype: dns.TypeZONEMD,
			Class:  class,
			Ttl:    ttl,
		},
		Serial: r.Serial,
		Scheme: r.Scheme,
		Hash:   r.Algorithm,
		Digest: hex.EncodeToString(r.Digest),
	}
}
