package zonemd

import (
	"fmt"

	"github.com/miekg/dns"

	"github.com/zonemd/digestify/pkg/zone"
)

// Codec implements zone.RRCodec for the ZONEMD type, so a zone carries
// this package's encoding rather than relying on a process-wide type
// table.
type Codec struct{}

var _ zone.RRCodec = Codec{}

// CanonicalRdata returns the digestable wire form of a ZONEMD record.
func (Codec) CanonicalRdata(rr dns.RR) ([]byte, error) {
	z, ok := rr.(*dns.ZONEMD)
	if !ok {
		return nil, fmt.Errorf("%w: not a ZONEMD record: %T", ErrMalformedRecord, rr)
	}
	rec, err := FromRR(z)
	if err != nil {
		return nil, err
	}
	return rec.Digestable(), nil
}

// Text renders the full presentation line for a ZONEMD record. With
// generic set both the type mnemonic and the RDATA use the RFC 3597
// unknown-type form.
func (Codec) Text(rr dns.RR, generic bool) (string, error) {
	z, ok := rr.(*dns.ZONEMD)
	if !ok {
		return "", fmt.Errorf("%w: not a ZONEMD record: %T", ErrMalformedRecord, rr)
	}
	rec, err := FromRR(z)
	if err != nil {
		return "", err
	}
	typeStr := "ZONEMD"
	if generic {
		typeStr = fmt.Sprintf("TYPE%d", dns.TypeZONEMD)
	}
	return fmt.Sprintf("%s\t%d\t%s\t%s\t%s",
		z.Hdr.Name, z.Hdr.Ttl, dns.Class(z.Hdr.Class).String(), typeStr, rec.ToText(generic)), nil
}

// NewRegistry returns the codec registry a ZONEMD-aware zone is built
// with.
func NewRegistry() zone.CodecRegistry {
	return zone.CodecRegistry{dns.TypeZONEMD: Codec{}}
}
