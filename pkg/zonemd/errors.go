package zonemd

import "errors"

// Fatal error kinds. Validation outcomes (serial mismatch, duplicate
// algorithm, digest mismatch) are not errors; Validate reports them as
// a reason string so a batch run can keep going.
var (
	// ErrUnknownAlgorithm is returned when a requested or stored
	// digest algorithm code is not in the registry.
	ErrUnknownAlgorithm = errors.New("unknown digest algorithm")

	// ErrMalformedRecord is returned when ZONEMD wire or text data
	// cannot be decoded.
	ErrMalformedRecord = errors.New("malformed ZONEMD record")

	// ErrMissingApexSerial is returned when the zone has no SOA record
	// at the apex to take the serial number from.
	ErrMissingApexSerial = errors.New("no SOA record at zone apex")

	// ErrMissingZonemdRecord is returned by Update when no placeholder
	// ZONEMD record is present at the apex.
	ErrMissingZonemdRecord = errors.New("no ZONEMD record at zone apex")
)
