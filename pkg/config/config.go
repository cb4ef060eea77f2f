package config

import (
	"fmt"

	"github.com/miekg/dns"

	"github.com/zonemd/digestify/pkg/zonemd"
)

// Config is one digestify run: a set of zone files and how to treat
// them.
type Config struct {
	// Check verifies existing digests instead of generating new ones.
	Check bool
	// Generic renders ZONEMD records in RFC 3597 unknown-type form.
	Generic bool
	// Placeholder stops after adding the all-zero record, leaving the
	// digest uncomputed so the zone can be signed first.
	Placeholder bool
	// Algorithm is the digest algorithm mnemonic; Code its registry
	// code.
	Algorithm string
	Code      uint8
	// Origin is the zone origin used when parsing the files.
	Origin string
	// Files are the zone files to process.
	Files []string
}

// NewConfig validates and normalizes the run options. The algorithm
// defaults to sha384 and the origin to the root.
func NewConfig(check, generic, placeholder bool, algorithm, origin string, files []string) (*Config, error) {
	if algorithm == "" {
		algorithm = "sha384"
	}
	code, err := zonemd.AlgorithmByName(algorithm)
	if err != nil {
		return nil, fmt.Errorf("failed to parse algorithm: %w", err)
	}
	if origin == "" {
		origin = "."
	}
	if _, ok := dns.IsDomainName(origin); !ok {
		return nil, fmt.Errorf("invalid origin %q", origin)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no zone files given")
	}
	return &Config{
		Check:       check,
		Generic:     generic,
		Placeholder: placeholder,
		Algorithm:   algorithm,
		Code:        code,
		Origin:      dns.Fqdn(origin),
		Files:       files,
	}, nil
}
