package zonemd

import (
	"crypto/sha512"
	"fmt"
	"hash"
)

// Digest algorithm codes from the ZONEMD IANA registry.
const (
	AlgorithmSHA384 uint8 = 1
	AlgorithmSHA512 uint8 = 2
)

// Scheme 1 is "simple" (plain concatenation); the only scheme defined.
const SchemeSimple uint8 = 1

type algorithm struct {
	name string
	size int
	new  func() hash.Hash
}

// The registry is closed: codes outside this table are a hard error
// wherever an algorithm is selected.
var algorithms = map[uint8]algorithm{
	AlgorithmSHA384: {name: "sha384", size: sha512.Size384, new: sha512.New384},
	AlgorithmSHA512: {name: "sha512", size: sha512.Size, new: sha512.New},
}

// AlgorithmByName resolves a mnemonic like "sha384" to its code.
func AlgorithmByName(name string) (uint8, error) {
	for code, alg := range algorithms {
		if alg.name == name {
			return code, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// AlgorithmName returns the mnemonic for a code, or "" if unknown.
func AlgorithmName(code uint8) string {
	return algorithms[code].name
}

// DigestSize returns the digest length in bytes for a code.
func DigestSize(code uint8) (int, error) {
	alg, ok := algorithms[code]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, code)
	}
	return alg.size, nil
}

// Placeholder returns the all-zero digest of the correct length for a
// code, used while computing or verifying the real value.
func Placeholder(code uint8) ([]byte, error) {
	size, err := DigestSize(code)
	if err != nil {
		return nil, err
	}
	return make([]byte, size), nil
}

func newHash(code uint8) (hash.Hash, error) {
	alg, ok := algorithms[code]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, code)
	}
	return alg.new(), nil
}
