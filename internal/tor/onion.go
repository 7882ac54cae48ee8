package tor

import (
	"encoding/base32"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Onion address constants.
const (
	// OnionV3Length is the length of a v3 address without ".onion".
	// V3 addresses are 56 characters of base32-encoded data.
	OnionV3Length = 56

	// OnionV3Version is the version byte for v3 onion addresses.
	OnionV3Version = 0x03

	// OnionSuffix is the common suffix for all onion addresses.
	OnionSuffix = ".onion"
)

// onionV3Pattern matches v3 onion addresses (56 base32 characters).
// Base32 uses lowercase a-z and digits 2-7.
var onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)

// onionV2Pattern matches the deprecated 16-character v2 format.
// Detected only to give users a specific error.
var onionV2Pattern = regexp.MustCompile(`^[a-z2-7]{16}\.onion$`)

// checksumPrefix is the prefix used in the v3 checksum calculation,
// from the Tor rendezvous specification.
var checksumPrefix = []byte(".onion checksum")

// IsValidV3Address checks format and checksum of a v3 onion address.
//
// Full checksum validation (rather than the regex alone) catches typos
// and corrupted addresses before a worker wastes its fetch budget on
// them; it is the same check Tor performs when connecting.
func IsValidV3Address(address string) bool {
	address = strings.ToLower(address)

	if !onionV3Pattern.MatchString(address) {
		return false
	}

	onionPart := strings.TrimSuffix(address, OnionSuffix)

	// The Tor spec uses standard base32 encoding (RFC 4648).
	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(onionPart))
	if err != nil {
		return false
	}

	// 32 bytes pubkey + 2 bytes checksum + 1 byte version
	if len(decoded) != 35 {
		return false
	}

	pubkey := decoded[:32]
	checksum := decoded[32:34]
	version := decoded[34]

	if version != OnionV3Version {
		return false
	}

	expected := computeV3Checksum(pubkey, version)
	return checksum[0] == expected[0] && checksum[1] == expected[1]
}

// computeV3Checksum returns the first 2 bytes of
// SHA3-256(".onion checksum" || pubkey || version).
func computeV3Checksum(pubkey []byte, version byte) []byte {
	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, version)

	hash := sha3.Sum256(data)
	return hash[:2]
}

// IsV2Address reports whether the address matches the deprecated v2
// format. V2 services stopped working in October 2021.
func IsV2Address(address string) bool {
	return onionV2Pattern.MatchString(strings.ToLower(address))
}

// NormalizeAddress normalizes a seed onion address to the bare lowercase
// "xxx.onion" form and validates it.
//
// Handled input variations: uppercase, missing .onion suffix, URL schemes,
// trailing paths/query strings, surrounding whitespace.
func NormalizeAddress(address string) (string, error) {
	address = strings.ToLower(strings.TrimSpace(address))

	address = strings.TrimPrefix(address, "https://")
	address = strings.TrimPrefix(address, "http://")

	if idx := strings.IndexAny(address, "/?#"); idx != -1 {
		address = address[:idx]
	}

	if !strings.HasSuffix(address, OnionSuffix) {
		address = address + OnionSuffix
	}

	if !IsValidV3Address(address) {
		if IsV2Address(address) {
			return "", ErrV2AddressDeprecated
		}
		return "", ErrInvalidOnionAddress
	}

	return address, nil
}

// SeedURL normalizes a seed to a full crawlable URL. The scheme and path
// of the input are preserved when present; a bare address becomes
// "http://<address>/".
func SeedURL(seed string) (string, error) {
	trimmed := strings.TrimSpace(seed)

	address, err := NormalizeAddress(trimmed)
	if err != nil {
		return "", err
	}

	scheme := "http"
	if strings.HasPrefix(strings.ToLower(trimmed), "https://") {
		scheme = "https"
	}

	// Preserve any path/query the caller supplied.
	rest := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(trimmed), "https://"), "http://")
	path := "/"
	if idx := strings.IndexAny(rest, "/?#"); idx != -1 {
		path = rest[idx:]
	}

	return scheme + "://" + address + path, nil
}
