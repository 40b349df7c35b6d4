package carbonaccounting

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Fingerprint derives a stable identity from its parts. Implementations must be
// pure: the same parts always produce the same fingerprint.
type Fingerprint func(parts ...string) string

// SHA256Fingerprint hex encodes the SHA-256 digest of the parts, each written
// after its big-endian length so that part boundaries are unambiguous.
func SHA256Fingerprint(parts ...string) string {
	h := sha256.New()
	var size [8]byte
	for _, part := range parts {
		binary.BigEndian.PutUint64(size[:], uint64(len(part)))
		h.Write(size[:])
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// RecordFingerprint derives the ledger identity of an emissions record.
func RecordFingerprint(fingerprint Fingerprint, utilityID, partyID, fromDate, thruDate string) string {
	return fingerprint(utilityID, partyID, fromDate, thruDate)
}
