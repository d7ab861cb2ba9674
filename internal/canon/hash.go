package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for fingerprints.
// Version suffix enables future algorithm migration.
const (
	DomainCommand = "litequery/command/v1"
	DomainMapping = "litequery/mapping/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint identifies a compiled command by its text and bound values.
// Equal commands fingerprint equally across processes.
func Fingerprint(sql string, args []any) (string, error) {
	if args == nil {
		args = []any{}
	}
	data, err := Marshal(map[string]any{
		"sql":  sql,
		"args": args,
	})
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainCommand, data), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when args are known to be encodable.
func MustFingerprint(sql string, args []any) string {
	fp, err := Fingerprint(sql, args)
	if err != nil {
		panic(err)
	}
	return fp
}

// MappingHash identifies a table's DDL. Two mappings with the same DDL hash
// equally.
func MappingHash(ddl []string) string {
	items := make([]any, len(ddl))
	for i, s := range ddl {
		items[i] = s
	}
	data, _ := Marshal(items) // strings always encode
	return hashWithDomain(DomainMapping, data)
}
