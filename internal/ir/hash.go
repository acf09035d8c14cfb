package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainProgram = "linearfn/program/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content-addressed identity of a program.
// Two programs hash equal iff their rendered text is byte-identical.
func (p *Program) Hash() string {
	return hashWithDomain(DomainProgram, []byte(p.Text()))
}

// HashText hashes already rendered program text, in any dialect.
// dialect is folded into the domain so the same text in two dialects
// does not collide.
func HashText(dialect, text string) string {
	return hashWithDomain(DomainProgram+"/"+dialect, []byte(text))
}
