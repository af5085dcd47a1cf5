// Package canonical produces deterministic SHA-256 digests of structured
// payloads.
//
// Digest reproducibility depends on a canonical encoding preceding the hash:
// object keys are sorted lexicographically at every depth and numbers keep
// their original JSON literal (decoded as json.Number, never float64), so
// logically identical payloads always hash to the same value regardless of
// key order or platform float formatting. Raw payloads are digested and
// discarded; nothing in this package retains input bytes.
package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// DigestSize is the hex-encoded length of every digest (256-bit SHA-256).
const DigestSize = 64

// DigestRaw canonicalizes a raw JSON document and returns the lowercase hex
// SHA-256 of the canonical form.
func DigestRaw(raw []byte) (string, error) {
	canon, err := Canonicalize(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// Digest marshals an arbitrary Go value to JSON and digests its canonical
// form. Marshaling through encoding/json first guarantees the value round
// trips through the same canonicalization path as raw payloads.
func Digest(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return DigestRaw(raw)
}

// Chain digests a sequence of already-hashed or scalar fields joined with a
// '|' separator. Used for record hashes where the field order is fixed by
// the chain contract, not by payload shape.
func Chain(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// Canonicalize returns the canonical JSON encoding of a raw document:
// sorted object keys, original number literals, no insignificant whitespace.
func Canonicalize(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	// Reject trailing garbage after the first document.
	if dec.More() {
		return nil, fmt.Errorf("payload contains trailing data")
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		// Preserve the literal exactly as written; re-encoding through
		// float64 would make digests platform and precision dependent.
		buf.WriteString(val.String())
	case string:
		enc, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("encode string: %w", err)
		}
		buf.Write(enc)
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			enc, err := json.Marshal(k)
			if err != nil {
				return fmt.Errorf("encode key: %w", err)
			}
			buf.Write(enc)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported JSON value %T", v)
	}
	return nil
}
