// Package hashid implements the Content Identifier component: canonical,
// order-independent encoding of operators, constants, and closures into a
// stable 256-bit NodeId, in the manner of the teacher's transport-descriptor
// hasher (runtime/planner/transport.go) generalized from an HMAC-with-plan-key
// scheme to a plain SHA-256 content hash, since node ids here must be
// globally reproducible rather than tenant-scoped.
package hashid

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/voxlogica-project/voxlogica-core/internal/invariant"
)

// NodeID is a 256-bit content hash rendered as 64 lowercase hex characters.
type NodeID string

const (
	tagOperation = 'O'
	tagConstant  = 'C'
	tagClosure   = 'L'
)

// Operation derives the id of an Operation node: H(canonical(operator, {k: id(arg_k)})).
// args keys are argument-keys (positional "0","1",... or semantic names);
// sorting them removes argument-key ordering as a source of spurious misses
// (invariant 3 of spec §3.2, property test S1).
func Operation(operator string, args map[string]NodeID) NodeID {
	invariant.Precondition(operator != "", "operation id requires a non-empty operator")

	var buf []byte
	buf = append(buf, tagOperation)
	buf = appendLenPrefixed(buf, []byte(operator))

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf = appendUvarint(buf, uint64(len(keys)))
	for _, k := range keys {
		buf = appendLenPrefixed(buf, []byte(k))
		buf = appendLenPrefixed(buf, []byte(args[k]))
	}
	return hashBytes(buf)
}

// Constant derives the id of a ConstantValue node. Supported underlying
// value types: int64, float64, bool, string, []byte (opaque blob), and nil.
// NaN is normalized to a single reserved token; -0 is normalized to 0, per
// spec §4.1's edge-case handling.
func Constant(value interface{}) NodeID {
	var buf []byte
	buf = append(buf, tagConstant)
	buf = append(buf, canonicalValueBytes(value)...)
	return hashBytes(buf)
}

// Closure derives the id of a ClosureValue node: it hashes the closure's
// parameter name, the structural shape of its body (never source text),
// and its captured environment image expressed as sorted (name, id) pairs
// (spec §4.1, §9 "Closures as first-class, content-addressed values").
func Closure(parameter string, bodyShape []byte, capturedEnv map[string]NodeID) NodeID {
	var buf []byte
	buf = append(buf, tagClosure)
	buf = appendLenPrefixed(buf, []byte(parameter))
	buf = appendLenPrefixed(buf, bodyShape)

	names := make([]string, 0, len(capturedEnv))
	for n := range capturedEnv {
		names = append(names, n)
	}
	sort.Strings(names)

	buf = appendUvarint(buf, uint64(len(names)))
	for _, n := range names {
		buf = appendLenPrefixed(buf, []byte(n))
		buf = appendLenPrefixed(buf, []byte(capturedEnv[n]))
	}
	return hashBytes(buf)
}

func hashBytes(buf []byte) NodeID {
	sum := sha256.Sum256(buf)
	return NodeID(hex.EncodeToString(sum[:]))
}

func canonicalValueBytes(value interface{}) []byte {
	switch v := value.(type) {
	case nil:
		return []byte("null:")
	case string:
		return append([]byte("string:"), v...)
	case []byte:
		return append([]byte("bytes:"), v...)
	case bool:
		return []byte("bool:" + strconv.FormatBool(v))
	case int:
		return []byte("int:" + strconv.FormatInt(int64(v), 10))
	case int64:
		return []byte("int:" + strconv.FormatInt(v, 10))
	case float64:
		return []byte("float:" + canonicalFloat(v))
	default:
		// Structured values (e.g. materialized bag contents) fall back to a
		// deterministic JSON encoding; json.Marshal sorts map keys already.
		encoded, err := json.Marshal(value)
		invariant.ExpectNoError(err, "canonicalize structured constant value")
		return append([]byte("json:"), encoded...)
	}
}

// canonicalFloat renders floats in a fixed decimal form: integers without a
// fractional part, otherwise the shortest round-trip representation.
// NaN collapses to a single reserved token; negative zero collapses to "0".
func canonicalFloat(f float64) string {
	if math.IsNaN(f) {
		return "nan"
	}
	if f == 0 {
		return "0" // normalizes -0 to 0
	}
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func appendLenPrefixed(buf, field []byte) []byte {
	buf = appendUvarint(buf, uint64(len(field)))
	return append(buf, field...)
}

func appendUvarint(buf []byte, n uint64) []byte {
	var tmp [10]byte
	i := 0
	for n >= 0x80 {
		tmp[i] = byte(n) | 0x80
		n >>= 7
		i++
	}
	tmp[i] = byte(n)
	return append(buf, tmp[:i+1]...)
}

// String implements fmt.Stringer for diagnostics.
func (id NodeID) String() string { return string(id) }
