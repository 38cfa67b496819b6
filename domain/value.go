// Package domain implements the uniform machine word described in
// spec.md §3.1: a single RamDomain value reinterpreted, never coerced, as
// one of signed integer, unsigned integer, float, symbol index, or record
// index depending on which typed operator is applied to it.
package domain

import "math"

// Value is the universal runtime value, RamDomain from spec.md §3.1. This
// build targets the 64-bit choice; the spec's 32-bit option is a
// compile-time choice not exercised here (see DESIGN.md).
type Value int64

// Kind tags which interpretation a typed operator uses for a Value. Kind
// itself is never stored; it only selects which conversion function below
// applies to a given Value.
type Kind int

const (
	KindSigned Kind = iota
	KindUnsigned
	KindFloat
	KindSymbol
	KindRecord
)

// FromSigned bit-casts a signed integer into a Value. Since Value's
// underlying representation already is a signed 64-bit integer, this is a
// plain conversion, not a bit trick — it exists to make every reinterpretation
// site in the codebase explicit about which Kind it intends, per spec.md
// §3.1 ("reinterpreted, never coerced").
func FromSigned(v int64) Value { return Value(v) }

// ToSigned reinterprets v as a signed integer.
func ToSigned(v Value) int64 { return int64(v) }

// FromUnsigned bit-casts an unsigned integer into a Value.
func FromUnsigned(v uint64) Value { return Value(v) }

// ToUnsigned reinterprets v as an unsigned integer.
func ToUnsigned(v Value) uint64 { return uint64(v) }

// FromFloat bit-casts a float64's bit pattern into a Value.
func FromFloat(f float64) Value { return Value(int64(math.Float64bits(f))) }

// ToFloat reinterprets v's bit pattern as a float64.
func ToFloat(v Value) float64 { return math.Float64frombits(uint64(v)) }

// FromSymbol wraps a symbol-table index (see package symbol) as a Value.
func FromSymbol(idx int32) Value { return Value(idx) }

// ToSymbol reinterprets v as a symbol-table index.
func ToSymbol(v Value) int32 { return int32(v) }

// FromRecord wraps a record-table index (see package record) as a Value.
func FromRecord(idx int64) Value { return Value(idx) }

// ToRecord reinterprets v as a record-table index.
func ToRecord(v Value) int64 { return int64(v) }

// Width is the bit width of the machine word; bit-shift counts are masked to
// Width-1 per spec.md §3.1.
const Width = 64

// MaskShift masks a shift count to width-1.
func MaskShift(n int64) uint { return uint(n) & (Width - 1) }

// MinSigned and MaxSigned bound the signed interpretation of a Value.
const (
	MinSigned = math.MinInt64
	MaxSigned = math.MaxInt64
)

// MinDomainSigned/MaxDomainSigned are the sentinels used to initialize
// MIN/MAX aggregation accumulators (spec.md §4.6): MinDomainSigned for
// max-accumulators (so the first real value always replaces it),
// MaxDomainSigned for min-accumulators.
const (
	MinDomainSigned Value = math.MinInt64
	MaxDomainSigned Value = math.MaxInt64
)
