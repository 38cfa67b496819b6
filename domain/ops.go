package domain

import (
	"strconv"

	"github.com/spf13/cast"
)

// BinaryOp is an intrinsic binary arithmetic/bitwise operator, prior to the
// polymorphic-resolution pass (spec.md §4.2 pass 2) picking a concrete Kind
// for it. After that pass every occurrence is paired with exactly one Kind,
// per the "Overload resolution" testable property in spec.md §8.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBAnd
	OpBOr
	OpBXor
	OpBShiftL
	OpBShiftR
	OpMax
	OpMin
)

// Warning describes a recovered runtime arithmetic/string/regex misuse
// (spec.md §4.6, §7 kind (e)): the fallback value was already substituted;
// Warning exists only so the caller (interpreter) can log it to the error
// stream, matching "emit a warning to the error stream and return a defined
// fallback".
type Warning struct {
	Op      string
	Message string
}

// EvalBinarySigned evaluates op over signed a, b. Division by zero and
// MIN_SIGNED / -1 are the two defined-fallback cases from spec.md §4.6/§8.
// Signed arithmetic wraps modulo 2^64 using Go's native int64 wraparound
// semantics, which already implement two's-complement wrap.
func EvalBinarySigned(op BinaryOp, a, b Value) (Value, *Warning) {
	x, y := ToSigned(a), ToSigned(b)
	switch op {
	case OpAdd:
		return FromSigned(x + y), nil
	case OpSub:
		return FromSigned(x - y), nil
	case OpMul:
		return FromSigned(x * y), nil
	case OpDiv:
		if y == 0 {
			return FromSigned(0), &Warning{Op: "/", Message: "division by zero"}
		}
		if x == MinSigned && y == -1 {
			return FromSigned(MinSigned), &Warning{Op: "/", Message: "MIN_SIGNED / -1 overflow"}
		}
		return FromSigned(x / y), nil
	case OpMod:
		if y == 0 {
			return FromSigned(0), &Warning{Op: "%", Message: "modulo by zero"}
		}
		if x == MinSigned && y == -1 {
			return FromSigned(0), &Warning{Op: "%", Message: "MIN_SIGNED %% -1 overflow"}
		}
		return FromSigned(x % y), nil
	case OpBAnd:
		return FromSigned(x & y), nil
	case OpBOr:
		return FromSigned(x | y), nil
	case OpBXor:
		return FromSigned(x ^ y), nil
	case OpBShiftL:
		return FromSigned(x << MaskShift(y)), nil
	case OpBShiftR:
		return FromSigned(x >> MaskShift(y)), nil
	case OpMax:
		if x > y {
			return FromSigned(x), nil
		}
		return FromSigned(y), nil
	case OpMin:
		if x < y {
			return FromSigned(x), nil
		}
		return FromSigned(y), nil
	}
	panic("domain: unknown BinaryOp")
}

// EvalBinaryUnsigned evaluates op over unsigned a, b.
func EvalBinaryUnsigned(op BinaryOp, a, b Value) (Value, *Warning) {
	x, y := ToUnsigned(a), ToUnsigned(b)
	switch op {
	case OpAdd:
		return FromUnsigned(x + y), nil
	case OpSub:
		return FromUnsigned(x - y), nil
	case OpMul:
		return FromUnsigned(x * y), nil
	case OpDiv:
		if y == 0 {
			return FromUnsigned(0), &Warning{Op: "/", Message: "division by zero"}
		}
		return FromUnsigned(x / y), nil
	case OpMod:
		if y == 0 {
			return FromUnsigned(0), &Warning{Op: "%", Message: "modulo by zero"}
		}
		return FromUnsigned(x % y), nil
	case OpBAnd:
		return FromUnsigned(x & y), nil
	case OpBOr:
		return FromUnsigned(x | y), nil
	case OpBXor:
		return FromUnsigned(x ^ y), nil
	case OpBShiftL:
		return FromUnsigned(x << MaskShift(int64(y))), nil
	case OpBShiftR:
		return FromUnsigned(x >> MaskShift(int64(y))), nil
	case OpMax:
		if x > y {
			return FromUnsigned(x), nil
		}
		return FromUnsigned(y), nil
	case OpMin:
		if x < y {
			return FromUnsigned(x), nil
		}
		return FromUnsigned(y), nil
	}
	panic("domain: unknown BinaryOp")
}

// EvalBinaryFloat evaluates op over float a, b. Unsigned and float variants
// never coerce to signed (spec.md §4.6).
func EvalBinaryFloat(op BinaryOp, a, b Value) (Value, *Warning) {
	x, y := ToFloat(a), ToFloat(b)
	switch op {
	case OpAdd:
		return FromFloat(x + y), nil
	case OpSub:
		return FromFloat(x - y), nil
	case OpMul:
		return FromFloat(x * y), nil
	case OpDiv:
		if y == 0 {
			return FromFloat(0), &Warning{Op: "/", Message: "division by zero"}
		}
		return FromFloat(x / y), nil
	case OpMax:
		if x > y {
			return FromFloat(x), nil
		}
		return FromFloat(y), nil
	case OpMin:
		if x < y {
			return FromFloat(x), nil
		}
		return FromFloat(y), nil
	}
	panic("domain: unsupported float BinaryOp")
}

// ToNumber implements the `to_number` intrinsic functor: parsing a
// non-numeric symbol returns 0 and a Warning (spec.md §4.6, §8).
func ToNumber(s string) (Value, *Warning) {
	n, err := cast.ToInt64E(s)
	if err != nil {
		return FromSigned(0), &Warning{Op: "to_number", Message: "not a number: " + s}
	}
	return FromSigned(n), nil
}

// ToString implements the `to_string` intrinsic functor over a signed value.
func ToString(v Value) string {
	return strconv.FormatInt(ToSigned(v), 10)
}

// Substr implements the `substr` intrinsic functor: indices outside the
// string return the empty string plus a Warning (spec.md §4.6, §8).
func Substr(s string, start, length int64) (string, *Warning) {
	n := int64(len(s))
	if start < 0 || start > n {
		return "", &Warning{Op: "substr", Message: "start index out of range"}
	}
	end := start + length
	if length < 0 || end > n {
		return "", &Warning{Op: "substr", Message: "length out of range"}
	}
	return s[start:end], nil
}
