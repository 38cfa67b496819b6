package domain

import "github.com/ramlog/ramlog/symbol"

// Intrinsic functor names. The grammar/parser that would normally fix this
// vocabulary is explicitly out of scope (spec.md §1); these names are the
// vocabulary ast.IntrinsicFunctor.Op and the RAM translator agree on.
const (
	IntrinsicPlus  = "+"
	IntrinsicMinus = "-"
	IntrinsicTimes = "*"
	IntrinsicDiv   = "/"
	IntrinsicMod   = "%"
	IntrinsicBAnd  = "band"
	IntrinsicBOr   = "bor"
	IntrinsicBXor  = "bxor"
	IntrinsicBShl  = "bshl"
	IntrinsicBShr  = "bshr"
	IntrinsicMax   = "max"
	IntrinsicMin   = "min"
	IntrinsicNeg   = "neg"
	IntrinsicBNot  = "bnot"
	// IntrinsicLeq is the value-returning less-or-equal used as a
	// lattice's Leq operator (spec.md §3.4): 1 when a <= b, else 0.
	IntrinsicLeq = "leq"

	IntrinsicCat      = "cat"
	IntrinsicContains = "contains"
	IntrinsicMatch    = "match"
	IntrinsicNotMatch = "not_match"
	IntrinsicSubstr   = "substr"
	IntrinsicToNumber = "to_number"
	IntrinsicToString = "to_string"
	IntrinsicStrlen   = "strlen"
	IntrinsicOrd      = "ord"
)

var binaryOpByName = map[string]BinaryOp{
	IntrinsicPlus: OpAdd, IntrinsicMinus: OpSub, IntrinsicTimes: OpMul,
	IntrinsicDiv: OpDiv, IntrinsicMod: OpMod,
	IntrinsicBAnd: OpBAnd, IntrinsicBOr: OpBOr, IntrinsicBXor: OpBXor,
	IntrinsicBShl: OpBShiftL, IntrinsicBShr: OpBShiftR,
	IntrinsicMax: OpMax, IntrinsicMin: OpMin,
}

// EvalIntrinsic dispatches an intrinsic functor occurrence to its typed
// implementation (spec.md §4.6, SPEC_FULL.md §12). String-domain functors
// resolve symbol-typed Values through syms and, for match/not_match,
// through the shared regex cache.
func EvalIntrinsic(op string, kind Kind, args []Value, syms *symbol.Table, regex *RegexCache) (Value, *Warning) {
	if bop, ok := binaryOpByName[op]; ok {
		if len(args) != 2 {
			return FromSigned(0), &Warning{Op: op, Message: "intrinsic arity mismatch"}
		}
		switch kind {
		case KindUnsigned:
			return EvalBinaryUnsigned(bop, args[0], args[1])
		case KindFloat:
			return EvalBinaryFloat(bop, args[0], args[1])
		default:
			return EvalBinarySigned(bop, args[0], args[1])
		}
	}

	switch op {
	case IntrinsicNeg:
		switch kind {
		case KindFloat:
			return FromFloat(-ToFloat(args[0])), nil
		case KindUnsigned:
			return FromUnsigned(-ToUnsigned(args[0])), nil
		default:
			return FromSigned(-ToSigned(args[0])), nil
		}
	case IntrinsicBNot:
		return FromSigned(^ToSigned(args[0])), nil
	case IntrinsicLeq:
		switch kind {
		case KindFloat:
			return FromSigned(boolInt(ToFloat(args[0]) <= ToFloat(args[1]))), nil
		case KindUnsigned:
			return FromSigned(boolInt(ToUnsigned(args[0]) <= ToUnsigned(args[1]))), nil
		default:
			return FromSigned(boolInt(ToSigned(args[0]) <= ToSigned(args[1]))), nil
		}
	case IntrinsicCat:
		s := syms.Resolve(ToSymbol(args[0])) + syms.Resolve(ToSymbol(args[1]))
		return FromSymbol(syms.Lookup(s)), nil
	case IntrinsicContains:
		needle := syms.Resolve(ToSymbol(args[0]))
		hay := syms.Resolve(ToSymbol(args[1]))
		return FromSigned(boolInt(containsSubstring(hay, needle))), nil
	case IntrinsicMatch:
		pattern := syms.Resolve(ToSymbol(args[0]))
		s := syms.Resolve(ToSymbol(args[1]))
		ok, w := regex.Match(pattern, s)
		return FromSigned(boolInt(ok)), w
	case IntrinsicNotMatch:
		pattern := syms.Resolve(ToSymbol(args[0]))
		s := syms.Resolve(ToSymbol(args[1]))
		ok, w := regex.NotMatch(pattern, s)
		return FromSigned(boolInt(ok)), w
	case IntrinsicSubstr:
		s := syms.Resolve(ToSymbol(args[0]))
		start, length := ToSigned(args[1]), ToSigned(args[2])
		out, w := Substr(s, start, length)
		return FromSymbol(syms.Lookup(out)), w
	case IntrinsicToNumber:
		s := syms.Resolve(ToSymbol(args[0]))
		return ToNumber(s)
	case IntrinsicToString:
		return FromSymbol(syms.Lookup(ToString(args[0]))), nil
	case IntrinsicStrlen:
		s := syms.Resolve(ToSymbol(args[0]))
		return FromSigned(int64(len(s))), nil
	case IntrinsicOrd:
		return FromSigned(int64(ToSymbol(args[0]))), nil
	}
	return FromSigned(0), &Warning{Op: op, Message: "unknown intrinsic functor"}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func containsSubstring(hay, needle string) bool {
	for i := 0; i+len(needle) <= len(hay); i++ {
		if hay[i:i+len(needle)] == needle {
			return true
		}
	}
	return len(needle) == 0
}
