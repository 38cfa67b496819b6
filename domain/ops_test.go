package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignedDivisionByZero(t *testing.T) {
	require := require.New(t)
	v, w := EvalBinarySigned(OpDiv, FromSigned(10), FromSigned(0))
	require.Equal(int64(0), ToSigned(v))
	require.NotNil(w)
}

func TestMinSignedDivNegOne(t *testing.T) {
	require := require.New(t)
	v, w := EvalBinarySigned(OpDiv, FromSigned(MinSigned), FromSigned(-1))
	require.Equal(int64(MinSigned), ToSigned(v))
	require.NotNil(w)
}

func TestUnsignedNeverCoercesSigned(t *testing.T) {
	require := require.New(t)
	// 2^63 + 2^63 wraps to 0 in unsigned arithmetic, with no warning.
	v, w := EvalBinaryUnsigned(OpAdd, FromUnsigned(1<<63), FromUnsigned(1<<63))
	require.Nil(w)
	require.Equal(uint64(0), ToUnsigned(v))
}

func TestFloatDivisionByZero(t *testing.T) {
	require := require.New(t)
	v, w := EvalBinaryFloat(OpDiv, FromFloat(1.5), FromFloat(0))
	require.Equal(float64(0), ToFloat(v))
	require.NotNil(w)
}

func TestShiftMasking(t *testing.T) {
	require := require.New(t)
	v, w := EvalBinarySigned(OpBShiftL, FromSigned(1), FromSigned(64))
	require.Nil(w)
	// shift count 64 masked to 0 => no-op shift.
	require.Equal(int64(1), ToSigned(v))
}

func TestToNumberFallback(t *testing.T) {
	require := require.New(t)
	v, w := ToNumber("not-a-number")
	require.Equal(int64(0), ToSigned(v))
	require.NotNil(w)

	v, w = ToNumber("42")
	require.Nil(w)
	require.Equal(int64(42), ToSigned(v))
}

func TestSubstrOutOfRange(t *testing.T) {
	require := require.New(t)
	s, w := Substr("hello", 10, 2)
	require.Equal("", s)
	require.NotNil(w)

	s, w = Substr("hello", 1, 3)
	require.Nil(w)
	require.Equal("ell", s)
}

func TestRegexCache(t *testing.T) {
	require := require.New(t)
	c := NewRegexCache()

	ok, w := c.Match(`^a+$`, "aaa")
	require.Nil(w)
	require.True(ok)

	ok, w = c.NotMatch(`^a+$`, "bbb")
	require.Nil(w)
	require.True(ok)

	_, w = c.Match(`(`, "x")
	require.NotNil(w)
}
