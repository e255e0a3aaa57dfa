package precise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSubRoundTrip(t *testing.T) {
	cases := []struct{ a, b string }{
		{"0.1", "0.2"},
		{"0.00000001", "123456789.12345678"},
		{"-5.5", "2.25"},
		{"1", "-1"},
		{"99999999999999999999.99999999", "0.00000001"},
	}
	for _, tc := range cases {
		sum, err := Add(tc.a, tc.b)
		require.NoError(t, err)
		back, err := Sub(sum, tc.b)
		require.NoError(t, err)
		assert.Equal(t, tc.a, back, "sub(add(%s,%s),%s)", tc.a, tc.b, tc.b)
	}
}

func TestAddIsExact(t *testing.T) {
	sum, err := Add("0.1", "0.2")
	require.NoError(t, err)
	assert.Equal(t, "0.3", sum)
}

func TestMulDiv(t *testing.T) {
	p, err := Mul("2", "100")
	require.NoError(t, err)
	assert.Equal(t, "200", p)

	q, err := Div("5", "100")
	require.NoError(t, err)
	assert.Equal(t, "0.05", q)

	q, err = Div("1", "3")
	require.NoError(t, err)
	assert.Equal(t, "0.33333333333333333333333333333333", q)

	_, err = Div("1", "0")
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestNegAbsCompare(t *testing.T) {
	n, err := Neg("-0.0005")
	require.NoError(t, err)
	assert.Equal(t, "0.0005", n)

	a, err := Abs("-12.5")
	require.NoError(t, err)
	assert.Equal(t, "12.5", a)

	eq, err := Eq("1.0", "1")
	require.NoError(t, err)
	assert.True(t, eq)

	gt, err := Gt("0.0000001", "0")
	require.NoError(t, err)
	assert.True(t, gt)

	mx, err := Max("3", "3.01")
	require.NoError(t, err)
	assert.Equal(t, "3.01", mx)

	mn, err := Min("-1", "0")
	require.NoError(t, err)
	assert.Equal(t, "-1", mn)
}

func TestInvalidInput(t *testing.T) {
	_, err := Add("abc", "1")
	assert.ErrorIs(t, err, ErrInvalidNumber)
	_, err = Add("", "1")
	assert.ErrorIs(t, err, ErrInvalidNumber)
}

func TestToPrecisionTruncate(t *testing.T) {
	cases := []struct{ value, step, want string }{
		{"1.239", "0.01", "1.23"},
		{"1.2", "0.01", "1.2"},
		{"0.00000001999", "0.00000001", "0.00000001"},
		{"-1.239", "0.01", "-1.23"},
		{"17", "5", "15"},
		{"0.004", "0.01", "0"},
	}
	for _, tc := range cases {
		got, err := ToPrecision(tc.value, tc.step, Truncate)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "truncate %s to %s", tc.value, tc.step)
	}
}

func TestToPrecisionRound(t *testing.T) {
	cases := []struct{ value, step, want string }{
		{"1.235", "0.01", "1.24"},
		{"1.2349", "0.01", "1.23"},
		{"-1.235", "0.01", "-1.24"},
		{"101.3", "0.5", "101.5"},
		{"101.2", "0.5", "101"},
		{"12.5", "5", "15"},
	}
	for _, tc := range cases {
		got, err := ToPrecision(tc.value, tc.step, Round)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "round %s to %s", tc.value, tc.step)
	}
}

func TestToPrecisionIdempotent(t *testing.T) {
	for _, v := range []string{"1.23456", "0.1", "99999.99999", "-3.14159"} {
		for _, step := range []string{"0.01", "0.5", "0.00001", "10"} {
			once, err := ToPrecision(v, step, Round)
			require.NoError(t, err)
			twice, err := ToPrecision(once, step, Round)
			require.NoError(t, err)
			assert.Equal(t, once, twice)
		}
	}
}

func TestToPrecisionInvalidStep(t *testing.T) {
	_, err := ToPrecision("1", "0", Truncate)
	assert.ErrorIs(t, err, ErrInvalidStep)
	_, err = ToPrecision("1", "-0.1", Truncate)
	assert.ErrorIs(t, err, ErrInvalidStep)
}
