package plf

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Expression/dump pairs ported from cata_libintl's plural-form test
// table (tests_plural_form_rules), numbered the same way.
func TestParseDebugDump(t *testing.T) {
	cases := []struct {
		serial int
		input  string
		want   string
	}{
		{0, "n%2", "(n%2)"},
		{1, " ( n % 2 ) ", "(n%2)"},
		{2, "n?0:1", "(n?0:1)"},
		{3, "n?1?2:3:4", "(n?(1?2:3):4)"},
		{4, "1 && 2 && 3 && 4", "(1&&(2&&(3&&4)))"},
		{5, "n%10==1 && n%100!=11", "(((n%10)==1)&&((n%100)!=11))"},
		{6, "n==1?n%2:n%3", "((n==1)?(n%2):(n%3))"},
		{7, "n == 4294967295 ? 1 : 0", "((n==4294967295)?1:0)"},
		{8, "n!=1", "(n!=1)"},
		{9, "n>1", "(n>1)"},
		{10, "0", "0"},
		{11, "n%10==1 && n%100!=11 ? 0 : n != 0 ? 1 : 2", "((((n%10)==1)&&((n%100)!=11))?0:((n!=0)?1:2))"},
		{12, "n==1 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2",
			"((n==1)?0:((((n%10)>=2)&&(((n%10)<=4)&&(((n%100)<10)||((n%100)>=20))))?1:2))"},
		{13, "n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2",
			"((((n%10)==1)&&((n%100)!=11))?0:((((n%10)>=2)&&(((n%10)<=4)&&(((n%100)<10)||((n%100)>=20))))?1:2))"},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("case_%02d", c.serial), func(t *testing.T) {
			node, err := Parse(c.input)
			require.NoError(t, err)
			require.NotNil(t, node)
			assert.Equal(t, c.want, node.DebugDump())

			// Idempotence: re-parsing the dump must reproduce it exactly.
			roundTripped, err := Parse(node.DebugDump())
			require.NoError(t, err)
			assert.Equal(t, c.want, roundTripped.DebugDump())
		})
	}
}

// Failure cases ported from tests_plural_form_rules_fail.
func TestParseFailures(t *testing.T) {
	cases := []struct {
		serial int
		input  string
		want   string
	}{
		{0, "n%", "expected expression at pos 2"},
		{1, "%2", "expected expression at pos 0"},
		{2, "n2", "unexpected token at pos 1"},
		{3, " ( n % 2 ", "expected closing bracket at pos 9"},
		{4, "  n % 2     )  ", "unexpected token at pos 12"},
		{5, "  ", "expected expression at pos 2"},
		{6, " ( n % 2 ) 2 % n", "unexpected token at pos 11"},
		{7, " ( n % 2 ) % % 4", "expected expression at pos 13"},
		{8, "%% 3", "expected expression at pos 0"},
		{9, "n % -3", "unexpected character '-' at pos 4"},
		{10, "n * 3", "unexpected character '*' at pos 2"},
		{11, "(((((n % 3))))))", "unexpected token at pos 15"},
		{12, "n % 2 3", "unexpected token at pos 6"},
		{13, "n == 4294967296 ? 1 : 0", "invalid number '4294967296' at pos 5"},
		{14, "n ? 2 3", "expected ternary delimiter at pos 6"},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("case_%02d", c.serial), func(t *testing.T) {
			_, err := Parse(c.input)
			require.Error(t, err)
			assert.Equal(t, c.want, err.Error())
		})
	}
}

// The Russian plural rule from the GNU gettext manual, evaluated over
// the sample values used throughout spec and original_source fixtures.
func TestEvalRussian(t *testing.T) {
	expr := "n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2"
	node, err := Parse(expr)
	require.NoError(t, err)

	inputs := []uint64{0, 1, 2, 5, 11, 21, 22, 25}
	want := []uint64{2, 0, 1, 2, 2, 0, 1, 2}
	for i, n := range inputs {
		assert.Equal(t, want[i], node.Eval(n), "n=%d", n)
	}
}

// The variant used in cata_libintl's own test suite, with n%10>1
// instead of n%10>=2, checked over a much larger range including
// math.MaxUint64.
func TestEvalRussianExtendedRange(t *testing.T) {
	expr := "n%10==1 && n%100!=11 ? 0 : n%10>1 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2"
	node, err := Parse(expr)
	require.NoError(t, err)

	expected := [100]uint64{
		2, 0, 1, 1, 1, 2, 2, 2, 2, 2,
		2, 2, 2, 2, 2, 2, 2, 2, 2, 2,
		2, 0, 1, 1, 1, 2, 2, 2, 2, 2,
		2, 0, 1, 1, 1, 2, 2, 2, 2, 2,
		2, 0, 1, 1, 1, 2, 2, 2, 2, 2,
		2, 0, 1, 1, 1, 2, 2, 2, 2, 2,
		2, 0, 1, 1, 1, 2, 2, 2, 2, 2,
		2, 0, 1, 1, 1, 2, 2, 2, 2, 2,
		2, 0, 1, 1, 1, 2, 2, 2, 2, 2,
		2, 0, 1, 1, 1, 2, 2, 2, 2, 2,
	}
	for n := uint64(0); n < 130; n++ {
		assert.Equal(t, expected[n%100], node.Eval(n), "n=%d", n)
	}
	assert.Equal(t, expected[uint64(^uint64(0))%100], node.Eval(^uint64(0)))
}

func TestEvalModByZeroClampsToZero(t *testing.T) {
	node, err := Parse("n % 0")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), node.Eval(42))
}

func TestEvalTernaryAndLiteral(t *testing.T) {
	node, err := Parse("n ? 7 : 9")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), node.Eval(1))
	assert.Equal(t, uint64(9), node.Eval(0))
}

// Every Plural-Forms expression GNU gettext ships for a real language
// must parse without error (cata_libintl_test.cpp's gnu_gettext_plurals).
func TestParseRealWorldPluralForms(t *testing.T) {
	exprs := map[string]string{
		"ja": "0",
		"vi": "0",
		"ko": "0",
		"en": "(n != 1)",
		"de": "(n != 1)",
		"fr": "(n > 1)",
		"pt_BR": "(n > 1)",
		"lv":    "(n%10==1 && n%100!=11 ? 0 : n != 0 ? 1 : 2)",
		"ga":    "n==1 ? 0 : n==2 ? 1 : 2",
		"ro":    "n==1 ? 0 : (n==0 || (n%100 > 0 && n%100 < 20)) ? 1 : 2",
		"lt":    "(n%10==1 && n%100!=11 ? 0 : n%10>=2 && (n%100<10 || n%100>=20) ? 1 : 2)",
		"ru":    "(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2)",
		"cs":    "(n==1) ? 0 : (n>=2 && n<=4) ? 1 : 2",
		"pl":    "(n==1 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2)",
		"sl":    "(n%100==1 ? 0 : n%100==2 ? 1 : n%100==3 || n%100==4 ? 2 : 3)",
	}
	for lang, expr := range exprs {
		t.Run(lang, func(t *testing.T) {
			_, err := Parse(expr)
			require.NoError(t, err)
		})
	}
}
