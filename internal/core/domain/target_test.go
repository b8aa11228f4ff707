package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tgraph/internal/core/domain"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		flavors []string
	}{
		{name: "fully qualified", input: "cell//a/b:foo", want: "cell//a/b:foo"},
		{name: "default cell", input: "//a:foo", want: "root//a:foo"},
		{name: "implicit name", input: "//java/lib", want: "root//java/lib:lib"},
		{name: "root package", input: "//:top", want: "root//:top"},
		{name: "flavors are sorted", input: "//a:foo#b,a", want: "root//a:foo#a,b", flavors: []string{"a", "b"}},
		{name: "duplicate flavors collapse", input: "//a:foo#x,x", want: "root//a:foo#x", flavors: []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := domain.ParseTarget(tt.input, "root")
			require.NoError(t, err)
			assert.Equal(t, tt.want, id.String())
			assert.Equal(t, tt.flavors, id.FlavorList())
		})
	}
}

func TestParseTarget_Invalid(t *testing.T) {
	for _, input := range []string{"", "foo", "//a:", "//a:b:c", "//a/:x", "//../a:b", "//a:foo#", "//"} {
		t.Run(input, func(t *testing.T) {
			_, err := domain.ParseTarget(input, "root")
			require.ErrorIs(t, err, domain.ErrInvalidTarget)
		})
	}
}

func TestParseRelativeTarget(t *testing.T) {
	id, err := domain.ParseRelativeTarget(":bar", "root", "a/b")
	require.NoError(t, err)
	assert.Equal(t, domain.NewTargetID("root", "a/b", "bar"), id)

	id, err = domain.ParseRelativeTarget("other//x:y", "root", "a/b")
	require.NoError(t, err)
	assert.Equal(t, "other//x:y", id.String())

	_, err = domain.ParseTarget(":bar", "root")
	require.ErrorIs(t, err, domain.ErrInvalidTarget)
}

func TestTargetID_Unflavored(t *testing.T) {
	flavored := domain.NewTargetID("root", "a", "foo", "shared")
	plain := domain.NewTargetID("root", "a", "foo")

	assert.True(t, flavored.IsFlavored())
	assert.False(t, plain.IsFlavored())
	assert.Equal(t, plain, flavored.Unflavored())
	assert.NotEqual(t, plain, flavored)
}

func TestTargetID_TextRoundTrip(t *testing.T) {
	id := domain.NewTargetID("root", "a", "foo", "x")
	text, err := id.MarshalText()
	require.NoError(t, err)

	var decoded domain.TargetID
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, id, decoded)
}
