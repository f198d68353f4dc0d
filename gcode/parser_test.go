package gcode

import (
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Classification(t *testing.T) {
	res := Parse("G1 X10 y-2.5 F200\nM3 S2000\nT2\nX5 Y6\n")
	require.True(t, res.Success())

	want := Program{
		{Kind: KindG, Code: 1, Params: Params{'X': 10, 'Y': -2.5, 'F': 200}, Line: 1, Source: "G1 X10 y-2.5 F200"},
		{Kind: KindM, Code: 3, Params: Params{'S': 2000}, Line: 2, Source: "M3 S2000"},
		{Kind: KindT, Code: 2, Params: Params{}, Line: 3, Source: "T2"},
		{Kind: KindModal, Params: Params{'X': 5, 'Y': 6}, Line: 4, Source: "X5 Y6"},
	}
	if diff := cmp.Diff(want, res.Commands, cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".Words"
	}, cmp.Ignore())); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Comments(t *testing.T) {
	res := Parse(`
; full line comment
(another comment)
G0 (move) X1 ; trailing

g1 z-.5
`)
	require.True(t, res.Success())
	require.Len(t, res.Commands, 2)

	assert.Equal(t, 4, res.Commands[0].Line)
	assert.Equal(t, Params{'X': 1}, res.Commands[0].Params)
	assert.Equal(t, "G0 (move) X1 ; trailing", res.Commands[0].Source)

	assert.Equal(t, 6, res.Commands[1].Line)
	assert.True(t, res.Commands[1].Is(KindG, 1))
	assert.Equal(t, -0.5, res.Commands[1].Params['Z'])
}

func TestParse_LastCommandWordWins(t *testing.T) {
	res := Parse("G21 G90 G54\nT1 M6")
	require.True(t, res.Success())
	require.Len(t, res.Commands, 2)

	assert.True(t, res.Commands[0].Is(KindG, 54))
	assert.Equal(t, Block{{'G', 21}, {'G', 90}, {'G', 54}}, res.Commands[0].Words)
	assert.True(t, res.Commands[1].Is(KindM, 6))
}

func TestParse_Total(t *testing.T) {
	for _, in := range []string{
		"",
		"\n\n\n",
		"(only a comment)",
		"; nothing",
		"%%%% garbage !!",
		"hello world",
		"G",
		"\x00\xff",
	} {
		res := Parse(in)
		assert.True(t, res.Success(), "input %q", in)
		assert.Empty(t, res.Commands, "input %q", in)
	}
}

func TestParse_LexicalError(t *testing.T) {
	huge := "1" + strings.Repeat("0", 400)
	res := Parse("G0 X1\nG1 X" + huge + "\nG1 X2")

	assert.False(t, res.Success())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2, res.Errors[0].Line)
	assert.Contains(t, res.Errors[0].Message, "invalid number")

	// parsing continued past the bad line
	require.Len(t, res.Commands, 2)
	assert.Equal(t, 3, res.Commands[1].Line)
}

func TestParser_Next(t *testing.T) {
	p := NewParser(strings.NewReader("G0 X1\n\nM5"))

	c, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "G0X1", c.String())

	c, err = p.Next()
	require.NoError(t, err)
	assert.Equal(t, "M5", c.String())
	assert.Equal(t, 3, p.Line())

	c, err = p.Next()
	assert.Equal(t, io.EOF, err)
	assert.Nil(t, c)

	_, err = p.Next()
	assert.Equal(t, io.EOF, err)
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("X1" + strings.Repeat("9", 400)) })
	assert.NotPanics(t, func() { MustParse("G0 X0") })
}
