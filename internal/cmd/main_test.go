package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMain_Version(t *testing.T) {
	assert.Equal(t, 0, Main([]string{"mongobridge", "-v"}))
	assert.Equal(t, 0, Main([]string{"mongobridge", "version"}))
}

func TestMain_GenerateKey(t *testing.T) {
	assert.Equal(t, 0, Main([]string{"mongobridge", "operator", "generate-key"}))
}

func TestMain_UnknownCommand(t *testing.T) {
	assert.Equal(t, 127, Main([]string{"mongobridge", "frobnicate"}))
}

func TestInitCommands(t *testing.T) {
	initCommands(nil, nil)
	for _, name := range []string{"server", "version", "operator", "operator ping", "operator generate-key"} {
		factory, ok := Commands[name]
		if assert.True(t, ok, name) {
			c, err := factory()
			assert.NoError(t, err)
			assert.NotEmpty(t, c.Synopsis(), name)
		}
	}
}

func TestSubcommandArgs(t *testing.T) {
	cases := []struct {
		in   []string
		want []string
	}{
		{nil, []string{"server"}},
		{[]string{"-v"}, []string{"version"}},
		{[]string{"-version"}, []string{"version"}},
		{[]string{"server", "-port", "8080"}, []string{"server", "-port", "8080"}},
		{[]string{"-v", "extra"}, []string{"-v", "extra"}},
		{[]string{"operator", "ping"}, []string{"operator", "ping"}},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, subcommandArgs(tc.in), "%v", tc.in)
	}
}
