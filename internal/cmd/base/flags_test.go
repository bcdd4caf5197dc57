package base

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagSet(t *testing.T) {
	var (
		host string
		port int
		tls  bool
	)
	f := NewFlagSet(flag.NewFlagSet("test", flag.ContinueOnError))
	f.StringVar(&host, "host", "0.0.0.0", "Bind `address`.")
	f.IntVar(&port, "port", 80, "Bind port.")
	f.BoolVar(&tls, "ssl", false, "Serve over TLS.")

	help := f.Help()
	assert.Contains(t, help, "Options:")
	assert.Contains(t, help, "-host=<address>  (default: 0.0.0.0)")
	assert.Contains(t, help, "-port=<int>  (default: 80)")
	assert.Contains(t, help, "-ssl\n      Serve over TLS.")

	require.NoError(t, f.Parse([]string{"-port", "8080"}))
	assert.True(t, f.IsSet("port"))
	assert.False(t, f.IsSet("host"))
	assert.Equal(t, 8080, port)

	assert.Error(t, f.Parse([]string{"-nope"}))
}

func TestFlagSet_NoFlags(t *testing.T) {
	f := NewFlagSet(flag.NewFlagSet("empty", flag.ContinueOnError))
	assert.Empty(t, f.Help())
}
