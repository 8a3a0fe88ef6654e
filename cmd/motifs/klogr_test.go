package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKlogLogger(t *testing.T) {
	log := newKlogLogger(1)
	assert.True(t, log.V(1).Enabled())
	assert.False(t, log.V(2).Enabled())

	named := log.WithName("motifs").WithName("store").WithValues("kind", "memory")
	sink, ok := named.GetSink().(*klogSink)
	require.True(t, ok)

	prefix, args := sink.FormatInfo(0, "loaded graph", []any{"nodes", 6})
	assert.Equal(t, "motifs/store", prefix)
	assert.Equal(t, `"msg"="loaded graph" "kind"="memory" "nodes"=6`, args)
	assert.Equal(t, `motifs/store: "msg"="loaded graph" "kind"="memory" "nodes"=6`, withPrefix(prefix, args))

	// Deriving loggers leaves the parent untouched
	parent, ok := log.GetSink().(*klogSink)
	require.True(t, ok)
	prefix, args = parent.FormatInfo(0, "hi", nil)
	assert.Empty(t, prefix)
	assert.Equal(t, `"msg"="hi"`, args)

	named.Info("routed to klog")
	named.Error(assert.AnError, "routed to klog")
}
