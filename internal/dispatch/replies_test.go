package dispatch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, defaultReplies[ReplyFallback], c.Get(ReplyFallback))
	assert.Empty(t, c.Get("no_such_key"))
}

func TestLoadCatalogMissingFileKeepsDefaults(t *testing.T) {
	c, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, defaultReplies[ReplyAskPhone], c.Get(ReplyAskPhone))
}

func TestLoadCatalogMergesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"fallback: \"Hi! Hungry? I can take your order.\"\n"+
			"ask_phone: \"\"\n"), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)

	assert.Equal(t, "Hi! Hungry? I can take your order.", c.Get(ReplyFallback))
	// Empty overrides are ignored so a sparse file cannot blank a reply.
	assert.Equal(t, defaultReplies[ReplyAskPhone], c.Get(ReplyAskPhone))
	assert.Equal(t, defaultReplies[ReplyUnrecognized], c.Get(ReplyUnrecognized))
}

func TestLoadCatalogRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replies.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fallback: [not, a, string"), 0o644))

	_, err := LoadCatalog(path)
	assert.Error(t, err)
}
