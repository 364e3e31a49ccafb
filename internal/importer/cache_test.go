package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	c := Cache{Dir: t.TempDir()}

	_, ok := c.LoadZotero()
	assert.False(t, ok, "empty cache dir should miss")

	var md Metadata
	md.Set("Title", "t")
	c.SaveZotero(map[string]Metadata{"KEY1": md})

	got, ok := c.LoadZotero()
	require.True(t, ok)
	require.Len(t, got, 1)
	title, _ := got["KEY1"].Get("Title")
	assert.Equal(t, "t", title)

	c.SaveVoyages(map[string]VoyageRecord{
		"KEY1": {ZoteroItemID: "KEY1", PageConnections: []PageConnection{
			{Page: PageImage{IIIFBaseImageURL: "u", Transcription: "text"}},
		}},
	})
	vgot, ok := c.LoadVoyages()
	require.True(t, ok)
	assert.Equal(t, "text", vgot["KEY1"].PageConnections[0].Page.Transcription)
}

func TestCacheCorruptFileIsAMiss(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, zoteroCacheFile), []byte("{not json"), 0o644))

	c := Cache{Dir: dir}
	_, ok := c.LoadZotero()
	assert.False(t, ok)
}

func TestCacheSaveFailureIsNonFatal(t *testing.T) {
	// a directory that does not exist: save logs and carries on
	c := Cache{Dir: filepath.Join(t.TempDir(), "missing", "nested")}
	c.SaveVoyages(map[string]VoyageRecord{"k": {ZoteroItemID: "k"}})

	_, ok := c.LoadVoyages()
	assert.False(t, ok)
}
