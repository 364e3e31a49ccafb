package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoyagesPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/docs/GENERIC/", r.URL.Path)
		assert.Equal(t, "Token vk", r.Header.Get("Authorization"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "0", r.URL.Query().Get("offset"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{
					"id": 7,
					"zotero_item_id": "KEY1",
					"page_connections": [
						{"page": {"iiif_baseimage_url": "https://iiif.example/1", "transcription": "page one text"}},
						{"page": {"iiif_baseimage_url": "", "transcription": ""}}
					],
					"source_voyage_connections": [{"voyage": {"id": 901}}],
					"source_enslaved_connections": [{"enslaved": null}],
					"source_enslaver_connections": []
				},
				{
					"id": 8,
					"zotero_item_id": "KEY2",
					"page_connections": []
				}
			]
		}`))
	}))
	defer ts.Close()

	c := NewVoyagesClient(ts.URL, "vk")
	items, count, err := c.Page(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, items, 2)

	rec := items["KEY1"]
	require.Len(t, rec.PageConnections, 2)
	assert.Equal(t, "page one text", rec.PageConnections[0].Page.Transcription)
	require.Len(t, rec.SourceVoyageConnections, 1)
	require.NotNil(t, rec.SourceVoyageConnections[0].Voyage)
	assert.Equal(t, "901", rec.SourceVoyageConnections[0].Voyage.ID.String())
	require.Len(t, rec.SourceEnslavedConnections, 1)
	assert.Nil(t, rec.SourceEnslavedConnections[0].Enslaved)

	assert.Empty(t, items["KEY2"].PageConnections)
}

func TestVoyagesPageMissingJoinKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [{"id": 9, "zotero_item_id": ""}]}`))
	}))
	defer ts.Close()

	c := NewVoyagesClient(ts.URL, "vk")
	_, _, err := c.Page(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no zotero_item_id")
}

func TestVoyagesPageBadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer ts.Close()

	c := NewVoyagesClient(ts.URL, "vk")
	_, _, err := c.Page(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}
