package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const voyagesPageLimit = 10

// EntityRef points at a domain entity (voyage, enslaved person or
// enslaver) by its public identifier.
type EntityRef struct {
	ID json.Number `json:"id"`
}

// PageImage describes one physical page of a source document.
type PageImage struct {
	IIIFBaseImageURL string `json:"iiif_baseimage_url"`
	Transcription    string `json:"transcription"`
}

type PageConnection struct {
	Page PageImage `json:"page"`
}

type VoyageConnection struct {
	Voyage *EntityRef `json:"voyage"`
}

type EnslavedConnection struct {
	Enslaved *EntityRef `json:"enslaved"`
}

type EnslaverConnection struct {
	Enslaver *EntityRef `json:"enslaver"`
}

// VoyageRecord is one document entry from the Voyages API. ZoteroItemID
// is the join key that correlates it with the reference manager item.
type VoyageRecord struct {
	ID                        json.Number          `json:"id"`
	ZoteroItemID              string               `json:"zotero_item_id"`
	PageConnections           []PageConnection     `json:"page_connections"`
	SourceVoyageConnections   []VoyageConnection   `json:"source_voyage_connections"`
	SourceEnslavedConnections []EnslavedConnection `json:"source_enslaved_connections"`
	SourceEnslaverConnections []EnslaverConnection `json:"source_enslaver_connections"`
}

// VoyagesClient fetches document records from the Voyages domain API.
type VoyagesClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewVoyagesClient(baseURL, apiKey string) *VoyagesClient {
	return &VoyagesClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Page fetches one page of document records keyed by zotero_item_id.
// A record without a join key would silently shadow another under the
// empty string, so it is reported as a malformed page instead.
func (c *VoyagesClient) Page(ctx context.Context, offset int) (map[string]VoyageRecord, int, error) {
	u := fmt.Sprintf("%s/docs/GENERIC/?limit=%d&offset=%d", c.BaseURL, voyagesPageLimit, offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("voyages: build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("voyages: request: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("voyages: status %d: %s", resp.StatusCode, string(body))
	}

	var page struct {
		Results []VoyageRecord `json:"results"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, 0, fmt.Errorf("voyages: decode page: %w", err)
	}

	items := make(map[string]VoyageRecord, len(page.Results))
	for _, rec := range page.Results {
		if rec.ZoteroItemID == "" {
			return nil, 0, fmt.Errorf("voyages: record %s has no zotero_item_id", rec.ID)
		}
		items[rec.ZoteroItemID] = rec
	}
	return items, len(page.Results), nil
}
