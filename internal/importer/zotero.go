package importer

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const zoteroPageLimit = 100

// ZoteroClient fetches bibliographic items from a Zotero group library,
// requesting each item's metadata as Dublin Core RDF.
type ZoteroClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewZoteroClient(baseURL, apiKey string) *ZoteroClient {
	return &ZoteroClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// LookupGroupID resolves a group name to its numeric id through the
// public (unauthenticated) group listing of a user. One-shot: any
// failure here aborts the run before the fetch loops start.
func (c *ZoteroClient) LookupGroupID(ctx context.Context, userID, groupName string) (int64, error) {
	client := &http.Client{Timeout: 30 * time.Second}

	u := fmt.Sprintf("%s/users/%s/groups", c.BaseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("zotero: build groups request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("zotero: list groups: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("zotero: list groups: status %d", resp.StatusCode)
	}

	var groups []struct {
		ID   int64 `json:"id"`
		Data struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&groups); err != nil {
		return 0, fmt.Errorf("zotero: decode groups: %w", err)
	}

	for _, g := range groups {
		if g.Data.Name == groupName {
			return g.ID, nil
		}
	}
	return 0, fmt.Errorf("zotero: no group named %q for user %s", groupName, userID)
}

// atomNode is a generic XML element: we only care about its qualified
// name, its text and its child elements.
type atomNode struct {
	XMLName  xml.Name
	Text     string     `xml:",chardata"`
	Children []atomNode `xml:",any"`
}

type atomEntry struct {
	Key     string `xml:"http://zotero.org/ns/api key"`
	Content struct {
		Children []atomNode `xml:",any"`
	} `xml:"content"`
}

type atomFeed struct {
	Entries []atomEntry `xml:"http://www.w3.org/2005/Atom entry"`
}

// Page fetches one page of group items as an Atom feed and returns the
// normalized metadata keyed by Zotero item key. The reported count is
// the number of feed entries, including ones dropped for missing RDF
// content, so the caller advances the cursor past them.
func (c *ZoteroClient) Page(ctx context.Context, groupID int64, offset int) (map[string]Metadata, int, error) {
	u, err := url.Parse(fmt.Sprintf("%s/groups/%d/items", c.BaseURL, groupID))
	if err != nil {
		return nil, 0, fmt.Errorf("zotero: parse base url: %w", err)
	}
	q := u.Query()
	q.Set("start", fmt.Sprintf("%d", offset))
	q.Set("limit", fmt.Sprintf("%d", zoteroPageLimit))
	q.Set("content", "rdf_dc")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("zotero: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("zotero: request: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("zotero: status %d: %s", resp.StatusCode, string(body))
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, 0, fmt.Errorf("zotero: parse feed: %w", err)
	}

	items := make(map[string]Metadata)
	for _, e := range feed.Entries {
		if e.Key == "" {
			continue
		}
		desc, ok := rdfDescription(e.Content.Children)
		if !ok {
			continue
		}
		fields := make([]RawField, 0, len(desc.Children))
		for _, el := range desc.Children {
			fields = append(fields, RawField{Tag: qualifiedTag(el.XMLName), Text: el.Text})
		}
		items[e.Key] = NormalizeRDF(fields)
	}
	return items, len(feed.Entries), nil
}

// rdfDescription walks content → rdf:RDF → rdf:Description, taking the
// first element at each level like the RDF export always produces.
func rdfDescription(content []atomNode) (atomNode, bool) {
	if len(content) == 0 || len(content[0].Children) == 0 {
		return atomNode{}, false
	}
	return content[0].Children[0], true
}

// qualifiedTag reconstructs the "{namespace}local" form used by raw
// source records.
func qualifiedTag(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return "{" + n.Space + "}" + n.Local
}
