package docs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Repo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := openTestDB(t)
	repo := NewRepo(db)
	h := NewHandler(repo)

	router := gin.New()
	h.RegisterRoutes(router.Group("/documents"))
	h.RegisterContributionRoutes(router.Group("/documents")) // unauthenticated in tests
	router.GET("/entity-types", EntityTypesHandler(repo))
	return router, repo
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListDocuments(t *testing.T) {
	router, repo := newTestRouter(t)
	seedDocument(t, repo.DB, "KEY1", 1)
	seedDocument(t, repo.DB, "KEY2")

	w := doRequest(router, http.MethodGet, "/documents", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Documents []struct {
			Key string `json:"key"`
		} `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Documents, 2)
}

func TestGetDocument(t *testing.T) {
	router, repo := newTestRouter(t)
	docID := seedDocument(t, repo.DB, "KEY1", 1)
	_, err := repo.DB.Exec(`
		INSERT INTO entity_documents (document_id, entity_type_id, entity_key)
		VALUES (?, 1, '901')
	`, docID)
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/documents/KEY1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Document struct {
			Key       string            `json:"key"`
			Revisions []json.RawMessage `json:"revisions"`
		} `json:"document"`
		EntityLinks []struct {
			EntityKey string `json:"entity_key"`
		} `json:"entity_links"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "KEY1", resp.Document.Key)
	assert.Len(t, resp.Document.Revisions, 1)
	require.Len(t, resp.EntityLinks, 1)
	assert.Equal(t, "901", resp.EntityLinks[0].EntityKey)

	w = doRequest(router, http.MethodGet, "/documents/NOPE", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetRevisionEndpoint(t *testing.T) {
	router, repo := newTestRouter(t)
	seedDocument(t, repo.DB, "KEY1", 1)

	w := doRequest(router, http.MethodGet, "/documents/KEY1/revisions/1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/documents/KEY1/revisions/2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodGet, "/documents/KEY1/revisions/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEntityTypesEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/entity-types", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		EntityTypes []struct {
			Name string `json:"name"`
		} `json:"entity_types"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.EntityTypes, 3)
}

func TestContributeEndpoint(t *testing.T) {
	router, repo := newTestRouter(t)
	seedDocument(t, repo.DB, "KEY1", 1)

	w := doRequest(router, http.MethodPost, "/documents/KEY1/revisions",
		`{"label": "corrected", "metadata": [], "page_images": []}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		RevisionNumber int `json:"revision_number"`
		Status         int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.RevisionNumber)
	assert.Equal(t, 15, resp.Status)

	w = doRequest(router, http.MethodPost, "/documents/KEY1/revisions", `{"label": "   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/documents/NOPE/revisions", `{"label": "x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
