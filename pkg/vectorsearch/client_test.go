package vectorsearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key")
}

func TestClient_CreateStore(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vector_stores", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "juridico", body["name"])

		json.NewEncoder(w).Encode(Store{Id: "vs_123", Name: "juridico"})
	})

	store, err := c.CreateStore(context.Background(), "juridico")
	require.NoError(t, err)
	assert.Equal(t, "vs_123", store.Id)
}

func TestClient_ListStores(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vector_stores", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []Store{{Id: "vs_1"}, {Id: "vs_2"}},
		})
	})

	stores, err := c.ListStores(context.Background())
	require.NoError(t, err)
	require.Len(t, stores, 2)
	assert.Equal(t, "vs_1", stores[0].Id)
}

func TestClient_UploadAndAttachFile(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			_, header, err := r.FormFile("file")
			require.NoError(t, err)
			assert.Equal(t, "contrato.pdf", header.Filename)
			json.NewEncoder(w).Encode(File{Id: "file_9"})
		case "/vector_stores/vs_1/files":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "file_9", body["file_id"])
			json.NewEncoder(w).Encode(File{Id: "file_9", Status: "in_progress"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	ctx := context.Background()
	fileID, err := c.UploadFile(ctx, "contrato.pdf", []byte("conteúdo"))
	require.NoError(t, err)
	assert.Equal(t, "file_9", fileID)

	attached, err := c.AttachFile(ctx, "vs_1", fileID)
	require.NoError(t, err)
	assert.Equal(t, "in_progress", attached.Status)
}

func TestClient_APIErrorMessageSurfaced(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "store not found"},
		})
	})

	_, err := c.GetStore(context.Background(), "vs_missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store not found")
	assert.Contains(t, err.Error(), "404")
}

func TestClient_DeleteStore(t *testing.T) {
	var deleted string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		deleted = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.DeleteStore(context.Background(), "vs_del"))
	assert.Equal(t, "/vector_stores/vs_del", deleted)
}
