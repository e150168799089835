package vectorsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Client talks to the hosted vector-search API (OpenAI-style /vector_stores
// surface). The service mirrors remote stores into local rows; this client is
// the remote half of that pairing.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Store is a remote vector store as the API reports it.
type Store struct {
	Id         string     `json:"id"`
	Name       string     `json:"name"`
	UsageBytes int64      `json:"usage_bytes"`
	FileCounts FileCounts `json:"file_counts"`
	CreatedAt  int64      `json:"created_at"`
}

type FileCounts struct {
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

// File is a document attached to a remote store.
type File struct {
	Id        string `json:"id"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("vector API unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("vector API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("vector API error: status %d", resp.StatusCode)
	}

	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}

func (c *Client) jsonBody(v interface{}) (io.Reader, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(raw), nil
}

func (c *Client) CreateStore(ctx context.Context, name string) (*Store, error) {
	body, err := c.jsonBody(map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	var store Store
	if err := c.do(ctx, http.MethodPost, "/vector_stores", body, "application/json", &store); err != nil {
		return nil, err
	}
	return &store, nil
}

func (c *Client) GetStore(ctx context.Context, storeID string) (*Store, error) {
	var store Store
	if err := c.do(ctx, http.MethodGet, "/vector_stores/"+storeID, nil, "", &store); err != nil {
		return nil, err
	}
	return &store, nil
}

func (c *Client) ListStores(ctx context.Context) ([]Store, error) {
	var env listEnvelope[Store]
	if err := c.do(ctx, http.MethodGet, "/vector_stores", nil, "", &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) DeleteStore(ctx context.Context, storeID string) error {
	return c.do(ctx, http.MethodDelete, "/vector_stores/"+storeID, nil, "", nil)
}

// UploadFile pushes raw file bytes to the API's file endpoint and returns the
// remote file id. Attaching it to a store is a separate call.
func (c *Client) UploadFile(ctx context.Context, filename string, content []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(content); err != nil {
		return "", err
	}
	if err := writer.WriteField("purpose", "assistants"); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	var file File
	if err := c.do(ctx, http.MethodPost, "/files", &buf, writer.FormDataContentType(), &file); err != nil {
		return "", err
	}
	return file.Id, nil
}

// AttachFile links an uploaded file to a store, which triggers remote
// indexing.
func (c *Client) AttachFile(ctx context.Context, storeID, fileID string) (*File, error) {
	body, err := c.jsonBody(map[string]string{"file_id": fileID})
	if err != nil {
		return nil, err
	}
	var file File
	if err := c.do(ctx, http.MethodPost, "/vector_stores/"+storeID+"/files", body, "application/json", &file); err != nil {
		return nil, err
	}
	return &file, nil
}

func (c *Client) ListFiles(ctx context.Context, storeID string) ([]File, error) {
	var env listEnvelope[File]
	if err := c.do(ctx, http.MethodGet, "/vector_stores/"+storeID+"/files", nil, "", &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) DetachFile(ctx context.Context, storeID, fileID string) error {
	return c.do(ctx, http.MethodDelete, "/vector_stores/"+storeID+"/files/"+fileID, nil, "", nil)
}
