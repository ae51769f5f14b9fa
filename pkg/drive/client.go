package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/drivelens/drivelens/pkg/types"
)

const driveAPIBase = "https://www.googleapis.com/drive/v3"

// listFields is the projection requested on files.list. Keeping it narrow
// keeps page payloads small.
const listFields = "nextPageToken,files(id,name,mimeType,size,owners(emailAddress,displayName),createdTime,modifiedTime,webViewLink,trashed)"

// File is the Drive wire representation of one file. Size arrives as a
// decimal string and may exceed int64, so it stays a string here.
type File struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	MimeType     string  `json:"mimeType"`
	Size         string  `json:"size"`
	Owners       []Owner `json:"owners"`
	CreatedTime  string  `json:"createdTime"`
	ModifiedTime string  `json:"modifiedTime"`
	WebViewLink  string  `json:"webViewLink"`
	Trashed      bool    `json:"trashed"`
}

type Owner struct {
	EmailAddress string `json:"emailAddress"`
	DisplayName  string `json:"displayName"`
}

// Page is one page of a files.list response
type Page struct {
	Files         []File `json:"files"`
	NextPageToken string `json:"nextPageToken"`
}

// Client is a thin Google Drive REST client. Calls take the access token
// explicitly so credential refresh stays the caller's concern.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new Drive API client
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    driveAPIBase,
	}
}

// NewClientWithBaseURL creates a client against a custom API base, used in tests
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
	}
}

// ListPage fetches one page of files ordered by most recently modified.
// Trashed files are included so the mirror can observe remote deletions.
// An empty pageToken fetches the first page.
func (c *Client) ListPage(ctx context.Context, token, pageToken string, pageSize int) (*Page, error) {
	q := url.Values{}
	q.Set("pageSize", fmt.Sprintf("%d", pageSize))
	q.Set("orderBy", "modifiedTime desc")
	q.Set("fields", listFields)
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	var page Page
	if err := c.request(ctx, token, "GET", "/files?"+q.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Rename updates a file's name on the remote and returns the remote's view
// of the updated file
func (c *Client) Rename(ctx context.Context, token, fileID, name string) (*File, error) {
	body := map[string]string{"name": name}
	path := fmt.Sprintf("/files/%s?fields=id,name,modifiedTime", url.PathEscape(fileID))

	var file File
	if err := c.request(ctx, token, "PATCH", path, body, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// Trash moves a file to the remote trash
func (c *Client) Trash(ctx context.Context, token, fileID string) error {
	body := map[string]bool{"trashed": true}
	path := fmt.Sprintf("/files/%s?fields=id,trashed", url.PathEscape(fileID))
	return c.request(ctx, token, "PATCH", path, body, nil)
}

func (c *Client) request(ctx context.Context, token, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return &types.ProviderError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if result == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}
