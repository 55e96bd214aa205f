package supabase

import (
	"net/http"
	"strings"
	"time"

	storage "github.com/supabase-community/storage-go"
)

// Client holds the endpoints of one Supabase project.
type Client struct {
	baseURL    string
	httpClient *http.Client
	public     *storage.Client
}

// NewClient creates a client for the project at baseURL. httpClient may be nil.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		public:     storage.NewClient(baseURL+"/storage/v1", "", nil),
	}
}

// Configured reports whether a project URL was provided.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

func (c *Client) storageURL() string {
	return c.baseURL + "/storage/v1"
}

func (c *Client) restURL() string {
	return c.baseURL + "/rest/v1"
}

// PublicObjectURL is the unauthenticated download URL of key in bucket.
func (c *Client) PublicObjectURL(bucket, key string) string {
	return c.public.GetPublicUrl(bucket, key).SignedURL
}
