package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/infra/httpclient"
)

const DefaultAPIURL = "https://api.pinata.cloud"

var ErrNotConfigured = errors.New("pinata is not configured")

type Config struct {
	APIURL  string
	JWT     string
	Timeout time.Duration
}

// Client pins JSON documents to IPFS through Pinata.
type Client struct {
	apiURL string
	jwt    string
	http   *http.Client
}

type pinRequest struct {
	PinataContent  any            `json:"pinataContent"`
	PinataMetadata pinRequestMeta `json:"pinataMetadata"`
}

type pinRequestMeta struct {
	Name string `json:"name"`
}

func NewClient(cfg Config) *Client {
	apiURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &Client{
		apiURL: apiURL,
		jwt:    strings.TrimSpace(cfg.JWT),
		http:   httpclient.New(timeout),
	}
}

// PinJSON uploads content and returns its ipfs:// URI.
func (c *Client) PinJSON(ctx context.Context, name string, content any) (string, error) {
	if c.jwt == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(pinRequest{
		PinataContent:  content,
		PinataMetadata: pinRequestMeta{Name: name},
	})
	if err != nil {
		return "", fmt.Errorf("marshal pin request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/pinning/pinJSONToIPFS", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create pin request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("pin json: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read pin response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("pinata returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	cid := gjson.GetBytes(raw, "IpfsHash").String()
	if cid == "" {
		return "", fmt.Errorf("pinata response has no IpfsHash")
	}
	return "ipfs://" + cid, nil
}
