// internal/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrNoData is returned when the platform answers without a Response payload or
// with a non-200 status. Callers treat it as "nothing found", not as a transport failure.
var ErrNoData = errors.New("no data")

// Profile component codes used by this client.
const (
	ComponentCharacters           = 200
	ComponentCharacterInventories = 201
	ComponentCharacterEquipment   = 205
	ComponentTransitory           = 1000
)

// MembershipTypeAll searches across every platform.
const MembershipTypeAll = -1

// bungieNetMembershipType is the membership type of a Bungie.net account.
const bungieNetMembershipType = 254

// Client handles communication with the Bungie.net platform.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ResolveURL joins a site-relative resource path (emblems, icons) onto the base URL.
// Absolute URLs are returned unchanged.
func (c *Client) ResolveURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

type envelope struct {
	Response    json.RawMessage `json:"Response"`
	ErrorCode   int             `json:"ErrorCode"`
	ErrorStatus string          `json:"ErrorStatus"`
	Message     string          `json:"Message"`
}

// call performs a platform request and decodes the Response payload into out.
func (c *Client) call(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s request failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status %d", ErrNoData, path, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if len(env.Response) == 0 || string(env.Response) == "null" {
		return fmt.Errorf("%w: %s has no Response (%s)", ErrNoData, path, env.ErrorStatus)
	}
	if err := json.Unmarshal(env.Response, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// SearchPlayer finds Destiny memberships by exact Bungie name.
func (c *Client) SearchPlayer(ctx context.Context, name string, code int) ([]UserInfoCard, error) {
	payload := map[string]any{"displayName": name, "displayNameCode": code}
	var cards []UserInfoCard
	path := "/Platform/Destiny2/SearchDestinyPlayerByBungieName/" + strconv.Itoa(MembershipTypeAll) + "/"
	if err := c.call(ctx, http.MethodPost, path, payload, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// GetProfile fetches a profile with the given component codes.
func (c *Client) GetProfile(ctx context.Context, membershipType int, membershipID string, components ...int) (*ProfileResponse, error) {
	codes := make([]string, len(components))
	for i, comp := range components {
		codes[i] = strconv.Itoa(comp)
	}
	path := fmt.Sprintf("/Platform/Destiny2/%d/Profile/%s/?components=%s",
		membershipType, membershipID, strings.Join(codes, ","))

	var profile ProfileResponse
	if err := c.call(ctx, http.MethodGet, path, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetMembershipsByID looks up every Destiny membership linked to a membership id.
func (c *Client) GetMembershipsByID(ctx context.Context, membershipID string) (*UserMemberships, error) {
	path := fmt.Sprintf("/Platform/User/GetMembershipsById/%s/%d/", membershipID, bungieNetMembershipType)

	var memberships UserMemberships
	if err := c.call(ctx, http.MethodGet, path, nil, &memberships); err != nil {
		return nil, err
	}
	return &memberships, nil
}

// GetItemDefinition fetches the inventory item definition for an item hash.
func (c *Client) GetItemDefinition(ctx context.Context, itemHash uint32) (*ItemDefinition, error) {
	path := fmt.Sprintf("/Platform/Destiny2/Manifest/DestinyInventoryItemDefinition/%d/", itemHash)

	var def ItemDefinition
	if err := c.call(ctx, http.MethodGet, path, nil, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// Download fetches a resource and writes it to dest.
func (c *Client) Download(ctx context.Context, resource, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ResolveURL(resource), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	return file.Close()
}
