// Package steam is a thin client for the two public Steam endpoints the
// platform consumes: live player counts and store metadata.
package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const (
	playerCountURL = "https://api.steampowered.com/ISteamUserStats/GetNumberOfCurrentPlayers/v1/"
	storeDetailURL = "https://store.steampowered.com/api/appdetails"
)

type Client struct {
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetCurrentPlayers returns the live player count for a Steam app.
func (c *Client) GetCurrentPlayers(ctx context.Context, appID int64) (int, error) {
	endpoint := fmt.Sprintf("%s?appid=%d", playerCountURL, appID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("steam player count request failed: %s", resp.Status)
	}

	var payload struct {
		Response struct {
			PlayerCount int `json:"player_count"`
			Result      int `json:"result"`
		} `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, err
	}
	if payload.Response.Result != 1 {
		return 0, fmt.Errorf("steam reported no data for appid %d", appID)
	}

	return payload.Response.PlayerCount, nil
}

// AppDetails is the subset of the store listing the catalog sync uses.
type AppDetails struct {
	Name             string   `json:"name"`
	ShortDescription string   `json:"short_description"`
	HeaderImage      string   `json:"header_image"`
	BackgroundImage  string   `json:"background_raw"`
	Developers       []string `json:"developers"`
	Publishers       []string `json:"publishers"`
	Genres           []struct {
		Description string `json:"description"`
	} `json:"genres"`
	ReleaseDate struct {
		Date string `json:"date"`
	} `json:"release_date"`
	Metacritic *struct {
		Score int `json:"score"`
	} `json:"metacritic"`
}

// GetAppDetails fetches store metadata for a Steam app.
func (c *Client) GetAppDetails(ctx context.Context, appID int64) (*AppDetails, error) {
	endpoint := fmt.Sprintf("%s?appids=%d&l=en", storeDetailURL, appID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("steam store request failed: %s", resp.Status)
	}

	var payload map[string]struct {
		Success bool       `json:"success"`
		Data    AppDetails `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	entry, ok := payload[strconv.FormatInt(appID, 10)]
	if !ok || !entry.Success {
		return nil, fmt.Errorf("steam has no listing for appid %d", appID)
	}

	return &entry.Data, nil
}
