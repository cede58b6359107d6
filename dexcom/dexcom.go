// Package dexcom is a client for the Dexcom Share API, the acquisition
// collaborator for the analytics engine.
package dexcom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"glyco/defs"
)

const (
	appID            = "d89443d2-327c-4a6f-89e5-496bbb0317db"
	loginEndpoint    = "General/LoginPublisherAccountByName"
	readingsEndpoint = "Publisher/ReadPublisherLatestGlucoseValues"
)

// Share hosts by account region.
var regionHosts = map[string]string{
	"us":  "https://share2.dexcom.com/ShareWebServices/Services",
	"ous": "https://shareous1.dexcom.com/ShareWebServices/Services",
	"jp":  "https://share.dexcom.jp/ShareWebServices/Services",
}

// BaseURL resolves a region to its Share services host, defaulting to us.
func BaseURL(region string) string {
	if base, ok := regionHosts[region]; ok {
		return base
	}
	return regionHosts["us"]
}

type Client struct {
	client      *http.Client
	logger      *zap.Logger
	baseURL     string
	accountName string
	password    string
	sessionID   string
}

// Source is the acquisition contract the service layer consumes.
type Source interface {
	Readings(ctx context.Context, minutes, maxCount int) ([]defs.Reading, error)
	CurrentReading(ctx context.Context) (*defs.Reading, error)
}

type LoginRequest struct {
	AccountName   string `json:"accountName"`
	Password      string `json:"password"`
	ApplicationID string `json:"applicationId"`
}

// Reading is the raw Share API record.
type Reading struct {
	WT          string  `json:"WT"` // "Date(<unix ms>)"
	SystemTime  string  `json:"ST"`
	DisplayTime string  `json:"DT"`
	Value       float64 `json:"Value"`
	Trend       string  `json:"Trend"`
}

func New(cfg defs.DexcomConfig, logger *zap.Logger) *Client {
	return &Client{
		client:      &http.Client{},
		logger:      logger,
		baseURL:     BaseURL(cfg.Region),
		accountName: cfg.Account,
		password:    cfg.Password,
	}
}

// Readings fetches readings from the Share API newest first, transforming
// them into canonical readings. Automatically creates a new session when it
// expires.
func (c *Client) Readings(ctx context.Context, minutes, maxCount int) ([]defs.Reading, error) {
	rs, err := c.readings(ctx, minutes, maxCount)
	if err == nil {
		return rs, nil
	}
	_, err = c.CreateSession(ctx)
	if err != nil {
		return nil, err
	}
	return c.readings(ctx, minutes, maxCount)
}

// CurrentReading returns the single most recent reading, or nil when none
// exists within the freshness window.
func (c *Client) CurrentReading(ctx context.Context) (*defs.Reading, error) {
	rs, err := c.Readings(ctx, defs.FreshnessWindowMinutes, 1)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, nil
	}
	return &rs[0], nil
}

func (c *Client) CreateSession(ctx context.Context) (string, error) {
	lreq := &LoginRequest{
		AccountName:   c.accountName,
		Password:      c.password,
		ApplicationID: appID,
	}

	b, err := json.Marshal(lreq)
	if err != nil {
		return "", err
	}

	c.logger.Debug("making login request for sessionID")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+loginEndpoint, bytes.NewBuffer(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	c.sessionID = strings.Trim(string(body), "\"")

	c.logger.Debug("successfully obtained sessionID",
		zap.String("sessionID", c.sessionID),
	)

	return c.sessionID, nil
}

func (c *Client) readings(ctx context.Context, minutes, maxCount int) ([]defs.Reading, error) {
	if minutes > defs.MinuteLimit || maxCount > defs.CountLimit {
		return nil, fmt.Errorf("window too large: minutes %d, maxCount %d", minutes, maxCount)
	}

	params := url.Values{
		"sessionId": {c.sessionID},
		"minutes":   {strconv.Itoa(minutes)},
		"maxCount":  {strconv.Itoa(maxCount)},
	}

	c.logger.Debug("making fetch request",
		zap.Int("minutes", minutes),
		zap.Int("maximum count", maxCount),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+readingsEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var raw []*Reading
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		c.logger.Debug("failed to decode readings response")
		return nil, err
	}

	c.logger.Debug("received readings from share API",
		zap.Int("count", len(raw)),
	)

	rs := make([]defs.Reading, len(raw))
	for i, r := range raw {
		tr, err := transform(r)
		if err != nil {
			return nil, err
		}
		rs[i] = tr
	}

	return rs, nil
}

func transform(r *Reading) (defs.Reading, error) {
	parsedTime := strings.Trim(r.WT[4:], "()")
	unix, err := strconv.Atoi(parsedTime)
	if err != nil {
		return defs.Reading{}, err
	}

	reading := defs.NewReading(time.Unix(int64(unix/1000), 0), int(r.Value))
	reading.Trend = r.Trend
	reading.TrendArrow = TrendArrow(r.Trend)
	return reading, nil
}
