package fingerprint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lanscope/lanscope/pkg/models"
)

// FingerbankClient implements RemoteClient against the Fingerbank combinations
// API (§4.14's "remote API" tier).
type FingerbankClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewFingerbankClient builds a FingerbankClient. apiKey is sent as a query
// parameter on every request, matching Fingerbank's own auth scheme.
func NewFingerbankClient(apiKey string) *FingerbankClient {
	return &FingerbankClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://api.fingerbank.org/api/v2",
		apiKey:     apiKey,
	}
}

type fingerbankCombinationRequest struct {
	DHCPFingerprint string `json:"dhcp_fingerprint,omitempty"`
	UserAgents      string `json:"user_agents,omitempty"`
}

type fingerbankDevice struct {
	Name string `json:"name"`
}

type fingerbankCombinationResponse struct {
	Device          fingerbankDevice   `json:"device"`
	DeviceName      string             `json:"device_name"`
	Score           int                `json:"score"`
	OperatingSystem struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"operating_system"`
	MobileDevice bool     `json:"mobile_device"`
	TabletDevice bool     `json:"tablet_device"`
	ParentDevices []struct {
		Name string `json:"name"`
	} `json:"parent_devices"`
}

// Fetch queries the Fingerbank combinations endpoint for the given DHCP
// fingerprint / user-agent strings. A non-2xx response (including 429, rate
// limited) is returned as an error so the circuit breaker records a failure.
func (c *FingerbankClient) Fetch(ctx context.Context, _ string, dhcpFingerprint string, userAgents []string) (models.DeviceFingerprint, error) {
	reqBody := fingerbankCombinationRequest{
		DHCPFingerprint: dhcpFingerprint,
		UserAgents:      strings.Join(userAgents, "|"),
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return models.DeviceFingerprint{}, fmt.Errorf("marshal fingerbank request: %w", err)
	}

	url := fmt.Sprintf("%s/combinations/interrogate?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(data)))
	if err != nil {
		return models.DeviceFingerprint{}, fmt.Errorf("create fingerbank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.DeviceFingerprint{}, fmt.Errorf("fingerbank request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.DeviceFingerprint{}, fmt.Errorf("read fingerbank response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return models.DeviceFingerprint{}, fmt.Errorf("fingerbank API returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed fingerbankCombinationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.DeviceFingerprint{}, fmt.Errorf("unmarshal fingerbank response: %w", err)
	}

	deviceName := parsed.DeviceName
	if deviceName == "" {
		deviceName = parsed.Device.Name
	}
	var parents []string
	for _, p := range parsed.ParentDevices {
		if p.Name != "" {
			parents = append(parents, p.Name)
		}
	}

	return models.DeviceFingerprint{
		DeviceName: deviceName,
		Parents:    parents,
		Score:      parsed.Score,
		OS:         parsed.OperatingSystem.Name,
		OSVersion:  parsed.OperatingSystem.Version,
		IsMobile:   parsed.MobileDevice,
		IsTablet:   parsed.TabletDevice,
		Source:     models.FingerprintSourceRemote,
		Timestamp:  time.Now(),
	}, nil
}
