package aggregation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/earlyguard/platform/pkg/assessment"
	"github.com/earlyguard/platform/pkg/common/models"
)

// Client issues one prediction request to a single domain's service. The
// engine never retries through it: at most one call per domain per
// aggregation run.
type Client interface {
	Predict(ctx context.Context, payload map[string]interface{}) (*models.PredictionResponse, error)
}

// HTTPClient is the production client for one domain service endpoint.
type HTTPClient struct {
	url    string
	client *http.Client
}

func NewHTTPClient(url string, client *http.Client) *HTTPClient {
	return &HTTPClient{url: url, client: client}
}

func (c *HTTPClient) Predict(ctx context.Context, payload map[string]interface{}) (*models.PredictionResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("prediction service returned status %d: %s", resp.StatusCode, snippet)
	}

	var prediction models.PredictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, fmt.Errorf("decode prediction: %w", err)
	}

	// The contract bounds risk_score to [0,100]; clamp rather than trust.
	if prediction.RiskScore < 0 {
		prediction.RiskScore = 0
	}
	if prediction.RiskScore > 100 {
		prediction.RiskScore = 100
	}

	return &prediction, nil
}

// NewDomainClients builds one HTTP client per domain from the configured
// endpoint map.
func NewDomainClients(urls map[string]string, httpClient *http.Client) map[assessment.Domain]Client {
	clients := make(map[assessment.Domain]Client, len(urls))
	for _, d := range assessment.AllDomains() {
		if url, ok := urls[string(d)]; ok && url != "" {
			clients[d] = NewHTTPClient(url, httpClient)
		}
	}
	return clients
}
