package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

// HTTPConnector fetches records from an HTTP endpoint.
type HTTPConnector struct {
	types.BaseConnector
	client *http.Client
}

func NewHTTPSourceConnector() types.Connector {
	configSchema := map[string]interface{}{
		"url": map[string]interface{}{
			"type":        "string",
			"title":       "URL",
			"description": "HTTP endpoint URL to fetch data from",
			"required":    true,
		},
		"method": map[string]interface{}{
			"type":        "string",
			"title":       "HTTP Method",
			"description": "HTTP method",
			"default":     "GET",
			"enum":        []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		},
		"headers": map[string]interface{}{
			"type":        "object",
			"title":       "Headers",
			"description": "HTTP headers as key-value pairs",
			"required":    false,
		},
		"body": map[string]interface{}{
			"type":        "string",
			"title":       "Request Body",
			"description": "Request body (for POST/PUT requests)",
			"required":    false,
		},
		"timeout": map[string]interface{}{
			"type":        "number",
			"title":       "Timeout (seconds)",
			"description": "Request timeout in seconds",
			"default":     float64(30),
			"minimum":     1,
			"maximum":     300,
		},
	}

	return &HTTPConnector{
		BaseConnector: types.BaseConnector{
			ConnID:       "http_source",
			ConnName:     "HTTP Source",
			ConnType:     types.SourceConnector,
			ConfigSchema: configSchema,
			Config:       make(map[string]interface{}),
		},
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPConnector) Configure(config map[string]interface{}) error {
	if err := c.BaseConnector.Configure(config); err != nil {
		return err
	}
	c.client.Timeout = boundedTimeout(c.Config["timeout"])
	return nil
}

func (c *HTTPConnector) Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	url, ok := c.Config["url"].(string)
	if !ok || url == "" {
		return nil, fmt.Errorf("url is required")
	}

	method := "GET"
	if m, ok := c.Config["method"].(string); ok && m != "" {
		method = m
	}

	var reqCtx context.Context = ctx
	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		reqCtx, cancel = context.WithTimeout(ctx, c.client.Timeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if body, ok := c.Config["body"].(string); ok && body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if headers, ok := c.Config["headers"].(map[string]interface{}); ok {
		for key, value := range headers {
			if strValue, ok := value.(string); ok {
				req.Header.Set(key, strValue)
			}
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	records := decodeResponse(bodyBytes)

	nodeID := c.ID()
	schema := types.InferSchema(records, nodeID)

	envelope := &types.DataEnvelope{
		Data: records,
		Metadata: types.Metadata{
			NodeID:      nodeID,
			NodeType:    c.ConnID,
			RecordCount: len(records),
			Schema:      schema,
			Sources:     []string{nodeID},
			Custom: map[string]interface{}{
				"url":         url,
				"method":      method,
				"status_code": resp.StatusCode,
			},
		},
	}
	return envelope.ToMap(), nil
}

// decodeResponse applies the decoding order from the external-interfaces
// contract: a top-level array is used as-is; a top-level object with a
// "data" or "items" array uses that; any other object is wrapped as a
// one-element sequence. Non-JSON bodies surface as a single record with
// a "body" field holding the raw text.
func decodeResponse(bodyBytes []byte) []map[string]interface{} {
	var parsed interface{}
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return []map[string]interface{}{{"body": string(bodyBytes)}}
	}

	records := make([]map[string]interface{}, 0)
	switch v := parsed.(type) {
	case []interface{}:
		for _, item := range v {
			if itemMap, ok := item.(map[string]interface{}); ok {
				records = append(records, itemMap)
			}
		}
	case map[string]interface{}:
		if items, ok := v["data"].([]interface{}); ok {
			for _, item := range items {
				if itemMap, ok := item.(map[string]interface{}); ok {
					records = append(records, itemMap)
				}
			}
		} else if items, ok := v["items"].([]interface{}); ok {
			for _, item := range items {
				if itemMap, ok := item.(map[string]interface{}); ok {
					records = append(records, itemMap)
				}
			}
		} else {
			records = append(records, v)
		}
	default:
		records = append(records, map[string]interface{}{"body": string(bodyBytes)})
	}
	return records
}

func (c *HTTPConnector) GetOutputSchema(inputSchema *types.DataSchema) (*types.DataSchema, error) {
	if inputSchema != nil {
		return nil, fmt.Errorf("source connector does not accept input schema")
	}
	schema := types.EmptySchema()
	return &schema, nil
}

func (c *HTTPConnector) ValidateInputSchema(schema *types.DataSchema) error {
	if schema != nil {
		return fmt.Errorf("source connector does not accept input schema")
	}
	return nil
}

// boundedTimeout clamps a config "timeout"/"timeout_seconds" value into
// the 1..300 second range the external-interfaces contract declares,
// defaulting to 30 when absent or not numeric.
func boundedTimeout(raw interface{}) time.Duration {
	seconds := 30.0
	if t, ok := raw.(float64); ok {
		seconds = t
	}
	if seconds < 1 {
		seconds = 1
	}
	if seconds > 300 {
		seconds = 300
	}
	return time.Duration(seconds) * time.Second
}
