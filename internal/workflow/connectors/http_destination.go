package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shashank-sharma/workflow-engine/internal/logger"
	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

// HTTPDestinationConnector posts records to an HTTP endpoint in batches,
// retrying transient failures per batch.
type HTTPDestinationConnector struct {
	types.BaseConnector
	client *http.Client
}

func NewHTTPDestinationConnector() types.Connector {
	configSchema := map[string]interface{}{
		"url": map[string]interface{}{
			"type":        "string",
			"title":       "URL",
			"description": "Target URL to send data to",
			"required":    true,
		},
		"method": map[string]interface{}{
			"type":        "string",
			"title":       "HTTP Method",
			"enum":        []string{"POST", "PUT", "PATCH"},
			"default":     "POST",
			"required":    false,
		},
		"headers": map[string]interface{}{
			"type":        "object",
			"title":       "Headers",
			"required":    false,
		},
		"batch_size": map[string]interface{}{
			"type":        "number",
			"title":       "Batch Size",
			"description": "Records per request (0 = one request for all)",
			"default":     float64(100),
			"minimum":     0,
			"maximum":     1000,
		},
		"timeout_seconds": map[string]interface{}{
			"type":        "number",
			"title":       "Timeout",
			"default":     float64(30),
			"minimum":     1,
			"maximum":     300,
		},
		"retry_attempts": map[string]interface{}{
			"type":        "number",
			"title":       "Retry Attempts",
			"default":     float64(3),
			"minimum":     0,
			"maximum":     10,
		},
		"retry_delay_ms": map[string]interface{}{
			"type":        "number",
			"title":       "Retry Delay",
			"default":     float64(1000),
			"minimum":     100,
			"maximum":     10000,
		},
		"format": map[string]interface{}{
			"type":        "string",
			"title":       "Payload Format",
			"enum":        []string{"json_array", "json_object", "ndjson"},
			"default":     "json_array",
			"required":    false,
		},
	}

	return &HTTPDestinationConnector{
		BaseConnector: types.BaseConnector{
			ConnID:       "http_destination",
			ConnName:     "HTTP Destination",
			ConnType:     types.DestinationConnector,
			ConfigSchema: configSchema,
			Config:       make(map[string]interface{}),
		},
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPDestinationConnector) Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	url, ok := c.Config["url"].(string)
	if !ok || url == "" {
		return nil, fmt.Errorf("url is required")
	}

	method := "POST"
	if m, ok := c.Config["method"].(string); ok && m != "" {
		method = m
	}
	c.client.Timeout = boundedTimeout(c.Config["timeout_seconds"])

	retryAttempts := 3
	if r, ok := c.Config["retry_attempts"].(float64); ok {
		retryAttempts = int(r)
	}
	retryDelayMs := 1000
	if d, ok := c.Config["retry_delay_ms"].(float64); ok {
		retryDelayMs = int(d)
	}
	batchSize := 100
	if bs, ok := c.Config["batch_size"].(float64); ok {
		batchSize = int(bs)
	}
	format := "json_array"
	if f, ok := c.Config["format"].(string); ok && f != "" {
		format = f
	}

	envelope := types.FromMap(input)
	inputData := envelope.Data
	nodeID := c.ID()

	if len(inputData) == 0 {
		logger.Info.Printf("no data to send to %s", url)
		return c.emptyResult(nodeID, envelope).ToMap(), nil
	}

	headers := make(map[string]string)
	if h, ok := c.Config["headers"].(map[string]interface{}); ok {
		for k, v := range h {
			if strVal, ok := v.(string); ok {
				headers[k] = strVal
			}
		}
	}
	switch format {
	case "ndjson":
		headers["Content-Type"] = "application/x-ndjson"
	default:
		headers["Content-Type"] = "application/json"
	}

	totalSent := 0
	totalErrors := 0
	errorSamples := make([]string, 0, 10)

	effectiveBatchSize := batchSize
	if effectiveBatchSize <= 0 {
		effectiveBatchSize = len(inputData)
	}

	for i := 0; i < len(inputData); i += effectiveBatchSize {
		end := i + effectiveBatchSize
		if end > len(inputData) {
			end = len(inputData)
		}
		batch := inputData[i:end]

		if err := c.sendBatch(ctx, url, method, headers, batch, format, retryAttempts, retryDelayMs); err != nil {
			totalErrors++
			if len(errorSamples) < 10 {
				errorSamples = append(errorSamples, err.Error())
			}
			continue
		}
		totalSent += len(batch)
	}

	if totalSent == 0 {
		return nil, fmt.Errorf("all batches failed sending to %s: %v", url, errorSamples)
	}

	resultEnvelope := &types.DataEnvelope{
		Data: make([]map[string]interface{}, 0),
		Metadata: types.Metadata{
			NodeID:      nodeID,
			NodeType:    c.ConnID,
			RecordCount: 0,
			Schema:      envelope.Metadata.Schema,
			Sources:     envelope.Metadata.Sources,
			Custom: map[string]interface{}{
				"url":           url,
				"method":        method,
				"records_sent":  totalSent,
				"errors":        totalErrors,
				"error_samples": errorSamples,
			},
		},
	}
	return resultEnvelope.ToMap(), nil
}

func (c *HTTPDestinationConnector) sendBatch(
	ctx context.Context,
	url, method string,
	headers map[string]string,
	data []map[string]interface{},
	format string,
	retryAttempts, retryDelayMs int,
) error {
	var body []byte
	var err error

	switch format {
	case "json_array":
		body, err = json.Marshal(data)
	case "json_object":
		body, err = json.Marshal(map[string]interface{}{"data": data})
	case "ndjson":
		var buf bytes.Buffer
		for _, record := range data {
			line, jsonErr := json.Marshal(record)
			if jsonErr != nil {
				return fmt.Errorf("failed to marshal record: %w", jsonErr)
			}
			buf.Write(line)
			buf.WriteByte('\n')
		}
		body = buf.Bytes()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= retryAttempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(retryDelayMs) * time.Millisecond
			logger.Info.Printf("retrying %s (attempt %d/%d) after %v", url, attempt, retryAttempts, delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			lastErr = fmt.Errorf("failed to build request: %w", err)
			continue
		}
		for key, value := range headers {
			req.Header.Set(key, value)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			resp.Body.Close()
			return nil
		}

		responseBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("http %d: %s", resp.StatusCode, string(responseBody))

		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != 429 {
			return lastErr
		}
	}
	return lastErr
}

func (c *HTTPDestinationConnector) emptyResult(nodeID string, envelope *types.DataEnvelope) *types.DataEnvelope {
	return &types.DataEnvelope{
		Data: make([]map[string]interface{}, 0),
		Metadata: types.Metadata{
			NodeID:      nodeID,
			NodeType:    c.ConnID,
			RecordCount: 0,
			Schema:      envelope.Metadata.Schema,
			Sources:     envelope.Metadata.Sources,
			Custom:      map[string]interface{}{"records_sent": 0, "errors": 0},
		},
	}
}

func (c *HTTPDestinationConnector) GetOutputSchema(inputSchema *types.DataSchema) (*types.DataSchema, error) {
	if inputSchema != nil {
		return inputSchema, nil
	}
	schema := types.EmptySchema()
	return &schema, nil
}

func (c *HTTPDestinationConnector) ValidateInputSchema(schema *types.DataSchema) error {
	if schema == nil || len(schema.Fields) == 0 {
		return fmt.Errorf("destination connector requires a non-empty input schema")
	}
	return nil
}
