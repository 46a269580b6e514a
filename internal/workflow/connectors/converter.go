package connectors

import (
	"context"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

// PassThroughConverter normalizes legacy envelope shapes (records under
// a "records" key instead of "data") into the canonical envelope,
// otherwise emitting its input unchanged. It infers a schema when the
// input arrived with none, and echoes the input schema otherwise.
type PassThroughConverter struct {
	types.BaseConnector
}

func NewPassThroughConverter() types.Connector {
	return &PassThroughConverter{
		BaseConnector: types.BaseConnector{
			ConnID:       "converter",
			ConnName:     "Pass-through Converter",
			ConnType:     types.ProcessorConnector,
			ConfigSchema: map[string]interface{}{},
			Config:       make(map[string]interface{}),
		},
	}
}

func (c *PassThroughConverter) Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	envelope := types.FromMap(input)

	if len(envelope.Metadata.Schema.Fields) == 0 && len(envelope.Data) > 0 {
		envelope.Metadata.Schema = types.InferSchema(envelope.Data, envelope.Metadata.NodeID)
	}

	return envelope.ToMap(), nil
}

func (c *PassThroughConverter) GetOutputSchema(inputSchema *types.DataSchema) (*types.DataSchema, error) {
	if inputSchema == nil {
		empty := types.EmptySchema()
		return &empty, nil
	}
	return inputSchema, nil
}

func (c *PassThroughConverter) ValidateInputSchema(schema *types.DataSchema) error {
	return nil
}
