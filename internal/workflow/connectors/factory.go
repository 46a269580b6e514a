package connectors

import (
	"github.com/shashank-sharma/workflow-engine/internal/logger"
	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

// RegisterAllConnectors registers every connector this engine ships
// with against the given registry. Called once from the composition
// root before the engine processes any run.
func RegisterAllConnectors(registry types.ConnectorRegistry) {
	// Source connectors
	registry.Register("csv_source", func() types.Connector { return NewCSVSourceConnector() })
	registry.Register("http_source", func() types.Connector { return NewHTTPSourceConnector() })
	registry.Register("pocketbase_source", func() types.Connector { return NewPocketBaseSourceConnector() })

	// Processor connectors
	registry.Register("converter", func() types.Connector { return NewPassThroughConverter() })
	registry.Register("transform_processor", func() types.Connector { return NewTransformConnector() })
	registry.Register("script_processor", func() types.Connector { return NewScriptConnector() })

	// Destination connectors
	registry.Register("csv_destination", func() types.Connector { return NewCSVDestinationConnector() })
	registry.Register("pocketbase_destination", func() types.Connector { return NewPocketBaseDestinationConnector() })
	registry.Register("http_destination", func() types.Connector { return NewHTTPDestinationConnector() })

	logger.LogInfo("all connectors registered")
}
