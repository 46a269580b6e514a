package workflow

import "fmt"

// ErrorCode is a stable, comparable tag for a WorkflowError's kind, used
// by metrics counters and by callers that want to switch on failure
// category without string-matching Error().
type ErrorCode string

const (
	CodeConfig      ErrorCode = "CONFIG_ERROR"
	CodeSchema      ErrorCode = "SCHEMA_ERROR"
	CodeInvalidGraph ErrorCode = "INVALID_GRAPH"
	CodeCyclicGraph ErrorCode = "CYCLIC_GRAPH"
	CodeUnknownConnector ErrorCode = "UNKNOWN_CONNECTOR"
	CodeSourceIO    ErrorCode = "SOURCE_IO_ERROR"
	CodeDestinationIO ErrorCode = "DESTINATION_IO_ERROR"
	CodeTransport   ErrorCode = "TRANSPORT_ERROR"
	CodeDecode      ErrorCode = "DECODE_ERROR"
	CodeType        ErrorCode = "TYPE_ERROR"
	CodeScript      ErrorCode = "SCRIPT_ERROR"
	CodeAuth        ErrorCode = "AUTH_ERROR"
	CodeNodeFailure ErrorCode = "NODE_FAILURE"
	CodeCancelled   ErrorCode = "CANCELLED"
	CodeValidation  ErrorCode = "VALIDATION_ERROR"
	CodeExecution   ErrorCode = "EXECUTION_ERROR"
	CodeTimeout     ErrorCode = "TIMEOUT_ERROR"
)

// WorkflowError is the base of every error kind this package returns.
// Embedding it gives every derived error kind Error()/Unwrap() for free
// and a stable Code for metrics and errors.Is-style comparisons.
type WorkflowError struct {
	Message string
	Code    ErrorCode
	Err     error
}

func (e *WorkflowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// ErrorCode reports the error's stable code. Every derived error kind
// gets this for free by embedding WorkflowError.
func (e *WorkflowError) ErrorCode() ErrorCode {
	return e.Code
}

// ConfigError reports a connector configuration missing a required
// field or violating its declared schema.
type ConfigError struct {
	WorkflowError
	ConnectorID string
}

func NewConfigError(message, connectorID string, err error) *ConfigError {
	return &ConfigError{
		WorkflowError: WorkflowError{Message: message, Code: CodeConfig, Err: err},
		ConnectorID:   connectorID,
	}
}

// SchemaError reports a schema validation failure: a source given
// input, a destination given empty input, or an irreconcilable merge
// conflict.
type SchemaError struct {
	WorkflowError
	NodeID string
}

func NewSchemaError(message, nodeID string) *SchemaError {
	return &SchemaError{
		WorkflowError: WorkflowError{Message: message, Code: CodeSchema},
		NodeID:        nodeID,
	}
}

// InvalidGraphError reports a structurally broken graph: a dangling
// edge endpoint, a source with predecessors, or a destination with
// successors.
type InvalidGraphError struct {
	WorkflowError
}

func NewInvalidGraphError(message string) *InvalidGraphError {
	return &InvalidGraphError{WorkflowError{Message: message, Code: CodeInvalidGraph}}
}

// CyclicGraphError reports a cycle detected by the pre-execution Kahn's
// algorithm pass.
type CyclicGraphError struct {
	WorkflowError
	RemainingNodes []string
}

func NewCyclicGraphError(remaining []string) *CyclicGraphError {
	return &CyclicGraphError{
		WorkflowError:  WorkflowError{Message: "workflow graph contains a cycle", Code: CodeCyclicGraph},
		RemainingNodes: remaining,
	}
}

// UnknownConnectorError reports a node whose connector_type_id has no
// registered factory.
type UnknownConnectorError struct {
	WorkflowError
	ConnectorTypeID string
}

func NewUnknownConnectorError(connectorTypeID string) *UnknownConnectorError {
	return &UnknownConnectorError{
		WorkflowError:   WorkflowError{Message: fmt.Sprintf("no connector registered for type %q", connectorTypeID), Code: CodeUnknownConnector},
		ConnectorTypeID: connectorTypeID,
	}
}

// SourceIOError / DestinationIOError report I/O problems at the
// connector boundary (file, network, record store).
type SourceIOError struct {
	WorkflowError
}

func NewSourceIOError(message string, err error) *SourceIOError {
	return &SourceIOError{WorkflowError{Message: message, Code: CodeSourceIO, Err: err}}
}

type DestinationIOError struct {
	WorkflowError
}

func NewDestinationIOError(message string, err error) *DestinationIOError {
	return &DestinationIOError{WorkflowError{Message: message, Code: CodeDestinationIO, Err: err}}
}

// TransportError reports a connect/timeout/DNS failure making an
// outbound request.
type TransportError struct {
	WorkflowError
}

func NewTransportError(message string, err error) *TransportError {
	return &TransportError{WorkflowError{Message: message, Code: CodeTransport, Err: err}}
}

// DecodeError reports malformed delimited or structured content.
type DecodeError struct {
	WorkflowError
}

func NewDecodeError(message string, err error) *DecodeError {
	return &DecodeError{WorkflowError{Message: message, Code: CodeDecode, Err: err}}
}

// TypeError reports a value that cannot be converted to the requested
// type, or a script return value that is not a record.
type TypeError struct {
	WorkflowError
}

func NewTypeError(message string) *TypeError {
	return &TypeError{WorkflowError{Message: message, Code: CodeType}}
}

// ScriptError reports a parse or runtime failure inside the embedded
// script sandbox.
type ScriptError struct {
	WorkflowError
}

func NewScriptError(message string, err error) *ScriptError {
	return &ScriptError{WorkflowError{Message: message, Code: CodeScript, Err: err}}
}

// AuthError reports a missing authenticated identity required by a
// connector (e.g. the record-store connectors' user scoping).
type AuthError struct {
	WorkflowError
}

func NewAuthError(message string) *AuthError {
	return &AuthError{WorkflowError{Message: message, Code: CodeAuth}}
}

// NodeFailure wraps any other error kind, tagging it with the node that
// failed. This is what the engine surfaces as a run's cause.
type NodeFailure struct {
	WorkflowError
	NodeID      string
	ConnectorID string
}

func NewNodeFailure(nodeID, connectorID string, cause error) *NodeFailure {
	return &NodeFailure{
		WorkflowError: WorkflowError{
			Message: fmt.Sprintf("node %q (%s) failed", nodeID, connectorID),
			Code:    CodeNodeFailure,
			Err:     cause,
		},
		NodeID:      nodeID,
		ConnectorID: connectorID,
	}
}

// CancellationError reports a run aborted via its cancellation signal.
type CancellationError struct {
	WorkflowError
}

func NewCancellationError() *CancellationError {
	return &CancellationError{WorkflowError{Message: "workflow execution was cancelled", Code: CodeCancelled}}
}

// ValidationError reports a pre-execution validation failure not
// covered by the more specific graph-level errors above.
type ValidationError struct {
	WorkflowError
	NodeID string
}

func NewValidationError(message, nodeID string) *ValidationError {
	return &ValidationError{
		WorkflowError: WorkflowError{Message: message, Code: CodeValidation},
		NodeID:        nodeID,
	}
}

// ExecutionError reports a generic node execution failure not otherwise
// classified.
type ExecutionError struct {
	WorkflowError
	NodeID string
}

func NewExecutionError(message, nodeID string, err error) *ExecutionError {
	return &ExecutionError{
		WorkflowError: WorkflowError{Message: message, Code: CodeExecution, Err: err},
		NodeID:        nodeID,
	}
}

// TimeoutError reports a run that exceeded its deadline.
type TimeoutError struct {
	WorkflowError
	TimeoutSeconds int
}

func NewTimeoutError(timeoutSeconds int) *TimeoutError {
	return &TimeoutError{
		WorkflowError:  WorkflowError{Message: fmt.Sprintf("workflow execution timed out after %d seconds", timeoutSeconds), Code: CodeTimeout},
		TimeoutSeconds: timeoutSeconds,
	}
}

// NewConfigurationError builds a ConfigError, using typeID as the
// connector id when connectorID is empty.
func NewConfigurationError(message, connectorID, typeID string) *ConfigError {
	if connectorID == "" {
		connectorID = typeID
	}
	return NewConfigError(message, connectorID, nil)
}
