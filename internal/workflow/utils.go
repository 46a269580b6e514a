package workflow

import (
	"strings"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

// NodeLabel returns the human label used to disambiguate a node's
// fields on a merge collision: the node's own label, verbatim, or its
// full id if the label is blank.
func NodeLabel(nodeID, label string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed != "" {
		return trimmed
	}
	return nodeID
}

// MergeSchemas combines N schemas into one, renaming every occurrence of
// a name that appears under more than one distinct source node to
// "{label}_{name}", and leaving non-conflicting names untouched.
func MergeSchemas(schemas []types.DataSchema, nodeLabels map[string]string) types.DataSchema {
	sourceNodesByName := make(map[string]map[string]bool) // name -> set of source nodes
	for _, schema := range schemas {
		for _, f := range schema.Fields {
			if sourceNodesByName[f.Name] == nil {
				sourceNodesByName[f.Name] = make(map[string]bool)
			}
			sourceNodesByName[f.Name][f.SourceNode] = true
		}
	}

	conflicting := make(map[string]bool)
	for name, nodes := range sourceNodesByName {
		if len(nodes) > 1 {
			conflicting[name] = true
		}
	}

	out := types.EmptySchema()
	seenOutputNames := make(map[string]bool)
	sourceNodeSet := make(map[string]bool)

	for _, schema := range schemas {
		for _, node := range schema.SourceNodes {
			sourceNodeSet[node] = true
		}
		for _, f := range schema.Fields {
			outField := f
			if conflicting[f.Name] {
				label := nodeLabels[f.SourceNode]
				prefix := NodeLabel(f.SourceNode, label)
				outField.Name = prefix + "_" + f.Name
			}
			if seenOutputNames[outField.Name] {
				continue
			}
			seenOutputNames[outField.Name] = true
			out.Fields = append(out.Fields, outField)
		}
	}

	for node := range sourceNodeSet {
		out.SourceNodes = append(out.SourceNodes, node)
	}

	return out
}

// renameConflicting applies the same collision policy as MergeSchemas to
// a single record's keys, given the set of names known to conflict and
// the source node that produced this record.
func renameConflicting(record map[string]interface{}, conflicting map[string]bool, sourceNode string, nodeLabels map[string]string) map[string]interface{} {
	if len(conflicting) == 0 {
		return record
	}
	out := make(map[string]interface{}, len(record))
	for k, v := range record {
		if conflicting[k] {
			label := nodeLabels[sourceNode]
			prefix := NodeLabel(sourceNode, label)
			out[prefix+"_"+k] = v
		} else {
			out[k] = v
		}
	}
	return out
}

// MergeEnvelopes combines predecessor envelopes into a single input
// envelope for a node with two or more inbound edges: data is
// concatenated in input order (with conflicting field names renamed),
// schemas are merged per MergeSchemas, and sources/record_count are
// unioned/summed. A merged envelope has no single producer, so node_id
// and node_type are left empty.
func MergeEnvelopes(envelopes []*types.DataEnvelope, nodeLabels map[string]string) *types.DataEnvelope {
	if len(envelopes) == 0 {
		return types.NewEmptyEnvelope()
	}

	schemas := make([]types.DataSchema, len(envelopes))
	for i, e := range envelopes {
		schemas[i] = e.Metadata.Schema
	}
	mergedSchema := MergeSchemas(schemas, nodeLabels)

	sourceNodesByName := make(map[string]map[string]bool)
	for _, schema := range schemas {
		for _, f := range schema.Fields {
			if sourceNodesByName[f.Name] == nil {
				sourceNodesByName[f.Name] = make(map[string]bool)
			}
			sourceNodesByName[f.Name][f.SourceNode] = true
		}
	}
	conflicting := make(map[string]bool)
	for name, nodes := range sourceNodesByName {
		if len(nodes) > 1 {
			conflicting[name] = true
		}
	}

	data := make([]map[string]interface{}, 0)
	sourcesSet := make(map[string]bool)
	custom := make(map[string]interface{})

	for _, e := range envelopes {
		producer := e.Metadata.NodeID
		for _, rec := range e.Data {
			data = append(data, renameConflicting(rec, conflicting, producer, nodeLabels))
		}
		for _, s := range e.Metadata.Sources {
			sourcesSet[s] = true
		}
		if producer != "" {
			sourcesSet[producer] = true
		}
	}

	sources := make([]string, 0, len(sourcesSet))
	for s := range sourcesSet {
		sources = append(sources, s)
	}

	return &types.DataEnvelope{
		Data: data,
		Metadata: types.Metadata{
			Schema:      mergedSchema,
			RecordCount: len(data),
			Sources:     sources,
			Custom:      custom,
		},
	}
}

// AggregateInputs builds the single input envelope a node's connector
// receives, per §4.5 of the execution rules: zero predecessors yields
// an empty canonical envelope, exactly one predecessor passes its
// envelope through unchanged, two or more are merged.
func AggregateInputs(predecessorEnvelopes []*types.DataEnvelope, nodeLabels map[string]string) *types.DataEnvelope {
	switch len(predecessorEnvelopes) {
	case 0:
		return types.NewEmptyEnvelope()
	case 1:
		return predecessorEnvelopes[0]
	default:
		return MergeEnvelopes(predecessorEnvelopes, nodeLabels)
	}
}
