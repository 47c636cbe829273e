package strategy

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/agentchaos/chaosproxy/internal/flowmodel"
	"github.com/mark3labs/mcp-go/mcp"
)

func init() {
	Register("mcp_fuzz", func() Strategy { return &MCPFuzzingStrategy{} })
}

// MCPFuzzingStrategy mutates a tool call's JSON argument body before it
// reaches the upstream MCP server. Target fields are chosen either from
// params.schema (an inline mcp.ToolInputSchema, honoring `required` first)
// or, absent a schema, from a name-pattern heuristic over whatever fields
// the body already has. params:
//
//	fuzz_type  string, default "null_injection" — one of schema_violation,
//	           null_injection, boundary, sql_injection, xss
//	schema     map, optional — JSON-decodable into mcp.ToolInputSchema
type MCPFuzzingStrategy struct {
	noOpResponse
}

func (s *MCPFuzzingStrategy) Tag() string { return "mcp_fuzz" }

func (s *MCPFuzzingStrategy) InterceptRequest(_ context.Context, f *flowmodel.Flow, params map[string]interface{}) error {
	if f.Request == nil || len(f.Request.BodyBytes) == 0 {
		return nil
	}

	var body map[string]interface{}
	if err := json.Unmarshal(f.Request.BodyBytes, &body); err != nil {
		return recordErrorCode(f, "MCP_FUZZ_DECODE_FAILED", err)
	}

	targets := fuzzTargets(body, params)
	if len(targets) == 0 {
		return nil
	}

	fuzzType := paramString(params, "fuzz_type", "null_injection")
	for _, name := range targets {
		kind := fieldKind(name)
		body[name] = fuzzedValue(fuzzType, kind, body[name])
	}

	out, err := json.Marshal(body)
	if err != nil {
		return recordErrorCode(f, "MCP_FUZZ_ENCODE_FAILED", err)
	}
	f.Request.BodyBytes = out
	f.Metadata.AddStrategy(s.Tag())
	return nil
}

// fuzzTargets resolves which fields of body to mutate: schema.Required
// first when a schema is supplied, falling back to all of the schema's
// declared properties, and falling back again to every field already
// present in body when no schema is given at all.
func fuzzTargets(body map[string]interface{}, params map[string]interface{}) []string {
	schemaRaw := paramMap(params, "schema")
	if schemaRaw == nil {
		names := make([]string, 0, len(body))
		for k := range body {
			names = append(names, k)
		}
		return names
	}

	encoded, err := json.Marshal(schemaRaw)
	if err != nil {
		return nil
	}
	var schema mcp.ToolInputSchema
	if err := json.Unmarshal(encoded, &schema); err != nil {
		return nil
	}

	if len(schema.Required) > 0 {
		return schema.Required
	}
	names := make([]string, 0, len(schema.Properties))
	for k := range schema.Properties {
		names = append(names, k)
	}
	return names
}

// fieldKind classifies a field name into a coarse value kind, per the
// date/*_at, count/*_id/quantity/price, query/text/*_name naming
// conventions MCP tool schemas commonly use.
func fieldKind(name string) string {
	lower := strings.ToLower(name)
	switch {
	case lower == "date" || strings.HasSuffix(lower, "_date") || strings.HasSuffix(lower, "_at"):
		return "date"
	case lower == "count" || strings.HasSuffix(lower, "_id") || lower == "quantity" || lower == "price":
		return "numeric"
	case lower == "query" || lower == "text" || strings.HasSuffix(lower, "_name"):
		return "string"
	default:
		return "unknown"
	}
}

func fuzzedValue(fuzzType, kind string, original interface{}) interface{} {
	switch fuzzType {
	case "null_injection":
		return nil
	case "boundary":
		switch kind {
		case "numeric":
			return float64(math.MaxInt32)
		case "date":
			return "9999-12-31T23:59:59Z"
		default:
			return strings.Repeat("A", 65536)
		}
	case "sql_injection":
		return "' OR '1'='1"
	case "xss":
		return "<script>alert(1)</script>"
	case "schema_violation":
		fallthrough
	default:
		switch kind {
		case "numeric":
			return "not-a-number"
		case "date":
			return 12345
		case "string":
			return []interface{}{"wrong", "type"}
		default:
			return map[string]interface{}{"unexpected": true}
		}
	}
}
