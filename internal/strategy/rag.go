package strategy

import (
	"context"
	"os"

	"github.com/agentchaos/chaosproxy/internal/flowmodel"
	"github.com/agentchaos/chaosproxy/internal/jsonpath"
	"github.com/tidwall/gjson"
)

func init() {
	Register("rag_phantom_document", func() Strategy { return &RAGPhantomDocumentStrategy{} })
}

// RAGPhantomDocumentStrategy rewrites response leaves matched by a
// JSONPath-subset expression with strings drawn from a misinformation
// source, simulating a retrieval pipeline that surfaced a poisoned or
// fabricated document. params:
//
//	target_json_path         string, required — e.g. "$.documents[*].content"
//	misinformation_source    []string, required — round-robin replacement pool
//	mode                     string, default "overwrite" — overwrite | injection | suffix
//
// In strict replay mode (CHAOS_REPLAY_STRICT set), a target_json_path
// outside the supported subset is a fatal error rather than a silent
// no-op.
type RAGPhantomDocumentStrategy struct {
	noOpRequest
}

func (s *RAGPhantomDocumentStrategy) Tag() string { return "rag_phantom_document" }

func (s *RAGPhantomDocumentStrategy) InterceptResponse(_ context.Context, f *flowmodel.Flow, params map[string]interface{}) error {
	resp := f.Response
	if resp == nil || len(resp.BodyBytes) == 0 {
		return nil
	}

	path := paramString(params, "target_json_path", "")
	source := paramStringSlice(params, "misinformation_source")
	if path == "" || len(source) == 0 {
		return nil
	}
	mode := paramString(params, "mode", "overwrite")

	body := string(resp.BodyBytes)

	var (
		out string
		err error
	)
	switch mode {
	case "overwrite":
		out, err = jsonpath.SetAll(body, path, source)
	case "suffix":
		out, err = ragConcat(body, path, source, " ")
	case "injection":
		out, err = ragConcat(body, path, source, "\n\n[INJECTED]: ")
	default:
		out, err = jsonpath.SetAll(body, path, source)
	}

	if err != nil {
		if os.Getenv("CHAOS_REPLAY_STRICT") != "" {
			return recordErrorCode(f, "RAG_JSONPATH_UNSUPPORTED", err)
		}
		return nil
	}

	resp.BodyBytes = []byte(out)
	f.Metadata.AddStrategy(s.Tag())
	return nil
}

// ragConcat round-robins source strings onto every matched leaf's current
// value, joined by sep, for the suffix and injection modes.
func ragConcat(body, path string, source []string, sep string) (string, error) {
	i := 0
	return jsonpath.Transform(body, path, func(leaf gjson.Result) (interface{}, bool) {
		replacement := source[i%len(source)]
		i++
		return leaf.String() + sep + replacement, true
	})
}
