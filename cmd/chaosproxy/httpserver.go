package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/agentchaos/chaosproxy/internal/core"
	"github.com/agentchaos/chaosproxy/internal/flowmodel"
)

// httpUpstream implements core.Upstream over a real net/http.Client. It is
// the minimal glue the reference executable needs to actually forward
// traffic; the interception framework's own connection pooling, TLS
// termination, and protocol upgrade handling are outside this project.
type httpUpstream struct {
	client *http.Client
}

func newHTTPUpstream() *httpUpstream {
	return &httpUpstream{client: &http.Client{Timeout: 60 * time.Second}}
}

func (u *httpUpstream) RoundTrip(ctx context.Context, req *flowmodel.Request) (*flowmodel.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.BodyBytes))
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := u.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &flowmodel.Response{
		Status:    resp.StatusCode,
		Reason:    resp.Status,
		Headers:   map[string][]string(resp.Header),
		BodyBytes: body,
	}, nil
}

// proxyHandler adapts an inbound net/http request into a flowmodel.Request,
// runs it through the pipeline, and writes the resulting flowmodel.Response
// back out. This is the thin edge the interception framework this project
// assumes would otherwise own.
type proxyHandler struct {
	pipeline *core.Pipeline
}

func (h *proxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	targetURL := r.URL.String()
	if r.URL.Host == "" {
		// Forwarded via absolute-form is expected from an interception
		// framework; fall back to the Host header for direct testing.
		targetURL = "http://" + r.Host + r.URL.RequestURI()
	}

	req := &flowmodel.Request{
		Method:    r.Method,
		URL:       targetURL,
		Headers:   map[string][]string(r.Header),
		BodyBytes: body,
	}

	flow, err := h.pipeline.Handle(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	resp := flow.Response
	if resp == nil {
		http.Error(w, "pipeline produced no response", http.StatusInternalServerError)
		return
	}

	for k, vs := range resp.Headers {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.BodyBytes)
}
