// Package contract checks the backend's OpenAPI document against the routes
// the client calls.
package contract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/felixgeelhaar/vedic/internal/api"
)

// DocumentPath is where FastAPI serves the schema.
const DocumentPath = "/openapi.json"

// Finding is one route the document does not offer.
type Finding struct {
	Code     string `json:"code" yaml:"code"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	Message  string `json:"message" yaml:"message"`
}

// Finding codes.
const (
	MissingPath   = "MISSING_API_PATH"
	MissingMethod = "MISSING_API_METHOD"
)

// Report is the outcome of a check.
type Report struct {
	Source   string    `json:"source" yaml:"source"`
	Title    string    `json:"title" yaml:"title"`
	Version  string    `json:"version" yaml:"version"`
	Checked  int       `json:"checked" yaml:"checked"`
	Findings []Finding `json:"findings" yaml:"findings"`
}

// OK reports whether every route was found.
func (r *Report) OK() bool { return len(r.Findings) == 0 }

// Checker holds a loaded OpenAPI document.
type Checker struct {
	doc    *openapi3.T
	source string
}

// Load parses and validates an OpenAPI document.
func Load(ctx context.Context, data []byte, source string) (*Checker, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	return &Checker{doc: doc, source: source}, nil
}

// Fetch downloads and loads the document served by the backend at baseURL.
func Fetch(ctx context.Context, hc *http.Client, baseURL string) (*Checker, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	u := strings.TrimRight(baseURL, "/") + DocumentPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", u, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", u, err)
	}
	return Load(ctx, data, u)
}

const maxDocumentSize = 8 << 20

// Check looks up every endpoint in the document.
func (c *Checker) Check(endpoints []api.Endpoint) *Report {
	r := &Report{Source: c.source, Checked: len(endpoints), Findings: []Finding{}}
	if c.doc.Info != nil {
		r.Title = c.doc.Info.Title
		r.Version = c.doc.Info.Version
	}

	for _, e := range endpoints {
		item := c.find(e.Path)
		switch {
		case item == nil:
			r.Findings = append(r.Findings, Finding{
				Code:     MissingPath,
				Endpoint: e.String(),
				Message:  fmt.Sprintf("path not found in OpenAPI document: %s", e.Path),
			})
		case item.GetOperation(strings.ToUpper(e.Method)) == nil:
			r.Findings = append(r.Findings, Finding{
				Code:     MissingMethod,
				Endpoint: e.String(),
				Message:  fmt.Sprintf("method %s not offered for %s", e.Method, e.Path),
			})
		}
	}
	return r
}

// Routes lists the document's operations as "METHOD /path", sorted.
func (c *Checker) Routes() []string {
	var out []string
	if c.doc.Paths == nil {
		return out
	}
	for path, item := range c.doc.Paths.Map() {
		for method := range item.Operations() {
			out = append(out, method+" "+path)
		}
	}
	sort.Strings(out)
	return out
}

func (c *Checker) find(path string) *openapi3.PathItem {
	if c.doc.Paths == nil {
		return nil
	}
	if item := c.doc.Paths.Value(path); item != nil {
		return item
	}

	want := segments(path)
	for docPath, item := range c.doc.Paths.Map() {
		got := segments(docPath)
		if len(got) != len(want) {
			continue
		}
		match := true
		for i := range want {
			if isParam(want[i]) && isParam(got[i]) {
				continue
			}
			if want[i] != got[i] {
				match = false
				break
			}
		}
		if match {
			return item
		}
	}
	return nil
}

func segments(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

func isParam(seg string) bool {
	return strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}
