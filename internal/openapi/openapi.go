package openapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"apitree/internal/model"
)

const defaultTimeout = 10 * time.Second

//go:embed api.yaml
var embedded []byte

// LoadEmbedded loads the description compiled into the binary.
func LoadEmbedded(ctx context.Context) (*openapi3.T, error) {
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(embedded)
	if err != nil {
		return nil, fmt.Errorf("embedded openapi: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("embedded openapi: %w", err)
	}
	return doc, nil
}

// Load reads a description from "@/path/to/file" or an http(s) URL.
func Load(ctx context.Context, spec string) (*openapi3.T, error) {
	loader := &openapi3.Loader{Context: ctx}
	loader.IsExternalRefsAllowed = true

	var (
		doc *openapi3.T
		err error
	)
	if file, ok := strings.CutPrefix(spec, "@"); ok {
		doc, err = loader.LoadFromFile(file)
	} else {
		doc, err = fetch(ctx, loader, spec)
	}
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}
	return doc, nil
}

func fetch(ctx context.Context, loader *openapi3.Loader, url string) (*openapi3.T, error) {
	client := &http.Client{Timeout: defaultTimeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return loader.LoadFromIoReader(resp.Body)
}

// ExtractOperations lists the GET and PUT operations, sorted by path then
// method. Other methods can't be sent from the explorer and are skipped.
func ExtractOperations(doc *openapi3.T) []model.Operation {
	var out []model.Operation
	if doc == nil || doc.Paths == nil {
		return out
	}

	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}

		addOp := func(method model.Method, op *openapi3.Operation) {
			if op == nil {
				return
			}
			o := model.Operation{
				Method:      method,
				Path:        path,
				Summary:     strings.TrimSpace(op.Summary),
				OperationID: strings.TrimSpace(op.OperationID),
			}
			params := append(openapi3.Parameters{}, item.Parameters...)
			params = append(params, op.Parameters...)
			for _, p := range params {
				if p == nil || p.Value == nil || p.Value.In != openapi3.ParameterInQuery {
					continue
				}
				o.Query = append(o.Query, p.Value.Name)
			}
			if method.AcceptsBody() {
				o.Body = extractBody(op)
			}
			out = append(out, o)
		}

		addOp(model.MethodGet, item.Get)
		addOp(model.MethodPut, item.Put)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Path == out[j].Path {
			return out[i].Method < out[j].Method
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Find looks up the operation behind a request path such as
// "operations?component_id=engine".
func Find(ops []model.Operation, method model.Method, requestPath string) (model.Operation, bool) {
	p, _, _ := strings.Cut(requestPath, "?")
	p = "/" + strings.Trim(p, "/")
	for _, op := range ops {
		if op.Method == method && op.Path == p {
			return op, true
		}
	}
	return model.Operation{}, false
}

// BodyTemplate renders an example body for op, preferring a media-type
// example over per-field examples. It returns "" when nothing is known.
func BodyTemplate(op model.Operation) string {
	if op.Body == nil {
		return ""
	}
	var v any = op.Body.Example
	if v == nil {
		obj := map[string]any{}
		for _, f := range op.Body.Fields {
			if f.Example != nil {
				obj[f.Name] = f.Example
			}
		}
		if len(obj) == 0 {
			return ""
		}
		v = obj
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

func schemaType(ref *openapi3.SchemaRef) model.ParamType {
	if ref == nil || ref.Value == nil {
		return model.TypeUnknown
	}
	if ref.Value.Type == nil {
		return model.TypeUnknown
	}
	if ref.Value.Type.Is("string") {
		return model.TypeString
	}
	if ref.Value.Type.Is("integer") {
		return model.TypeInteger
	}
	if ref.Value.Type.Is("number") {
		return model.TypeNumber
	}
	if ref.Value.Type.Is("boolean") {
		return model.TypeBoolean
	}
	return model.TypeUnknown
}

func extractBody(op *openapi3.Operation) *model.BodySchema {
	if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}

	mt := op.RequestBody.Value.Content.Get("application/json")
	if mt == nil {
		return nil
	}
	body := &model.BodySchema{Example: mt.Example}
	if mt.Schema == nil || mt.Schema.Value == nil {
		return body
	}

	s := mt.Schema.Value
	required := map[string]bool{}
	for _, name := range s.Required {
		required[name] = true
	}

	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		prop := s.Properties[name]
		f := model.BodyField{Name: name, Required: required[name], Type: schemaType(prop)}
		if prop != nil && prop.Value != nil {
			f.Example = prop.Value.Example
		}
		body.Fields = append(body.Fields, f)
	}
	if body.Example == nil {
		body.Example = s.Example
	}
	return body
}
