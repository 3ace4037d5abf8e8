package explorer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apitree/internal/httpclient"
	"apitree/internal/model"
	"apitree/internal/tree"
)

type fakeExec struct {
	mu    sync.Mutex
	calls []httpclient.RequestSpec
	res   httpclient.Result
	err   error
}

func (f *fakeExec) Execute(_ context.Context, spec httpclient.RequestSpec) (httpclient.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, spec)
	return f.res, f.err
}

func okResult(body string) httpclient.Result {
	return httpclient.Result{StatusCode: 200, Status: "200 OK", Body: []byte(body)}
}

func newExplorer(t *testing.T, exec Executor) *Explorer {
	t.Helper()
	return New(tree.Catalog(), "https://api.example.com", exec)
}

func TestDefaults(t *testing.T) {
	e := newExplorer(t, &fakeExec{})
	st := e.Snapshot()

	assert.Equal(t, "", st.Selected)
	assert.Equal(t, model.MethodGet, st.Method)
	assert.Equal(t, map[string]bool{"components": true}, st.Expanded)
	assert.Nil(t, st.Response)
	assert.False(t, st.Loading)
	assert.Equal(t, "", e.URL())
	assert.Len(t, e.Rows(), 3)
}

func TestToggleNeverChangesSelection(t *testing.T) {
	e := newExplorer(t, &fakeExec{})
	e.Select("components?component_id=engine")
	e.SetBody("draft")

	for _, key := range []string{"components/engine", "components", "components/door", "components/engine"} {
		e.Toggle(key)
		st := e.Snapshot()
		assert.Equal(t, "components?component_id=engine", st.Selected)
		assert.Equal(t, "draft", st.Body)
	}
}

func TestToggleFlipsExpansion(t *testing.T) {
	e := newExplorer(t, &fakeExec{})
	e.Toggle("components/engine")
	assert.True(t, e.Snapshot().Expanded["components/engine"])
	assert.Len(t, e.Rows(), 5)

	e.Toggle("components/engine")
	assert.False(t, e.Snapshot().Expanded["components/engine"])

	e.Toggle("components")
	assert.Len(t, e.Rows(), 1)
}

func TestSelectSetsPathAndClearsBody(t *testing.T) {
	e := newExplorer(t, &fakeExec{})
	e.Expand("components/engine")

	for _, row := range e.Rows() {
		e.SetBody(`{"x":1}`)
		e.Select(row.Path)
		st := e.Snapshot()
		assert.Equal(t, row.Path, st.Selected, row.Key)
		assert.Equal(t, "", st.Body, row.Key)
	}
}

func TestMethodChangeKeepsBody(t *testing.T) {
	e := newExplorer(t, &fakeExec{})
	e.SetBody("abc")
	e.SetMethod(model.MethodPut)
	e.SetMethod(model.MethodGet)
	assert.Equal(t, "abc", e.Snapshot().Body)
}

func TestReveal(t *testing.T) {
	e := newExplorer(t, &fakeExec{})
	e.Collapse("components")
	e.Reveal("components/engine/faults")

	st := e.Snapshot()
	assert.True(t, st.Expanded["components"])
	assert.True(t, st.Expanded["components/engine"])
	assert.False(t, st.Expanded["components/engine/faults"])
	assert.Equal(t, "", st.Selected)
}

func TestSendWithoutSelection(t *testing.T) {
	exec := &fakeExec{}
	e := newExplorer(t, exec)

	e.Send(context.Background())

	assert.Empty(t, exec.calls)
	st := e.Snapshot()
	assert.JSONEq(t, `{"message":"Please select an endpoint or folder"}`, string(st.Response))
	assert.False(t, st.Loading)
}

func TestSendGetFaults(t *testing.T) {
	exec := &fakeExec{res: okResult(`{"items":[{"code":"E1"}]}`)}
	e := newExplorer(t, exec)
	e.Expand("components/engine")
	e.Select("faults?component_id=engine")
	e.SetBody("ignored for GET")

	e.Send(context.Background())

	require.Len(t, exec.calls, 1)
	req := exec.calls[0]
	assert.Equal(t, model.MethodGet, req.Method)
	assert.Equal(t, "https://api.example.com/faults?component_id=engine", req.URL)
	assert.False(t, req.HasBody())
	assert.Equal(t, "application/json", req.Headers["Content-Type"])

	st := e.Snapshot()
	assert.JSONEq(t, `{"items":[{"code":"E1"}]}`, string(st.Response))
	assert.Equal(t, "200 OK", st.Status)
	assert.False(t, st.Loading)
}

func TestSendPutPassesBodyVerbatim(t *testing.T) {
	const body = `{"operationId":"ACC_Controller","enabled_status":false}`
	exec := &fakeExec{res: okResult(`{"message":"Operation updated successfully"}`)}
	e := newExplorer(t, exec)
	e.Select("components?component_id=engine")
	e.SetMethod(model.MethodPut)
	e.SetBody(body)

	e.Send(context.Background())

	require.Len(t, exec.calls, 1)
	req := exec.calls[0]
	assert.Equal(t, model.MethodPut, req.Method)
	assert.Equal(t, "https://api.example.com/components?component_id=engine", req.URL)
	assert.Equal(t, body, string(req.Body))
}

func TestSendPutWithEmptyBody(t *testing.T) {
	exec := &fakeExec{res: okResult(`{}`)}
	e := newExplorer(t, exec)
	e.Select("components")
	e.SetMethod(model.MethodPut)

	e.Send(context.Background())

	require.Len(t, exec.calls, 1)
	assert.False(t, exec.calls[0].HasBody())
}

func TestSendFailures(t *testing.T) {
	tests := []struct {
		name string
		res  httpclient.Result
		err  error
	}{
		{name: "network error", err: errors.New("connection refused")},
		{name: "html body", res: httpclient.Result{Status: "502 Bad Gateway", Body: []byte("<html>bad gateway</html>")}},
		{name: "empty body", res: httpclient.Result{Status: "204 No Content"}},
		{name: "truncated json", res: okResult(`{"items": [`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newExplorer(t, &fakeExec{res: tt.res, err: tt.err})
			e.Select("components")

			e.Send(context.Background())

			st := e.Snapshot()
			assert.JSONEq(t, `{"error":"Failed to fetch data"}`, string(st.Response))
			assert.True(t, IsFetchError(st.Response))
			assert.False(t, st.Loading)
		})
	}
}

func TestNon2xxJSONIsShown(t *testing.T) {
	exec := &fakeExec{res: httpclient.Result{StatusCode: 404, Status: "404 Not Found", Body: []byte(`{"detail":"Component not found"}`)}}
	e := newExplorer(t, exec)
	var logs bytes.Buffer
	e.SetLogger(log.New(&logs, "", 0))
	e.Select("components?component_id=door")

	e.Send(context.Background())

	st := e.Snapshot()
	assert.JSONEq(t, `{"detail":"Component not found"}`, string(st.Response))
	assert.Equal(t, "404 Not Found", st.Status)
	assert.Contains(t, logs.String(), "server answered 404")
}

func TestLoadingDuringFlight(t *testing.T) {
	e := newExplorer(t, &fakeExec{})
	e.Select("components")

	c, ok := e.Prepare()
	require.True(t, ok)
	assert.True(t, e.Snapshot().Loading)
	assert.NotEmpty(t, c.ID)

	assert.True(t, e.Finish(c, okResult(`[1,2]`), nil))
	assert.False(t, e.Snapshot().Loading)
}

func TestStaleResponseIsDropped(t *testing.T) {
	e := newExplorer(t, &fakeExec{})
	e.Select("components")
	first, _ := e.Prepare()
	e.Select("faults?component_id=engine")
	second, _ := e.Prepare()

	// the older call resolves last
	assert.True(t, e.Finish(second, okResult(`{"n":2}`), nil))
	assert.False(t, e.Finish(first, okResult(`{"n":1}`), nil))

	st := e.Snapshot()
	assert.JSONEq(t, `{"n":2}`, string(st.Response))
	assert.False(t, st.Loading)
}

func TestStaleCompletionKeepsLoading(t *testing.T) {
	e := newExplorer(t, &fakeExec{})
	e.Select("components")
	first, _ := e.Prepare()
	second, _ := e.Prepare()

	assert.False(t, e.Finish(first, httpclient.Result{}, errors.New("boom")))
	st := e.Snapshot()
	assert.True(t, st.Loading, "the newer call is still outstanding")
	assert.Nil(t, st.Response)

	e.Finish(second, okResult(`true`), nil)
	assert.False(t, e.Snapshot().Loading)
}

func TestSnapshotIsACopy(t *testing.T) {
	e := newExplorer(t, &fakeExec{})
	st := e.Snapshot()
	st.Expanded["components/engine"] = true
	assert.False(t, e.Snapshot().Expanded["components/engine"])
}

func TestSendAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPut {
			_, _ = w.Write(b)
			return
		}
		_, _ = io.WriteString(w, `{"items":[{"id":"engine","name":"Engine","href":"/components/engine"}]}`)
	}))
	defer srv.Close()

	var logs bytes.Buffer
	e := New(tree.Catalog(), srv.URL+"/", httpclient.NewWithHTTPClient(srv.Client()))
	e.SetLogger(log.New(&logs, "", 0))

	e.Select("components")
	e.Send(context.Background())
	assert.Contains(t, FormatResponse(e.Snapshot().Response), `"name": "Engine"`)

	e.Select("operations?component_id=engine")
	e.SetMethod(model.MethodPut)
	e.SetBody(`{"operationId":"ACC_Controller","enabled_status":true}`)
	e.Send(context.Background())
	assert.JSONEq(t, `{"operationId":"ACC_Controller","enabled_status":true}`, string(e.Snapshot().Response))

	assert.Contains(t, logs.String(), "PUT "+srv.URL+"/operations?component_id=engine")
}
