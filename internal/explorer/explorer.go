// Package explorer owns the state behind the directory explorer: what is
// expanded, what is selected, the pending request and the last response.
// It has no UI dependency; the terminal front end only reads Snapshot and
// calls the mutators from its event handlers.
package explorer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"apitree/internal/httpclient"
	"apitree/internal/model"
	"apitree/internal/tree"
)

const (
	MsgSelectPrompt = "Please select an endpoint or folder"
	MsgFetchFailed  = "Failed to fetch data"
)

type Executor interface {
	Execute(ctx context.Context, spec httpclient.RequestSpec) (httpclient.Result, error)
}

type State struct {
	Selected string
	Expanded map[string]bool
	Method   model.Method
	Body     string
	Response json.RawMessage
	// Status and Elapsed describe the last completed exchange; Status is
	// empty when the request never got a response.
	Status  string
	Elapsed time.Duration
	Loading bool
}

// Call is one started send. Only the most recently prepared call may
// write its result back.
type Call struct {
	ID      string
	Request httpclient.RequestSpec
	seq     uint64
}

type Explorer struct {
	mu      sync.Mutex
	nodes   []tree.Node
	baseURL string
	exec    Executor
	log     *log.Logger

	st  State
	seq uint64
}

func New(nodes []tree.Node, baseURL string, exec Executor) *Explorer {
	return &Explorer{
		nodes:   nodes,
		baseURL: baseURL,
		exec:    exec,
		log:     log.New(io.Discard, "", 0),
		st: State{
			Method:   model.MethodGet,
			Expanded: map[string]bool{tree.RootKey: true},
		},
	}
}

func (e *Explorer) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	e.log = l
}

func (e *Explorer) Nodes() []tree.Node { return e.nodes }

func (e *Explorer) BaseURL() string { return e.baseURL }

// Snapshot returns a copy of the current state.
func (e *Explorer) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.st
	st.Expanded = make(map[string]bool, len(e.st.Expanded))
	for k, v := range e.st.Expanded {
		st.Expanded[k] = v
	}
	if e.st.Response != nil {
		st.Response = append(json.RawMessage(nil), e.st.Response...)
	}
	return st
}

func (e *Explorer) Rows() []tree.Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	return tree.Rows(e.nodes, e.st.Expanded)
}

// URL is the full request URL for the current selection, or "" without one.
func (e *Explorer) URL() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.st.Selected == "" {
		return ""
	}
	return httpclient.JoinURL(e.baseURL, e.st.Selected)
}

// Select makes path the target of the next send and drops any body typed
// for the previous selection.
func (e *Explorer) Select(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.st.Selected = path
	e.st.Body = ""
}

// Toggle flips a directory's expansion. Selection is untouched.
func (e *Explorer) Toggle(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.st.Expanded[key] {
		delete(e.st.Expanded, key)
		return
	}
	e.st.Expanded[key] = true
}

// Expand and Collapse are the one-way forms of Toggle.
func (e *Explorer) Expand(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.st.Expanded[key] = true
}

func (e *Explorer) Collapse(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.st.Expanded, key)
}

// Reveal expands every ancestor of key so its row becomes visible.
func (e *Explorer) Reveal(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, k := range tree.Ancestors(key) {
		e.st.Expanded[k] = true
	}
}

func (e *Explorer) SetMethod(m model.Method) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.st.Method = m
}

func (e *Explorer) SetBody(body string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.st.Body = body
}

// Prepare runs the synchronous half of a send. Without a selection it
// stores the prompt message and reports false; otherwise it marks the
// explorer loading and returns the call to execute.
func (e *Explorer) Prepare() (Call, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st.Selected == "" {
		e.st.Response = object("message", MsgSelectPrompt)
		return Call{}, false
	}

	e.seq++
	e.st.Loading = true
	c := Call{
		ID:      uuid.NewString(),
		Request: httpclient.BuildRequest(e.baseURL, e.st.Method, e.st.Selected, e.st.Body),
		seq:     e.seq,
	}
	e.log.Printf("send %s: %s %s body=%d bytes", c.ID, c.Request.Method, c.Request.URL, len(c.Request.Body))
	return c, true
}

// Finish stores the outcome of c. A call superseded by a later Prepare is
// dropped and Finish reports false.
func (e *Explorer) Finish(c Call, res httpclient.Result, err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c.seq != e.seq {
		e.log.Printf("send %s: dropped, superseded by a newer request", c.ID)
		return false
	}
	e.st.Loading = false
	e.st.Status = res.Status
	e.st.Elapsed = res.Elapsed

	if err != nil {
		e.log.Printf("send %s: failed after %s: %v", c.ID, res.Elapsed, err)
		e.st.Response = object("error", MsgFetchFailed)
		return true
	}
	body := bytes.TrimSpace(res.Body)
	if !json.Valid(body) {
		e.log.Printf("send %s: %s, body is not json (%d bytes)", c.ID, res.Status, len(res.Body))
		e.st.Response = object("error", MsgFetchFailed)
		return true
	}
	if res.StatusCode >= http.StatusBadRequest {
		e.log.Printf("send %s: server answered %d, showing its json body", c.ID, res.StatusCode)
	}
	e.log.Printf("send %s: %s in %s", c.ID, res.Status, res.Elapsed)
	e.st.Response = append(json.RawMessage(nil), body...)
	return true
}

// Dispatch executes a prepared call and records its outcome.
func (e *Explorer) Dispatch(ctx context.Context, c Call) bool {
	res, err := e.exec.Execute(ctx, c.Request)
	return e.Finish(c, res, err)
}

// Send is Prepare followed by Dispatch, blocking until the call completes.
func (e *Explorer) Send(ctx context.Context) {
	c, ok := e.Prepare()
	if !ok {
		return
	}
	e.Dispatch(ctx, c)
}

func object(key, msg string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{key: msg})
	return b
}
