package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"apitree/internal/explorer"
	"apitree/internal/model"
	"apitree/internal/tree"
)

func printTree(w io.Writer, nodes []tree.Node) {
	for _, r := range tree.All(nodes) {
		kind := "endpoint"
		if r.Dir {
			kind = "folder"
		}
		fmt.Fprintf(w, "%s%-8s %-40s %s\n", strings.Repeat(" ", r.Depth*tree.Indent), kind, r.Key, r.Path)
	}
}

// sendOnce runs a single dispatch and prints the formatted response. The
// returned exit code is 1 when the response is the generic fetch error.
func sendOnce(ctx context.Context, w io.Writer, ex *explorer.Explorer, path, method, body string) (int, error) {
	m, err := model.ParseMethod(method)
	if err != nil {
		return 0, err
	}
	ex.Select(path)
	ex.SetMethod(m)
	ex.SetBody(body)
	ex.Send(ctx)

	st := ex.Snapshot()
	fmt.Fprintln(w, explorer.FormatResponse(st.Response))
	if explorer.IsFetchError(st.Response) {
		return 1, nil
	}
	return 0, nil
}
