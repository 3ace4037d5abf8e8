package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"apitree/internal/explorer"
	"apitree/internal/model"
	"apitree/internal/tree"
)

// ansi colors
const (
	colorDim    = "\033[90m"
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

const urlPlaceholder = "Select a folder or endpoint from the directory"

func treeLine(r tree.Row, selected string) string {
	if r.Selected(selected) {
		return colorGreen + r.Label() + colorReset
	}
	return r.Label()
}

func colorizeMethod(method model.Method) string {
	var color string
	switch method {
	case model.MethodGet:
		color = colorBlue
	case model.MethodPut:
		color = colorYellow
	default:
		color = colorReset
	}
	return color + string(method) + colorReset
}

func sendLabel(loading, hasSelection bool) string {
	switch {
	case loading:
		return colorYellow + "Loading..." + colorReset
	case !hasSelection:
		return colorDim + "Send ▸" + colorReset
	default:
		return colorGreen + "Send ▸" + colorReset
	}
}

func urlText(url string) string {
	if url == "" {
		return colorDim + urlPlaceholder + colorReset
	}
	return url
}

// Titles are drawn verbatim by gocui, so no color codes here.
func requestTitle(op model.Operation, ok bool) string {
	if !ok || op.Summary == "" {
		return "Request"
	}
	return "Request - " + op.Summary
}

func responseTitle(st explorer.State) string {
	if st.Loading {
		return "Response - loading..."
	}
	if st.Status == "" {
		return "Response"
	}
	return fmt.Sprintf("Response - %s (%s)", st.Status, st.Elapsed.Round(time.Millisecond))
}

func footerText(p focusPane, method model.Method) string {
	switch p {
	case paneBody:
		return "type: edit body   esc: back to tree   ctrl+r: send   ctrl+c: quit"
	case paneResponse:
		return "arrows: scroll   home: line start   tab/esc: back to tree   ctrl+r: send   q: quit"
	case paneSearch:
		return "type: fuzzy search   enter: jump   esc: cancel"
	}
	parts := []string{"enter: select", "space: toggle", "/: search", "m: method"}
	if method.AcceptsBody() {
		parts = append(parts, "b: body", "e: $EDITOR")
	}
	parts = append(parts, "ctrl+r: send", "tab: next pane", "q: quit")
	return strings.Join(parts, "   ")
}

// clampCursor keeps a row index inside [0, n).
func clampCursor(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func rowIndex(rows []tree.Row, key string) int {
	for i, r := range rows {
		if r.Key == key {
			return i
		}
	}
	return -1
}

type clickAction int

const (
	clickNone clickAction = iota
	clickToggle
	clickSelect
)

// treeClickAction decides what a click on tree line `line`, column `col`
// does. The chevron cell of a folder only toggles; anywhere else on a row
// selects it.
func treeClickAction(rows []tree.Row, line, col int) (tree.Row, clickAction) {
	if line < 0 || line >= len(rows) {
		return tree.Row{}, clickNone
	}
	row := rows[line]
	if row.ChevronAt(col) {
		return row, clickToggle
	}
	return row, clickSelect
}

// scrollOrigin moves a view origin by (dx, dy). The last line stays
// reachable at the top, and x stops once the widest line's end is inside
// a view of the given width.
func scrollOrigin(ox, oy, dx, dy int, lines []string, width int) (int, int) {
	maxX := 0
	for _, l := range lines {
		if w := runewidth.StringWidth(l); w > maxX {
			maxX = w
		}
	}
	maxX -= width
	maxY := len(lines) - 1

	return clampOrigin(ox+dx, maxX), clampOrigin(oy+dy, maxY)
}

func clampOrigin(v, max int) int {
	if v > max {
		v = max
	}
	if v < 0 {
		v = 0
	}
	return v
}
