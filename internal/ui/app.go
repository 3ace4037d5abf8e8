package ui

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/jroimartin/gocui"

	"apitree/internal/explorer"
	"apitree/internal/model"
	"apitree/internal/openapi"
	"apitree/internal/tree"
)

var debugLog = log.New(io.Discard, "", 0)

// SetDebugLog routes UI diagnostics to l; nil silences them.
func SetDebugLog(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	debugLog = l
}

type focusPane int

const (
	paneTree focusPane = iota
	paneBody
	paneResponse
	paneSearch
)

var mainViews = []string{"tree", "method", "url", "send", "body", "response", "search"}

type App struct {
	guiMu         sync.Mutex
	g             *gocui.Gui
	pendingRedraw bool

	ctx context.Context

	ex     *explorer.Explorer
	ops    []model.Operation
	editor string

	cursor int
	pane   focusPane
	prev   focusPane

	// bodyDirty asks the next layout pass to reload the body view from the
	// explorer instead of trusting what is on screen.
	bodyDirty bool
	shownResp string

	suspendEditorFile string
	errorMsg          string
}

func NewApp(ctx context.Context, ex *explorer.Explorer) *App {
	return &App{ctx: ctx, ex: ex, pane: paneTree}
}

// SetOperations supplies the documented operations used for hints and body
// templates.
func (a *App) SetOperations(ops []model.Operation) {
	a.ops = ops
}

func (a *App) SetEditor(cmd string) {
	a.editor = strings.TrimSpace(cmd)
}

func (a *App) Run() error {
	// We sometimes need to temporarily drop out of the TUI to run an external
	// process ($EDITOR for the request body). gocui doesn't expose a native
	// suspend/resume API, so we exit the main loop, run the external command,
	// and then re-create the GUI.
	for {
		g, err := gocui.NewGui(gocui.OutputNormal)
		if err != nil {
			return err
		}
		if a.attachGui(g) {
			debugLog.Printf("request finished while suspended; redrawing")
		}

		g.BgColor = gocui.ColorBlack
		g.FgColor = gocui.ColorWhite
		g.InputEsc = true
		g.Mouse = true
		g.SetManagerFunc(a.layout)

		if err := a.bindKeys(); err != nil {
			g.Close()
			return err
		}

		err = g.MainLoop()
		a.attachGui(nil)
		g.Close()

		if a.suspendEditorFile != "" {
			file := a.suspendEditorFile
			a.suspendEditorFile = ""
			if err := a.runExternalEditor(file); err != nil {
				debugLog.Printf("external editor: %v", err)
				a.errorMsg = err.Error()
			}
			continue
		}

		if err != nil && err != gocui.ErrQuit {
			return err
		}
		return nil
	}
}

func (a *App) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	st := a.ex.Snapshot()

	if v, err := g.SetView("header", 0, 0, maxX-1, 2); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Frame = false
		fmt.Fprintln(v, colorGreen+"apitree"+colorReset+"  -  component explorer  "+colorDim+a.ex.BaseURL()+colorReset)
	}

	if v, err := g.SetView("footer", 0, maxY-2, maxX-1, maxY); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Frame = false
	}
	a.renderFooter(st)

	if maxX < 40 || maxY < 14 {
		a.clearMainViews(nil)
		return nil
	}

	treeW := maxX / 3
	if treeW > 40 {
		treeW = 40
	}
	if treeW < 20 {
		treeW = 20
	}
	rx := treeW + 1

	if v, err := g.SetView("tree", 0, 2, treeW, maxY-3); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Directory"
		v.SelFgColor = gocui.ColorBlack
		v.SelBgColor = gocui.ColorGreen
	}
	if v, err := g.SetView("method", rx, 2, rx+8, 4); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Method"
	}
	if v, err := g.SetView("url", rx+9, 2, maxX-16, 4); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Request"
	}
	if _, err := g.SetView("send", maxX-15, 2, maxX-1, 4); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
	}

	respTop := 4
	if st.Method.AcceptsBody() {
		bodyH := (maxY - 7) / 3
		if bodyH > 10 {
			bodyH = 10
		}
		v, err := g.SetView("body", rx, 4, maxX-1, 4+bodyH)
		if err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
			v.Title = "Request Body"
			v.Editable = true
			v.Editor = bodyEditor{a: a}
			a.bodyDirty = true
		}
		if a.bodyDirty {
			v.Clear()
			fmt.Fprint(v, st.Body)
			_ = v.SetCursor(0, 0)
			_ = v.SetOrigin(0, 0)
			a.bodyDirty = false
		}
		respTop = 4 + bodyH
	} else {
		a.deleteView("body")
		if a.pane == paneBody {
			a.pane = paneTree
		}
	}

	if v, err := g.SetView("response", rx, respTop, maxX-1, maxY-3); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Wrap = false
		v.Autoscroll = false
	}

	a.renderTree(st)
	a.renderRequest(st)
	a.renderResponse(st)

	return a.applyFocus()
}

func (a *App) applyFocus() error {
	name := "tree"
	switch a.pane {
	case paneBody:
		name = "body"
	case paneResponse:
		name = "response"
	case paneSearch:
		name = "search"
	}
	if _, err := a.g.View(name); err != nil {
		a.pane = paneTree
		name = "tree"
	}
	if v, err := a.g.View("tree"); err == nil {
		v.Highlight = a.pane == paneTree
	}
	a.g.Cursor = a.pane == paneBody || a.pane == paneSearch
	if a.pane == paneSearch {
		_, _ = a.g.SetViewOnTop("search")
	}
	_, err := a.g.SetCurrentView(name)
	return err
}

func (a *App) clearMainViews(keep []string) {
	keepSet := map[string]bool{}
	for _, k := range keep {
		keepSet[k] = true
	}
	for _, n := range mainViews {
		if !keepSet[n] {
			a.deleteView(n)
		}
	}
}

func (a *App) deleteView(name string) {
	if v, err := a.g.View(name); err == nil {
		v.Clear()
		_ = a.g.DeleteView(name)
	}
}

func (a *App) bindKeys() error {
	g := a.g
	type binding struct {
		view    string
		key     interface{}
		handler func(*gocui.Gui, *gocui.View) error
	}
	bindings := []binding{
		{"", gocui.KeyCtrlC, a.quit},
		{"", gocui.KeyCtrlR, a.send},

		{"tree", 'q', a.quit},
		{"tree", gocui.KeyArrowDown, a.moveCursor(1)},
		{"tree", 'j', a.moveCursor(1)},
		{"tree", gocui.KeyArrowUp, a.moveCursor(-1)},
		{"tree", 'k', a.moveCursor(-1)},
		{"tree", gocui.KeyEnter, a.selectCurrent},
		{"tree", gocui.KeySpace, a.toggleCurrent},
		{"tree", gocui.KeyArrowRight, a.expandCurrent},
		{"tree", gocui.KeyArrowLeft, a.collapseCurrent},
		{"tree", 'm', a.toggleMethod},
		{"tree", 'b', a.focusBody},
		{"tree", 'e', a.editBodyInEditor},
		{"tree", '/', a.openSearch},
		{"tree", gocui.KeyTab, a.nextPane},
		{"tree", gocui.MouseLeft, a.treeClick},

		{"method", gocui.MouseLeft, a.toggleMethod},
		{"send", gocui.MouseLeft, a.send},
		{"body", gocui.KeyEsc, a.focusTree},
		{"body", gocui.MouseLeft, a.focusBody},

		{"response", gocui.KeyArrowDown, a.scrollResponse(0, 1)},
		{"response", gocui.KeyArrowUp, a.scrollResponse(0, -1)},
		{"response", gocui.KeyArrowRight, a.scrollResponse(4, 0)},
		{"response", gocui.KeyArrowLeft, a.scrollResponse(-4, 0)},
		{"response", gocui.KeyHome, a.scrollResponseHome},
		{"response", gocui.KeyTab, a.focusTree},
		{"response", gocui.KeyEsc, a.focusTree},
		{"response", 'q', a.quit},
		{"response", gocui.MouseLeft, a.focusResponse},

		{"search", gocui.KeyEnter, a.confirmSearch},
		{"search", gocui.KeyEsc, a.closeSearch},
	}
	for _, b := range bindings {
		if err := g.SetKeybinding(b.view, b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) quit(*gocui.Gui, *gocui.View) error { return gocui.ErrQuit }

func (a *App) currentRow() (tree.Row, bool) {
	rows := a.ex.Rows()
	if len(rows) == 0 {
		return tree.Row{}, false
	}
	a.cursor = clampCursor(a.cursor, len(rows))
	return rows[a.cursor], true
}

func (a *App) moveCursor(delta int) func(*gocui.Gui, *gocui.View) error {
	return func(*gocui.Gui, *gocui.View) error {
		a.cursor = clampCursor(a.cursor+delta, len(a.ex.Rows()))
		a.errorMsg = ""
		return nil
	}
}

func (a *App) selectCurrent(*gocui.Gui, *gocui.View) error {
	row, ok := a.currentRow()
	if !ok {
		return nil
	}
	a.selectRow(row)
	return nil
}

func (a *App) selectRow(row tree.Row) {
	a.ex.Select(row.Path)
	a.bodyDirty = true
	a.errorMsg = ""
	debugLog.Printf("select %s -> %s", row.Key, row.Path)
}

func (a *App) toggleCurrent(*gocui.Gui, *gocui.View) error {
	if row, ok := a.currentRow(); ok && row.Dir {
		a.ex.Toggle(row.Key)
	}
	return nil
}

func (a *App) expandCurrent(*gocui.Gui, *gocui.View) error {
	if row, ok := a.currentRow(); ok && row.Dir {
		a.ex.Expand(row.Key)
	}
	return nil
}

func (a *App) collapseCurrent(*gocui.Gui, *gocui.View) error {
	row, ok := a.currentRow()
	if !ok {
		return nil
	}
	if row.Dir && row.Expanded {
		a.ex.Collapse(row.Key)
		return nil
	}
	// on a leaf or a closed folder, jump to the parent row
	if anc := tree.Ancestors(row.Key); len(anc) > 0 {
		if i := rowIndex(a.ex.Rows(), anc[len(anc)-1]); i >= 0 {
			a.cursor = i
		}
	}
	return nil
}

// treeClick toggles when the chevron cell is hit and selects otherwise.
// gocui has already moved the view cursor to the clicked cell.
func (a *App) treeClick(g *gocui.Gui, v *gocui.View) error {
	a.pane = paneTree
	cx, cy := v.Cursor()
	ox, oy := v.Origin()
	row, action := treeClickAction(a.ex.Rows(), oy+cy, ox+cx)
	switch action {
	case clickToggle:
		a.cursor = oy + cy
		a.ex.Toggle(row.Key)
	case clickSelect:
		a.cursor = oy + cy
		a.selectRow(row)
	}
	return nil
}

func (a *App) toggleMethod(*gocui.Gui, *gocui.View) error {
	m := a.ex.Snapshot().Method.Next()
	a.ex.SetMethod(m)
	debugLog.Printf("method %s", m)
	return nil
}

func (a *App) send(g *gocui.Gui, _ *gocui.View) error {
	if a.ex.Snapshot().Loading {
		return nil
	}
	c, ok := a.ex.Prepare()
	if !ok {
		return nil
	}
	go func() {
		a.ex.Dispatch(a.ctx, c)
		a.redraw()
	}()
	return nil
}

// redraw wakes whichever Gui is current. Between an $EDITOR suspension and
// the next NewGui there is none; the wake-up is then kept for Run, whose
// fresh Gui draws from the explorer on its first frame.
func (a *App) redraw() {
	a.guiMu.Lock()
	defer a.guiMu.Unlock()
	if a.g == nil {
		a.pendingRedraw = true
		return
	}
	a.g.Update(func(*gocui.Gui) error { return nil })
}

// attachGui installs g as the redraw target and reports whether a
// completed request arrived while no Gui was running.
func (a *App) attachGui(g *gocui.Gui) bool {
	a.guiMu.Lock()
	defer a.guiMu.Unlock()
	a.g = g
	pending := a.pendingRedraw
	a.pendingRedraw = false
	return pending
}

func (a *App) focusTree(*gocui.Gui, *gocui.View) error {
	a.pane = paneTree
	return nil
}

func (a *App) focusBody(*gocui.Gui, *gocui.View) error {
	if !a.ex.Snapshot().Method.AcceptsBody() {
		a.errorMsg = "the request body is only sent with PUT (press m)"
		return nil
	}
	a.pane = paneBody
	a.errorMsg = ""
	return nil
}

func (a *App) focusResponse(*gocui.Gui, *gocui.View) error {
	a.pane = paneResponse
	return nil
}

func (a *App) nextPane(*gocui.Gui, *gocui.View) error {
	switch a.pane {
	case paneTree:
		if a.ex.Snapshot().Method.AcceptsBody() {
			a.pane = paneBody
		} else {
			a.pane = paneResponse
		}
	case paneBody:
		a.pane = paneResponse
	default:
		a.pane = paneTree
	}
	return nil
}

func (a *App) scrollResponse(dx, dy int) func(*gocui.Gui, *gocui.View) error {
	return func(g *gocui.Gui, v *gocui.View) error {
		if v == nil {
			return nil
		}
		ox, oy := v.Origin()
		w, _ := v.Size()
		return v.SetOrigin(scrollOrigin(ox, oy, dx, dy, v.BufferLines(), w))
	}
}

func (a *App) scrollResponseHome(g *gocui.Gui, v *gocui.View) error {
	if v == nil {
		return nil
	}
	_, oy := v.Origin()
	return v.SetOrigin(0, oy)
}

func (a *App) editBodyInEditor(*gocui.Gui, *gocui.View) error {
	st := a.ex.Snapshot()
	if !st.Method.AcceptsBody() {
		a.errorMsg = "the request body is only sent with PUT (press m)"
		return nil
	}

	// Seed with the current body, otherwise with the documented example.
	seed := st.Body
	if seed == "" && st.Selected != "" {
		if op, ok := openapi.Find(a.ops, st.Method, st.Selected); ok {
			seed = openapi.BodyTemplate(op)
		}
	}
	if seed != "" && !strings.HasSuffix(seed, "\n") {
		seed += "\n"
	}

	f, err := os.CreateTemp("", "apitree-body-*.json")
	if err != nil {
		a.errorMsg = err.Error()
		return nil
	}
	defer f.Close()
	if _, err := f.WriteString(seed); err != nil {
		a.errorMsg = err.Error()
		return nil
	}
	a.suspendEditorFile = f.Name()
	return gocui.ErrQuit
}

func (a *App) openSearch(g *gocui.Gui, _ *gocui.View) error {
	maxX, maxY := g.Size()
	width := 50
	if width > maxX-4 {
		width = maxX - 4
	}
	x0 := (maxX - width) / 2
	y0 := maxY/2 - 1

	v, err := g.SetView("search", x0, y0, x0+width, y0+2)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Title = " search (enter=jump, esc=cancel) "
	v.Editable = true
	v.Editor = singleLineEditor{}
	v.Clear()
	_ = v.SetCursor(0, 0)
	a.prev = a.pane
	a.pane = paneSearch
	return nil
}

func (a *App) closeSearch(*gocui.Gui, *gocui.View) error {
	a.deleteView("search")
	a.pane = a.prev
	if a.pane == paneSearch {
		a.pane = paneTree
	}
	return nil
}

func (a *App) confirmSearch(g *gocui.Gui, v *gocui.View) error {
	pattern := strings.TrimSpace(viewText(v))
	if err := a.closeSearch(g, v); err != nil {
		return err
	}
	a.pane = paneTree
	row, ok := tree.Search(a.ex.Nodes(), pattern)
	if !ok {
		if pattern != "" {
			a.errorMsg = fmt.Sprintf("no node matches %q", pattern)
		}
		return nil
	}
	a.ex.Reveal(row.Key)
	if i := rowIndex(a.ex.Rows(), row.Key); i >= 0 {
		a.cursor = i
	}
	a.errorMsg = ""
	return nil
}

func (a *App) renderFooter(st explorer.State) {
	v, err := a.g.View("footer")
	if err != nil {
		return
	}
	v.Clear()
	if a.errorMsg != "" {
		fmt.Fprint(v, colorYellow+a.errorMsg+colorReset)
		return
	}
	fmt.Fprint(v, footerText(a.pane, st.Method))
}

func (a *App) renderTree(st explorer.State) {
	v, err := a.g.View("tree")
	if err != nil {
		return
	}
	v.Clear()
	rows := tree.Rows(a.ex.Nodes(), st.Expanded)
	a.cursor = clampCursor(a.cursor, len(rows))
	for _, r := range rows {
		fmt.Fprintln(v, treeLine(r, st.Selected))
	}

	_, h := v.Size()
	_, oy := v.Origin()
	if a.cursor < oy {
		oy = a.cursor
	} else if h > 0 && a.cursor >= oy+h {
		oy = a.cursor - h + 1
	}
	_ = v.SetOrigin(0, oy)
	_ = v.SetCursor(0, a.cursor-oy)
}

func (a *App) renderRequest(st explorer.State) {
	if v, err := a.g.View("method"); err == nil {
		v.Clear()
		fmt.Fprint(v, " "+colorizeMethod(st.Method))
	}
	if v, err := a.g.View("url"); err == nil {
		v.Clear()
		op, ok := openapi.Find(a.ops, st.Method, st.Selected)
		v.Title = requestTitle(op, ok && st.Selected != "")
		url := ""
		if st.Selected != "" {
			url = a.ex.URL()
		}
		fmt.Fprint(v, urlText(url))
	}
	if v, err := a.g.View("send"); err == nil {
		v.Clear()
		fmt.Fprint(v, "  "+sendLabel(st.Loading, st.Selected != ""))
	}
}

func (a *App) renderResponse(st explorer.State) {
	v, err := a.g.View("response")
	if err != nil {
		return
	}
	v.Title = responseTitle(st)
	text := explorer.FormatResponse(st.Response)
	if text != a.shownResp {
		_ = v.SetOrigin(0, 0)
		a.shownResp = text
	}
	v.Clear()
	fmt.Fprint(v, text)
}
