package ui

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"idrecon/internal/backend"
	"idrecon/internal/export"
	"idrecon/internal/session"
	"idrecon/internal/table"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// resolveView looks up the view named in the URL and makes sure its data
// is loaded. It writes the response and returns false on failure.
func (h *Handler) resolveView(w http.ResponseWriter, r *http.Request) (viewDef, *session.Session, *table.View, bool) {
	def, ok := lookupView(chi.URLParam(r, "view"))
	if !ok {
		http.NotFound(w, r)
		return viewDef{}, nil, nil, false
	}
	sess := h.session(r)
	v, err := h.view(r, sess, def)
	if err != nil {
		h.handleBackendError(w, r, err)
		return viewDef{}, nil, nil, false
	}
	if err := h.ensureLoaded(r.Context(), r, sess, def, v, false); err != nil {
		if backend.IsUnauthorized(err) {
			h.redirectToLogin(w, r)
			return viewDef{}, nil, nil, false
		}
		h.log(r.Context()).Warn("view load failed", "view", def.Name, "error", err)
	}
	return def, sess, v, true
}

// ViewTable applies one state change (search, sort, column filter or
// reset) and re-renders the grid from the first chunk.
func (h *Handler) ViewTable(w http.ResponseWriter, r *http.Request) {
	def, _, v, ok := h.resolveView(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	reset := q.Get("reset") != ""
	switch {
	case reset:
		v.Reset()
	case q.Has("q"):
		v.SetGlobal(q.Get("q"))
	case q.Get("sort") != "":
		v.ToggleSort(q.Get("sort"))
	case q.Get("col") != "":
		v.SetColumnFilter(q.Get("col"), q.Get("value"))
	default:
		v.Rewind()
	}
	v.NextChunk()

	if reset {
		renderPatch(w, "", patchOuter, tableSearch(def.Name, ""), exportNotice(def.Name, nil), tableGrid(def, v))
		return
	}
	renderPatch(w, "", patchOuter, tableGrid(def, v))
}

// ViewMore appends the next chunk to the table body. Rows sent before stay
// in the page; only the sentinel and the footer are replaced.
func (h *Handler) ViewMore(w http.ResponseWriter, r *http.Request) {
	def, _, v, ok := h.resolveView(w, r)
	if !ok {
		return
	}
	win := v.Advance()
	cols := v.Columns()

	var patches []patch
	switch {
	case len(win.Rows) == 0:
	case len(win.Before) == 0:
		// The body still holds a placeholder row.
		body := TBody(ID(rowsID(def.Name)), Group(tableRows(def, cols, nil, win.Rows)))
		patches = append(patches, patch{Nodes: []Node{body}})
	default:
		patches = append(patches, patch{
			Selector: "#" + rowsID(def.Name),
			Mode:     patchAppend,
			Nodes:    tableRows(def, cols, win.Before, win.Rows),
		})
	}
	patches = append(patches,
		patch{Nodes: []Node{moreSentinel(def.Name, win.Footer.Rendered, win.More)}},
		patch{Nodes: []Node{tableFooter(def.Name, win.Footer)}},
	)
	renderPatches(w, patches...)
}

// ViewExport answers the export button: a notice for an empty view, or a
// hidden frame that downloads the workbook.
func (h *Handler) ViewExport(w http.ResponseWriter, r *http.Request) {
	def, _, v, ok := h.resolveView(w, r)
	if !ok {
		return
	}
	if len(v.Visible()) == 0 {
		renderPatch(w, "", patchOuter, exportNotice(def.Name, flashInline(export.ErrNoRows.Error())))
		return
	}
	renderPatch(w, "", patchOuter, exportNotice(def.Name, exportFrame(def.Name, time.Now().UnixNano())))
}

// ViewExportXLSX streams the workbook of the view's filtered rows in
// display order.
func (h *Handler) ViewExportXLSX(w http.ResponseWriter, r *http.Request) {
	def, sess, v, ok := h.resolveView(w, r)
	if !ok {
		return
	}
	filename, sheet := def.Export(sess)
	req, err := export.NewRequest(v.Columns(), v.Visible(), filename, sheet)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	dl, err := export.NewService(h.client(r)).Table(r.Context(), req)
	if err != nil {
		h.downloadFailed(w, r, err)
		return
	}
	h.writeDownload(w, r, dl)
}

// ExportConsolidated streams the backend's full consolidated workbook.
func (h *Handler) ExportConsolidated(w http.ResponseWriter, r *http.Request) {
	dl, err := export.NewService(h.client(r)).Consolidated(r.Context())
	if err != nil {
		h.downloadFailed(w, r, err)
		return
	}
	h.writeDownload(w, r, dl)
}

func (h *Handler) downloadFailed(w http.ResponseWriter, r *http.Request, err error) {
	h.log(r.Context()).Error("export failed", "path", r.URL.Path, "error", err)
	status := http.StatusBadGateway
	if backend.IsUnauthorized(err) {
		status = http.StatusUnauthorized
	}
	http.Error(w, errorText(err), status)
}

func (h *Handler) writeDownload(w http.ResponseWriter, r *http.Request, dl *backend.Download) {
	defer dl.Body.Close()
	ct := dl.ContentType
	if ct == "" {
		ct = backend.XLSXContentType
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Filename}))
	if dl.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(dl.Size, 10))
	}
	if _, err := io.Copy(w, dl.Body); err != nil && !errors.Is(err, r.Context().Err()) {
		h.log(r.Context()).Warn("download interrupted", "filename", dl.Filename, "error", err)
	}
}
