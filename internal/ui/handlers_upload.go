package ui

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"idrecon/internal/backend"
	"idrecon/internal/upload"

	gomponents "maragu.dev/gomponents"
)

const uploadPath = "/ui/upload"

func sourceSlug(key string) string {
	if key == "" {
		return "all"
	}
	return strings.ReplaceAll(key, "/", "-")
}

// UploadPage lists the sources with their upload and clear controls.
func (h *Handler) UploadPage(w http.ResponseWriter, r *http.Request) {
	stats, err := h.client(r).Stats(r.Context())
	if err != nil {
		if backend.IsUnauthorized(err) {
			h.redirectToLogin(w, r)
			return
		}
		h.log(r.Context()).Warn("stats unavailable", "error", err)
	}
	renderHTML(w, http.StatusOK, appPage(r, "Загрузка данных", "upload", uploadPage(r, stats, err)))
}

// UploadSource accepts one source file.
func (h *Handler) UploadSource(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if _, err := upload.Lookup(key); err != nil {
		h.sourceStatus(w, r, key, upload.ErrorStatus(err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.sourceStatus(w, r, key, upload.Status{Text: "Файл не выбран"})
		return
	}
	defer file.Close()

	res, err := upload.NewService(h.client(r), h.log(r.Context())).Upload(r.Context(), key, header.Filename, file)
	if err != nil {
		h.actionFailed(w, r, key, err)
		return
	}
	h.session(r).InvalidateViews()
	h.sourceStatus(w, r, key, upload.UploadStatus(res))
}

// ClearSource deletes one source. Without confirm=yes only the
// confirmation prompt is returned.
func (h *Handler) ClearSource(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	_ = r.ParseForm()
	confirmed := formBool(r.Form, "confirm")
	res, err := upload.NewService(h.client(r), h.log(r.Context())).Clear(r.Context(), key, confirmed)
	if errors.Is(err, upload.ErrNotConfirmed) {
		h.confirmClear(w, r, key)
		return
	}
	if err != nil {
		h.actionFailed(w, r, key, err)
		return
	}
	h.session(r).InvalidateViews()
	h.sourceStatus(w, r, key, upload.ClearStatus(res))
}

// ClearAll deletes every source after confirmation.
func (h *Handler) ClearAll(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	confirmed := formBool(r.Form, "confirm")
	res, err := upload.NewService(h.client(r), h.log(r.Context())).ClearAll(r.Context(), confirmed)
	if errors.Is(err, upload.ErrNotConfirmed) {
		h.confirmClear(w, r, "")
		return
	}
	if err != nil {
		h.actionFailed(w, r, "", err)
		return
	}
	h.session(r).InvalidateViews()
	h.sourceStatus(w, r, "", upload.ClearAllStatus(res))
}

func (h *Handler) actionFailed(w http.ResponseWriter, r *http.Request, key string, err error) {
	if backend.IsUnauthorized(err) {
		h.redirectToLogin(w, r)
		return
	}
	h.log(r.Context()).Error("source action failed", "source", key, "error", err)
	h.sourceStatus(w, r, key, upload.ErrorStatus(err))
}

func (h *Handler) confirmClear(w http.ResponseWriter, r *http.Request, key string) {
	if !isFragmentRequest(r) {
		http.Redirect(w, r, uploadPath, http.StatusSeeOther)
		return
	}
	renderPatch(w, "", patchOuter, clearConfirmation(r, key))
}

// sourceStatus answers an upload or clear action with the source status and
// fresh stats. Plain form posts go back to the upload page.
func (h *Handler) sourceStatus(w http.ResponseWriter, r *http.Request, key string, st upload.Status) {
	if !isFragmentRequest(r) {
		http.Redirect(w, r, uploadPath, http.StatusSeeOther)
		return
	}
	nodes := []gomponents.Node{statusBox(key, st)}
	if st.OK {
		stats, err := h.client(r).Stats(r.Context())
		nodes = append(nodes, statsBox(stats, err))
	}
	renderPatch(w, "", patchOuter, nodes...)
}
