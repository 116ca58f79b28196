package ui

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"idrecon/internal/ui/assets"
	"idrecon/internal/upload"
)

// maxUploadBody bounds a multipart upload request: the file plus form
// overhead.
const maxUploadBody = upload.MaxFileSize + 1<<20

// MountRoutes registers the dashboard under the router it is given, which
// is expected at /ui behind session.Middleware.
func MountRoutes(r chi.Router, h *Handler) {
	staticFS, err := fs.Sub(assets.StaticFS(), "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/ui/static/", http.FileServer(http.FS(staticFS))))
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.RequestSize(maxUploadBody))
		r.Use(h.EnsureCSRFToken)
		r.Use(h.RequireCSRF)

		r.Get("/login", h.LoginPage)
		r.Post("/login", h.LoginSubmit)
		r.Post("/logout", h.Logout)
		r.Post("/prefs/theme", h.ThemeToggle)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireLogin)
			r.Use(h.LoadPrincipal)

			r.Get("/", h.Home)
			r.Get("/duplicates", h.Duplicates)
			r.Get("/security", h.Security)
			r.Get("/export/consolidated.xlsx", h.ExportConsolidated)

			r.Route("/views/{view}", func(r chi.Router) {
				r.Get("/table", h.ViewTable)
				r.Get("/more", h.ViewMore)
				r.Get("/export", h.ViewExport)
				r.Get("/export.xlsx", h.ViewExportXLSX)
			})

			for key := range treePages {
				r.Get("/"+key, h.TreePage(key))
				r.Get("/"+key+"/tree", h.TreeFragment(key))
				r.Get("/"+key+"/members", h.TreeMembers(key))
			}

			r.Get("/users", h.Users)
			r.Get("/users/list", h.UserList)
			r.Get("/cards/user", h.UserCard)
			r.Get("/cards/dn", h.DNCard)

			r.Get("/upload", h.UploadPage)
			r.Post("/upload/*", h.UploadSource)
			r.Post("/clear/*", h.ClearSource)
			r.Post("/clear-all", h.ClearAll)
		})
	})
}
