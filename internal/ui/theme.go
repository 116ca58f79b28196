package ui

import (
	"net/http"
	"net/url"

	"idrecon/internal/prefs"
)

// themeInitScript resolves the "auto" preference against the system scheme
// before first paint and follows later system changes. The stored choice
// itself lives in the ui_theme cookie and is rendered into data-theme.
const themeInitScript = `(function(){
  var root=document.documentElement;
  var media=window.matchMedia('(prefers-color-scheme: dark)');
  function apply(){
    var selected=root.getAttribute('data-theme')||'auto';
    var resolved=selected==='auto'?(media.matches?'dark':'light'):selected;
    root.setAttribute('data-resolved-theme',resolved);
  }
  apply();
  if(media.addEventListener){
    media.addEventListener('change', apply);
  } else if(media.addListener){
    media.addListener(apply);
  }
})();`

// ThemeToggle advances the theme preference auto → light → dark → auto and
// returns to the page the form was posted from.
func (h *Handler) ThemeToggle(w http.ResponseWriter, r *http.Request) {
	store := h.prefs(w, r)
	prefs.SetTheme(store, prefs.ThemeOf(store).Next())
	http.Redirect(w, r, backTarget(r), http.StatusSeeOther)
}

// backTarget returns the same-origin /ui path of the Referer, or /ui.
func backTarget(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != r.Host) {
		return "/ui"
	}
	if len(ref.Path) < 3 || ref.Path[:3] != "/ui" {
		return "/ui"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}
