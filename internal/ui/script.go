package ui

import (
	"encoding/json"
	"io/fs"
	"path"
	"strings"
	"sync"

	"idrecon/internal/ui/assets"
)

const defaultScriptPrefix = "/ui/static/js/"

var (
	scriptManifestOnce sync.Once
	scriptManifest     map[string]string
)

// uiScriptHref resolves a script name through the optional hashed-name
// manifest in static/js/manifest.json.
func uiScriptHref(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || path.Base(name) != name || path.Ext(name) != ".js" {
		return defaultScriptPrefix + "app.js"
	}

	scriptManifestOnce.Do(func() {
		scriptManifest = readManifest("static/js/manifest.json")
	})

	target := name
	if hashed := strings.TrimSpace(scriptManifest[name]); hashed != "" && path.Base(hashed) == hashed && path.Ext(hashed) == ".js" {
		target = hashed
	}
	return defaultScriptPrefix + target
}

func readManifest(name string) map[string]string {
	manifest := map[string]string{}
	raw, err := fs.ReadFile(assets.StaticFS(), name)
	if err != nil {
		return manifest
	}
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return map[string]string{}
	}
	return manifest
}
