package httpx

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"
)

// landingPage is served after a flow that returns from a third-party origin.
// Browsers withhold SameSite=Strict cookies on a redirect chain that began
// cross-site, so the final hop is a navigation started by this same-origin
// document instead of a 302.
var landingPage = template.Must(template.New("landing").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="0;url={{.}}">
<title>Signing you in</title>
</head>
<body>
<p>Signing you in&hellip; <a href="{{.}}">Continue</a></p>
</body>
</html>
`))

// writeLanding renders landingPage pointing at target, which must be a
// local absolute path.
func writeLanding(w http.ResponseWriter, target string) {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		target = "/"
	}
	var buf bytes.Buffer
	if err := landingPage.Execute(&buf, target); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	h.Set("Referrer-Policy", "no-referrer")
	h.Set("Content-Security-Policy", "default-src 'none'")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
