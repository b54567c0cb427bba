package gateway

import (
	"html/template"
	"net/http"
	"strings"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}} · Nova Bot Studio</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Body}}</p>
</body>
</html>
`))

type page struct {
	Title string
	Body  string
}

var knownPages = map[string]page{
	"/":       {"Nova Bot Studio", "Build and manage chat bots."},
	"/login":  {"Log in", "Sign in to continue to your dashboard."},
	"/signup": {"Sign up", "Create a Nova Bot Studio account."},
	"/home":   {"Dashboard", "Your bots at a glance."},
}

// placeholderPages renders a minimal page for each known route and for every
// /home sub-page. Anything else is a 404.
func placeholderPages() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := knownPages[r.URL.Path]
		if !ok && strings.HasPrefix(r.URL.Path, "/home/") {
			name := strings.TrimPrefix(r.URL.Path, "/home/")
			p, ok = page{Title: name, Body: "Dashboard section."}, true
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = pageTmpl.Execute(w, p)
	})
}
