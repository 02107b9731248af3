package sandbox

import (
	"bytes"
	"fmt"
	"html/template"
)

// FramePermissions is the fixed capability set granted to the isolated
// context. Hosted code can run scripts, show dialogs, submit forms, open
// popups and use its own same-origin storage, and nothing else, no matter
// what it asks for.
const FramePermissions = "allow-scripts allow-modals allow-forms allow-popups allow-same-origin"

// errorBootstrap is injected into the frame document ahead of the project's
// own code, so that synchronous and asynchronous script errors are trapped
// inside the frame and rendered as an error panel instead of reaching the
// host page.
const errorBootstrap = `<script>
(function () {
  "use strict";
  function panel(message) {
    var render = function () {
      document.body.innerHTML = "";
      var box = document.createElement("div");
      box.setAttribute("style",
        "margin:24px;padding:16px 20px;border:1px solid #f85149;border-radius:6px;" +
        "background:#1c0f10;color:#f85149;font-family:monospace;");
      var heading = document.createElement("strong");
      heading.textContent = "Project error";
      var body = document.createElement("pre");
      body.setAttribute("style", "margin:8px 0 0;white-space:pre-wrap;color:#e6edf3;");
      body.textContent = message;
      box.appendChild(heading);
      box.appendChild(body);
      document.body.appendChild(box);
    };
    if (document.body) {
      render();
    } else {
      document.addEventListener("DOMContentLoaded", render);
    }
  }
  window.addEventListener("error", function (e) {
    panel(e.message || String(e.error || "unknown error"));
    e.preventDefault();
  });
  window.addEventListener("unhandledrejection", function (e) {
    panel(String(e.reason || "unhandled rejection"));
    e.preventDefault();
  });
})();
</script>`

var hostPageTmpl = template.Must(template.New("host").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} — webshelf</title>
<style>
html, body { margin: 0; height: 100%; background: #0d1117; color: #e6edf3; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; }
header { display: flex; align-items: center; gap: 12px; padding: 10px 16px; border-bottom: 2px solid {{.Accent}}; }
header h1 { font-size: 16px; margin: 0; font-weight: 600; }
header a { margin-left: auto; color: #8b949e; text-decoration: none; font-size: 14px; }
iframe { display: block; width: 100%; height: calc(100vh - 43px); border: 0; background: #fff; }
</style>
</head>
<body>
<header><h1>{{.Title}}</h1><a href="/">close</a></header>
<iframe src="{{.FrameURL}}" sandbox="{{.Permissions}}"></iframe>
</body>
</html>
`))

var accentCSS = map[string]string{
	"indigo": "#6366f1",
	"teal":   "#14b8a6",
	"amber":  "#f59e0b",
	"rose":   "#f43f5e",
	"slate":  "#64748b",
}

// HostPage renders the viewer shell: a header plus the sandboxed iframe
// pointing at the session's isolated frame document.
func HostPage(s Session, frameURL string) ([]byte, error) {
	accent, ok := accentCSS[s.AccentColor]
	if !ok {
		accent = accentCSS["indigo"]
	}
	var buf bytes.Buffer
	err := hostPageTmpl.Execute(&buf, struct {
		Title       string
		Accent      template.CSS
		FrameURL    string
		Permissions string
	}{
		Title:       s.Title,
		Accent:      template.CSS(accent),
		FrameURL:    frameURL,
		Permissions: FramePermissions,
	})
	if err != nil {
		return nil, fmt.Errorf("render host page: %w", err)
	}
	return buf.Bytes(), nil
}

// FrameDocument builds the isolated document: charset, the error bootstrap,
// then the project's code verbatim. The bootstrap MUST precede the code so
// even a parse-time throw is trapped.
func FrameDocument(s Session) []byte {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	buf.WriteString(errorBootstrap)
	buf.WriteString("\n</head>\n<body>\n")
	buf.WriteString(s.Code)
	buf.WriteString("\n</body>\n</html>\n")
	return buf.Bytes()
}

// PlaceholderPage is served when no session is loaded (not yet created, or
// expired). No isolated context is built for it.
func PlaceholderPage() []byte {
	return []byte(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>webshelf</title>
<style>
html, body { margin: 0; height: 100%; display: grid; place-items: center; background: #0d1117; color: #8b949e; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; }
</style>
</head>
<body><p>Loading project&hellip;</p></body>
</html>
`)
}
