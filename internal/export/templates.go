package export

const documentTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Project.Name}}</title>
<style>{{.CSS}}</style>
</head>
<body>
<header>
  <h1>{{.Project.Name}}</h1>
  {{if .Project.Description}}<p class="description">{{.Project.Description}}</p>{{end}}
</header>
<main>
{{range .Flows}}
  <section class="flow depth-{{.Depth}}{{if .Branch}} branch{{end}}">
    <h2>{{.Flow.Name}}{{if .Branch}} <span class="badge">branch</span>{{end}}</h2>
    {{if .Flow.Description}}<p class="description">{{.Flow.Description}}</p>{{end}}
    {{range .Screens}}
    <article class="screen level-{{.Screen.Level}}">
      <h3>{{if .Screen.DisplayName}}{{.Screen.DisplayName}}{{else}}{{.Screen.Title}}{{end}}</h3>
      {{if .Screen.ScreenshotURL}}<img src="{{.Screen.ScreenshotURL}}" alt="{{.Screen.Title}}" loading="lazy">{{end}}
      {{if .Notes}}<div class="notes">{{.Notes}}</div>{{end}}
    </article>
    {{end}}
  </section>
{{end}}
</main>
</body>
</html>
`

const cssContent = `
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
       margin: 0 auto; max-width: 960px; padding: 2rem; color: #1f2937; }
header { border-bottom: 2px solid #e5e7eb; margin-bottom: 2rem; }
.description { color: #6b7280; }
.flow { margin-bottom: 3rem; }
.flow.depth-1 { margin-left: 1.5rem; }
.flow.depth-2 { margin-left: 3rem; }
.flow.depth-3 { margin-left: 4.5rem; }
.flow.branch > h2 { color: #7c3aed; }
.badge { font-size: 0.7em; background: #ede9fe; color: #7c3aed;
         border-radius: 4px; padding: 2px 6px; vertical-align: middle; }
.screen { margin: 1rem 0; padding: 1rem; border: 1px solid #e5e7eb; border-radius: 8px; }
.screen.level-1 { margin-left: 1.5rem; }
.screen.level-2 { margin-left: 3rem; }
.screen.level-3 { margin-left: 4.5rem; }
.screen img { max-width: 100%; border-radius: 4px; border: 1px solid #e5e7eb; }
.notes { margin-top: 0.5rem; }
.notes pre { background: #f9fafb; padding: 0.75rem; border-radius: 4px; overflow-x: auto; }
`
