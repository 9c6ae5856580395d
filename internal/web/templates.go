package web

import (
	"html/template"
	"io"
	"net/url"
	"strings"
)

var templateFuncs = template.FuncMap{
	"queryLink": func(q string) string {
		return "/?q=" + strings.ReplaceAll(url.QueryEscape(q), "+", "%20")
	},
}

var pageTemplate = template.Must(template.New("page").Funcs(templateFuncs).Parse(pageHTML))

type pageData struct {
	View        viewModel
	Prefill     string
	SortByTotal bool
}

func renderPage(w io.Writer, data pageData) error {
	return pageTemplate.Execute(w, data)
}

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Pieza - Find furniture</title>
</head>
<body>
<header>
  <h1>Pieza</h1>
  <p>Describe the piece you have in mind and refine it in plain words.</p>
</header>

<main>
<form method="post" action="/search" class="search">
  <input type="text" name="query" value="{{.Prefill}}" placeholder="{{.View.Placeholder}}" autocomplete="off"{{if .View.IsSearching}} disabled{{end}}>
  <button type="submit"{{if .View.IsSearching}} disabled{{end}}>{{.View.SubmitLabel}}</button>
</form>

{{if .View.ShowTransientError}}
<div class="error" role="alert">Search failed. Please try again.</div>
{{end}}

{{if .View.HasResults}}
<section class="refinements">
  <span>Quick refinements:</span>
  {{range .View.QuickRefinements}}
  <a class="chip" href="{{queryLink .}}">{{.}}</a>
  {{end}}
</section>
{{else}}
<section class="examples">
  <span>Try one of these:</span>
  <ul>
  {{range .View.ExamplePrompts}}<li><a href="{{queryLink .}}">{{.}}</a></li>
  {{end}}
  </ul>
</section>
{{end}}

{{if .View.ShowHistory}}
<section class="history">
  <h3>Recent searches</h3>
  <ol>
  {{range .View.RecentHistory}}<li>{{.}}</li>
  {{end}}
  </ol>
</section>
{{end}}

{{if .View.ShowResultsSection}}
<section class="results">
  <div class="results-header">
    <h2>{{.View.Heading}}</h2>
    {{if .View.HasResults}}
    <p class="note">Sorted by visual similarity</p>
    <nav>{{if .SortByTotal}}<a href="/">Best match first</a>{{else}}<a href="/?sort=total">Lowest total cost first</a>{{end}}</nav>
    <form method="post" action="/start-over"><button type="submit">Start over</button></form>
    {{end}}
  </div>

  {{if .View.ShowEmptyState}}
  <div class="empty">
    <p>No furniture matches your search criteria.</p>
    <p>Try adjusting your search terms or try a different description.</p>
    <form method="post" action="/start-over"><button type="submit">Start over</button></form>
  </div>
  {{end}}

  <div class="grid">
  {{range .View.Cards}}
    <article class="card">
      {{if .Image}}<img src="{{.Image}}" alt="{{.Name}}" loading="lazy">{{end}}
      <span class="badge">{{.Match}}% match</span>
      <h3>{{.Name}}</h3>
      {{if .Condition}}<p class="condition">{{.Condition}}</p>{{end}}
      <p class="price">{{.Price}}</p>
      {{if .Location}}<p class="location">{{.Location}}</p>{{end}}
      <p class="shipping">Shipping: {{.Shipping}}</p>
      <p class="rating">Seller rating: {{.Rating}}</p>
      <a href="{{.URL}}" target="_blank" rel="noopener noreferrer">View listing</a>
    </article>
  {{end}}
  </div>
</section>
{{end}}
</main>
</body>
</html>
`
