package views

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// page wraps body in the admin layout.
func page(title string, body func(b *strings.Builder)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		b.WriteString(`<title>` + templ.EscapeString(title) + `</title>`)
		b.WriteString(`<link rel="stylesheet" href="/public/admin.css"></head><body><div class="wrap">`)
		body(&b)
		b.WriteString(`</div></body></html>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func csrfField(b *strings.Builder, token string) {
	b.WriteString(`<input type="hidden" name="_csrf" value="` + templ.EscapeString(token) + `">`)
}

// AdminLogin renders the password form.
func AdminLogin(showError bool, csrfToken string) templ.Component {
	return page("Log in", func(b *strings.Builder) {
		b.WriteString(`<h1>TextBulker admin</h1>`)
		if showError {
			b.WriteString(`<p class="notice error">Invalid password.</p>`)
		}
		b.WriteString(`<form method="post" action="/admin/login/">`)
		csrfField(b, csrfToken)
		b.WriteString(`<label for="password">Password</label>`)
		b.WriteString(`<input type="password" id="password" name="password" autofocus>`)
		b.WriteString(`<button type="submit">Log in</button></form>`)
	})
}

// Plugins renders the plugins list with each entry's action links.
func Plugins(entries []PluginEntry, csrfToken string) templ.Component {
	return page("Plugins", func(b *strings.Builder) {
		b.WriteString(`<h1>Plugins</h1><table class="plugins"><tbody>`)
		for _, p := range entries {
			class := "inactive"
			if p.Active {
				class = "active"
			}
			b.WriteString(`<tr class="` + class + `" data-plugin="` + templ.EscapeString(p.File) + `">`)
			b.WriteString(`<td><strong>` + templ.EscapeString(p.Name) + `</strong>`)
			if len(p.ActionLinks) > 0 {
				b.WriteString(`<div class="row-actions">` + strings.Join(p.ActionLinks, " | ") + `</div>`)
			}
			b.WriteString(`</td><td>` + templ.EscapeString(p.Description) + `</td></tr>`)
		}
		b.WriteString(`</tbody></table>`)
		b.WriteString(`<form method="post" action="/admin/logout/">`)
		csrfField(b, csrfToken)
		b.WriteString(`<button type="submit">Log out</button></form>`)
	})
}

// Settings renders the settings form and the diagnostics panel.
func Settings(p SettingsPage) templ.Component {
	return page(p.Title, func(b *strings.Builder) {
		b.WriteString(`<h1>` + templ.EscapeString(p.Title) + `</h1>`)
		if p.Message != "" {
			b.WriteString(`<p class="notice">` + templ.EscapeString(p.Message) + `</p>`)
		}
		b.WriteString(`<form method="post" action="">`)
		csrfField(b, p.CSRFToken)
		b.WriteString(`<h2>` + templ.EscapeString(p.Section) + `</h2><table class="form-table"><tbody>`)
		for _, f := range p.Fields {
			name := templ.EscapeString(f.Name)
			b.WriteString(`<tr><th scope="row">` + templ.EscapeString(f.Label) + `</th><td>`)
			b.WriteString(`<input type="checkbox" name="` + name + `" value="1"`)
			if f.Checked {
				b.WriteString(` checked='checked'`)
			}
			b.WriteString(` /></td></tr>`)
		}
		b.WriteString(`</tbody></table><button type="submit">Save Changes</button></form>`)
		b.WriteString(`<hr><h2>Diagnostics</h2><ul class="diagnostics">`)
		for _, d := range p.Diagnostics {
			class := "off"
			if d.OK {
				class = "on"
			}
			b.WriteString(`<li class="` + class + `">` + templ.EscapeString(d.Text) + `</li>`)
		}
		b.WriteString(`</ul>`)
	})
}

// NotFound renders the admin 404 page.
func NotFound() templ.Component {
	return page("Not found", func(b *strings.Builder) {
		b.WriteString(`<h1>Not found</h1><p>The page you requested does not exist.</p>`)
	})
}

// ServerError renders the admin 500 page.
func ServerError() templ.Component {
	return page("Error", func(b *strings.Builder) {
		b.WriteString(`<h1>Something went wrong</h1><p>Please try again later.</p>`)
	})
}
