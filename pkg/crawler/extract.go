package crawler

import (
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/websecscan/websecscan/pkg/regexcache"
	"github.com/websecscan/websecscan/pkg/scan"
)

// extracted is everything pulled out of one HTML document.
type extracted struct {
	links           []string
	forms           []scan.Form
	scriptEndpoints []scan.DiscoveredEndpoint
}

// extract tokenizes an HTML document and pulls out anchors, forms and
// script-referenced endpoints. Relative URLs are resolved against the
// page URL.
func extract(body, pageURL string) extracted {
	var ex extracted

	z := html.NewTokenizer(strings.NewReader(body))

	var form *scan.Form
	inScript := false

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}

		switch tt {
		case html.TextToken:
			if inScript {
				ex.scriptEndpoints = append(ex.scriptEndpoints, scriptEndpoints(string(z.Text()), pageURL)...)
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "a", "area":
				if href := attr(tok, "href"); href != "" {
					if abs := resolveURL(pageURL, href); abs != "" {
						ex.links = append(ex.links, abs)
					}
				}

			case "form":
				action := attr(tok, "action")
				abs := resolveURL(pageURL, action)
				if action == "" {
					// Formless action submits back to the page itself.
					abs = pageURL
				}
				method := strings.ToUpper(attr(tok, "method"))
				if method == "" {
					method = http.MethodGet
				}
				form = &scan.Form{
					PageURL: pageURL,
					Action:  abs,
					Method:  method,
				}
				if tt == html.SelfClosingTagToken {
					ex.forms = append(ex.forms, *form)
					form = nil
				}

			case "input", "select", "textarea":
				if form == nil {
					break
				}
				name := attr(tok, "name")
				fieldType := attr(tok, "type")
				if fieldType == "" {
					fieldType = tok.Data // select / textarea
					if tok.Data == "input" {
						fieldType = "text"
					}
				}
				form.Fields = append(form.Fields, scan.FormField{Name: name, Type: fieldType})

			case "script":
				if src := attr(tok, "src"); src != "" {
					if abs := resolveURL(pageURL, src); abs != "" {
						ex.scriptEndpoints = append(ex.scriptEndpoints, scan.DiscoveredEndpoint{
							URL:    abs,
							Method: http.MethodGet,
							Source: scan.SourceScript,
						})
					}
				} else if tt == html.StartTagToken {
					inScript = true
				}

			case "frame", "iframe":
				if src := attr(tok, "src"); src != "" {
					if abs := resolveURL(pageURL, src); abs != "" {
						ex.links = append(ex.links, abs)
					}
				}
			}

		case html.EndTagToken:
			tok := z.Token()
			switch tok.Data {
			case "form":
				if form != nil {
					ex.forms = append(ex.forms, *form)
					form = nil
				}
			case "script":
				inScript = false
			}
		}
	}

	return ex
}

func attr(tok html.Token, name string) string {
	for _, a := range tok.Attr {
		if a.Key == name {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// Inline-script patterns for endpoints called from JavaScript. These
// stay intentionally narrow: a missed endpoint just goes untested, but
// a junk match wastes governed request budget.
const (
	fetchCallPattern = `(?i)fetch\s*\(\s*['"]([^'"]+)['"]`
	ajaxURLPattern   = `(?i)\burl\s*:\s*['"]([^'"]+)['"]`
	xhrOpenPattern   = `(?i)\.open\s*\(\s*['"](GET|POST|PUT|DELETE|PATCH)['"]\s*,\s*['"]([^'"]+)['"]`
	apiPathPattern   = `['"](/(?:api|rest|v[0-9]+)/[A-Za-z0-9_\-./?=&]+)['"]`
)

// scriptEndpoints mines inline JavaScript for endpoint references.
func scriptEndpoints(script, pageURL string) []scan.DiscoveredEndpoint {
	var eps []scan.DiscoveredEndpoint

	add := func(method, ref string) {
		abs := resolveURL(pageURL, ref)
		if abs == "" {
			return
		}
		eps = append(eps, scan.DiscoveredEndpoint{
			URL:    abs,
			Method: method,
			Params: queryParams(abs),
			Source: scan.SourceScript,
		})
	}

	for _, m := range regexcache.MustGet(fetchCallPattern).FindAllStringSubmatch(script, -1) {
		add(http.MethodGet, m[1])
	}
	for _, m := range regexcache.MustGet(ajaxURLPattern).FindAllStringSubmatch(script, -1) {
		add(http.MethodGet, m[1])
	}
	for _, m := range regexcache.MustGet(xhrOpenPattern).FindAllStringSubmatch(script, -1) {
		add(strings.ToUpper(m[1]), m[2])
	}
	for _, m := range regexcache.MustGet(apiPathPattern).FindAllStringSubmatch(script, -1) {
		add(http.MethodGet, m[1])
	}

	return eps
}
