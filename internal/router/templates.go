package router

import (
	"fmt"
	"html/template"
	"log"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
	"yatube/internal/services"
	"yatube/internal/utils"

	"github.com/gin-contrib/multitemplate"
)

var ruMonths = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// TemplateFuncs are the helpers available in every template.
func TemplateFuncs(media services.MediaStore) template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"date": func(t time.Time) string {
			return fmt.Sprintf("%d %s %d", t.Day(), ruMonths[t.Month()-1], t.Year())
		},
		"markdown": utils.RenderMarkdown,
		"truncate": func(s string, n int) string {
			if utf8.RuneCountInString(s) <= n {
				return s
			}
			return string([]rune(s)[:n]) + "…"
		},
		"mediaURL": media.URL,
		"idstr": func(id uint) string {
			return fmt.Sprint(id)
		},
	}
}

// LoadTemplates registers every view under views/ by its path relative to
// views/, e.g. "posts/index.html", on top of the shared layout, includes and
// components.
func LoadTemplates(templatesDir string, media services.MediaStore) multitemplate.Renderer {
	r := multitemplate.NewRenderer()
	funcMap := TemplateFuncs(media)

	layouts := mustGlob(templatesDir + "/layouts/*.html")
	includes := mustGlob(templatesDir + "/includes/*.html")
	components := mustGlob(templatesDir + "/components/*.html")

	assemble := func(view string) []string {
		files := make([]string, 0, len(layouts)+len(includes)+len(components)+1)
		files = append(files, layouts...)
		files = append(files, includes...)
		files = append(files, components...)
		files = append(files, view)
		return files
	}

	viewsDir := filepath.Join(templatesDir, "views")
	views := append(mustGlob(viewsDir+"/*.html"), mustGlob(viewsDir+"/*/*.html")...)
	for _, view := range views {
		rel, err := filepath.Rel(viewsDir, view)
		if err != nil {
			log.Fatalf("Failed to resolve template %s: %v", view, err)
		}
		name := strings.ReplaceAll(rel, string(filepath.Separator), "/")
		r.AddFromFilesFuncs(name, funcMap, assemble(view)...)
	}
	return r
}

func mustGlob(pattern string) []string {
	files, err := filepath.Glob(pattern)
	if err != nil {
		panic(err)
	}
	return files
}
