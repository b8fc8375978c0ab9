package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"time"

	"github.com/gin-gonic/gin/render"

	"github.com/dfryer1193/inkwell/blog/application"
	"github.com/dfryer1193/inkwell/blog/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	layoutFile = "templates/base.layout.html"

	listPage   = "list.page.html"
	detailPage = "detail.page.html"
	formPage   = "form.page.html"
	deletePage = "delete.page.html"
	loginPage  = "login.page.html"
	errorPage  = "error.page.html"
)

// HTMLData is the single view model handed to every page.
type HTMLData struct {
	Title        string
	Path         string
	CurrentUser  *domain.Author
	RequiresAuth bool

	Post      *application.RenderedPost
	Posts     []*application.RenderedPost
	CanMutate bool

	// Form state for the post and login forms.
	Action    string
	FormData  map[string]string
	Errors    map[string]string
	FormError string
	Next      string
	IsNew     bool

	Status  int
	Message string
}

var functions = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006, 15:04")
	},
	"formatDatePtr": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("02 Jan 2006, 15:04")
	},
}

// pageRenderer parses each page together with the base layout once, at
// startup, and serves them through gin's HTML renderer hook.
type pageRenderer struct {
	pages map[string]*template.Template
}

var _ render.HTMLRender = (*pageRenderer)(nil)

func newPageRenderer() (*pageRenderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.page.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		t, err := template.New("").Funcs(functions).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", file, err)
		}
		pages[file[len("templates/"):]] = t
	}

	return &pageRenderer{pages: pages}, nil
}

func (r *pageRenderer) Instance(name string, data any) render.Render {
	t, ok := r.pages[name]
	if !ok {
		panic(fmt.Sprintf("unknown page template %q", name))
	}
	return render.HTML{Template: t, Name: "base", Data: data}
}
