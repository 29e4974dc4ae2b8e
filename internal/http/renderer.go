package httpx

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/bullboard/internal/util"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// ErrTemplateExecution marks a render that failed before anything was written.
var ErrTemplateExecution = errors.New("template execution failed")

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	t        *template.Template
	location *time.Location
	logger   *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS          // Optional: defaults to the embedded templates
	Location   *time.Location // Optional: timestamp zone, defaults to UTC
	Logger     *slog.Logger   // Optional
}

// NewTemplateRenderer constructs a renderer by parsing every *.tmpl file of the configured filesystem.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	fsys := cfg.TemplateFS
	if fsys == nil {
		sub, err := fs.Sub(templateFS, "templates")
		if err != nil {
			return nil, err
		}
		fsys = sub
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer := &TemplateRenderer{location: loc, logger: logger}
	t, err := template.New("root").Funcs(renderer.funcs()).ParseFS(fsys, "*.tmpl")
	if err != nil {
		logger.Error("template parsing failed",
			slog.Any("error", err),
			slog.String("phase", "initialization"),
		)
		return nil, err
	}
	renderer.t = t
	return renderer, nil
}

// MustNewTemplateRenderer is NewTemplateRenderer that panics on error.
func MustNewTemplateRenderer(cfg TemplateRendererConfig) *TemplateRenderer {
	r, err := NewTemplateRenderer(cfg)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *TemplateRenderer) funcs() template.FuncMap {
	return template.FuncMap{
		"statusLabel": util.StatusLabel,
		"statusColor": util.StatusColor,
		"jobCount":    util.FormatJobCount,
		"formatTime": func(ms any) string {
			switch v := ms.(type) {
			case *int64:
				return util.FormatTimestamp(v, r.location)
			case int64:
				return util.FormatTimestamp(&v, r.location)
			default:
				return util.NotAvailable
			}
		},
	}
}

// Render executes the named template with status 200.
func (r *TemplateRenderer) Render(w http.ResponseWriter, name string, data any) error {
	return r.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus executes the named template into a buffer and writes it with status.
func (r *TemplateRenderer) RenderStatus(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("template execution failed",
			slog.String("template", name),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w: %w", ErrTemplateExecution, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template",
			slog.String("template", name),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}
