// Package snippet renders integration boilerplate for a registry node.
//
// Every generator is a pure function of the node, the namespace and the
// generation time carried in Context. Free text is escaped for the target
// format, so a name with quotes or line breaks still yields well-formed output.
package snippet

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/aretw0/oidtree/pkg/domain"
)

// Format is the stable key of a generator.
type Format string

const (
	FormatFHIR     Format = "fhir"
	FormatMCP      Format = "mcp"
	FormatX509     Format = "x509"
	FormatAPI      Format = "api"
	FormatDatabase Format = "database"
	FormatQRCode   Format = "qrcode"
)

var (
	// ErrUnknownFormat is returned by Render for a key not in the catalogue.
	ErrUnknownFormat = errors.New("unknown snippet format")
	// ErrNoNode is returned when a generator is called without a node.
	ErrNoNode = errors.New("no node to render")
)

// Context carries the inputs every generator shares besides the node.
type Context struct {
	Namespace domain.Namespace
	// Now is embedded by the x509 and qrcode generators. Zero means time.Now().
	Now time.Time
}

// NewContext returns a Context for ns stamped with the current time.
func NewContext(ns domain.Namespace) Context {
	return Context{Namespace: ns, Now: time.Now()}
}

// Generator describes one output format.
type Generator struct {
	Format      Format `json:"format"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`

	render func(view) (string, error)
}

// Snippet is one rendered output.
type Snippet struct {
	Format   Format `json:"format"`
	Title    string `json:"title"`
	Language string `json:"language"`
	Code     string `json:"code"`
}

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("snippet").Funcs(template.FuncMap{
	"json": jsonString,
	"sql":  sqlString,
	"sh":   shellDouble,
	"js":   jsSingle,
	"cnf":  cnfValue,
}).ParseFS(templateFS, "templates/*.tmpl"))

func fromTemplate(name string) func(view) (string, error) {
	return func(v view) (string, error) {
		var buf bytes.Buffer
		if err := templates.ExecuteTemplate(&buf, name, v); err != nil {
			return "", fmt.Errorf("failed to render %s: %w", name, err)
		}
		return strings.TrimSuffix(buf.String(), "\n"), nil
	}
}

var catalogue = []Generator{
	{
		Format:      FormatFHIR,
		Title:       "FHIR Extension",
		Description: "Add this extension to FHIR resources for provenance tracking",
		Language:    "json",
		render:      fromTemplate("fhir.tmpl"),
	},
	{
		Format:      FormatMCP,
		Title:       "MCP Tool URN",
		Description: "Model Context Protocol tool configuration with OID namespace",
		Language:    "json",
		render:      fromTemplate("mcp.tmpl"),
	},
	{
		Format:      FormatX509,
		Title:       "X.509 Certificate",
		Description: "OpenSSL configuration for certificate generation",
		Language:    "bash",
		render:      fromTemplate("x509.tmpl"),
	},
	{
		Format:      FormatAPI,
		Title:       "API Headers",
		Description: "HTTP headers for API requests with OID identification",
		Language:    "javascript",
		render:      fromTemplate("api.tmpl"),
	},
	{
		Format:      FormatDatabase,
		Title:       "Database Schema",
		Description: "PostgreSQL table with OID constraint and example insert",
		Language:    "sql",
		render:      fromTemplate("database.tmpl"),
	},
	{
		Format:      FormatQRCode,
		Title:       "QR Code Data",
		Description: "Asset tagging payload with verification fields",
		Language:    "json",
		render:      renderQRCode,
	},
}

// Catalogue lists the generators in their fixed order.
func Catalogue() []Generator {
	out := make([]Generator, len(catalogue))
	copy(out, catalogue)
	return out
}

// Formats lists the generator keys in catalogue order.
func Formats() []Format {
	out := make([]Format, 0, len(catalogue))
	for _, g := range catalogue {
		out = append(out, g.Format)
	}
	return out
}

// Lookup finds the generator for format.
func Lookup(format Format) (Generator, bool) {
	for _, g := range catalogue {
		if g.Format == format {
			return g, true
		}
	}
	return Generator{}, false
}

// Render produces the snippet text for node.
func (g Generator) Render(node *domain.Node, ctx Context) (string, error) {
	if node == nil {
		return "", ErrNoNode
	}
	return g.render(newView(node, ctx))
}

// Render looks up format and renders node with it.
func Render(format Format, node *domain.Node, ctx Context) (Snippet, error) {
	g, ok := Lookup(format)
	if !ok {
		return Snippet{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	code, err := g.Render(node, ctx)
	if err != nil {
		return Snippet{}, err
	}
	return Snippet{Format: g.Format, Title: g.Title, Language: g.Language, Code: code}, nil
}

// RenderAll renders node with every generator in catalogue order.
// All generators share one timestamp.
func RenderAll(node *domain.Node, ctx Context) ([]Snippet, error) {
	ctx = ctx.resolved()
	out := make([]Snippet, 0, len(catalogue))
	for _, g := range catalogue {
		s, err := Render(g.Format, node, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (c Context) resolved() Context {
	c.Namespace = c.Namespace.WithDefaults()
	if c.Now.IsZero() {
		c.Now = time.Now()
	}
	return c
}

// view flattens the node and namespace into plain strings for the templates.
type view struct {
	ID          string
	Identifier  string
	Name        string
	Description string
	Status      string
	Kind        string

	Root         string
	Organization string
	Domain       string
	PEN          string

	HeaderOID      string
	HeaderService  string
	HeaderProvider string

	ToolName  string
	Section   string
	Table     string
	Timestamp string
}

var nonWord = regexp.MustCompile(`[^a-z0-9_]+`)

// slug is the lower-cased first label of the namespace domain, e.g. "brainsait".
func slug(ns domain.Namespace) string {
	label, _, _ := strings.Cut(strings.ToLower(ns.Domain), ".")
	label = strings.Trim(nonWord.ReplaceAllString(label, "_"), "_")
	if label == "" {
		return "oid"
	}
	return label
}

func newView(node *domain.Node, ctx Context) view {
	ctx = ctx.resolved()
	ns := ctx.Namespace
	prefix := slug(ns)

	return view{
		ID:          node.ID,
		Identifier:  node.Identifier,
		Name:        node.Name,
		Description: node.Description,
		Status:      string(node.Status),
		Kind:        string(node.Kind),

		Root:         ns.Root,
		Organization: ns.Organization,
		Domain:       ns.Domain,
		PEN:          ns.PEN(),

		HeaderOID:      ns.HeaderPrefix + "-OID",
		HeaderService:  ns.HeaderPrefix + "-Service",
		HeaderProvider: ns.HeaderPrefix + "-Provider",

		ToolName:  strings.ReplaceAll(node.ID, "-", "_"),
		Section:   prefix + "_extension",
		Table:     prefix + "_assets",
		Timestamp: Timestamp(ctx.Now),
	}
}

// Timestamp formats t in UTC with millisecond precision, e.g. 2025-01-02T03:04:05.000Z.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

type qrPayload struct {
	OID       string `json:"oid"`
	Name      string `json:"name"`
	Issuer    string `json:"issuer"`
	PEN       string `json:"pen"`
	Timestamp string `json:"timestamp"`
}

func renderQRCode(v view) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(qrPayload{
		OID:       v.Identifier,
		Name:      v.Name,
		Issuer:    v.Organization,
		PEN:       v.PEN,
		Timestamp: v.Timestamp,
	}); err != nil {
		return "", fmt.Errorf("failed to encode qr payload: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
