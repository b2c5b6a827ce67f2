package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface lists one handler per operation of openapi.yaml.
type ServerInterface interface {
	GetHealth(w http.ResponseWriter, r *http.Request)
	GetInfo(w http.ResponseWriter, r *http.Request)
	ListFormats(w http.ResponseWriter, r *http.Request)
	GetTree(w http.ResponseWriter, r *http.Request)
	SearchNodes(w http.ResponseWriter, r *http.Request, params SearchNodesParams)
	GetNode(w http.ResponseWriter, r *http.Request, id string)
	GetPath(w http.ResponseWriter, r *http.Request, id string)
	GetNextIdentifier(w http.ResponseWriter, r *http.Request, id string)
	AddChild(w http.ResponseWriter, r *http.Request, id string)
	ListSnippets(w http.ResponseWriter, r *http.Request, id string)
	GetSnippet(w http.ResponseWriter, r *http.Request, id string, format string)
	ExportNode(w http.ResponseWriter, r *http.Request, id string)
	SuggestChildren(w http.ResponseWriter, r *http.Request, id string)
	InspectIdentifier(w http.ResponseWriter, r *http.Request, identifier string)
	SubscribeEvents(w http.ResponseWriter, r *http.Request)
}

// SearchNodesParams defines parameters for SearchNodes.
type SearchNodesParams struct {
	Q *string `form:"q,omitempty" json:"q,omitempty"`
}

// InvalidParamFormatError is reported when a parameter cannot be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

type wrapper struct {
	handler          ServerInterface
	errorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (sw *wrapper) pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var value string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &value,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		sw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return "", false
	}
	return value, true
}

func (sw *wrapper) searchNodes(w http.ResponseWriter, r *http.Request) {
	var params SearchNodesParams
	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &params.Q); err != nil {
		sw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "q", Err: err})
		return
	}
	sw.handler.SearchNodes(w, r, params)
}

func (sw *wrapper) withID(fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sw.pathParam(w, r, "id")
		if !ok {
			return
		}
		fn(w, r, id)
	}
}

func (sw *wrapper) getSnippet(w http.ResponseWriter, r *http.Request) {
	id, ok := sw.pathParam(w, r, "id")
	if !ok {
		return
	}
	format, ok := sw.pathParam(w, r, "format")
	if !ok {
		return
	}
	sw.handler.GetSnippet(w, r, id, format)
}

func (sw *wrapper) inspectIdentifier(w http.ResponseWriter, r *http.Request) {
	identifier, ok := sw.pathParam(w, r, "identifier")
	if !ok {
		return
	}
	sw.handler.InspectIdentifier(w, r, identifier)
}

// HandlerFromMux registers every operation of si on r.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	sw := &wrapper{
		handler: si,
		errorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_request"})
		},
	}

	r.Get("/health", si.GetHealth)
	r.Get("/info", si.GetInfo)
	r.Get("/formats", si.ListFormats)
	r.Get("/tree", si.GetTree)
	r.Get("/search", sw.searchNodes)
	r.Get("/nodes/{id}", sw.withID(si.GetNode))
	r.Get("/nodes/{id}/path", sw.withID(si.GetPath))
	r.Get("/nodes/{id}/next-identifier", sw.withID(si.GetNextIdentifier))
	r.Post("/nodes/{id}/children", sw.withID(si.AddChild))
	r.Get("/nodes/{id}/snippets", sw.withID(si.ListSnippets))
	r.Get("/nodes/{id}/snippets/{format}", sw.getSnippet)
	r.Get("/nodes/{id}/export", sw.withID(si.ExportNode))
	r.Post("/nodes/{id}/suggestions", sw.withID(si.SuggestChildren))
	r.Get("/identifiers/{identifier}", sw.inspectIdentifier)
	r.Get("/events", si.SubscribeEvents)
	return r
}
