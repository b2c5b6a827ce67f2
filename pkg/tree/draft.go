package tree

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/oidtree/pkg/domain"
)

// Validation sentinels, checked in this order by BuildChild.
var (
	ErrNameRequired        = errors.New("name is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrParentRequired      = errors.New("parent node is required")
	ErrInvalidIdentifier   = errors.New("invalid identifier format")
	ErrInvalidKind         = errors.New("kind must be branch or leaf")
	ErrInvalidStatus       = errors.New("status must be active, experimental or deprecated")
)

// ValidationError reports the first rule a Draft failed.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Draft is the user-entered part of a new node.
type Draft struct {
	Name        string        `json:"name" mapstructure:"name"`
	Description string        `json:"description" mapstructure:"description"`
	Kind        domain.Kind   `json:"kind,omitempty" mapstructure:"kind"`
	Status      domain.Status `json:"status,omitempty" mapstructure:"status"`
	UseCases    []string      `json:"useCases,omitempty" mapstructure:"useCases"`
}

// DraftFromSuggestion turns a generated suggestion into a draft with active status.
func DraftFromSuggestion(s domain.Suggestion) Draft {
	return Draft{
		Name:        s.Name,
		Description: s.Description,
		Kind:        s.Kind,
		Status:      domain.StatusActive,
		UseCases:    s.UseCases,
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// DeriveID lower-cases the trimmed name and replaces whitespace runs with a single hyphen.
func DeriveID(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// BuildChild validates d against parent and returns the candidate node.
// It does not check the derived id for collisions; that needs the whole tree.
func BuildChild(ns domain.Namespace, parent *domain.Node, d Draft) (*domain.Node, error) {
	name := strings.TrimSpace(d.Name)
	description := strings.TrimSpace(d.Description)

	if name == "" {
		return nil, &ValidationError{Field: "name", Err: ErrNameRequired}
	}
	if description == "" {
		return nil, &ValidationError{Field: "description", Err: ErrDescriptionRequired}
	}
	if parent == nil {
		return nil, &ValidationError{Field: "parent", Err: ErrParentRequired}
	}

	identifier := NextChildIdentifier(parent)
	if !ValidateIdentifier(ns, identifier) {
		return nil, &ValidationError{Field: "identifier", Err: fmt.Errorf("%w: %q", ErrInvalidIdentifier, identifier)}
	}

	kind := d.Kind
	if kind == "" {
		kind = domain.KindLeaf
	}
	if kind != domain.KindBranch && kind != domain.KindLeaf {
		return nil, &ValidationError{Field: "kind", Err: ErrInvalidKind}
	}

	status := d.Status
	if status == "" {
		status = domain.StatusActive
	}
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Err: ErrInvalidStatus}
	}

	node := &domain.Node{
		ID:          DeriveID(name),
		Identifier:  identifier,
		Name:        name,
		Description: description,
		Kind:        kind,
		Status:      status,
	}
	for _, uc := range d.UseCases {
		if uc = strings.TrimSpace(uc); uc != "" {
			node.UseCases = append(node.UseCases, uc)
		}
	}
	if kind == domain.KindBranch {
		node.Children = []*domain.Node{}
	}
	return node, nil
}
