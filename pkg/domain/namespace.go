package domain

import "strings"

// DefaultRoot is the IANA Private Enterprise Number arc used by the bundled seed tree.
const DefaultRoot = "1.3.6.1.4.1.61026"

// Namespace carries the organization constants shared by validation and every
// snippet generator. It is configuration, never hard-coded logic.
type Namespace struct {
	// Root is the identifier prefix every node must live under.
	Root string `json:"root" yaml:"root" mapstructure:"root"`
	// Organization is the display name of the assigning authority.
	Organization string `json:"organization" yaml:"organization" mapstructure:"organization"`
	// Domain is used to build URLs in generated snippets.
	Domain string `json:"domain" yaml:"domain" mapstructure:"domain"`
	// HeaderPrefix prefixes the generated HTTP header names.
	HeaderPrefix string `json:"header_prefix" yaml:"header_prefix" mapstructure:"header_prefix"`
}

// DefaultNamespace returns the namespace of the bundled registry.
func DefaultNamespace() Namespace {
	return Namespace{
		Root:         DefaultRoot,
		Organization: "BrainSAIT Enterprise",
		Domain:       "brainsait.com",
		HeaderPrefix: "X-BrainSAIT",
	}
}

// WithDefaults fills empty fields from DefaultNamespace.
func (ns Namespace) WithDefaults() Namespace {
	def := DefaultNamespace()
	if ns.Root == "" {
		ns.Root = def.Root
	}
	if ns.Organization == "" {
		ns.Organization = def.Organization
	}
	if ns.Domain == "" {
		ns.Domain = def.Domain
	}
	if ns.HeaderPrefix == "" {
		ns.HeaderPrefix = def.HeaderPrefix
	}
	return ns
}

// PEN returns the enterprise number, i.e. the last arc of Root.
func (ns Namespace) PEN() string {
	if i := strings.LastIndexByte(ns.Root, '.'); i >= 0 {
		return ns.Root[i+1:]
	}
	return ns.Root
}

// Contains reports whether identifier is the root itself or sits below it.
// The check is arc-aware: "1.2.30" is not inside "1.2.3".
func (ns Namespace) Contains(identifier string) bool {
	if ns.Root == "" {
		return false
	}
	return identifier == ns.Root || strings.HasPrefix(identifier, ns.Root+".")
}
