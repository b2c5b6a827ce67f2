package domain

import (
	"strconv"
	"strings"
)

// IdentifierInfo is the decoded view of a dotted identifier.
type IdentifierInfo struct {
	Identifier  string `json:"identifier"`
	Arcs        []int  `json:"arcs"`
	Depth       int    `json:"depth"`
	WellFormed  bool   `json:"well_formed"`
	InNamespace bool   `json:"in_namespace"`
	// Branch is the first arc below the namespace root, 0 when there is none.
	Branch    int    `json:"branch,omitempty"`
	Parent    string `json:"parent,omitempty"`
	URN       string `json:"urn"`
	FHIR      string `json:"fhir_system"`
	Authority string `json:"authority"`
}

// WellFormedIdentifier reports whether s is digits separated by single dots,
// with at least two arcs.
func WellFormedIdentifier(s string) bool {
	if s == "" {
		return false
	}
	dots := 0
	lastDot := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '.':
			if lastDot {
				return false
			}
			lastDot = true
			dots++
		case c >= '0' && c <= '9':
			lastDot = false
		default:
			return false
		}
	}
	return !lastDot && dots > 0
}

// ParentIdentifier strips the last arc. It returns "" for single-arc input.
func ParentIdentifier(identifier string) string {
	if i := strings.LastIndexByte(identifier, '.'); i > 0 {
		return identifier[:i]
	}
	return ""
}

// TrailingArc returns the text after the last dot (the whole string when there is none).
func TrailingArc(identifier string) string {
	if i := strings.LastIndexByte(identifier, '.'); i >= 0 {
		return identifier[i+1:]
	}
	return identifier
}

// URN renders identifier as urn:oid:<identifier>.
func URN(identifier string) string {
	return "urn:oid:" + identifier
}

// InspectIdentifier decodes identifier relative to ns. Malformed input still
// yields a result with WellFormed=false; arcs that fail to parse count as 0.
func InspectIdentifier(ns Namespace, identifier string) IdentifierInfo {
	info := IdentifierInfo{
		Identifier: identifier,
		WellFormed: WellFormedIdentifier(identifier),
		URN:        URN(identifier),
		FHIR:       "http://" + ns.Domain + "/fhir/oid/" + identifier,
		Parent:     ParentIdentifier(identifier),
	}
	if identifier != "" {
		for _, part := range strings.Split(identifier, ".") {
			n, err := strconv.Atoi(part)
			if err != nil {
				n = 0
			}
			info.Arcs = append(info.Arcs, n)
		}
	}
	info.Depth = len(info.Arcs)
	info.Authority = registrationAuthority(info.Arcs)
	info.InNamespace = info.WellFormed && ns.Contains(identifier)

	if info.InNamespace {
		rootDepth := strings.Count(ns.Root, ".") + 1
		if info.Depth > rootDepth {
			info.Branch = info.Arcs[rootDepth]
		}
	}
	return info
}

func registrationAuthority(arcs []int) string {
	if len(arcs) == 0 {
		return "unknown"
	}
	switch arcs[0] {
	case 0:
		return "ITU-T"
	case 1:
		return "ISO"
	case 2:
		return "Joint ISO/ITU-T"
	}
	return "unknown"
}
