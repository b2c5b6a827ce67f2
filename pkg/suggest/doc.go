// Package suggest asks a generative model for candidate children of a node.
//
// A response is accepted only when it carries exactly three records, each with
// a name, a description and a kind of branch or leaf. Anything else surfaces as
// ErrMalformedResponse. Callers never feed a failed answer into the tree.
package suggest
