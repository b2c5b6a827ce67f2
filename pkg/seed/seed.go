// Package seed provides the default registry hierarchy and loaders for custom seeds.
package seed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/oidtree/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Default returns a fresh copy of the bundled registry rooted at ns.Root.
// Each call builds new nodes, so callers may hand the result to a session freely.
func Default(ns domain.Namespace) *domain.Node {
	r := ns.Root
	arc := func(suffix string) string { return r + "." + suffix }

	return &domain.Node{
		ID:          "root",
		Identifier:  r,
		Name:        "BRAINSAIT LTD",
		Description: "IANA Private Enterprise Number (PEN) for BrainSAIT Limited. Root of all organizational identifiers.",
		Kind:        domain.KindRoot,
		Status:      domain.StatusActive,
		UseCases: []string{
			"Global Organization ID for all API headers",
			"Root namespace for all enterprise systems",
			"Digital identity foundation for regulatory compliance",
		},
		Children: []*domain.Node{
			{
				ID:          "geo",
				Identifier:  arc("1"),
				Name:        "Geographic Operations",
				Description: "Location-based operational divisions and IoT sensor networks across BrainSAIT deployments.",
				Kind:        domain.KindBranch,
				Status:      domain.StatusActive,
				UseCases: []string{
					"Prefix for location-based IoT sensors",
					"Geographic routing for distributed systems",
					"Regional compliance and data sovereignty",
				},
				Children: []*domain.Node{
					{
						ID:          "riyadh",
						Identifier:  arc("1.1"),
						Name:        "Riyadh Operations",
						Description: "Saudi Arabia headquarters and primary healthcare operations center.",
						Kind:        domain.KindLeaf,
						Status:      domain.StatusActive,
						UseCases: []string{
							"NPHIES integration endpoint identifier",
							"Saudi Billing System (SBS) deployment tag",
						},
					},
					{
						ID:          "sudan",
						Identifier:  arc("1.2"),
						Name:        "Sudan Operations",
						Description: "Sudan regional office and healthcare service delivery.",
						Kind:        domain.KindLeaf,
						Status:      domain.StatusActive,
						UseCases: []string{
							"Regional healthcare system identifier",
							"Local compliance tracking",
						},
					},
				},
			},
			{
				ID:          "org",
				Identifier:  arc("2"),
				Name:        "Organization Structure",
				Description: "Internal organizational hierarchy, departments, and governance structures.",
				Kind:        domain.KindBranch,
				Status:      domain.StatusActive,
				UseCases: []string{
					"Metadata for internal RBAC (Role-Based Access Control)",
					"Department and team identification",
					"Audit trail for organizational actions",
				},
				Children: []*domain.Node{
					{
						ID:          "departments",
						Identifier:  arc("2.1"),
						Name:        "Departments",
						Description: "Organizational departments and business units.",
						Kind:        domain.KindBranch,
						Status:      domain.StatusActive,
						Children: []*domain.Node{
							{
								ID:          "engineering",
								Identifier:  arc("2.1.1"),
								Name:        "Engineering",
								Description: "Software development and infrastructure engineering.",
								Kind:        domain.KindLeaf,
								Status:      domain.StatusActive,
							},
							{
								ID:          "healthcare",
								Identifier:  arc("2.1.2"),
								Name:        "Healthcare Operations",
								Description: "Clinical operations and healthcare service delivery.",
								Kind:        domain.KindLeaf,
								Status:      domain.StatusActive,
							},
						},
					},
					{
						ID:          "licensing",
						Identifier:  arc("2.2"),
						Name:        "Licensing & Compliance",
						Description: "Software licensing, compliance tracking, and intellectual property management.",
						Kind:        domain.KindLeaf,
						Status:      domain.StatusActive,
						UseCases: []string{
							"Creative Commons (CC BY-NC-SA 4.0) compliance tracking",
							"Software licensing token generation",
							"Automated compliance-as-code workflows",
						},
					},
				},
			},
			{
				ID:          "products",
				Identifier:  arc("3"),
				Name:        "Products & Services",
				Description: "Product lines, service offerings, and platform deployments.",
				Kind:        domain.KindBranch,
				Status:      domain.StatusActive,
				UseCases: []string{
					"Namespace for FHIR Extensions",
					"MCP Toolset identification",
					"Product version and instance tracking",
				},
				Children: []*domain.Node{
					{
						ID:          "cms",
						Identifier:  arc("3.1"),
						Name:        "Content Management System",
						Description: "CMS platform and related services.",
						Kind:        domain.KindBranch,
						Status:      domain.StatusActive,
						Children: []*domain.Node{
							{
								ID:          "cms-summary",
								Identifier:  arc("3.1.1"),
								Name:        "Clinical Summary Tool",
								Description: "MCP tool for generating clinical summaries.",
								Kind:        domain.KindLeaf,
								Status:      domain.StatusActive,
							},
						},
					},
					{
						ID:          "healthcare-platform",
						Identifier:  arc("3.2"),
						Name:        "Healthcare Platform",
						Description: "Integrated healthcare technology suite including SBS and NPHIES integration.",
						Kind:        domain.KindBranch,
						Status:      domain.StatusActive,
						Children: []*domain.Node{
							{
								ID:          "ai-normalizer",
								Identifier:  arc("3.2.1"),
								Name:        "AI Normalizer Service",
								Description: "AI-powered clinical coding and claim normalization engine.",
								Kind:        domain.KindLeaf,
								Status:      domain.StatusActive,
								UseCases: []string{
									"FHIR resource custom extensions for AI provenance",
									"Claim processing audit trail",
									"AI model version tracking",
								},
							},
							{
								ID:          "sbs-signer",
								Identifier:  arc("3.2.2"),
								Name:        "Signer Microservice",
								Description: "Cryptographic signing service for NPHIES claims.",
								Kind:        domain.KindLeaf,
								Status:      domain.StatusActive,
								UseCases: []string{
									"X.509 certificate Subject Alternative Name",
									"Digital signature provenance for claims",
									"Cryptographic identity binding",
								},
							},
							{
								ID:          "nphies-connector",
								Identifier:  arc("3.2.3"),
								Name:        "NPHIES Integration Connector",
								Description: "Saudi NPHIES (National Platform for Health Insurance Exchange Services) integration layer.",
								Kind:        domain.KindLeaf,
								Status:      domain.StatusActive,
							},
						},
					},
					{
						ID:          "ai-agents",
						Identifier:  arc("3.3"),
						Name:        "AI Agent Framework",
						Description: "Multi-agent AI systems and MCP servers.",
						Kind:        domain.KindBranch,
						Status:      domain.StatusExperimental,
						Children: []*domain.Node{
							{
								ID:          "crewai",
								Identifier:  arc("3.3.1"),
								Name:        "CrewAI Agents",
								Description: "CrewAI-based multi-agent orchestration.",
								Kind:        domain.KindLeaf,
								Status:      domain.StatusExperimental,
							},
							{
								ID:          "n8n",
								Identifier:  arc("3.3.2"),
								Name:        "n8n Automation",
								Description: "Workflow automation and agent orchestration via n8n.",
								Kind:        domain.KindLeaf,
								Status:      domain.StatusExperimental,
							},
						},
					},
				},
			},
			{
				ID:          "infrastructure",
				Identifier:  arc("4"),
				Name:        "Infrastructure & Assets",
				Description: "Physical and virtual infrastructure, hardware assets, and deployment environments.",
				Kind:        domain.KindBranch,
				Status:      domain.StatusActive,
				UseCases: []string{
					"QR code generation for physical assets",
					"RFID tagging for hardware inventory",
					"Container and VM instance identification",
				},
				Children: []*domain.Node{
					{
						ID:          "ollama",
						Identifier:  arc("4.1"),
						Name:        "Ollama Private Cloud",
						Description: "Local LLM deployment infrastructure.",
						Kind:        domain.KindLeaf,
						Status:      domain.StatusActive,
					},
					{
						ID:          "docker",
						Identifier:  arc("4.2"),
						Name:        "Docker Infrastructure",
						Description: "Containerized service deployments.",
						Kind:        domain.KindLeaf,
						Status:      domain.StatusActive,
					},
				},
			},
		},
	}
}

// LoadFile reads a seed tree from a YAML or JSON file.
// The root node must have kind "root".
func LoadFile(path string) (*domain.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var root domain.Node
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("failed to parse seed json: %w", err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("failed to parse seed yaml: %w", err)
		}
	}

	if root.Kind != domain.KindRoot {
		return nil, fmt.Errorf("seed root %q must have kind %q, got %q", root.ID, domain.KindRoot, root.Kind)
	}
	return &root, nil
}
