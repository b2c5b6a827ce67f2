package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/oidtree/internal/cli"
	"github.com/aretw0/oidtree/internal/presentation/graph"
	"github.com/aretw0/oidtree/internal/presentation/tui"
	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the registry tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		depth, _ := cmd.Flags().GetInt("depth")
		watch, _ := cmd.Flags().GetBool("watch")

		// RunWatch starts its own store watcher.
		cfg.Store.Watch = false
		reg, err := openRegistry(cmd.Context(), cli.Options{})
		if err != nil {
			return err
		}
		defer reg.Close()

		out := cmd.OutOrStdout()
		if watch {
			sc := cli.NewSignalContext(cmd.Context())
			defer sc.Cancel()
			return cli.HandleExecutionError(cli.RunWatch(sc, reg, out, cli.WatchOptions{
				Query:    query,
				MaxDepth: depth,
				Clear:    isTerminal(os.Stdout),
			}))
		}

		if asJSON {
			return cli.PrintJSON(out, reg.Snapshot())
		}
		tui.PrintTree(out, reg.Tree(), tui.TreeOptions{
			Highlight: cli.HighlightSet(reg.Tree(), query),
			MaxDepth:  depth,
		})
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the details of a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry(cmd.Context(), cli.Options{})
		if err != nil {
			return err
		}
		defer reg.Close()

		node, err := reg.Node(args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return cli.PrintJSON(cmd.OutOrStdout(), node)
		}

		path, _ := reg.Path(node.ID)
		render := tui.NewRenderer(!isTerminal(os.Stdout))
		out, err := render(tui.NodeMarkdown(node, path, reg.InspectIdentifier(node.Identifier)))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search nodes by name, identifier, description or use case",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry(cmd.Context(), cli.Options{})
		if err != nil {
			return err
		}
		defer reg.Close()

		results := reg.Search(strings.Join(args, " "))
		if asJSON {
			return cli.PrintJSON(cmd.OutOrStdout(), flat(results))
		}
		if len(results) == 0 {
			cli.PrintSystemMessage(cmd.ErrOrStderr(), "No nodes match %q", strings.Join(args, " "))
			return nil
		}
		printNodeList(cmd, results)
		return nil
	},
}

var pathCmd = &cobra.Command{
	Use:   "path <id>",
	Short: "Print the nodes from the root down to a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry(cmd.Context(), cli.Options{})
		if err != nil {
			return err
		}
		defer reg.Close()

		path, err := reg.Path(args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return cli.PrintJSON(cmd.OutOrStdout(), flat(path))
		}
		names := make([]string, len(path))
		for i, n := range path {
			names[i] = n.Name
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, " › "))
		fmt.Fprintln(cmd.OutOrStdout(), path[len(path)-1].Identifier)
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <identifier>",
	Short: "Decode a dotted identifier against the namespace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry(cmd.Context(), cli.Options{})
		if err != nil {
			return err
		}
		defer reg.Close()

		info := reg.InspectIdentifier(args[0])
		node, _ := reg.NodeByIdentifier(args[0])
		if asJSON {
			report := map[string]any{"info": info}
			if node != nil {
				report["node"] = flat([]*domain.Node{node})[0]
			}
			return cli.PrintJSON(cmd.OutOrStdout(), report)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Identifier:   %s\n", info.Identifier)
		fmt.Fprintf(out, "Well formed:  %t\n", info.WellFormed)
		fmt.Fprintf(out, "In namespace: %t\n", info.InNamespace)
		fmt.Fprintf(out, "Depth:        %d\n", info.Depth)
		if info.Parent != "" {
			fmt.Fprintf(out, "Parent:       %s\n", info.Parent)
		}
		fmt.Fprintf(out, "URN:          %s\n", info.URN)
		fmt.Fprintf(out, "FHIR system:  %s\n", info.FHIR)
		fmt.Fprintf(out, "Authority:    %s\n", info.Authority)
		if node != nil {
			fmt.Fprintf(out, "Registered:   %s (%s)\n", node.Name, node.ID)
		} else {
			fmt.Fprintln(out, "Registered:   no")
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [identifier...]",
	Short: "Check identifiers, or the whole registry, against the namespace",
	Long: `With arguments, reports whether each identifier is well formed and inside the
namespace. Without arguments, checks every node of the registry for invalid or
duplicate identifiers and duplicate ids.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry(cmd.Context(), cli.Options{})
		if err != nil {
			return err
		}
		defer reg.Close()

		out := cmd.OutOrStdout()
		if len(args) > 0 {
			failed := 0
			for _, id := range args {
				ok := reg.ValidateIdentifier(id)
				if !ok {
					failed++
				}
				fmt.Fprintf(out, "%-40s %s\n", id, verdict(ok))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d identifiers are invalid", failed, len(args))
			}
			return nil
		}

		problems := cli.CheckTree(reg.Namespace(), reg.Tree())
		for _, p := range problems {
			fmt.Fprintf(out, "%s: %s\n", p.NodeID, p.Message)
		}
		if len(problems) > 0 {
			return fmt.Errorf("registry has %d problems", len(problems))
		}
		fmt.Fprintln(out, "Registry is valid! ✅")
		return nil
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the registry as a Mermaid diagram",
	RunE: func(cmd *cobra.Command, args []string) error {
		selected, _ := cmd.Flags().GetString("select")

		reg, err := openRegistry(cmd.Context(), cli.Options{})
		if err != nil {
			return err
		}
		defer reg.Close()

		var overlay *graph.GraphOverlay
		if selected != "" {
			if _, err := reg.Node(selected); err != nil {
				return err
			}
			overlay = graph.OverlayFor(reg.Tree(), selected)
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(reg.Tree(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(treeCmd, showCmd, searchCmd, pathCmd, inspectCmd, validateCmd, graphCmd)

	treeCmd.Flags().StringP("query", "q", "", "Highlight nodes matching the query")
	treeCmd.Flags().IntP("depth", "d", 0, "Limit printed levels (0 prints everything)")
	treeCmd.Flags().BoolP("watch", "w", false, "Redraw whenever the store changes")

	graphCmd.Flags().String("select", "", "Highlight a node and its path from the root")
}

func verdict(ok bool) string {
	if ok {
		return "valid"
	}
	return "invalid"
}

func printNodeList(cmd *cobra.Command, nodes []*domain.Node) {
	for _, n := range nodes {
		fmt.Fprintf(cmd.OutOrStdout(), "%-32s %-28s %s\n", n.Identifier, n.ID, n.Name)
	}
}

func flat(nodes []*domain.Node) []*domain.Node {
	out := make([]*domain.Node, len(nodes))
	for i, n := range nodes {
		cp := n.ShallowCopy()
		cp.Children = nil
		out[i] = cp
	}
	return out
}
