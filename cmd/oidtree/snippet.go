package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/oidtree/internal/cli"
	"github.com/aretw0/oidtree/pkg/snippet"
	"github.com/spf13/cobra"
)

var snippetCmd = &cobra.Command{
	Use:   "snippet <id> [format]",
	Short: "Generate implementation snippets for a node",
	Long: `Renders one snippet format for the node, or every format when none is given.
Run "oidtree snippet --list" to see the formats.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if list, _ := cmd.Flags().GetBool("list"); list {
			return nil
		}
		return cobra.RangeArgs(1, 2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if list, _ := cmd.Flags().GetBool("list"); list {
			if asJSON {
				return cli.PrintJSON(out, snippet.Catalogue())
			}
			for _, g := range snippet.Catalogue() {
				fmt.Fprintf(out, "%-10s %s\n", g.Format, g.Description)
			}
			return nil
		}
		copyOut, _ := cmd.Flags().GetBool("copy")

		reg, err := openRegistry(cmd.Context(), cli.Options{})
		if err != nil {
			return err
		}
		defer reg.Close()

		var snippets []snippet.Snippet
		if len(args) == 2 {
			s, err := reg.Snippet(args[0], snippet.Format(args[1]))
			if err != nil {
				return err
			}
			snippets = []snippet.Snippet{s}
		} else if snippets, err = reg.Snippets(args[0]); err != nil {
			return err
		}

		if asJSON {
			return cli.PrintJSON(out, snippets)
		}
		for _, s := range snippets {
			if len(snippets) > 1 {
				fmt.Fprintf(out, "# %s (%s)\n", s.Title, s.Language)
			}
			fmt.Fprintln(out, s.Code)
		}

		if copyOut {
			if len(snippets) != 1 {
				return fmt.Errorf("--copy needs a single format")
			}
			if err := cli.CopyToClipboard(snippets[0].Code); err != nil {
				return err
			}
			cli.PrintSystemMessage(cmd.ErrOrStderr(), "Copied %s snippet to the clipboard", snippets[0].Format)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write every snippet of a node to one text file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		reg, err := openRegistry(cmd.Context(), cli.Options{})
		if err != nil {
			return err
		}
		defer reg.Close()

		name, content, err := reg.Export(args[0])
		if err != nil {
			return err
		}
		if output == "-" {
			_, err := fmt.Fprint(cmd.OutOrStdout(), content)
			return err
		}
		if output == "" {
			output = name
		} else if info, err := os.Stat(output); err == nil && info.IsDir() {
			output = filepath.Join(output, name)
		}
		if err := os.WriteFile(output, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write bundle: %w", err)
		}
		cli.PrintSystemMessage(cmd.OutOrStdout(), "Wrote %s", output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snippetCmd, exportCmd)

	snippetCmd.Flags().Bool("list", false, "List the available formats")
	snippetCmd.Flags().BoolP("copy", "c", false, "Copy the snippet to the clipboard")

	exportCmd.Flags().StringP("output", "o", "", `File or directory to write ("-" for stdout)`)
}
