package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/oidtree/internal/cli"
	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/tree"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <parent-id>",
	Short: "Register a new child node",
	Long: `Adds a child under the parent with the next free identifier. Missing name or
description are asked for interactively when stdin is a terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		draft := tree.Draft{}
		draft.Name, _ = cmd.Flags().GetString("name")
		draft.Description, _ = cmd.Flags().GetString("description")
		kind, _ := cmd.Flags().GetString("kind")
		status, _ := cmd.Flags().GetString("status")
		draft.Kind, draft.Status = domain.Kind(kind), domain.Status(status)
		draft.UseCases, _ = cmd.Flags().GetStringSlice("use-case")

		reg, err := openRegistry(cmd.Context(), cli.Options{})
		if err != nil {
			return err
		}
		defer reg.Close()

		parent, err := reg.Node(args[0])
		if err != nil {
			return err
		}

		if strings.TrimSpace(draft.Name) == "" || strings.TrimSpace(draft.Description) == "" {
			if !isTerminal(os.Stdin) {
				return errors.New("--name and --description are required when stdin is not a terminal")
			}
			next, _ := reg.NextIdentifier(parent.ID)
			if err := runDraftForm(parent, next, &draft); err != nil {
				return cli.HandleExecutionError(err)
			}
		}

		added, err := reg.AddChild(cmd.Context(), parent.ID, draft)
		if err != nil {
			return err
		}
		if asJSON {
			return cli.PrintJSON(cmd.OutOrStdout(), added)
		}
		cli.PrintSystemMessage(cmd.OutOrStdout(), "Registered %s as %s (version %d)", added.ID, added.Identifier, reg.Snapshot().Version)
		return nil
	},
}

// runDraftForm asks for the missing fields of a new child of parent.
func runDraftForm(parent *domain.Node, next string, d *tree.Draft) error {
	if d.Kind == "" {
		d.Kind = domain.KindLeaf
	}
	if d.Status == "" {
		d.Status = domain.StatusActive
	}
	useCases := strings.Join(d.UseCases, ", ")

	required := func(field string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", field)
			}
			return nil
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(fmt.Sprintf("New child of %s", parent.Name)).
				Description(fmt.Sprintf("Identifier %s will be assigned.", next)),
			huh.NewInput().Title("Name").Value(&d.Name).Validate(required("name")),
			huh.NewText().Title("Description").Value(&d.Description).Validate(required("description")),
			huh.NewSelect[domain.Kind]().Title("Kind").
				Options(huh.NewOption("Leaf", domain.KindLeaf), huh.NewOption("Branch", domain.KindBranch)).
				Value(&d.Kind),
			huh.NewSelect[domain.Status]().Title("Status").
				Options(
					huh.NewOption("Active", domain.StatusActive),
					huh.NewOption("Experimental", domain.StatusExperimental),
					huh.NewOption("Deprecated", domain.StatusDeprecated),
				).
				Value(&d.Status),
			huh.NewInput().Title("Use cases").Description("Comma separated").Value(&useCases),
		),
	).WithTheme(huh.ThemeCharm()).WithAccessible(os.Getenv("ACCESSIBLE") != "")

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return context.Canceled
		}
		return err
	}
	d.UseCases = splitList(useCases)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <parent-id> <use case...>",
	Short: "Propose three children for a node",
	Long: `Asks the configured provider (static or openai) for three candidate children.
Nothing is added unless --accept picks one, or --pick chooses interactively.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		accept, _ := cmd.Flags().GetInt("accept")
		pick, _ := cmd.Flags().GetBool("pick")

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		reg, err := openRegistry(sc, cli.Options{})
		if err != nil {
			return err
		}
		defer reg.Close()

		parentID, useCase := args[0], strings.Join(args[1:], " ")
		suggestions, err := reg.Suggest(sc, parentID, useCase)
		if err != nil {
			return cli.HandleExecutionError(fmt.Errorf("suggestion failed: %w", err))
		}

		out := cmd.OutOrStdout()
		if asJSON && accept == 0 && !pick {
			return cli.PrintJSON(out, suggestions)
		}
		if !asJSON {
			for i, s := range suggestions {
				fmt.Fprintf(out, "%d. %s [%s]\n   %s\n", i+1, s.Name, s.Kind, s.Description)
				if len(s.UseCases) > 0 {
					fmt.Fprintf(out, "   use cases: %s\n", strings.Join(s.UseCases, ", "))
				}
			}
		}

		if pick && accept == 0 {
			if !isTerminal(os.Stdin) {
				return errors.New("--pick needs a terminal; use --accept N instead")
			}
			if accept, err = pickSuggestion(suggestions); err != nil {
				return cli.HandleExecutionError(err)
			}
		}
		if accept == 0 {
			return nil
		}
		if accept < 1 || accept > len(suggestions) {
			return fmt.Errorf("--accept must be between 1 and %d", len(suggestions))
		}

		added, err := reg.AddChild(sc, parentID, tree.DraftFromSuggestion(suggestions[accept-1]))
		if err != nil {
			return err
		}
		if asJSON {
			return cli.PrintJSON(out, added)
		}
		cli.PrintSystemMessage(out, "Registered %s as %s", added.ID, added.Identifier)
		return nil
	},
}

// pickSuggestion returns the 1-based choice, or 0 for none.
func pickSuggestion(suggestions []domain.Suggestion) (int, error) {
	choice := 0
	options := []huh.Option[int]{huh.NewOption("None", 0)}
	for i, s := range suggestions {
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", s.Name, s.Kind), i+1))
	}
	err := huh.NewSelect[int]().Title("Register which suggestion?").Options(options...).Value(&choice).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return 0, context.Canceled
	}
	return choice, err
}

func init() {
	rootCmd.AddCommand(addCmd, suggestCmd)

	addCmd.Flags().StringP("name", "n", "", "Display name; the id is derived from it")
	addCmd.Flags().StringP("description", "D", "", "What the component does")
	addCmd.Flags().String("kind", "", "branch or leaf (default leaf)")
	addCmd.Flags().String("status", "", "active, experimental or deprecated (default active)")
	addCmd.Flags().StringSlice("use-case", nil, "Use case tag, repeatable")

	suggestCmd.Flags().Int("accept", 0, "Register suggestion N (1-3)")
	suggestCmd.Flags().Bool("pick", false, "Choose a suggestion to register interactively")
}
