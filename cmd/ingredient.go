package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/hmans/larder/internal/food"
	"github.com/hmans/larder/internal/graph"
	"github.com/hmans/larder/internal/output"
	"github.com/hmans/larder/internal/search"
	"github.com/hmans/larder/internal/store"
	"github.com/hmans/larder/internal/ui"
)

var ingredientCmd = &cobra.Command{
	Use:     "ingredient",
	Aliases: []string{"ing", "ingredients"},
	Short:   "Manage ingredients",
}

// create

var (
	createOrigin string
	createJSON   bool
)

var ingredientCreateCmd = &cobra.Command{
	Use:     "create [name]",
	Aliases: []string{"c", "new"},
	Short:   "Create an ingredient",
	Long: `Creates an ingredient with the given name and origin.

Without arguments on an interactive terminal, a form asks for the name and
the origin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		origin := createOrigin

		if name == "" && !createJSON && isTerminal(os.Stdin) {
			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().
					Title("Name").
					Value(&name).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return errors.New("name is required")
						}
						return nil
					}),
				huh.NewInput().
					Title("Origin").
					Value(&origin),
			))
			if err := form.Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					fmt.Println("Cancelled")
					return nil
				}
				return err
			}
		}
		if name == "" {
			return cmdError(createJSON, output.ErrValidation, "name is required")
		}

		resolver, err := newResolver(cmd.Context())
		if err != nil {
			return cmdError(createJSON, output.ErrInternal, "%v", err)
		}
		defer resolver.Index.Close()

		payload, err := resolver.Mutation().CreateIngredient(cmd.Context(), name, origin)
		if err != nil {
			return cmdError(createJSON, output.ErrInternal, "failed to create ingredient: %v", err)
		}
		ing := payload.Ingredient

		if createJSON {
			return output.Success(ing, "Ingredient created")
		}
		fmt.Println(ui.Success.Render("Created ") + ui.ID.Render(strconv.FormatInt(ing.ID, 10)) + " " + ing.Name)
		return nil
	},
}

// list

var (
	listJSON  bool
	listQuiet bool
)

var ingredientListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all ingredients",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ingredients, err := db.Ingredients(cmd.Context())
		if err != nil {
			return cmdError(listJSON, output.ErrInternal, "failed to list ingredients: %v", err)
		}
		return printIngredients(ingredients, listJSON, listQuiet)
	},
}

func printIngredients(ingredients []*food.Ingredient, jsonMode, quiet bool) error {
	if jsonMode {
		return output.SuccessMultiple(ingredients)
	}

	if quiet {
		for _, ing := range ingredients {
			fmt.Println(ing.ID)
		}
		return nil
	}

	if len(ingredients) == 0 {
		fmt.Println(ui.Muted.Render("No ingredients found. Create one with: larder ingredient create <name>"))
		return nil
	}

	table := ui.NewTable(
		ui.Column{Title: "ID"},
		ui.Column{Title: "NAME", Width: 32},
		ui.Column{Title: "ORIGIN"},
	)
	for _, ing := range ingredients {
		table.AddRow(
			ui.ID.Render(strconv.FormatInt(ing.ID, 10)),
			ui.Truncate(ing.Name, 30),
			ui.RenderOrigin(ing.Origin),
		)
	}
	table.FitColumn(0, 2)
	fmt.Print(table.Render())
	return nil
}

// show

var (
	showJSON bool
	showRaw  bool
)

var ingredientShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an ingredient",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return cmdError(showJSON, output.ErrValidation, "%v", err)
		}

		ing, err := db.Ingredient(cmd.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			return cmdError(showJSON, output.ErrNotFound, "ingredient %d not found", id)
		}
		if err != nil {
			return cmdError(showJSON, output.ErrInternal, "%v", err)
		}

		if showJSON {
			return output.Success(ing, "")
		}

		md := ui.IngredientMarkdown(ing)
		if showRaw || !isTerminal(os.Stdout) {
			fmt.Print(md)
			return nil
		}

		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err != nil {
			return fmt.Errorf("failed to create renderer: %w", err)
		}
		rendered, err := renderer.Render(md)
		if err != nil {
			return fmt.Errorf("failed to render markdown: %w", err)
		}
		fmt.Print(rendered)
		return nil
	},
}

// delete

var (
	forceDelete bool
	deleteJSON  bool
)

var ingredientDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete an ingredient",
	Long:    `Deletes an ingredient after confirmation (use -f to skip confirmation).`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := parseID(args[0])
		if err != nil {
			return cmdError(deleteJSON, output.ErrValidation, "%v", err)
		}

		ing, err := db.Ingredient(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return cmdError(deleteJSON, output.ErrNotFound, "ingredient %d not found", id)
		}
		if err != nil {
			return cmdError(deleteJSON, output.ErrInternal, "%v", err)
		}

		// JSON implies force (no prompts for machines)
		if !forceDelete && !deleteJSON {
			var confirm bool
			err := huh.NewConfirm().
				Title(fmt.Sprintf("Delete '%s' (%d)?", ing.Name, ing.ID)).
				Affirmative("Yes").
				Negative("No").
				Value(&confirm).
				Run()
			if err != nil {
				return err
			}
			if !confirm {
				fmt.Println("Cancelled")
				return nil
			}
		}

		resolver, err := newResolver(ctx)
		if err != nil {
			return cmdError(deleteJSON, output.ErrInternal, "%v", err)
		}
		defer resolver.Index.Close()

		if _, err := resolver.Mutation().DeleteIngredient(ctx, id); err != nil {
			if errors.Is(err, graph.ErrNotFound) {
				return cmdError(deleteJSON, output.ErrNotFound, "%v", err)
			}
			return cmdError(deleteJSON, output.ErrInternal, "failed to delete ingredient: %v", err)
		}

		if deleteJSON {
			return output.Success(ing, "Ingredient deleted")
		}
		fmt.Printf("Deleted %s (%d)\n", ing.Name, ing.ID)
		return nil
	},
}

// search

var (
	searchLimit int
	searchJSON  bool
	searchQuiet bool
)

var ingredientSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over ingredient names and origins",
	Long: `Searches ingredients by name and origin. The query uses query-string
syntax: "saffron", "origin:iran", "pepper -black", "cinn*".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, err := newResolver(cmd.Context())
		if err != nil {
			return cmdError(searchJSON, output.ErrInternal, "%v", err)
		}
		defer resolver.Index.Close()

		limit := int64(searchLimit)
		ingredients, err := resolver.Query().SearchIngredients(cmd.Context(), strings.Join(args, " "), &limit)
		if err != nil {
			return cmdError(searchJSON, output.ErrValidation, "%v", err)
		}
		return printIngredients(ingredients, searchJSON, searchQuiet)
	},
}

func init() {
	ingredientCreateCmd.Flags().StringVarP(&createOrigin, "origin", "o", "", "Origin of the ingredient")
	ingredientCreateCmd.Flags().BoolVar(&createJSON, "json", false, "Output as JSON")

	ingredientListCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	ingredientListCmd.Flags().BoolVarP(&listQuiet, "quiet", "q", false, "Only output IDs")
	ingredientListCmd.MarkFlagsMutuallyExclusive("json", "quiet")

	ingredientShowCmd.Flags().BoolVar(&showJSON, "json", false, "Output as JSON")
	ingredientShowCmd.Flags().BoolVar(&showRaw, "raw", false, "Output raw markdown without styling")
	ingredientShowCmd.MarkFlagsMutuallyExclusive("json", "raw")

	ingredientDeleteCmd.Flags().BoolVarP(&forceDelete, "force", "f", false, "Skip confirmation")
	ingredientDeleteCmd.Flags().BoolVar(&deleteJSON, "json", false, "Output as JSON (implies --force)")

	ingredientSearchCmd.Flags().IntVarP(&searchLimit, "limit", "n", search.DefaultSearchLimit, "Maximum number of results")
	ingredientSearchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output as JSON")
	ingredientSearchCmd.Flags().BoolVarP(&searchQuiet, "quiet", "q", false, "Only output IDs")

	ingredientCmd.AddCommand(ingredientCreateCmd, ingredientListCmd, ingredientShowCmd, ingredientDeleteCmd, ingredientSearchCmd)
	rootCmd.AddCommand(ingredientCmd)
}
