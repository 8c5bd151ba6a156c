package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/hmans/larder/internal/graph"
)

var (
	queryJSON       bool
	queryVariables  string
	queryOperation  string
	queryFiles      []string
	querySchemaOnly bool
	queryRender     bool
)

var graphqlCmd = &cobra.Command{
	Use:     "graphql <query>",
	Aliases: []string{"query", "q"},
	Short:   "Execute a GraphQL query or mutation",
	Long: `Execute a GraphQL query or mutation against the catalog, in-process.

The argument should be a valid GraphQL query or mutation string.

Examples:
  # List all ingredients
  larder graphql '{ ingredients { id name origin } }'

  # Get a specific ingredient
  larder graphql '{ ingredient(ingredientId: 1) { name origin } }'

  # Create an ingredient
  larder graphql 'mutation { createIngredient(name: "saffron", origin: "Iran") { ingredient { id } } }'

  # Use variables
  larder graphql -v '{"id": 1}' 'query Get($id: Int!) { ingredient(ingredientId: $id) { name } }'

  # Attach a file as an Upload variable
  larder graphql -f banner=./thai.png 'mutation ($banner: Upload) { createCuisine(name: "Thai", banner: $banner) { cuisine { bannerUrl } } }'

  # Read from stdin
  cat query.graphql | larder graphql

  # Print the schema (rendered as markdown with --render)
  larder graphql --schema`,
	Args: func(cmd *cobra.Command, args []string) error {
		if querySchemaOnly {
			return nil
		}
		// Allow 0 args if stdin has data, or exactly 1 arg
		if len(args) > 1 {
			return fmt.Errorf("accepts at most 1 argument (the GraphQL query)")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if querySchemaOnly {
			return printSchema(cmd.OutOrStdout())
		}

		var query string
		if len(args) == 1 {
			query = args[0]
		} else {
			stdinQuery, err := readFromStdin()
			if err != nil {
				return err
			}
			if stdinQuery == "" {
				return fmt.Errorf("no query provided (pass as argument or pipe to stdin)")
			}
			query = stdinQuery
		}

		variables := map[string]any{}
		if queryVariables != "" {
			if err := json.Unmarshal([]byte(queryVariables), &variables); err != nil {
				return fmt.Errorf("invalid variables JSON: %w", err)
			}
		}

		for _, arg := range queryFiles {
			name, path, ok := strings.Cut(arg, "=")
			if !ok || name == "" || path == "" {
				return fmt.Errorf("invalid file %q (want name=path)", arg)
			}
			upload, f, err := openUpload(path)
			if err != nil {
				return err
			}
			defer f.Close()
			variables[name] = *upload
		}

		result, err := executeQuery(cmd.Context(), query, variables, queryOperation)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if queryJSON || !isTerminal(os.Stdout) {
			fmt.Fprintln(out, string(result))
		} else {
			fmt.Fprintln(out, string(pretty.Color(pretty.Pretty(result), nil)))
		}
		return nil
	},
}

// readFromStdin reads the query from stdin if data is available.
func readFromStdin() (string, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return "", fmt.Errorf("checking stdin: %w", err)
	}

	// If stdin is a terminal (no pipe), return empty
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return "", nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

// executeQuery runs a GraphQL document against the catalog.
// On success, it returns just the data portion of the response.
func executeQuery(ctx context.Context, query string, variables map[string]any, operationName string) ([]byte, error) {
	resolver, err := newResolver(ctx)
	if err != nil {
		return nil, err
	}
	defer resolver.Index.Close()

	resp := graph.Execute(ctx, resolver, query, variables, operationName)
	if len(resp.Errors) > 0 {
		return nil, graph.FormatErrors(resp.Errors)
	}
	return resp.Data, nil
}

// printSchema outputs the GraphQL schema.
func printSchema(w io.Writer) error {
	sdl := graph.SchemaSDL()
	if !queryRender {
		_, err := fmt.Fprint(w, sdl)
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	rendered, err := renderer.Render("```graphql\n" + sdl + "```\n")
	if err != nil {
		return fmt.Errorf("rendering schema: %w", err)
	}
	_, err = fmt.Fprint(w, rendered)
	return err
}

func init() {
	graphqlCmd.Flags().BoolVar(&queryJSON, "json", false, "Output raw JSON (no formatting)")
	graphqlCmd.Flags().StringVarP(&queryVariables, "variables", "v", "", "Query variables as JSON string")
	graphqlCmd.Flags().StringVarP(&queryOperation, "operation", "o", "", "Operation name (for multi-operation documents)")
	graphqlCmd.Flags().StringArrayVarP(&queryFiles, "file", "f", nil, "Attach a file as an Upload variable (name=path, can be repeated)")
	graphqlCmd.Flags().BoolVar(&querySchemaOnly, "schema", false, "Print the GraphQL schema and exit")
	graphqlCmd.Flags().BoolVar(&queryRender, "render", false, "Render the schema for the terminal (with --schema)")
	rootCmd.AddCommand(graphqlCmd)
}
