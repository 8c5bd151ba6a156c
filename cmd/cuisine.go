package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/99designs/gqlgen/graphql"
	"github.com/spf13/cobra"

	"github.com/hmans/larder/internal/food"
	"github.com/hmans/larder/internal/output"
	"github.com/hmans/larder/internal/ui"
)

var cuisineCmd = &cobra.Command{
	Use:     "cuisine",
	Aliases: []string{"cuisines"},
	Short:   "Manage cuisines",
}

var (
	cuisineBanner string
	cuisineJSON   bool
)

var cuisineCreateCmd = &cobra.Command{
	Use:     "create <name>",
	Aliases: []string{"c", "new"},
	Short:   "Create a cuisine, optionally with a banner image",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")

		var banner *graphql.Upload
		if cuisineBanner != "" {
			upload, f, err := openUpload(cuisineBanner)
			if err != nil {
				return cmdError(cuisineJSON, output.ErrFileError, "%v", err)
			}
			defer f.Close()
			banner = upload
		}

		resolver, err := newResolver(cmd.Context())
		if err != nil {
			return cmdError(cuisineJSON, output.ErrInternal, "%v", err)
		}
		defer resolver.Index.Close()

		payload, err := resolver.Mutation().CreateCuisine(cmd.Context(), name, banner)
		if err != nil {
			return cmdError(cuisineJSON, output.ErrInternal, "failed to create cuisine: %v", err)
		}
		c := payload.Cuisine

		if cuisineJSON {
			return output.Success(cuisineView(c), "Cuisine created")
		}
		line := ui.Success.Render("Created ") + ui.ID.Render(strconv.FormatInt(c.ID, 10)) + " " + c.Name
		if c.HasBanner() {
			line += " " + ui.Path.Render(storage.URL(*c.Banner))
		}
		fmt.Println(line)
		return nil
	},
}

var cuisineListJSON bool

var cuisineListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all cuisines",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cuisines, err := db.Cuisines(cmd.Context())
		if err != nil {
			return cmdError(cuisineListJSON, output.ErrInternal, "failed to list cuisines: %v", err)
		}

		if cuisineListJSON {
			views := make([]cuisineJSONView, len(cuisines))
			for i, c := range cuisines {
				views[i] = cuisineView(c)
			}
			return output.SuccessMultiple(views)
		}

		if len(cuisines) == 0 {
			fmt.Println(ui.Muted.Render("No cuisines found. Create one with: larder cuisine create <name>"))
			return nil
		}

		table := ui.NewTable(
			ui.Column{Title: "ID"},
			ui.Column{Title: "NAME", Width: 32},
			ui.Column{Title: "BANNER"},
		)
		for _, c := range cuisines {
			banner := ui.Muted.Render("-")
			if c.HasBanner() {
				banner = ui.Path.Render(storage.URL(*c.Banner))
			}
			table.AddRow(ui.ID.Render(strconv.FormatInt(c.ID, 10)), ui.Truncate(c.Name, 30), banner)
		}
		table.FitColumn(0, 2)
		fmt.Print(table.Render())
		return nil
	},
}

// cuisineJSONView adds the public banner URL to a cuisine.
type cuisineJSONView struct {
	*food.Cuisine
	BannerURL string `json:"banner_url,omitempty"`
}

func cuisineView(c *food.Cuisine) cuisineJSONView {
	v := cuisineJSONView{Cuisine: c}
	if c.HasBanner() {
		v.BannerURL = storage.URL(*c.Banner)
	}
	return v
}

func init() {
	cuisineCreateCmd.Flags().StringVarP(&cuisineBanner, "banner", "b", "", "Banner image to upload")
	cuisineCreateCmd.Flags().BoolVar(&cuisineJSON, "json", false, "Output as JSON")
	cuisineListCmd.Flags().BoolVar(&cuisineListJSON, "json", false, "Output as JSON")

	cuisineCmd.AddCommand(cuisineCreateCmd, cuisineListCmd)
	rootCmd.AddCommand(cuisineCmd)
}
