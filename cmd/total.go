package cmd

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hmans/larder/internal/food"
	"github.com/hmans/larder/internal/output"
)

var totalJSON bool

var totalCmd = &cobra.Command{
	Use:   "total <a> <b>",
	Short: "Add two numbers",
	Long: `Prints a + b using IEEE-754 addition. NaN inputs give NaN.

Negative numbers must follow "--", for example: larder total -- -1.5 2`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var operands [2]float64
		for i, arg := range args {
			f, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return cmdError(totalJSON, output.ErrValidation, "invalid number %q", arg)
			}
			operands[i] = f
		}

		total := food.GetTotal(operands[0], operands[1])

		if totalJSON {
			// JSON cannot carry NaN or infinities.
			var data *float64
			if !math.IsNaN(total) && !math.IsInf(total, 0) {
				data = &total
			}
			return output.JSON(output.Response{Success: true, Data: data, Message: formatTotal(total)})
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatTotal(total))
		return nil
	},
}

func formatTotal(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func init() {
	totalCmd.Flags().BoolVar(&totalJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(totalCmd)
}
