package main

import (
	"github.com/spf13/cobra"

	"browserfuzz/internal/mutator"
	"browserfuzz/internal/randsrc"
)

// One-shot mode: mutate a seed file once and print the variant, for piping
// straight into a target parser instead of serving over HTTP.
var mutateCmd = &cobra.Command{
	Use:   "mutate [seed-file]",
	Short: "Mutate a seed once and write the variant to stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMutate,
}

func init() {
	f := mutateCmd.Flags()
	f.String("alphabet", mutator.AlphabetBytes, `replacement alphabet: "bytes" or "printable"`)
	f.Int("count-min", 0, "minimum substitutions per variant (default 1)")
	f.Int("count-max", 0, "maximum substitutions per variant (default seed length)")
}

func runMutate(cmd *cobra.Command, args []string) error {
	var seedPath string
	if len(args) == 1 {
		seedPath = args[0]
	}
	seed, err := loadSeed(seedPath)
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("alphabet")
	alphabet, err := mutator.ParseAlphabet(name)
	if err != nil {
		return err
	}

	countMin, _ := cmd.Flags().GetInt("count-min")
	countMax, _ := cmd.Flags().GetInt("count-max")
	mut, err := mutator.New(alphabet, mutator.CountBounds{Min: countMin, Max: countMax})
	if err != nil {
		return err
	}

	out, err := mut.Mutate(randsrc.New(), seed)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
