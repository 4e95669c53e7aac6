package cli

import (
	"github.com/spf13/cobra"

	"rollcall-scores-go/guess"
)

func newGuessCmd(_ *rootFlags) *cobra.Command {
	var lo, hi int

	cmd := &cobra.Command{
		Use:   "guess",
		Short: "Play the number-guessing game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := &guess.Session{
				In:   cmd.InOrStdin(),
				Out:  cmd.OutOrStdout(),
				Rand: clockRand(),
				Min:  lo,
				Max:  hi,
			}
			// The session prints its own failure message.
			_, _ = s.Run()
			return nil
		},
	}

	cmd.Flags().IntVar(&lo, "min", 1, "smallest possible secret")
	cmd.Flags().IntVar(&hi, "max", 100, "largest possible secret")
	return cmd
}
