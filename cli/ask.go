package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rollcall-scores-go/assistant"
)

func newAskCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Send a prompt to Gemini and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}

			gen, err := assistant.NewGemini(cmd.Context(), assistant.Options{
				APIKey: cfg.Gemini.APIKey,
				Model:  cfg.Gemini.Model,
			})
			if err != nil {
				return err
			}
			return ask(cmd, gen, strings.Join(args, " "))
		},
	}
}

func ask(cmd *cobra.Command, gen assistant.Generator, prompt string) error {
	text, err := gen.Generate(cmd.Context(), prompt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}
