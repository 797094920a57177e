package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-overstim/pkg/subject"
)

func newSubjectCommand(ctx *commandContext) *cobra.Command {
	subjectCmd := &cobra.Command{
		Use:   "subject",
		Short: "Choose the hero",
	}
	subjectCmd.AddCommand(&cobra.Command{
		Use:   "set <hero|auto>",
		Short: "Play a fixed hero, or detect it automatically",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			auto := args[0] == "auto"
			k := subject.Other
			if !auto {
				var err error
				if k, err = subject.Parse(args[0]); err != nil {
					return err
				}
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.SetSubject(cmd.Context(), auto, k); err != nil {
				return err
			}
			if auto {
				fmt.Fprintln(cmd.OutOrStdout(), "Hero: auto-detect")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Hero: %s\n", k.Title())
			}
			return nil
		},
	})
	return subjectCmd
}
