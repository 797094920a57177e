package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-overstim/pkg/subject"
	"github.com/teslashibe/go-overstim/pkg/trigger"
)

func newTriggersCommand(ctx *commandContext) *cobra.Command {
	var heroFlag string

	cmd := &cobra.Command{
		Use:   "triggers",
		Short: "List triggers and their configured responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			heroes := subject.All()
			if heroFlag != "" {
				k, err := subject.Parse(heroFlag)
				if err != nil {
					return err
				}
				heroes = []subject.Kind{k}
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			responses, err := st.Responses(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Hero", "Trigger", "Mode", "Response", "Span", "Text"},
				triggerRows(heroes, responses),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&heroFlag, "hero", "", "Only list this hero's triggers")
	return cmd
}

func triggerRows(heroes []subject.Kind, responses trigger.Responses) [][]string {
	var rows [][]string
	for _, k := range heroes {
		for _, id := range trigger.ForSubject(k) {
			d, _ := trigger.Describe(id)
			env, ok := responses.Lookup(k, id)
			if !ok {
				rows = append(rows, []string{k.Title(), id.Title(), d.Mode.String(), "disabled", "", ""})
				continue
			}
			span := env.Span()
			if d.Mode == trigger.Conditional {
				span = "while active"
			}
			rows = append(rows, []string{k.Title(), id.Title(), d.Mode.String(), env.Summary(), span, env.String()})
		}
	}
	return rows
}
