package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-overstim/pkg/envelope"
	"github.com/teslashibe/go-overstim/pkg/subject"
	"github.com/teslashibe/go-overstim/pkg/trigger"
)

func newResponseCommand(ctx *commandContext) *cobra.Command {
	responseCmd := &cobra.Command{
		Use:   "response",
		Short: "Edit trigger responses",
	}
	responseCmd.AddCommand(newResponseSetCommand(ctx))
	responseCmd.AddCommand(newResponseResetCommand(ctx))
	return responseCmd
}

func parseTarget(hero, name string) (subject.Kind, trigger.ID, error) {
	k, err := subject.Parse(hero)
	if err != nil {
		return 0, 0, err
	}
	id, err := trigger.Parse(name)
	if err != nil {
		return 0, 0, err
	}
	if !trigger.Supports(k, id) {
		return 0, 0, fmt.Errorf("%s has no %s trigger", k.Title(), id.Title())
	}
	return k, id, nil
}

func newResponseSetCommand(ctx *commandContext) *cobra.Command {
	var disable bool

	cmd := &cobra.Command{
		Use:   "set <hero> <trigger> [envelope]",
		Short: "Set the response of a trigger",
		Example: `  overstim response set mercy elimination "40% 3s"
  overstim response set juno glide_boost "pattern x2: 20% 0.5s, 60% 0.5s"
  overstim response set lucio assist --disable`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, id, err := parseTarget(args[0], args[1])
			if err != nil {
				return err
			}

			env := trigger.DefaultEnvelope(k, id)
			if len(args) == 3 {
				if env, err = envelope.Parse(strings.TrimSpace(args[2])); err != nil {
					return err
				}
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.SetResponse(cmd.Context(), k, id, env, !disable); err != nil {
				return err
			}

			state := env.String()
			if disable {
				state = "disabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", k.Title(), id.Title(), state)
			return nil
		},
	}
	cmd.Flags().BoolVar(&disable, "disable", false, "Disable the trigger")
	return cmd
}

func newResponseResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <hero> <trigger>",
		Short: "Restore the default response of a trigger",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, id, err := parseTarget(args[0], args[1])
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.ResetResponse(cmd.Context(), k, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", k.Title(), id.Title(), trigger.DefaultEnvelope(k, id))
			return nil
		},
	}
}
