package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/benefitsnav/screener-cli/internal/condition"
)

var conditionAnswers []string

var conditionCmd = &cobra.Command{
	Use:   "condition",
	Short: "Inspect question display-condition expressions",
}

var conditionCheckCmd = &cobra.Command{
	Use:   "check <expression>",
	Short: "Parse an expression and report syntax errors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := condition.ParseRule(args[0])
		if err != nil {
			var perr *condition.ParseError
			if errors.As(err, &perr) {
				fmt.Fprintf(cmd.OutOrStdout(), "parse error at offset %d: %s\n", perr.Offset, perr.Message)
				fmt.Fprintln(cmd.OutOrStdout(), args[0])
				fmt.Fprintln(cmd.OutOrStdout(), strings.Repeat(" ", perr.Offset)+"^")
			}
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}

var conditionEvalCmd = &cobra.Command{
	Use:   "eval <expression>",
	Short: "Evaluate an expression against answers given as --answer key=value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rule, err := condition.ParseRule(args[0])
		if err != nil {
			return err
		}

		answers := make(map[string]string, len(conditionAnswers))
		for _, pair := range conditionAnswers {
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return eris.Errorf("bad --answer %q, want key=value", pair)
			}
			answers[key] = value
		}

		fmt.Fprintln(cmd.OutOrStdout(), rule.Evaluate(answers))
		return nil
	},
}

var conditionRefsCmd = &cobra.Command{
	Use:   "refs <expression>",
	Short: "List the answer keys an expression references",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rule, err := condition.ParseRule(args[0])
		if err != nil {
			return err
		}
		for _, ref := range rule.Refs() {
			fmt.Fprintln(cmd.OutOrStdout(), ref)
		}
		return nil
	},
}

func init() {
	conditionEvalCmd.Flags().StringArrayVar(&conditionAnswers, "answer", nil, "answer as key=value (repeatable)")
	conditionCmd.AddCommand(conditionCheckCmd, conditionEvalCmd, conditionRefsCmd)
	rootCmd.AddCommand(conditionCmd)
}
