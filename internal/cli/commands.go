package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/specialistvlad/flowgraph/internal/eval"
	"github.com/specialistvlad/flowgraph/internal/flowgraph"
	"github.com/spf13/cobra"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

func newValidateCommand(opts *options) *cobra.Command {
	var showWarnings bool
	cmd := &cobra.Command{
		Use:   "validate PATH",
		Short: "Check a design and report every problem found",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fg, _, err := opts.app.Load(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			ds := fg.Validate()
			errCount := 0
			for _, d := range ds {
				if d.Severity == flowgraph.SeverityError {
					errCount++
				} else if !showWarnings {
					continue
				}
				fmt.Fprintln(w, d.Error())
			}
			if errCount > 0 {
				return &ExitError{Code: 1, Message: fmt.Sprintf("%s: %d error(s) found", args[0], errCount)}
			}
			fmt.Fprintf(w, "%s is valid\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showWarnings, "warnings", "w", false, "Also print warnings.")
	return cmd
}

func newOrderCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "order PATH [NAME]",
		Short: "Print the variables of a design in evaluation order",
		Long: `Without NAME, prints every variable in evaluation order. With NAME,
prints the variables NAME refers to and every variable a change to NAME
affects.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fg, _, err := opts.app.Load(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(args) == 2 {
				deps, err := fg.Dependencies(args[1])
				if err != nil {
					return &ExitError{Code: 1, Message: err.Error()}
				}
				affected, err := fg.Dependents(args[1], true)
				if err != nil {
					return &ExitError{Code: 1, Message: err.Error()}
				}
				fmt.Fprintf(w, "depends on: %s\n", strings.Join(deps, ", "))
				fmt.Fprintf(w, "affects: %s\n", strings.Join(affected, ", "))
				return nil
			}
			order, err := fg.VariableOrder()
			if err != nil {
				return &ExitError{Code: 1, Message: err.Error()}
			}
			for _, name := range order {
				fmt.Fprintln(w, name)
			}
			return nil
		},
	}
}

func newEvalCommand(opts *options) *cobra.Command {
	var exprs []string
	var stats bool
	cmd := &cobra.Command{
		Use:   "eval PATH [NAME | BLOCK.PARAM]...",
		Short: "Evaluate variables, parameters or expressions of a design",
		Long: `Without names, every variable is printed in evaluation order. A name
with a dot evaluates one parameter of a block. Expressions given with --expr
are evaluated against the design's variables.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fg, _, err := opts.app.Load(args[0])
			if err != nil {
				return err
			}

			names := args[1:]
			if len(names) == 0 && len(exprs) == 0 {
				if names, err = fg.VariableOrder(); err != nil {
					return &ExitError{Code: 1, Message: err.Error()}
				}
			}

			w := cmd.OutOrStdout()
			failed := 0
			show := func(label string, v cty.Value, err error) {
				if err != nil {
					failed++
					fmt.Fprintf(w, "%s: %v\n", label, err)
					return
				}
				fmt.Fprintf(w, "%s = %s\n", label, formatValue(v))
			}
			for _, name := range names {
				if block, param, ok := strings.Cut(name, "."); ok {
					v, err := fg.ParamValue(block, param)
					show(name, v, err)
					continue
				}
				v, err := fg.Value(name)
				show(name, v, err)
			}
			for _, text := range exprs {
				v, err := fg.Evaluate(text, eval.Raw)
				show(text, v, err)
			}

			if stats {
				printStats(cmd, fg, opts.app.Gatherer())
			}
			if failed > 0 {
				return &ExitError{Code: 1, Message: fmt.Sprintf("%d evaluation(s) failed", failed)}
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&exprs, "expr", "e", nil, "Expression to evaluate. May be repeated.")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print evaluation cache statistics.")
	return cmd
}

// formatValue renders v as JSON, falling back to its Go form for values JSON
// cannot carry.
func formatValue(v cty.Value) string {
	if !v.IsWhollyKnown() {
		return "(unknown)"
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	return string(b)
}

func printStats(cmd *cobra.Command, fg *flowgraph.FlowGraph, gatherer prometheus.Gatherer) {
	w := cmd.OutOrStdout()
	s := fg.Engine().Stats()
	fmt.Fprintf(w, "namespace builds: %d\n", s.Builds)
	fmt.Fprintf(w, "cache hits: %d\n", s.Hits)
	fmt.Fprintf(w, "cache misses: %d\n", s.Misses)
	fmt.Fprintf(w, "cache entries: %d\n", s.Entries)

	families, err := gatherer.Gather()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "failed to gather metrics: %v\n", err)
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed to write metrics: %v\n", err)
			return
		}
	}
}

func newUpgradeCommand(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "upgrade PATH",
		Short: "Rewrite a design in the current file format",
		Long: `Loads a design, including legacy designs without a format field, and
writes it back in the current format. Unknown blocks are kept as they are.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fg, diags, err := opts.app.Load(args[0])
			if err != nil {
				return err
			}
			for _, d := range diags {
				fmt.Fprintln(cmd.ErrOrStderr(), d.Error())
			}
			if output == "" {
				return opts.app.Write(cmd.OutOrStdout(), fg)
			}
			return opts.app.Save(output, fg)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of standard output.")
	return cmd
}

func newBlocksCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "blocks",
		Short: "List the available block definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := opts.app.Registry()
			keys := reg.Keys()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tCATEGORY\tLABEL")
			for _, key := range keys {
				def, _ := reg.Lookup(key)
				label := def.Label
				if def.Deprecated {
					label += " (deprecated)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", key, def.Category, label)
			}
			return tw.Flush()
		},
	}
}
