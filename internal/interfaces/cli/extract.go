package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/SynthonScope/internal/application/reactivity"
)

type extractOptions struct {
	reaction  string
	atomProps string
	bondProps string
}

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract the reactive sites and synthons of a mapped reaction",
		Example: `  synscope extract -r "[CH3:1][CH2:2][OH:3]>>[CH3:1][CH2:2][O-:3]"
  synscope extract -r "..." --atom-props atomic_number,formal_charge -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.reaction, "reaction", "r", "", "mapped reaction SMILES (reactants>agents>products)")
	f.StringVar(&opts.atomProps, "atom-props", "", "comma separated atom properties (all, none or a list); unset uses the configured default")
	f.StringVar(&opts.bondProps, "bond-props", "", "comma separated bond properties (all, none or a list); unset uses the configured default")
	_ = cmd.MarkFlagRequired("reaction")
	return cmd
}

func runExtract(cmd *cobra.Command, opts *extractOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := cliCtx.withTimeout(cmd)
	defer cancel()

	result, err := cliCtx.Service.Analyze(ctx, &reactivity.AnalyzeRequest{
		ReactionSMILES: opts.reaction,
		AtomProperties: splitList(cmd, "atom-props", opts.atomProps),
		BondProperties: splitList(cmd, "bond-props", opts.bondProps),
	})
	if err != nil {
		return err
	}
	return PrintResult(cmd, extractOutput{result})
}

// extractOutput marshals as the analysis result and renders a per-product
// listing as text.
type extractOutput struct {
	*reactivity.AnalysisResult
}

func (o extractOutput) RenderText() string {
	var sb strings.Builder
	r := o.AnalysisResult
	fmt.Fprintf(&sb, "reaction:     %s\n", r.ReactionSMILES)
	fmt.Fprintf(&sb, "atom filter:  %s\n", filterText(r.AtomFilter))
	fmt.Fprintf(&sb, "bond filter:  %s\n", filterText(r.BondFilter))
	if r.Report == nil {
		return sb.String()
	}
	for _, p := range r.Report.Products {
		fmt.Fprintf(&sb, "product %d\n", p.ProductIndex)
		fmt.Fprintf(&sb, "  reactive sites:      %v\n", p.ReactiveSites)
		fmt.Fprintf(&sb, "  synthon map numbers: %v\n", r.Report.SynthonMapNumbers(p.ProductIndex))
		for _, rs := range p.Reactants {
			fmt.Fprintf(&sb, "  reactant %d: reactive sites %v, synthons %v\n",
				rs.ReactantIndex, rs.ReactiveSites, rs.Synthons)
		}
	}
	return sb.String()
}

func filterText(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ",")
}

// ─────────────────────────────────────────────────────────────────────────────
// classify
// ─────────────────────────────────────────────────────────────────────────────

type classifyOptions struct {
	reactant  string
	product   string
	atomProps string
	bondProps string
}

// NewClassifyCmd creates the classify command.
func NewClassifyCmd() *cobra.Command {
	opts := &classifyOptions{}
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify the mapped atoms of one reactant against one product",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.reactant, "reactant", "", "mapped reactant SMILES")
	f.StringVar(&opts.product, "product", "", "mapped product SMILES")
	f.StringVar(&opts.atomProps, "atom-props", "", "comma separated atom properties")
	f.StringVar(&opts.bondProps, "bond-props", "", "comma separated bond properties")
	_ = cmd.MarkFlagRequired("reactant")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

func runClassify(cmd *cobra.Command, opts *classifyOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := cliCtx.withTimeout(cmd)
	defer cancel()

	result, err := cliCtx.Service.Classify(ctx, &reactivity.ClassifyRequest{
		ReactantSMILES: opts.reactant,
		ProductSMILES:  opts.product,
		AtomProperties: splitList(cmd, "atom-props", opts.atomProps),
		BondProperties: splitList(cmd, "bond-props", opts.bondProps),
	})
	if err != nil {
		return err
	}
	return PrintResult(cmd, classifyOutput{result})
}

type classifyOutput struct {
	*reactivity.ClassifyResult
}

func (o classifyOutput) RenderText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "synthons:                %v\n", o.Synthons)
	fmt.Fprintf(&sb, "reactant reactive sites: %v\n", o.ReactantReactive)
	fmt.Fprintf(&sb, "product reactive sites:  %v\n", o.ProductReactive)
	return sb.String()
}

//Personal.AI order the ending
