package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/SynthonScope/internal/application/conversion"
)

type convertOptions struct {
	smiles    string
	stripMaps bool
}

// ConvertResult is the output of convert.
type ConvertResult struct {
	Input     string `json:"input"`
	SMILES    string `json:"smiles"`
	StripMaps bool   `json:"strip_maps"`
}

func (r ConvertResult) RenderText() string { return r.SMILES + "\n" }

// NewConvertCmd creates the convert command.
func NewConvertCmd() *cobra.Command {
	opts := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Write a molecule or reaction SMILES canonically",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.smiles, "smiles", "s", "", "molecule or reaction SMILES")
	cmd.Flags().BoolVar(&opts.stripMaps, "strip-maps", false, "remove atom map numbers")
	_ = cmd.MarkFlagRequired("smiles")
	return cmd
}

func runConvert(cmd *cobra.Command, opts *convertOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	input := strings.TrimSpace(opts.smiles)

	var out string
	if opts.stripMaps {
		out, err = cliCtx.Converter.RemoveMapNumbers(input)
	} else {
		out, err = cliCtx.Converter.Canonicalize(input)
	}
	if err != nil {
		return err
	}
	return PrintResult(cmd, ConvertResult{Input: input, SMILES: out, StripMaps: opts.stripMaps})
}

// ─────────────────────────────────────────────────────────────────────────────
// compounds
// ─────────────────────────────────────────────────────────────────────────────

// NewCompoundsCmd creates the compounds command.
func NewCompoundsCmd() *cobra.Command {
	var reaction string
	cmd := &cobra.Command{
		Use:   "compounds",
		Short: "List the molecules of a reaction SMILES",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			records, err := cliCtx.Converter.ExtractCompounds(strings.TrimSpace(reaction))
			if err != nil {
				return err
			}
			return PrintResult(cmd, compoundsOutput(records))
		},
	}
	cmd.Flags().StringVarP(&reaction, "reaction", "r", "", "reaction SMILES")
	_ = cmd.MarkFlagRequired("reaction")
	return cmd
}

func compoundsOutput(records []conversion.CompoundRecord) compoundTable {
	if records == nil {
		records = []conversion.CompoundRecord{}
	}
	return compoundTable(records)
}

type compoundTable []conversion.CompoundRecord

func (t compoundTable) RenderText() string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{
			string(r.Role), strconv.Itoa(r.Index), r.SMILES, r.UnmappedCanonicalSMILES, strconv.Itoa(r.MappedAtomCount),
		})
	}
	return FormatTable([]string{"ROLE", "INDEX", "SMILES", "UNMAPPED", "MAPPED ATOMS"}, rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// fragment
// ─────────────────────────────────────────────────────────────────────────────

type fragmentOptions struct {
	smiles    string
	atoms     []int
	atomProps string
	bondProps string
}

// NewFragmentCmd creates the fragment command.
func NewFragmentCmd() *cobra.Command {
	opts := &fragmentOptions{}
	cmd := &cobra.Command{
		Use:   "fragment",
		Short: "Print the property identity of a set of atoms",
		Long: `Print the identity of the atoms selected by --atoms (zero-based indices,
whole molecule when omitted).  Two fragments with equal keys cannot be told
apart under the chosen atom and bond properties.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			frag, err := cliCtx.Converter.FragmentIdentity(
				strings.TrimSpace(opts.smiles), opts.atoms,
				splitList(cmd, "atom-props", opts.atomProps),
				splitList(cmd, "bond-props", opts.bondProps),
			)
			if err != nil {
				return err
			}
			return PrintResult(cmd, fragmentOutput{frag})
		},
	}
	cmd.Flags().StringVarP(&opts.smiles, "smiles", "s", "", "molecule SMILES")
	cmd.Flags().IntSliceVarP(&opts.atoms, "atoms", "a", nil, "atom indices")
	cmd.Flags().StringVar(&opts.atomProps, "atom-props", "", "comma-separated atom properties (default all)")
	cmd.Flags().StringVar(&opts.bondProps, "bond-props", "", "comma-separated bond properties (default all)")
	_ = cmd.MarkFlagRequired("smiles")
	return cmd
}

type fragmentOutput struct {
	*conversion.Fragment
}

func (f fragmentOutput) RenderText() string {
	return f.Key + "\n"
}

//Personal.AI order the ending
