package main

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/mipscan/loader"
	"github.com/sarchlab/mipscan/mem"
	"github.com/sarchlab/mipscan/resolve"
)

// errUnresolved is returned when at least one image did not resolve.
var errUnresolved = errors.New("unresolved images")

type scanOptions struct {
	byteOrder string
	strategy  string
	profile   string
	base      uint32
	json      bool
}

// scanResult is the outcome for one input file.
type scanResult struct {
	Path   string          `json:"path"`
	Digest string          `json:"digest"`
	Target *resolve.Target `json:"target,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func newScanCmd(g *globalOptions) *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan <image>...",
		Short: "Resolve the status buffer address in memory dumps or ELF files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lc := g.logger(cmd)
			defer func() { _ = lc.Close() }()

			runID := xid.New()
			logger := lc.With("run", runID.String())

			order, err := loader.ParseByteOrder(opts.byteOrder)
			if err != nil {
				return err
			}
			strategy, err := resolve.ParseStrategy(opts.strategy)
			if err != nil {
				return err
			}
			r, err := g.resolver(strategy, opts.profile, logger)
			if err != nil {
				return err
			}

			var memOpts []mem.Option
			if cmd.Flags().Changed("base") {
				memOpts = append(memOpts, mem.WithBase(opts.base))
			}

			logger.Debug("scan", "images", len(args), "strategy", strategy, "byteOrder", opts.byteOrder)
			results, err := scanAll(resolve.NewCachedResolver(r, len(args)), args, order, memOpts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json {
				err = writeJSON(out, results)
			} else {
				writeTable(out, results)
			}
			if err != nil {
				return err
			}

			failed := 0
			for _, res := range results {
				if res.Target == nil {
					failed++
				}
			}
			if failed > 0 {
				return errors.Wrapf(errUnresolved, "%d of %d", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.byteOrder, "byte-order", "b", "big", "Byte order of raw dumps (big or little)")
	cmd.Flags().StringVarP(&opts.strategy, "strategy", "s", resolve.StrategyBelow.String(),
		"Address pick strategy (below, nearest, first or farthest)")
	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "", "Only try the named signature profile")
	cmd.Flags().Uint32Var(&opts.base, "base", mem.DefaultBase, "Virtual address of the first word of raw dumps")
	cmd.Flags().BoolVarP(&opts.json, "json", "j", false, "Output results as JSON")

	return cmd
}

// scanAll loads and resolves every path concurrently. Load failures abort
// the scan; resolution failures are recorded in the result.
func scanAll(
	r *resolve.CachedResolver,
	paths []string,
	order binary.ByteOrder,
	opts ...mem.Option,
) ([]scanResult, error) {
	results := make([]scanResult, len(paths))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			img, err := loader.Load(path, order, opts...)
			if err != nil {
				return err
			}

			res := scanResult{
				Path:   path,
				Digest: fmt.Sprintf("%016x", img.Digest()),
			}
			t, err := r.Resolve(img)
			if err != nil {
				res.Error = err.Error()
			} else {
				res.Target = t
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func writeJSON(w io.Writer, results []scanResult) error {
	bts, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal results")
	}
	_, err = fmt.Fprintln(w, string(bts))
	return err
}

func writeTable(w io.Writer, results []scanResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Image", "Address", "RAM Offset", "Profile", "Call Site", "Fingerprint"})

	rows := make([][]string, 0, len(results))
	for _, res := range results {
		if res.Target == nil {
			rows = append(rows, []string{res.Path, "-", "-", "-", "-", res.Error})
			continue
		}
		t := res.Target
		rows = append(rows, []string{
			res.Path,
			fmt.Sprintf("0x%08X", t.Address),
			fmt.Sprintf("0x%06X", t.SegmentOffset()),
			t.Profile,
			fmt.Sprintf("0x%X", t.CallSite*4),
			fmt.Sprintf("0x%X+%d", t.FingerprintByteOffset(), len(t.Fingerprint)),
		})
	}

	table.AppendBulk(rows)
	table.Render()
}
