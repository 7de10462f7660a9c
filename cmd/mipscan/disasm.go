package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/sarchlab/mipscan/insts"
	"github.com/sarchlab/mipscan/loader"
	"github.com/sarchlab/mipscan/mem"
)

func newDisasmCmd() *cobra.Command {
	var (
		byteOrder string
		offset    int
		count     int
		addr      uint32
	)

	cmd := &cobra.Command{
		Use:   "disasm <image>",
		Short: "Disassemble words of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return errors.New("--count must be positive")
			}
			order, err := loader.ParseByteOrder(byteOrder)
			if err != nil {
				return err
			}

			img, err := loader.Load(args[0], order)
			if err != nil {
				return err
			}

			start := offset
			if cmd.Flags().Changed("addr") {
				i, ok := img.Index(addr)
				if !ok {
					return errors.Newf("address 0x%08X is outside the image", addr)
				}
				start = i
			}
			if !img.InRange(start) {
				return errors.Newf("offset 0x%X is outside the image (%d words)", start, img.Len())
			}

			end := min(start+count, img.Len())
			_, err = fmt.Fprint(cmd.OutOrStdout(), insts.Disassemble(img.Words(start, end), img.Addr(start)))
			return err
		},
	}

	cmd.Flags().StringVarP(&byteOrder, "byte-order", "b", "big", "Byte order of raw dumps (big or little)")
	cmd.Flags().IntVarP(&offset, "offset", "o", 0, "Word offset of the first instruction")
	cmd.Flags().Uint32VarP(&addr, "addr", "a", mem.DefaultBase, "Virtual address of the first instruction")
	cmd.Flags().IntVarP(&count, "count", "c", 16, "Number of words")
	cmd.MarkFlagsMutuallyExclusive("offset", "addr")

	return cmd
}
