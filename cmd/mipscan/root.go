package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/sarchlab/mipscan/internal/logging"
	"github.com/sarchlab/mipscan/resolve"
	"github.com/sarchlab/mipscan/sigdb"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	debug bool
	sigdb string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "mipscan",
		Short: "Locate the controller status buffer in MIPS memory images",
		Long: `mipscan recognizes libultra routines in a MIPS R4300 memory image by
their instruction patterns and call shapes, and recovers the address of the
controller status buffer from the code that references it.`,
		Example: `  mipscan scan rdram.bin
  mipscan scan --byte-order little --json dumps/*.bin.gz
  mipscan watch --name mupen64plus
  mipscan disasm --offset 0x100 --count 32 rdram.bin`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "Debug")
	root.PersistentFlags().StringVar(&opts.sigdb, "sigdb", "", "Signature database YAML (default: built-in)")

	root.AddCommand(
		newScanCmd(opts),
		newWatchCmd(opts),
		newDisasmCmd(),
		newSchemaCmd(),
	)
	return root
}

// logger builds the command logger. Logs go to the command's stderr unless
// the environment redirects them to a file.
func (o *globalOptions) logger(cmd *cobra.Command) *logging.LoggerCloser {
	var lc *logging.LoggerCloser
	if os.Getenv(logging.EnvToFile) == "1" {
		lc = logging.NewLogger()
	} else {
		lc = logging.NewLoggerWithWriter(cmd.ErrOrStderr())
	}

	if o.debug {
		lc.SetLevel(log.DebugLevel)
	}
	return lc
}

func (o *globalOptions) database() (*sigdb.Database, error) {
	if o.sigdb == "" {
		return sigdb.Default(), nil
	}
	return sigdb.LoadFile(o.sigdb)
}

// resolver builds a resolver over the selected database. An empty profile
// name keeps every profile.
func (o *globalOptions) resolver(
	strategy resolve.Strategy,
	profile string,
	logger *log.Logger,
) (*resolve.Resolver, error) {
	db, err := o.database()
	if err != nil {
		return nil, err
	}

	opts := []resolve.ResolverOption{
		resolve.WithDatabase(db),
		resolve.WithStrategy(strategy),
		resolve.WithLogger(logger),
	}
	if profile != "" {
		p, ok := db.Profile(profile)
		if !ok {
			return nil, errors.Newf("unknown profile %q (have %v)", profile, db.Names())
		}
		opts = append(opts, resolve.WithProfiles(p))
	}

	return resolve.NewResolver(opts...), nil
}
