package main

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/sarchlab/mipscan/sigdb"
	"github.com/sarchlab/mipscan/watch"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema [sigdb|watch]",
		Short:     "Generate JSON schema for the configuration files",
		Long:      "Generate JSON schema for the signature database or the watch configuration",
		Hidden:    true,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"sigdb", "watch"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var v any = &sigdb.Database{}
			if len(args) == 1 && args[0] == "watch" {
				v = &watch.Config{}
			}

			reflector := new(jsonschema.Reflector)
			bts, err := json.MarshalIndent(reflector.Reflect(v), "", "  ")
			if err != nil {
				return errors.Wrap(err, "failed to marshal schema")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bts))
			return err
		},
	}
}
