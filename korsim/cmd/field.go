package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/field"
)

var fieldCmd = &cobra.Command{
	Use:   "field HEX",
	Short: "Decode a field in its wire encoding.",
	Long: fmt.Sprintf("Decode a %d-byte wire encoded field given as hex "+
		"and print its components.", field.WireSize),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := strings.ReplaceAll(args[0], " ", "")

		data, err := hex.DecodeString(raw)
		if err != nil {
			return fmt.Errorf("decode hex: %w", err)
		}

		var f field.Field
		if err := f.UnmarshalBinary(data); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "source:    %d\n", f.Source)
		fmt.Fprintf(out, "sequence:  %d\n", f.Sequence)
		fmt.Fprintf(out, "timestamp: %dus\n", f.Timestamp)

		for c := field.Component(0); int(c) < core.FieldCount; c++ {
			fmt.Fprintf(out, "%-10s %s\n", c.String()+":", f.Get(c))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(fieldCmd)
}
