package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ocn-network/ocn-common-go/contracts"
	"github.com/ocn-network/ocn-common-go/schema"
	"github.com/ocn-network/ocn-common-go/trace"
)

// errInvalid signals a failed check whose details were already printed
var errInvalid = errors.New("validation failed")

func newValidateCmd(a *app) *cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a payload or CloudEvent",
	}

	var schemaName string
	payloadCmd := &cobra.Command{
		Use:   "payload FILE|-",
		Short: "Validate a mandate payload against a mandate schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), schemaName, a.validator.ValidatePayload(body, schemaName))
		},
	}
	payloadCmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Mandate schema name, e.g. payment_mandate")
	_ = payloadCmd.MarkFlagRequired("schema")

	var wireType string
	eventCmd := &cobra.Command{
		Use:   "event FILE|-",
		Short: "Validate a CloudEvent against the schema registered for its type",
		Long: `Validate a CloudEvent. The type defaults to the event's own "type"
attribute; --type checks it against a specific wire type instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			t := wireType
			if t == "" {
				evt, err := contracts.ParseEvent(body)
				if err != nil {
					return err
				}
				t = evt.Type
			}
			return report(cmd.OutOrStdout(), t, a.validator.ValidateCloudEvent(body, t))
		},
	}
	eventCmd.Flags().StringVarP(&wireType, "type", "t", "", "CloudEvent wire type, e.g. ocn.orca.decision.v1")

	validateCmd.AddCommand(payloadCmd, eventCmd)
	return validateCmd
}

// report prints the outcome of a fail-fast check. Validation failures are
// printed and turned into errInvalid; other errors are returned as is.
func report(w io.Writer, subject string, err error) error {
	var validationErr *schema.ValidationError
	switch {
	case err == nil:
		fmt.Fprintf(w, "%s %s\n", statusOKStyle.Render("VALID"), subject)
		return nil
	case errors.As(err, &validationErr):
		fmt.Fprintf(w, "%s %s\n", statusErrorStyle.Render("INVALID"), subject)
		printViolations(w, []schema.Violation{validationErr.Violation})
		return errInvalid
	default:
		return err
	}
}

func newErrorsCmd(a *app) *cobra.Command {
	var (
		schemaName string
		category   string
	)

	errorsCmd := &cobra.Command{
		Use:   "errors FILE|-",
		Short: "Print every violation as JSON",
		Long:  "Print every schema violation of the input as a JSON array. An empty array means the input is valid.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := schema.ParseCategory(category)
			if err != nil {
				return err
			}
			body, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			violations := a.validator.Violations(body, schemaName, c)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(violations); err != nil {
				return err
			}
			if len(violations) > 0 {
				return errInvalid
			}
			return nil
		},
	}
	errorsCmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Schema name")
	errorsCmd.Flags().StringVar(&category, "category", "mandate", "Schema category: mandate or event")
	_ = errorsCmd.MarkFlagRequired("schema")

	return errorsCmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [mandates|events]",
		Short: "List schemas available on disk",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			categories := []schema.Category{schema.CategoryMandate, schema.CategoryEvent}
			if len(args) == 1 {
				c, err := schema.ParseCategory(args[0])
				if err != nil {
					return err
				}
				categories = []schema.Category{c}
			}

			w := cmd.OutOrStdout()
			for _, c := range categories {
				names, err := a.validator.ListAvailable(c)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, headerStyle.Render(c.String()))
				for _, name := range names {
					fmt.Fprintf(w, "  %s\n", name)
				}
			}
			return nil
		},
	}
}

func newTypesCmd(a *app) *cobra.Command {
	var (
		match   string
		version string
	)

	typesCmd := &cobra.Command{
		Use:   "types",
		Short: "List registered CloudEvent types and their schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := a.validator.Registry()
			w := cmd.OutOrStdout()

			fmt.Fprintf(w, "%-32s %s\n", "Type", "Schema")
			for _, wireType := range registry.Types() {
				et, err := contracts.ParseEventType(wireType)
				if err == nil && !et.Matches(match, version) {
					continue
				}
				id, err := registry.Resolve(wireType)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%-32s %s\n", wireType, id)
			}
			return nil
		},
	}
	typesCmd.Flags().StringVarP(&match, "match", "m", "", "Glob over the wire type, e.g. 'ocn.orca.*'")
	typesCmd.Flags().StringVar(&version, "version", "", "Major version or constraint, e.g. 'v1' or '>=1'")

	return typesCmd
}

func newTraceCmd() *cobra.Command {
	traceCmd := &cobra.Command{
		Use:   "trace",
		Short: "Trace ID utilities",
		// Trace commands never touch schemas
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}

	var asJSON bool
	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a trace ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := trace.NewFields("")
			if !asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), fields.TraceID())
				return nil
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(fields)
		},
	}
	newCmd.Flags().BoolVar(&asJSON, "json", false, "Print the full correlation context as JSON")

	checkCmd := &cobra.Command{
		Use:   "check ID",
		Short: "Check that ID is a valid trace ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !trace.IsValid(args[0]) {
				return fmt.Errorf("%q is not a UUID v4 trace id", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", statusOKStyle.Render("VALID"), args[0])
			return nil
		},
	}

	traceCmd.AddCommand(newCmd, checkCmd)
	return traceCmd
}

// readInput reads the named file, or standard input for "-"
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}
