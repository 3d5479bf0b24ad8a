package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/internal/core/ident"
	"github.com/loomkit/loom/internal/core/registry"
	"github.com/loomkit/loom/internal/core/serialize"
	"github.com/loomkit/loom/internal/presentation"
)

var snapshotVerifyCmd = &cobra.Command{
	Use:   "verify <guid>",
	Short: "Rebuild a snapshot in memory and report problems",
	Long: `Rebuild a snapshot's records into a scratch component graph and
report identifiers that fail to materialize and references that do not
resolve. The stored snapshot is not modified.

Examples:
  # Verify a snapshot
  loom snapshot verify 4f2a9c

  # Capture the reconstruction trace alongside the result
  loom config trace on --exporter file && loom snapshot verify 4f2a9c`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, repo, err := openRepository()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		snap, err := repo.FindByGUID(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		result, verifyErr := verifyRecords(cmd.Context(), snap.Records)
		formatter := presentation.NewFormatter(os.Stdout)
		if err := formatter.FormatResult(result); err != nil {
			return err
		}
		if verifyErr != nil {
			return fmt.Errorf("snapshot %s failed verification", snap.GUID)
		}
		return nil
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotVerifyCmd)
}

// scratchComponent stands in for every kind during verification. It takes
// any recorded property, which is enough to prove that identifiers parse,
// parent chains attach, and bindings resolve. It deliberately does not
// implement HasProperty, so binding verification stays structural.
type scratchComponent struct {
	props map[string]any
}

func (c *scratchComponent) Values() map[string]any {
	return c.props
}

func (c *scratchComponent) ApplyProperties(values map[string]any) error {
	if c.props == nil {
		c.props = make(map[string]any, len(values))
	}
	for name, value := range values {
		c.props[name] = value
	}
	return nil
}

// verifyRecords replays records into a throwaway registry and summarizes
// the outcome. The returned error is non-nil when any record failed or
// any reference dangled.
func verifyRecords(ctx context.Context, records []serialize.Record) (map[string]any, error) {
	reg := registry.New()
	defer reg.Close()

	factories := serialize.NewFactories()
	seen := make(map[ident.Kind]struct{})
	for _, rec := range records {
		if _, ok := seen[rec.Kind]; ok {
			continue
		}
		seen[rec.Kind] = struct{}{}
		if err := factories.Register(rec.Kind, func() (registry.Component, error) {
			return &scratchComponent{}, nil
		}); err != nil {
			return nil, err
		}
	}

	manager := serialize.NewManager(reg, factories, serialize.WithTracer(tracer()))
	components, err := manager.DeserializeGraph(ctx, records)

	result := map[string]any{
		"records": len(records),
		"rebuilt": len(components),
		"valid":   err == nil,
	}

	var report *serialize.Report
	if errors.As(err, &report) {
		if len(report.Failed) > 0 {
			result["failed"] = report.Failed
		}
		if len(report.Dangling) > 0 {
			dangling := make([]string, len(report.Dangling))
			for i, d := range report.Dangling {
				dangling[i] = d.Error()
			}
			result["dangling"] = dangling
		}
		if len(report.Wiring) > 0 {
			wiring := make([]string, len(report.Wiring))
			for i, w := range report.Wiring {
				wiring[i] = w.Error()
			}
			result["wiring"] = wiring
		}
		return result, report
	}
	return result, err
}
