package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/akolanti/GoRAG/internal/adapter"
	"github.com/akolanti/GoRAG/internal/rag/aggregate"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var (
	aggregateDocument string
	aggregateFilters  []string
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate [operation] [field]",
	Short: "Aggregate a numeric field over structured JSON records",
	Long: `Computes max, min, sum, average, median or count of a dot separated field,
e.g. "ragctl aggregate sum products.price --filter products.category=toys".`,
	Args: cobra.ExactArgs(2),
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().StringVarP(&aggregateDocument, "document", "d", "", "aggregate over one document id only")
	aggregateCmd.Flags().StringArrayVarP(&aggregateFilters, "filter", "f", nil, "field=value, repeatable; values are parsed as JSON when possible")
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	filter, err := parseFilters(aggregateFilters)
	if err != nil {
		return err
	}

	res, err := ragService.Aggregate(context.Background(), aggregate.Request{
		Field:      args[1],
		Operation:  aggregate.Operation(strings.ToLower(args[0])),
		Filter:     filter,
		DocumentId: aggregateDocument,
	})
	if err != nil {
		return fmt.Errorf("aggregate failed: %w", err)
	}

	if outputJSON {
		return printJSON(cmd, adapter.ToAggregateResponse(res))
	}
	cmd.Printf("%s(%s) = %g over %d values in %s\n", res.Operation, res.Field, res.Result, res.Count, res.DocumentId)
	return nil
}

// parseFilters reads field=value pairs. 10, true and null keep their JSON type, anything else is a string.
func parseFilters(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		field, raw, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(field) == "" {
			return nil, fmt.Errorf("filter %q must look like field=value", pair)
		}
		out[strings.TrimSpace(field)] = filterValue(raw)
	}
	return out, nil
}

func filterValue(raw string) any {
	if !gjson.Valid(raw) {
		return raw
	}
	v := gjson.Parse(raw)
	switch v.Type {
	case gjson.Number:
		return v.Num
	case gjson.True, gjson.False:
		return v.Bool()
	case gjson.Null:
		return nil
	case gjson.String:
		return v.Str
	}
	return raw
}
