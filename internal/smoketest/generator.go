package smoketest

import (
	"context"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/okian/churnrisk/internal/domain/customer"
	"github.com/okian/churnrisk/pkg/logger"
)

// generateRecords builds n valid records drawn uniformly from each field's
// domain. The same seed yields the same records.
func generateRecords(ctx context.Context, n int, seed uint64) ([]customer.Record, error) {
	logger.Get().Info(ctx, "generating records", logger.Int("records", n))

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	fields := customer.Schema()
	records := make([]customer.Record, 0, n)

	for range n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		values := make(map[string][]string, len(fields))
		for _, f := range fields {
			values[f.Name] = []string{randomValue(rng, f)}
		}
		rec, err := customer.FromValues(values)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func randomValue(rng *rand.Rand, f customer.Field) string {
	switch {
	case len(f.Choices) > 0:
		return f.Choices[rng.IntN(len(f.Choices))]
	case f.Kind == customer.KindInteger:
		lo, hi := int(f.Min), int(f.Max)
		return strconv.Itoa(lo + rng.IntN(hi-lo+1))
	default:
		v := f.Min + rng.Float64()*(f.Max-f.Min)
		v = math.Round(v*100) / 100
		return strconv.FormatFloat(math.Min(math.Max(v, f.Min), f.Max), 'f', 2, 64)
	}
}
