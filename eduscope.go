// Package eduscope provides the query and aggregation engine behind the
// GenAI-in-higher-education dashboard.
//
// Usage:
//
//	import "github.com/eduscope-org/eduscope/engine"
//
//	pred, err := engine.BuildPredicate(view, filterSpec)
//	result, err := engine.Aggregate(view, pred, []string{"region"}, engine.Count())
//	series := engine.BuildSeries(result, "bar", "Institutions by Region")
//
// The dataset is loaded once at startup and never mutated afterwards. Every
// dashboard interaction re-runs the full pipeline: build a predicate from the
// user's filter selections, aggregate over the matching records, and reshape
// the result into chart-ready series. All computation is local and
// deterministic — repeated calls with identical inputs produce identical
// output, including group ordering.
package eduscope
