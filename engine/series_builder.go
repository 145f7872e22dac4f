package engine

import "strings"

// ============================================================================
// SERIES BUILDER — AggregationResult → chart-ready SeriesData
// ============================================================================
// Pure reshaping: no recomputation, no reordering beyond the pivot needed
// for two-level group-bys. Insufficient groups become Missing points so the
// front-end renders a gap instead of a zero.
// ============================================================================

// BuildSeries shapes an AggregationResult for a chart kind.
// One group-by attribute (or none) yields a single series; two or more yield
// one series per trailing-label tuple, pivoted over the primary labels.
func BuildSeries(result *AggregationResult, chartKind, title string) *SeriesData {
	if chartKind == "" {
		chartKind = "bar"
	}

	data := &SeriesData{
		ChartKind: chartKind,
		Title:     title,
		YLabel:    metricLabel(result.Metric),
	}
	if len(result.GroupBy) > 0 {
		data.XLabel = AttrLabel(result.GroupBy[0])
	}

	if len(result.GroupBy) >= 2 {
		buildPivotedSeries(data, result)
	} else {
		buildFlatSeries(data, result)
	}
	return data
}

func buildFlatSeries(data *SeriesData, result *AggregationResult) {
	points := make([]Point, 0, len(result.Groups))
	for _, g := range result.Groups {
		data.Labels = append(data.Labels, g.Key)
		points = append(points, Point{
			Label:   g.Key,
			Value:   g.Value,
			Missing: g.Insufficient,
		})
	}
	name := data.YLabel
	if name == "" {
		name = "Value"
	}
	data.Series = []Series{{Name: name, Points: points}}
}

// buildPivotedSeries turns tuple-keyed groups into one series per trailing
// label tuple (labels past the first, joined with GroupKeySep, so deeper
// group-bys never collapse into each other). Primary and secondary orders
// both follow first appearance in the result, so the pivot stays
// deterministic.
func buildPivotedSeries(data *SeriesData, result *AggregationResult) {
	var primaries, secondaries []string
	primarySeen := make(map[string]bool)
	secondarySeen := make(map[string]bool)
	cell := make(map[string]GroupStat)

	for _, g := range result.Groups {
		p, s := g.Labels[0], joinKey(g.Labels[1:])
		if !primarySeen[p] {
			primarySeen[p] = true
			primaries = append(primaries, p)
		}
		if !secondarySeen[s] {
			secondarySeen[s] = true
			secondaries = append(secondaries, s)
		}
		cell[p+GroupKeySep+s] = g
	}

	data.Labels = primaries
	data.Series = make([]Series, 0, len(secondaries))
	for _, s := range secondaries {
		points := make([]Point, 0, len(primaries))
		for _, p := range primaries {
			g, ok := cell[p+GroupKeySep+s]
			points = append(points, Point{
				Label:   p,
				Value:   g.Value,
				Missing: !ok || g.Insufficient,
			})
		}
		data.Series = append(data.Series, Series{Name: s, Points: points})
	}
}

// ============================================================================
// LABELS
// ============================================================================

// AttrLabel turns an attribute key into a display label:
// "policy_stance" → "Policy Stance".
func AttrLabel(attr string) string {
	words := strings.Split(attr, "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func metricLabel(m Metric) string {
	switch m.Kind {
	case MetricCount:
		return "Count"
	case MetricMean:
		return "Mean " + AttrLabel(m.Attr)
	case MetricCorrelation:
		return "r(" + AttrLabel(m.Attr) + ", " + AttrLabel(m.AttrB) + ")"
	}
	return "Value"
}
