package analysis

import "github.com/sos2a/assessment/internal/catalog"

// IndustryFactors scale RASBITA category weights for regulated verticals.
// Categories not listed keep a factor of 1.
var IndustryFactors = map[string]map[catalog.Category]float64{
	catalog.IndustryHealthcare: {
		catalog.Protect:  1.25,
		catalog.Respond:  1.30,
		catalog.Identify: 1.10,
	},
	catalog.IndustryFinance: {
		catalog.Protect: 1.20,
		catalog.Detect:  1.25,
		catalog.Govern:  1.15,
	},
}

// CategoryWeights returns the six category weights for industry, summing
// to 100.
func CategoryWeights(industry string) map[catalog.Category]float64 {
	factors := IndustryFactors[catalog.NormalizeIndustry(industry)]

	raw := make(map[catalog.Category]float64, len(catalog.Categories))
	var total float64
	for _, c := range catalog.Categories {
		f, ok := factors[c]
		if !ok {
			f = 1
		}
		raw[c] = f
		total += f
	}
	for c, f := range raw {
		raw[c] = f / total * 100
	}
	return raw
}

// CategoryScores projects domain scores onto the six categories. Each
// category score is the mean of its domains' scores, weighted by how many
// of the domain's controls map to the category. Categories without
// controls are left out of the map.
func CategoryScores(cat *catalog.Catalog, domainScores map[string]float64) map[catalog.Category]float64 {
	sums := make(map[catalog.Category]float64)
	counts := make(map[catalog.Category]int)
	for _, d := range cat.Domains {
		score := domainScores[d.ID]
		for _, c := range d.Controls {
			sums[c.Category] += score
			counts[c.Category]++
		}
	}

	out := make(map[catalog.Category]float64, len(catalog.Categories))
	for _, c := range catalog.Categories {
		if counts[c] == 0 {
			continue
		}
		out[c] = sums[c] / float64(counts[c])
	}
	return out
}

// RasbitaWeights returns the industry weights of the categories present in
// scores, re-normalized to sum to 100.
func RasbitaWeights(scores map[catalog.Category]float64, industry string) map[catalog.Category]float64 {
	all := CategoryWeights(industry)
	out := make(map[catalog.Category]float64, len(scores))
	var total float64
	for _, c := range catalog.Categories {
		if _, ok := scores[c]; ok {
			out[c] = all[c]
			total += all[c]
		}
	}
	for c, w := range out {
		out[c] = w / total * 100
	}
	return out
}

// RasbitaOverall combines category scores with the industry weights.
// Categories absent from scores carry no weight.
func RasbitaOverall(scores map[catalog.Category]float64, industry string) OverallScore {
	weights := RasbitaWeights(scores, industry)
	var s, w []float64
	for _, c := range catalog.Categories {
		if v, ok := scores[c]; ok {
			s = append(s, v)
			w = append(w, weights[c])
		}
	}
	return Aggregate(s, w)
}
