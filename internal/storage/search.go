package storage

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	separatorRe = regexp.MustCompile(`[_\.\-\s<>,\[\]]+`)
	camelRe     = regexp.MustCompile(`([a-z])([A-Z])`)
	letterNumRe = regexp.MustCompile(`([a-zA-Z])(\d)`)
	numLetterRe = regexp.MustCompile(`(\d)([a-zA-Z])`)
)

const (
	exactBonus   = 2.0
	partialScore = 1.0
)

// SearchResult is one match of a save library search.
type SearchResult struct {
	// Save is the name of the save holding the match.
	Save string

	// Class is the matching class, or the class owning the matching member.
	Class string

	// Member is the matching field or method name; empty for class matches.
	Member string

	// Score is the relevance score (higher is better).
	Score float64
}

// tokenize splits an identifier or type into lowercase search tokens.
// Handles camelCase, snake_case, generics and digit boundaries.
func tokenize(text string) []string {
	tokens := make(map[string]bool)
	add := func(s string) {
		if s != "" {
			tokens[strings.ToLower(s)] = true
		}
	}

	add(text)
	for _, part := range separatorRe.Split(text, -1) {
		add(part)
	}
	for _, part := range strings.Fields(separatorRe.ReplaceAllString(camelRe.ReplaceAllString(text, "$1 $2"), " ")) {
		add(part)
	}
	numSplit := numLetterRe.ReplaceAllString(letterNumRe.ReplaceAllString(text, "$1 $2"), "$1 $2")
	for _, part := range strings.Fields(separatorRe.ReplaceAllString(numSplit, " ")) {
		add(part)
	}

	result := make([]string, 0, len(tokens))
	for token := range tokens {
		result = append(result, token)
	}
	sort.Strings(result)
	return result
}

// score rates how well the query tokens match name. An exact
// case-insensitive match ranks above token overlap.
func score(query string, queryTokens []string, name string) float64 {
	if name == "" {
		return 0
	}
	var s float64
	if strings.EqualFold(query, name) {
		s += exactBonus
	}
	nameTokens := tokenize(name)
	for _, qt := range queryTokens {
		for _, nt := range nameTokens {
			if nt == qt {
				s += partialScore
				break
			}
		}
	}
	return s
}

// Search finds classes and members across every save whose names match
// query. Results are ordered by score; limit <= 0 returns all matches.
func Search(ctx context.Context, b Backend, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	queryTokens := tokenize(query)

	infos, err := b.List(ctx)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := b.Get(ctx, info.Name)
		if err != nil {
			return nil, fmt.Errorf("searching save %q: %w", info.Name, err)
		}
		for _, c := range s.Classes() {
			if sc := score(query, queryTokens, c.Name); sc > 0 {
				results = append(results, SearchResult{Save: info.Name, Class: c.Name, Score: sc})
			}
			seen := make(map[string]bool)
			for _, a := range c.Attributes {
				if seen[a.Name] {
					continue
				}
				seen[a.Name] = true
				if sc := score(query, queryTokens, a.Name); sc > 0 {
					results = append(results, SearchResult{Save: info.Name, Class: c.Name, Member: a.Name, Score: sc})
				}
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Save != results[j].Save {
			return results[i].Save < results[j].Save
		}
		if results[i].Class != results[j].Class {
			return results[i].Class < results[j].Class
		}
		return results[i].Member < results[j].Member
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
