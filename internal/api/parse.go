package api

import (
	"strings"

	"github.com/schollz/closestmatch"
	"github.com/tahcohcat/momentum/internal/models"
)

// Fuzzy matchers for the enum-like request fields, so "task completed" or
// "points" still resolve to a valid goal category.
var (
	goalTypeMatcher     *closestmatch.ClosestMatch
	goalCategoryMatcher *closestmatch.ClosestMatch
	taskSizeMatcher     *closestmatch.ClosestMatch
)

func init() {
	types := make([]string, len(models.GoalTypes))
	for i, t := range models.GoalTypes {
		types[i] = string(t)
	}
	goalTypeMatcher = closestmatch.New(types, []int{2})

	categories := make([]string, len(models.GoalCategories))
	for i, c := range models.GoalCategories {
		categories[i] = string(c)
	}
	goalCategoryMatcher = closestmatch.New(categories, []int{2})

	taskSizeMatcher = closestmatch.New([]string{
		string(models.SizeSmall),
		string(models.SizeMedium),
		string(models.SizeLarge),
	}, []int{2})
}

func normalize(input string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(input)), " ", "_")
}

func matchGoalType(input string) (models.GoalType, bool) {
	if input == "" {
		return "", false
	}

	normalized := normalize(input)
	for _, t := range models.GoalTypes {
		if normalized == string(t) {
			return t, true
		}
	}

	if closest := goalTypeMatcher.Closest(normalized); closest != "" {
		return models.GoalType(closest), true
	}
	return "", false
}

func matchGoalCategory(input string) (models.GoalCategory, bool) {
	if input == "" {
		return "", false
	}

	normalized := normalize(input)
	for _, c := range models.GoalCategories {
		if normalized == string(c) {
			return c, true
		}
	}

	if closest := goalCategoryMatcher.Closest(normalized); closest != "" {
		return models.GoalCategory(closest), true
	}
	return "", false
}

// matchTaskSize resolves free-form size input; anything unrecognizable falls
// back to medium, matching the scoring default.
func matchTaskSize(input string) models.TaskSize {
	if input == "" {
		return models.SizeMedium
	}

	normalized := normalize(input)
	if closest := taskSizeMatcher.Closest(normalized); closest != "" {
		return models.TaskSize(closest)
	}
	return models.SizeMedium
}
