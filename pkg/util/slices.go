package util

import "golang.org/x/exp/slices"

// UniqueStrings returns the distinct non-empty values of input in first-seen order
func UniqueStrings(input []string) []string {
	seen := make(map[string]bool, len(input))
	var list []string

	for _, item := range input {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		list = append(list, item)
	}

	return list
}

func ContainsString(s []string, str string) bool {
	return slices.Contains(s, str)
}
