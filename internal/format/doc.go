// Package format turns records, label lists and search results into
// bounded-size display pages.
//
// Sizes are measured in runes. A list page stays under Limits.ListBudget;
// a record or results page holds sections of at most Limits.FieldMax runes
// and breaks once its content passes Limits.PageBreak.
package format
