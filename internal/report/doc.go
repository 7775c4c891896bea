// Package report writes the outputs of a run.
//
// Group reports list the similarity groups found by the clusterer:
//   - CSVWriter: group_id,count,websites with websites joined by " | "
//   - MarkdownWriter: summary table, status chart and group table
//   - XLSXWriter: a workbook with Groups, Members and Summary sheets
//   - JSONWriter: groups and summary for tool integration
//
// ResultLog writes one CSV row per processed domain while the scan runs
// and SummaryWriter prints the final statistics to the terminal.
package report
