// Package report collects the problems found during one reload and writes
// them as a flat text log.
//
// Every entry is a header line naming the problem, its line and its file,
// followed by the offending source lines. Source lines may carry
// credentials, so the writer runs them through a gitleaks Redactor first.
package report
