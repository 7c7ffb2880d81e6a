package authz

import (
	"slices"

	"github.com/naveenspark/opsdesk/pkg/domain"
)

// VocabularyReport lists permission names known on only one side.
type VocabularyReport struct {
	// MissingOnServer are names the console checks that the server never grants.
	// Screens guarded by them are unreachable.
	MissingOnServer []domain.Permission
	// UnknownToClient are server names the console has no constant for.
	UnknownToClient []string
}

// OK returns true when both vocabularies match.
func (r VocabularyReport) OK() bool {
	return len(r.MissingOnServer) == 0 && len(r.UnknownToClient) == 0
}

// CheckVocabulary compares the server's permission names with
// domain.AllPermissions. Results are sorted for stable logging.
func CheckVocabulary(server []string) VocabularyReport {
	var report VocabularyReport
	seen := make(map[domain.Permission]bool, len(server))
	for _, name := range server {
		p, err := domain.ParsePermission(name)
		if err != nil {
			report.UnknownToClient = append(report.UnknownToClient, name)
			continue
		}
		seen[p] = true
	}
	for _, p := range domain.AllPermissions {
		if !seen[p] {
			report.MissingOnServer = append(report.MissingOnServer, p)
		}
	}
	slices.Sort(report.MissingOnServer)
	slices.Sort(report.UnknownToClient)
	report.UnknownToClient = slices.Compact(report.UnknownToClient)
	return report
}
