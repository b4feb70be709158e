package report

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

// Fingerprint hashes the content of results, ignoring timestamps and input
// order. Two runs over the same account state produce the same fingerprint
// whatever their worker count.
func Fingerprint(results []models.CheckResult) uint64 {
	rows := make([]models.CheckResult, len(results))
	copy(rows, results)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.CheckID != b.CheckID {
			return a.CheckID < b.CheckID
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		return a.ResourceID < b.ResourceID
	})

	d := xxhash.New()
	for _, r := range rows {
		for _, field := range []string{
			r.CheckID, r.Region, string(r.Status), string(r.Severity), r.Message, r.ResourceID,
		} {
			_, _ = d.WriteString(field)
			_, _ = d.Write([]byte{0})
		}
		_, _ = d.Write([]byte{'\n'})
	}
	return d.Sum64()
}

// FingerprintHex renders Fingerprint as 16 lower-case hex digits.
func FingerprintHex(results []models.CheckResult) string {
	return fmt.Sprintf("%016x", Fingerprint(results))
}
