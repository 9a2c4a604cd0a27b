package repository

import "strings"

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithQuery registers the SQL used for purpose. Column names are matched to
// SourceEntity by the db tags on sourceRow; unknown columns are ignored.
func WithQuery(purpose, query string) Option {
	return func(s *SQLStore) {
		if q := strings.TrimSpace(query); q != "" {
			s.queries[purpose] = q
		}
	}
}
