package dedupe

// seenSet records ids so a record is flagged at most once per pass.
type seenSet struct {
	seen map[string]struct{}
}

func newSeenSet() *seenSet {
	return &seenSet{seen: make(map[string]struct{})}
}

// SeenAndRecord checks if id was seen and records it if not.
// Returns true if id was already seen.
func (s *seenSet) SeenAndRecord(id string) bool {
	if _, ok := s.seen[id]; ok {
		return true
	}
	s.seen[id] = struct{}{}
	return false
}

// Size returns the number of recorded ids.
func (s *seenSet) Size() int { return len(s.seen) }
