package rules

// orderedSet keeps unique strings in first-insertion order.
type orderedSet struct {
	items []string
	seen  map[string]struct{}
}

func (s *orderedSet) add(values ...string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{}, len(values))
	}
	for _, v := range values {
		if _, ok := s.seen[v]; ok {
			continue
		}
		s.seen[v] = struct{}{}
		s.items = append(s.items, v)
	}
}

func (s *orderedSet) len() int {
	return len(s.items)
}

// values returns a copy so callers can't alias the backing array.
func (s *orderedSet) values() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

func (s *orderedSet) reset() {
	s.items = nil
	s.seen = nil
}
