package indicator

// MaxSelected caps the selection set. The cap is enforced at toggle time:
// the 11th toggle is refused before any state mutates.
const MaxSelected = 10

// Selection is the ordered set of selected indicator specs. Insertion
// order is preserved so reconciliation is deterministic.
type Selection struct {
	specs []Spec
	byID  map[string]int
}

func NewSelection() *Selection {
	return &Selection{byID: make(map[string]int)}
}

// Toggle flips the spec's membership. Adding past MaxSelected is refused:
// selected=false, rejected=true, and the set is untouched.
func (s *Selection) Toggle(spec Spec) (selected, rejected bool) {
	if i, ok := s.byID[spec.ID]; ok {
		s.specs = append(s.specs[:i], s.specs[i+1:]...)
		delete(s.byID, spec.ID)
		for id, j := range s.byID {
			if j > i {
				s.byID[id] = j - 1
			}
		}
		return false, false
	}
	if len(s.specs) >= MaxSelected {
		return false, true
	}
	s.byID[spec.ID] = len(s.specs)
	s.specs = append(s.specs, spec)
	return true, false
}

// Contains reports membership by canonical ID.
func (s *Selection) Contains(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Len returns the selection size. 0 <= Len() <= MaxSelected always holds.
func (s *Selection) Len() int { return len(s.specs) }

// Specs returns the selection in insertion order.
func (s *Selection) Specs() []Spec {
	return append([]Spec(nil), s.specs...)
}

// Clear empties the set.
func (s *Selection) Clear() {
	s.specs = nil
	s.byID = make(map[string]int)
}
