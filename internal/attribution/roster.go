package attribution

import (
	"fmt"
	"strings"
)

// Narrator is the sentinel speaker for non-dialogue or unattributed text.
const Narrator = "Narrator"

// Roster is the closed set of valid speaker labels for a chapter, in
// discovery order, with Narrator always present exactly once.
type Roster []string

// NewRoster sanitizes raw discovered names: trims whitespace, drops empty
// entries, collapses case-insensitive duplicates onto the first-seen
// spelling, normalizes any casing of "narrator" to Narrator, and appends
// Narrator when discovery omitted it.
func NewRoster(names []string) Roster {
	seen := make(map[string]bool, len(names)+1)
	roster := make(Roster, 0, len(names)+1)

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		if key == strings.ToLower(Narrator) {
			name = Narrator
		}
		seen[key] = true
		roster = append(roster, name)
	}

	if !seen[strings.ToLower(Narrator)] {
		roster = append(roster, Narrator)
	}

	return roster
}

// Contains reports whether name is a roster member (exact match).
func (r Roster) Contains(name string) bool {
	for _, member := range r {
		if member == name {
			return true
		}
	}
	return false
}

// Validate enforces the roster invariants: no duplicate names and
// Narrator present exactly once.
func (r Roster) Validate() error {
	seen := make(map[string]bool, len(r))
	narrators := 0

	for _, name := range r {
		if seen[name] {
			return fmt.Errorf("%w: duplicate roster entry %q", ErrValidation, name)
		}
		seen[name] = true
		if name == Narrator {
			narrators++
		}
	}

	if narrators != 1 {
		return fmt.Errorf("%w: roster must contain %q exactly once, found %d", ErrValidation, Narrator, narrators)
	}

	return nil
}
