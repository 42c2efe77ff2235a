package export

import (
	"fmt"
	"os"
)

// writeLiveBinary implements the live-reload output path's double-buffered
// slot layout, deliberately left unspecified by the original design notes
// as an Open Question ("out of scope here and should be specified
// separately"). DESIGN.md records the decision: two sibling files
// "<path>.0"/"<path>.1"
// hold alternating full copies of the container, and a third file
// "<path>.slot" holds the single ASCII digit of whichever slot is
// currently live. A reader picks up a change by re-reading ".slot" and
// then the slot file it names; the writer never touches the slot a
// concurrent reader might be mid-read on, because it always writes the
// *other* slot first and only then flips ".slot".
func writeLiveBinary(path string, data []byte) error {
	current, err := os.ReadFile(path + ".slot")
	next := byte('1')
	if err == nil && len(current) > 0 && current[0] == '1' {
		next = '0'
	}

	target := path + "." + string(next)
	if err := writeFileAtomic(target, data); err != nil {
		return fmt.Errorf("write live slot %q: %w", target, err)
	}
	if err := writeFileAtomic(path+".slot", []byte{next}); err != nil {
		return fmt.Errorf("flip live slot marker: %w", err)
	}
	return nil
}
