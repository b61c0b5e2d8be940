package shared

import "strconv"

const (
	// DefaultTake is the page size used when none is given.
	DefaultTake = 20
	// MaxTake caps a single page.
	MaxTake = 100
)

// Window is an offset/limit pair parsed from skip/take query parameters.
type Window struct {
	Skip int
	Take int
}

// ParseWindow reads skip/take strings. Unparseable or out-of-range values
// fall back to defaults.
func ParseWindow(skipRaw, takeRaw string) Window {
	skip, err := strconv.Atoi(skipRaw)
	if err != nil || skip < 0 {
		skip = 0
	}
	take, err := strconv.Atoi(takeRaw)
	if err != nil || take <= 0 {
		take = DefaultTake
	}
	if take > MaxTake {
		take = MaxTake
	}
	return Window{Skip: skip, Take: take}
}
