package fares

// SplitPercentages holds the configured fare split. Values are whole
// percentages and are validated at configuration load to sum to at most 100.
type SplitPercentages struct {
	Driver   int
	Operator int
	Platform int
}

// Split is a fare distribution in minor units.
type Split struct {
	Driver   int64
	Operator int64
	Platform int64
}

// SplitFares distributes the collected fares of a trip. The driver and
// operator shares are floored to whole minor units and the platform share
// takes whatever remains, so the three shares always sum to the total.
func SplitFares(total int64, pcts SplitPercentages) Split {
	driver := total * int64(pcts.Driver) / 100
	operator := total * int64(pcts.Operator) / 100
	return Split{
		Driver:   driver,
		Operator: operator,
		Platform: total - driver - operator,
	}
}
