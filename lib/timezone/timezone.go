package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
}

// Report dates have to stay stable regardless of where the
// collection job happens to run, so all wall-clock reads go
// through here instead of time.Now().
func Now() time.Time {
	return time.Now().In(Location)
}
