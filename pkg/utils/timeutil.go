package utils

import (
	"time"
)

// Pacific is the US Pacific time location. Silicon Investor renders all
// post timestamps in Pacific time without a zone suffix, so timezone-less
// forum dates are localized here before conversion to epoch seconds.
var Pacific *time.Location

func init() {
	var err error
	Pacific, err = time.LoadLocation("US/Pacific")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available.
		// Loses DST handling but keeps timestamps within an hour.
		Pacific = time.FixedZone("PST", -8*60*60)
	}
}

// NowPacific returns the current time in US Pacific time.
func NowPacific() time.Time {
	return time.Now().In(Pacific)
}

// EpochToPacific converts Unix epoch seconds to a Pacific-zone time.
func EpochToPacific(epoch int64) time.Time {
	return time.Unix(epoch, 0).In(Pacific)
}
