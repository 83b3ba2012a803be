package service

import "time"

// nextAnnualDueDate returns the date exactly one calendar year after from,
// truncated to midnight. A Feb 29 start clamps to Feb 28 when the following
// year is not a leap year, matching standard calendar arithmetic rather than
// a fixed 365-day offset.
func nextAnnualDueDate(from time.Time) time.Time {
	year, month, day := from.Date()
	if month == time.February && day == 29 && !isLeapYear(year+1) {
		day = 28
	}
	return time.Date(year+1, month, day, 0, 0, 0, 0, from.Location())
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
