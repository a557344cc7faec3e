package autofill

import "time"

// Colombia observes UTC-5 all year.
var colombia = time.FixedZone("COT", -5*60*60)

// ColombiaDate formats t as DD/MM/YYYY on the Colombian civil calendar.
func ColombiaDate(t time.Time) string {
	return t.In(colombia).Format("02/01/2006")
}

// ColombiaISODate formats t as YYYY-MM-DD on the Colombian civil calendar.
func ColombiaISODate(t time.Time) string {
	return t.In(colombia).Format("2006-01-02")
}
