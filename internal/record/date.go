package record

import "fmt"

// String renders the structured date in the most specific form the
// data supports: "1920", "1920-05", "1920-05-17", or "1920-1925" for
// ranges. Falls back to the raw label when nothing was resolved.
func (d WorkDate) String() string {
	if d.Year == 0 {
		if d.FromYear != 0 && d.ToYear != 0 {
			return fmt.Sprintf("%d-%d", d.FromYear, d.ToYear)
		}
		return d.Label
	}
	if d.FromYear != 0 && d.ToYear != 0 && d.FromYear != d.ToYear {
		return fmt.Sprintf("%d-%d", d.FromYear, d.ToYear)
	}
	switch {
	case d.Month != 0 && d.Day != 0:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	case d.Month != 0:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	}
	return fmt.Sprintf("%d", d.Year)
}

// YearDistance returns the absolute year gap between two dates, or -1
// when either side has no resolved year.
func YearDistance(a, b *WorkDate) int {
	if a == nil || b == nil {
		return -1
	}
	ya, yb := a.EffectiveYear(), b.EffectiveYear()
	if ya == 0 || yb == 0 {
		return -1
	}
	if ya > yb {
		return ya - yb
	}
	return yb - ya
}

// EffectiveYear picks the best single year for proximity scoring: the
// exact year when known, otherwise the midpoint of the range. Zero
// when no year was resolved.
func (d WorkDate) EffectiveYear() int {
	if d.Year != 0 {
		return d.Year
	}
	if d.FromYear != 0 && d.ToYear != 0 {
		return (d.FromYear + d.ToYear) / 2
	}
	if d.FromYear != 0 {
		return d.FromYear
	}
	return d.ToYear
}
