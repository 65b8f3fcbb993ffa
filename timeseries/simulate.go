package timeseries

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
	"gonum.org/v1/gonum/floats"
)

// GenerateT produces n evenly spaced timestamps ending at the minute boundary
// before nowFunc().
func GenerateT(n int, interval time.Duration, nowFunc func() time.Time) []time.Time {
	t := make([]time.Time, 0, n)
	ct := time.Unix(nowFunc().Unix()/60*60, 0).Add(-time.Duration(n) * interval).UTC()
	for i := 0; i < n; i++ {
		t = append(t, ct.Add(interval*time.Duration(i)))
	}
	return t
}

// Values is a mutable scalar sequence used to compose synthetic series for
// tests and examples before wrapping it in an immutable Series.
type Values []float64

func (v Values) Add(src Values) Values {
	floats.Add(v, src)
	return v
}

func (v Values) SetConst(t []time.Time, val float64, start, end time.Time) Values {
	n := len(v)
	for i := 0; i < n; i++ {
		if (t[i].After(start) || t[i].Equal(start)) && t[i].Before(end) {
			v[i] = val
		}
	}
	return v
}

func (v Values) MaskWithWeekend(t []time.Time) Values {
	n := len(v)
	for i := 0; i < n; i++ {
		switch t[i].Weekday() {
		case time.Saturday, time.Sunday:
			continue
		default:
			v[i] = 0.0
		}
	}
	return v
}

// MaskWithHolidays zeroes out all samples that do not fall on a business
// holiday. If no holidays are provided the standard US holiday calendar is
// used.
func (v Values) MaskWithHolidays(t []time.Time, holidays ...*cal.Holiday) Values {
	c := cal.NewBusinessCalendar()
	if len(holidays) == 0 {
		holidays = us.Holidays
	}
	c.AddHoliday(holidays...)

	n := len(v)
	for i := 0; i < n; i++ {
		actual, observed, _ := c.IsHoliday(t[i])
		if !actual && !observed {
			v[i] = 0.0
		}
	}
	return v
}

func (v Values) MaskWithTimeRange(start, end time.Time, t []time.Time) Values {
	n := len(v)
	for i := 0; i < n; i++ {
		if t[i].Before(start) || t[i].After(end) {
			v[i] = 0.0
		}
	}
	return v
}

// Series wraps the accumulated values in an immutable univariate Series.
func (v Values) Series() (*Series, error) {
	return NewUnivariate(v)
}

func GenerateConst(n int, val float64) Values {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Values(y)
}

func GenerateWave(t []time.Time, amp, periodSec, order, timeOffset float64) Values {
	n := len(t)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		val := amp * math.Sin(2.0*math.Pi*order/periodSec*(float64(t[i].Unix())+timeOffset))
		y = append(y, val)
	}
	return Values(y)
}

// GenerateNoise produces gaussian noise from an explicit seed so simulated
// series stay reproducible across runs.
func GenerateNoise(t []time.Time, seed uint64, noiseScale, amp, periodSec, order, timeOffset float64) Values {
	r := rand.New(rand.NewPCG(seed, seed))
	n := len(t)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		scale := (noiseScale + amp*math.Sin(2.0*math.Pi*order/periodSec*(float64(t[i].Unix())+timeOffset)))
		y = append(y, r.NormFloat64()*scale)
	}
	return Values(y)
}

func GenerateChange(t []time.Time, chpt time.Time, bias, slope float64) Values {
	n := len(t)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		if t[i].After(chpt) || t[i].Equal(chpt) {
			jump := bias + slope*t[i].Sub(chpt).Minutes()
			y[i] = jump
		}
	}
	return Values(y)
}
