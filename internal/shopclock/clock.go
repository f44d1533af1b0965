package shopclock

import (
	"log"
	"time"
)

// DateFormat is the shop-local calendar date layout used everywhere a
// booking date travels as a string.
const DateFormat = "2006-01-02"

// Clock answers "what time is it at the shop". Derivations take a
// Clock so tests can pin the moment.
type Clock interface {
	// Now is the current wall-clock time in the shop's timezone.
	Now() time.Time
	// Today is the shop-local calendar date, formatted DateFormat.
	Today() string
	// Location is the resolved shop timezone.
	Location() *time.Location
}

// ShopClock resolves shop-local time for one configured IANA timezone.
type ShopClock struct {
	loc *time.Location
}

// New builds a ShopClock for the primary timezone, degrading to the
// fallback (and then UTC) if a zone name does not resolve. It never
// fails; an unrecognized zone is logged, not raised.
func New(primary, fallback string) *ShopClock {
	loc, err := time.LoadLocation(primary)
	if err != nil {
		log.Printf("shopclock: unrecognized timezone %q, falling back to %q: %v", primary, fallback, err)
		loc, err = time.LoadLocation(fallback)
		if err != nil {
			log.Printf("shopclock: fallback timezone %q also unrecognized, using UTC: %v", fallback, err)
			loc = time.UTC
		}
	}
	return &ShopClock{loc: loc}
}

func (c *ShopClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *ShopClock) Today() string {
	return c.Now().Format(DateFormat)
}

func (c *ShopClock) Location() *time.Location {
	return c.loc
}

// MockClock is a fixed-moment Clock for tests.
type MockClock struct {
	current time.Time
}

func NewMock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

func (c *MockClock) Now() time.Time {
	return c.current
}

func (c *MockClock) Today() string {
	return c.current.Format(DateFormat)
}

func (c *MockClock) Location() *time.Location {
	return c.current.Location()
}

func (c *MockClock) Set(t time.Time) {
	c.current = t
}

func (c *MockClock) Add(d time.Duration) {
	c.current = c.current.Add(d)
}
