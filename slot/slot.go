package slot

import (
	"time"
)

// Calendar converts between wall-clock time, chain timestamps (seconds since
// the chain epoch) and slot numbers. It is immutable after construction.
type Calendar struct {
	epoch             time.Time
	interval          time.Duration
	delegatesPerRound uint64
}

func NewCalendar(epoch time.Time, interval time.Duration, delegatesPerRound uint64) *Calendar {
	return &Calendar{
		epoch:             epoch.UTC(),
		interval:          interval,
		delegatesPerRound: delegatesPerRound,
	}
}

// Epoch returns the chain epoch.
func (c *Calendar) Epoch() time.Time {
	return c.epoch
}

// DelegatesPerRound returns the number of slots in a forging round.
func (c *Calendar) DelegatesPerRound() uint64 {
	return c.delegatesPerRound
}

// Timestamp converts a wall-clock instant to a chain timestamp.
func (c *Calendar) Timestamp(t time.Time) int32 {
	return int32(t.UTC().Sub(c.epoch) / time.Second)
}

// TimestampNow returns the chain timestamp of the current instant.
func (c *Calendar) TimestampNow() int32 {
	return c.Timestamp(time.Now())
}

// SlotNumber returns the slot a chain timestamp falls in.
func (c *Calendar) SlotNumber(ts int32) int64 {
	return int64(ts) / int64(c.interval/time.Second)
}

// CurrentSlot returns the slot of the current instant.
func (c *Calendar) CurrentSlot() int64 {
	return c.SlotNumber(c.TimestampNow())
}

// RoundFromHeight returns the forging round a block height belongs to:
// ceil(height / delegatesPerRound).
func (c *Calendar) RoundFromHeight(height uint64) uint64 {
	if height == 0 {
		return 0
	}
	return (height + c.delegatesPerRound - 1) / c.delegatesPerRound
}
