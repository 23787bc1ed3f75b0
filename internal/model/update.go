package model

import "time"

// KST is the fixed UTC+9 zone used for record timestamps.
var KST = time.FixedZone("KST", 9*60*60)

// Update is the write-back payload for one record. Only fields that resolved
// are present; absent map entries are never written.
type Update struct {
	Numbers      map[Field]float64
	Texts        map[Field]string
	Verification *Verification
	MarketHint   string
	UpdatedAt    time.Time
}

// NewUpdate builds an update from resolved facts stamped at now (in KST).
func NewUpdate(facts *Facts, now time.Time) Update {
	u := Update{UpdatedAt: now.In(KST)}
	if facts != nil {
		u.Numbers = facts.Numbers()
		u.Texts = facts.Texts()
	}
	return u
}

// FieldCount returns the number of fact fields carried by the update.
func (u Update) FieldCount() int {
	return len(u.Numbers) + len(u.Texts)
}

// Empty reports whether the update carries nothing besides the timestamp.
func (u Update) Empty() bool {
	return u.FieldCount() == 0 && u.Verification == nil && u.MarketHint == ""
}
