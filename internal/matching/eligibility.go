package matching

import "github.com/oggyb/nearmatch/internal/db"

// prefAccepts reports whether someone preferring pref is interested in a
// person of the given identity. "b" accepts everyone.
func prefAccepts(pref, identity db.Sex) bool {
	return pref == db.SexBoth || pref == identity
}

// MutualPreference reports whether a and b are each within the other's
// preference.
func MutualPreference(a, b *db.User) bool {
	return prefAccepts(a.SexPreference, b.SexIdentity) && prefAccepts(b.SexPreference, a.SexIdentity)
}

// Eligible keeps the candidates the initiator may be matched with, in their
// original order.
//
// A candidate is dropped when it:
//   - is the initiator
//   - is not matchable
//   - fails mutual sex preference
//   - already shares a match row with the initiator (paired)
func Eligible(initiator *db.User, candidates []db.User, paired map[uint64]struct{}) []db.User {
	out := make([]db.User, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if c.ID == initiator.ID || !c.IsMatchable {
			continue
		}
		if !MutualPreference(initiator, c) {
			continue
		}
		if _, ok := paired[c.ID]; ok {
			continue
		}
		out = append(out, *c)
	}
	return out
}
