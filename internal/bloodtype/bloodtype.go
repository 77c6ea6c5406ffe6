// Package bloodtype holds the closed blood-group enum and the directional
// donor/recipient compatibility table. Pure data, no state, no failure modes
// beyond parsing.
package bloodtype

import (
	dErrors "lifelink/pkg/domain-errors"
)

// Group is one of the eight ABO/Rh blood groups. The enum is closed: switch
// statements over Group plus the fixed-size tables below give compile-time
// exhaustiveness instead of a dynamically keyed map.
type Group int

const (
	ONeg Group = iota
	OPos
	ANeg
	APos
	BNeg
	BPos
	ABNeg
	ABPos

	groupCount = 8
)

var names = [groupCount]string{"O-", "O+", "A-", "A+", "B-", "B+", "AB-", "AB+"}

// donateTo[d][r] is true when donor group d may give to recipient group r.
// Rows follow standard ABO/Rh rules: O- gives to all, AB+ receives from all.
var donateTo = [groupCount][groupCount]bool{
	ONeg:  {ONeg: true, OPos: true, ANeg: true, APos: true, BNeg: true, BPos: true, ABNeg: true, ABPos: true},
	OPos:  {OPos: true, APos: true, BPos: true, ABPos: true},
	ANeg:  {ANeg: true, APos: true, ABNeg: true, ABPos: true},
	APos:  {APos: true, ABPos: true},
	BNeg:  {BNeg: true, BPos: true, ABNeg: true, ABPos: true},
	BPos:  {BPos: true, ABPos: true},
	ABNeg: {ABNeg: true, ABPos: true},
	ABPos: {ABPos: true},
}

// All lists every group in declaration order.
func All() []Group {
	groups := make([]Group, groupCount)
	for i := range groups {
		groups[i] = Group(i)
	}
	return groups
}

// Valid reports whether g is one of the eight groups.
func (g Group) Valid() bool { return g >= 0 && g < groupCount }

func (g Group) String() string {
	if !g.Valid() {
		return "invalid"
	}
	return names[g]
}

// Parse converts the wire form ("O-", "AB+", ...) into a Group.
func Parse(raw string) (Group, error) {
	for i, name := range names {
		if name == raw {
			return Group(i), nil
		}
	}
	return 0, dErrors.Newf(dErrors.CodeInvalidInput, "unknown blood group %q", raw)
}

// MarshalText encodes the group in its wire form.
func (g Group) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInternal, "invalid blood group value %d", int(g))
	}
	return []byte(names[g]), nil
}

// UnmarshalText decodes the wire form.
func (g *Group) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// IsCompatible reports whether a donor of group donor may give to a recipient
// of group recipient.
func IsCompatible(donor, recipient Group) bool {
	if !donor.Valid() || !recipient.Valid() {
		return false
	}
	return donateTo[donor][recipient]
}

// CanDonateTo lists the recipient groups a donor of group g may give to.
func CanDonateTo(g Group) []Group {
	if !g.Valid() {
		return nil
	}
	var out []Group
	for r := Group(0); r < groupCount; r++ {
		if donateTo[g][r] {
			out = append(out, r)
		}
	}
	return out
}

// CompatibleDonors lists the donor groups that may give to a recipient of
// group g. This is the inverse of CanDonateTo, used when matching donors to a
// requisition's required group.
func CompatibleDonors(g Group) []Group {
	if !g.Valid() {
		return nil
	}
	var out []Group
	for d := Group(0); d < groupCount; d++ {
		if donateTo[d][g] {
			out = append(out, d)
		}
	}
	return out
}
