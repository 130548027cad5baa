package models

// BloodType is the ABO group of a donor or request.
type BloodType string

const (
	BloodTypeA  BloodType = "A"
	BloodTypeB  BloodType = "B"
	BloodTypeAB BloodType = "AB"
	BloodTypeO  BloodType = "O"
)

// RhFactor is the Rhesus antigen marker.
type RhFactor string

const (
	RhPositive RhFactor = "POSITIVE"
	RhNegative RhFactor = "NEGATIVE"
)

// Valid reports whether the blood type is a known ABO group.
func (b BloodType) Valid() bool {
	switch b {
	case BloodTypeA, BloodTypeB, BloodTypeAB, BloodTypeO:
		return true
	}
	return false
}

// Valid reports whether the Rh factor is a known marker.
func (r RhFactor) Valid() bool {
	return r == RhPositive || r == RhNegative
}

// CanDonateTo reports ABO compatibility from donor group b to recipient group.
func (b BloodType) CanDonateTo(recipient BloodType) bool {
	switch b {
	case BloodTypeO:
		return true
	case BloodTypeA:
		return recipient == BloodTypeA || recipient == BloodTypeAB
	case BloodTypeB:
		return recipient == BloodTypeB || recipient == BloodTypeAB
	case BloodTypeAB:
		return recipient == BloodTypeAB
	}
	return false
}

// RhCompatible reports whether a donor Rh factor suits a recipient.
// Negative donors serve both markers; positive donors only positive recipients.
func RhCompatible(donor, recipient RhFactor) bool {
	if donor == RhNegative {
		return true
	}
	return recipient == RhPositive
}
