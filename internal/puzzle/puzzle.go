package puzzle

import "strconv"

// Switches is one setting of the four binary circuit switches.
type Switches struct {
	S0 int `json:"S0"`
	S1 int `json:"S1"`
	S2 int `json:"S2"`
	S3 int `json:"S3"`
}

// Entry pairs a switch setting with the 4-bit key the circuit produces for it.
type Entry struct {
	Switches Switches `json:"switches"`
	Key      string   `json:"key"`
}

// KeySuffix is appended to the verified 4-bit key to form the 8-bit XOR key.
const KeySuffix = "1000"

// Assignment is the full set of puzzle parameters handed to one team.
type Assignment struct {
	Switches        Switches
	Key4            string
	Key8            string
	AssignedNumber  int
	EncryptionValue *int // nil when Key8 is not a valid binary string
}

func Lookup(position int) Entry {
	return lookupTable[position%len(lookupTable)]
}

func AssignedNumber(position int) int {
	return assignedNumbers[position%len(assignedNumbers)]
}

func TableSize() int { return len(lookupTable) }

func Table() []Entry { return lookupTable }

// KeyForSwitches is the reverse lookup used to verify round-1 submissions.
// All four switch fields must match an entry exactly.
func KeyForSwitches(s Switches) (string, bool) {
	for _, e := range lookupTable {
		if e.Switches == s {
			return e.Key, true
		}
	}
	return "", false
}

// ExpandKey forms the 8-bit key from a verified 4-bit key.
func ExpandKey(key4 string) string { return key4 + KeySuffix }

// ToDecimal parses a binary string like "00001000". The second return is
// false when the string is empty or contains non-binary characters.
func ToDecimal(binary string) (int, bool) {
	n, err := strconv.ParseInt(binary, 2, 64)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// EncryptionValue computes assignedNumber XOR decimal(key8). A malformed
// key8 yields nil rather than a bogus value.
func EncryptionValue(assignedNumber int, key8 string) *int {
	dec, ok := ToDecimal(key8)
	if !ok {
		return nil
	}
	v := assignedNumber ^ dec
	return &v
}

// At builds the deterministic assignment for a queue position.
func At(position int) Assignment {
	entry := Lookup(position)
	num := AssignedNumber(position)
	key8 := ExpandKey(entry.Key)
	return Assignment{
		Switches:        entry.Switches,
		Key4:            entry.Key,
		Key8:            key8,
		AssignedNumber:  num,
		EncryptionValue: EncryptionValue(num, key8),
	}
}
