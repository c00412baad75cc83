package puzzle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyForSwitches_EveryEntryResolvesToItsOwnKey(t *testing.T) {
	for _, e := range Table() {
		key, ok := KeyForSwitches(e.Switches)
		require.True(t, ok, "switches %+v should resolve", e.Switches)
		require.Equal(t, e.Key, key)
	}
}

func TestKeyForSwitches_UnknownCombination(t *testing.T) {
	_, ok := KeyForSwitches(Switches{S0: 2, S1: 0, S2: 0, S3: 0})
	require.False(t, ok)
}

func TestToDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"00001000", 8, true},
		{"0000", 0, true},
		{"11111111", 255, true},
		{"", 0, false},
		{"00a1", 0, false},
	}
	for _, tc := range cases {
		got, ok := ToDecimal(tc.in)
		require.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			require.Equal(t, tc.want, got, "input %q", tc.in)
		}
	}
}

func TestEncryptionValue_MalformedKeyIsNil(t *testing.T) {
	require.Nil(t, EncryptionValue(42, "not-binary"))
}

func TestEncryptionValue_XORRoundTrip(t *testing.T) {
	for pos := 0; pos < TableSize(); pos++ {
		a := At(pos)
		require.NotNil(t, a.EncryptionValue)
		dec, ok := ToDecimal(a.Key8)
		require.True(t, ok)
		// XOR(XOR(n,k),k) == n
		require.Equal(t, a.AssignedNumber, *a.EncryptionValue^dec)
	}
}

func TestAt_PositionZeroScenario(t *testing.T) {
	a := At(0)
	require.Equal(t, Switches{S0: 0, S1: 0, S2: 0, S3: 0}, a.Switches)
	require.Equal(t, "0000", a.Key4)
	require.Equal(t, "00001000", a.Key8)
	require.Equal(t, 42, a.AssignedNumber)
	require.NotNil(t, a.EncryptionValue)
	require.Equal(t, 34, *a.EncryptionValue) // 42 XOR 8
}

func TestAt_WrapsAroundTable(t *testing.T) {
	require.Equal(t, At(0).Key4, At(TableSize()).Key4)
	require.Equal(t, At(3).AssignedNumber, At(3+len(assignedNumbers)).AssignedNumber)
}
