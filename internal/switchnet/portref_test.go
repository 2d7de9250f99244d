package switchnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPortRefStringSlashJoinsNonEthernetKinds(t *testing.T) {
	ref := PortRef{Kind: KindGigabitEthernet, Coords: []int{1, 0, 24}}
	assert.Equal(t, "Gi1/0/24", ref.String())
}

func TestPortRefStringSpacesEthernetKind(t *testing.T) {
	ref := PortRef{Kind: KindEthernet, Coords: []int{1, 1, 1}}
	assert.Equal(t, "ethernet 1/1/1", ref.String())
}

func TestPortRefEqual(t *testing.T) {
	a := PortRef{Kind: KindGigabitEthernet, Coords: []int{1, 0, 1}}
	b := PortRef{Kind: KindGigabitEthernet, Coords: []int{1, 0, 1}}
	c := PortRef{Kind: KindGigabitEthernet, Coords: []int{1, 0, 2}}
	d := PortRef{Kind: KindTenGigabit, Coords: []int{1, 0, 1}}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
}

func TestPortRefLessOrdersByKindThenCoordinates(t *testing.T) {
	gi1 := PortRef{Kind: KindGigabitEthernet, Coords: []int{1, 0, 1}}
	gi2 := PortRef{Kind: KindGigabitEthernet, Coords: []int{1, 0, 2}}
	te1 := PortRef{Kind: KindTenGigabit, Coords: []int{1, 0, 1}}

	assert.True(t, gi1.Less(gi2))
	assert.False(t, gi2.Less(gi1))
	assert.True(t, gi1.Less(te1), "Gi sorts before Te lexically")
}

func TestPortRefLessOrdersShorterCoordsFirstOnCommonPrefix(t *testing.T) {
	short := PortRef{Kind: KindGigabitEthernet, Coords: []int{1, 0}}
	long := PortRef{Kind: KindGigabitEthernet, Coords: []int{1, 0, 1}}
	assert.True(t, short.Less(long))
}
