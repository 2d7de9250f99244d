package switchdriver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dellswitch/switchctl/internal/switchnet"
)

func TestFamilyValid(t *testing.T) {
	assert.True(t, FamilyN3000.Valid())
	assert.True(t, FamilyN3200.Valid())
	assert.True(t, FamilyOS10.Valid())
	assert.True(t, FamilyUnknown.Valid())
	assert.False(t, Family("bogus").Valid())
}

func TestValidPortKindPerFamily(t *testing.T) {
	assert.True(t, ValidPortKind(FamilyN3000, switchnet.KindGigabitEthernet))
	assert.True(t, ValidPortKind(FamilyN3000, switchnet.KindTenGigabit))
	assert.False(t, ValidPortKind(FamilyN3000, switchnet.KindTwentyFiveGig))

	assert.True(t, ValidPortKind(FamilyN3200, switchnet.KindTenGigabit))
	assert.True(t, ValidPortKind(FamilyN3200, switchnet.KindTwentyFiveGig))
	assert.False(t, ValidPortKind(FamilyN3200, switchnet.KindGigabitEthernet))

	assert.True(t, ValidPortKind(FamilyOS10, switchnet.KindEthernet))
	assert.False(t, ValidPortKind(FamilyOS10, switchnet.KindGigabitEthernet))
}

func TestValidPortKindPortChannelUniversal(t *testing.T) {
	assert.True(t, ValidPortKind(FamilyN3000, switchnet.KindPortChannel))
	assert.True(t, ValidPortKind(FamilyN3200, switchnet.KindPortChannel))
	assert.True(t, ValidPortKind(FamilyOS10, switchnet.KindPortChannel))
}

func TestValidPortKindRejectsUnknownFamily(t *testing.T) {
	assert.False(t, ValidPortKind(FamilyUnknown, switchnet.KindGigabitEthernet))
}

func TestDialectForReturnsNilForUnknownFamily(t *testing.T) {
	assert.Nil(t, dialectFor(FamilyUnknown))
}

func TestDialectForReturnsMatchingDialect(t *testing.T) {
	assert.Equal(t, FamilyN3000, dialectFor(FamilyN3000).family())
	assert.Equal(t, FamilyN3200, dialectFor(FamilyN3200).family())
	assert.Equal(t, FamilyOS10, dialectFor(FamilyOS10).family())
}

func TestDetectFamilyMatchesProbeOutput(t *testing.T) {
	assert.Equal(t, FamilyN3000, detectFamily("Dell EMC Networking N3000 Series"))
	assert.Equal(t, FamilyN3200, detectFamily("Dell EMC Networking N3200-ON Series"))
	assert.Equal(t, FamilyUnknown, detectFamily("some unrecognized device banner"))
}

func TestDetectFamilyPrefersFirstMatchingDialect(t *testing.T) {
	// n3000Dialect.matchesProbe also matches "n2100"; confirm that string
	// alone still resolves to FamilyN3000 rather than falling through.
	assert.Equal(t, FamilyN3000, detectFamily("N2100-ON Series"))
}

func TestIsUplinkKind(t *testing.T) {
	assert.True(t, isUplinkKind(switchnet.KindPortChannel))
	assert.False(t, isUplinkKind(switchnet.KindGigabitEthernet))
}
