package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldSetModeExclusivity(t *testing.T) {
	modes := []FieldMode{ModeLink, ModeGremium, ModeList, ModeAddress}

	for _, first := range modes {
		for _, second := range modes {
			f := Field{Name: "test", Coordinates: &Coordinates{Latitude: 1, Longitude: 2}}
			f.SetMode(first)
			f.SetMode(second)

			active := 0
			for _, flag := range []bool{f.Link, f.Gremium, f.List, f.Address} {
				if flag {
					active++
				}
			}
			assert.Equal(t, 1, active, "switching %s -> %s must leave exactly one flag", first, second)
			assert.Equal(t, second, f.Mode())
		}
	}
}

func TestFieldSetModeDropsCoordinatesOffAddress(t *testing.T) {
	f := Field{}
	f.SetMode(ModeAddress)
	f.Coordinates = &Coordinates{Latitude: 48.1, Longitude: 11.5}

	f.SetMode(ModeLink)
	assert.Nil(t, f.Coordinates)
	assert.True(t, f.Link)
	assert.False(t, f.Address)
}

func TestModuleTypeRegistryIsExhaustive(t *testing.T) {
	for _, typ := range ModuleTypes {
		assert.True(t, typ.Valid(), "type %s must be registered", typ)
		assert.NotEmpty(t, typ.Subcollections(), "type %s must own at least one subcollection", typ)
		assert.NotEmpty(t, typ.BlobPrefixes("p1", "m1"))
	}
	assert.False(t, ModuleType("Unbekannt").Valid())
	assert.Nil(t, ModuleType("Unbekannt").Subcollections())
}

func TestModuleTypeBlobPrefixes(t *testing.T) {
	assert.Equal(t, []string{"IMAGES/m1"}, TypeFilialfinder.BlobPrefixes("p1", "m1"))
	assert.Equal(t, []string{"IMAGES/m1", "PDF/p1/m1/"}, TypePDFModul.BlobPrefixes("p1", "m1"))
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "products/p1", ProductPath("p1"))
	assert.Equal(t, "products/p1/modules/m1", ModulePath("p1", "m1"))
	assert.Equal(t, "logs/2026-08-29", LogPath("2026-08-29"))
	assert.Equal(t, "users/u1", UserPath("u1"))
}
