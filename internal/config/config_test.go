package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacilityLookupIsCaseInsensitive(t *testing.T) {
	cfg := GetDefaultConfig()

	for _, id := range []string{"hyderabad", "HYDERABAD", "Hyderabad"} {
		fc, ok := cfg.Facility(id)
		require.True(t, ok, "facility %s not found", id)
		assert.Equal(t, "HYD", fc.Code)
	}

	_, ok := cfg.Facility("nowhere")
	assert.False(t, ok)
}

func TestCompanyCodeLookup(t *testing.T) {
	cfg := GetDefaultConfig()

	code, ok := cfg.CompanyCode("AMOLAKCHAND")
	require.True(t, ok)
	assert.Equal(t, "AK", code)

	code, ok = cfg.CompanyCode("sourcingbee")
	require.True(t, ok)
	assert.Equal(t, "SB", code)

	_, ok = cfg.CompanyCode("UNKNOWN")
	assert.False(t, ok)
}

func TestCompanyCodeFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
companies:
  AMOLAKCHAND: "AK"
  BODEGA: "BD"
  SOURCINGBEE: "SB"
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := NewConfig()
	require.NoError(t, err)

	// viper lowercases map keys read from config files, so the loaded table
	// must resolve sellers regardless of key casing.
	_, upper := cfg.Companies["AMOLAKCHAND"]
	assert.False(t, upper, "viper is expected to lowercase file map keys")

	code, ok := cfg.CompanyCode("AMOLAKCHAND")
	require.True(t, ok)
	assert.Equal(t, "AK", code)

	code, ok = cfg.CompanyCode("bodega")
	require.True(t, ok)
	assert.Equal(t, "BD", code)
}

func TestSellerActive(t *testing.T) {
	cfg := GetDefaultConfig()

	hyd, ok := cfg.Facility("hyderabad")
	require.True(t, ok)

	assert.True(t, hyd.SellerActive("AMOLAKCHAND"))
	assert.True(t, hyd.SellerActive("amolakchand"))
	assert.False(t, hyd.SellerActive("SOURCINGBEE"))

	arihant, ok := cfg.Facility("arihant")
	require.True(t, ok)
	assert.True(t, arihant.SellerActive("SOURCINGBEE"))
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := GetDefaultConfig()
	require.NoError(t, cfg.Validate())
}
