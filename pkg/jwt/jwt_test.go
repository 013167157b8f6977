package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParse_RoundTrip(t *testing.T) {
	tok, err := Generate("s3cr3t", "u-1", RoleBodeguero, "bodega-lotes", 5)
	require.NoError(t, err)

	userID, role, err := Parse("s3cr3t", "bodega-lotes", tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)
	assert.Equal(t, RoleBodeguero, role)
}

func TestParse_Rechaza(t *testing.T) {
	tok, err := Generate("s3cr3t", "u-1", RoleAdmin, "bodega-lotes", 5)
	require.NoError(t, err)

	_, _, err = Parse("otro", "bodega-lotes", tok)
	assert.Error(t, err, "firma incorrecta")

	_, _, err = Parse("s3cr3t", "otro-emisor", tok)
	assert.Error(t, err, "emisor distinto")

	expired, err := Generate("s3cr3t", "u-1", RoleAdmin, "bodega-lotes", -1)
	require.NoError(t, err)
	_, _, err = Parse("s3cr3t", "", expired)
	assert.Error(t, err, "expirado")

	_, _, err = Parse("", "", tok)
	assert.Error(t, err)

	_, err = Generate("", "u", RoleAdmin, "", 1)
	assert.Error(t, err)
}
