package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNorm(t *testing.T) {
	assert.Equal(t, "a b c", Norm("  a \t b \n c  "))
	assert.Equal(t, "", Norm("   "))
}

func TestNormalizeDNI(t *testing.T) {
	assert.Equal(t, "46831845", NormalizeDNI("DNI: 46831845"))
	assert.Equal(t, "46831845", NormalizeDNI(" 46831845 "))
	// 9-digit runs are not a DNI; the input passes through normalized
	assert.Equal(t, "468318451", NormalizeDNI("468318451"))
	assert.Equal(t, "", NormalizeDNI(""))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana.perez@gmail.com", NormalizeEmail("Correo: ana.perez@gmail.com (personal)"))
	assert.Equal(t, "sin correo", NormalizeEmail("  sin   correo "))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "51987654321", NormalizePhone("+51 987-654-321"))
	assert.Equal(t, "987654321", NormalizePhone("987 654 321"))
	assert.Equal(t, "", NormalizePhone("n/a"))
}

func TestFoldIdentity(t *testing.T) {
	assert.Equal(t, "nunez garcia, maria", foldIdentity("  NÚÑEZ  GARCÍA,   María "))
	assert.Equal(t, foldIdentity("PÉREZ Juan"), foldIdentity("perez juan"))
}
