package cnpj

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	assert.True(t, Validate("12345678000199"))
	assert.True(t, Validate("12.345.678/0001-99"))

	// wrong length
	assert.False(t, Validate("1234567800019"))
	assert.False(t, Validate("123456780001991"))
	assert.False(t, Validate(""))
	assert.False(t, Validate("abc"))

	// all digits identical
	assert.False(t, Validate("00000000000000"))
	assert.False(t, Validate("11.111.111/1111-11"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "12.345.678/0001-99", Format("12345678000199"))

	// idempotent on already-formatted input
	assert.Equal(t, "12.345.678/0001-99", Format("12.345.678/0001-99"))

	// partial input formats progressively (as-you-type mask)
	assert.Equal(t, "12.345", Format("12345"))
	assert.Equal(t, "12.345.678/0001", Format("123456780001"))

	// left-inverse of digit stripping
	assert.Equal(t, "12345678000199", Clean(Format("12345678000199")))
}

func TestValidateChecksum(t *testing.T) {
	// 11.222.333/0001-81 is a classic valid test CNPJ
	assert.True(t, ValidateChecksum("11.222.333/0001-81"))
	assert.True(t, ValidateChecksum("11222333000181"))

	// same digits, wrong verifier
	assert.False(t, ValidateChecksum("11222333000180"))
	assert.False(t, ValidateChecksum("00000000000000"))
}
