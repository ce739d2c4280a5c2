package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"univ"`, quoteIdentifier("univ"))
	assert.Equal(t, `"we""ird"`, quoteIdentifier(`we"ird`))
}
