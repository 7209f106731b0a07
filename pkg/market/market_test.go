package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstrumentID(t *testing.T) {
	assert.Equal(t, "BHP.AX", InstrumentID("BHP", "AX"))
	assert.Equal(t, "CBA.AX", InstrumentID("CBA", ""))
	// Case is preserved, never folded.
	assert.Equal(t, "wow.AX", InstrumentID("wow", "AX"))
	// Already-qualified codes pass through without a second suffix.
	assert.Equal(t, "BHP.AX", InstrumentID("BHP.AX", "AX"))
	assert.Equal(t, "BHP.NZ.AX", InstrumentID("BHP.NZ", "AX"))
}

func TestBareCode(t *testing.T) {
	assert.Equal(t, "BHP", BareCode("BHP.AX", "AX"))
	assert.Equal(t, "BHP", BareCode("BHP.AX", ""))
	assert.Equal(t, "BHP.NZ", BareCode("BHP.NZ", "AX"))
}

func TestHasSuffix(t *testing.T) {
	assert.True(t, HasSuffix("BHP.AX", "AX"))
	assert.False(t, HasSuffix("BHP.NZ", "AX"))
}
