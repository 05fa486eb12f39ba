package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,250.50", FormatMoney(1250.5))
	assert.Equal(t, "$0.00", FormatMoney(0))
	assert.Equal(t, "$177.48", FormatMoney(177.48))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "16%", FormatPercent(16))
	assert.Equal(t, "7.5%", FormatPercent(7.5))
}
