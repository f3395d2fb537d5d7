package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, "3_7", DirectKey(7, 3))
	assert.Equal(t, DirectKey(3, 7), DirectKey(7, 3))
}
