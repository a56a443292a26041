package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloses(t *testing.T) {
	candles := []Candle{
		{Time: 1, Open: 10, High: 12, Low: 9, Close: 11},
		{Time: 2, Open: 11, High: 11, Low: 8, Close: 9},
	}
	assert.Equal(t, []float64{11, 9}, Closes(candles))
	assert.Empty(t, Closes(nil))
}

func TestDirectionOf(t *testing.T) {
	assert.Equal(t, DirectionUp, DirectionOf(Candle{Open: 10, Close: 10}))
	assert.Equal(t, DirectionDown, DirectionOf(Candle{Open: 10, Close: 9.5}))
}
