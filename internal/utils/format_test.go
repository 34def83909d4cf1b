package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	assert.Equal(t, "0", Number(0))
	assert.Equal(t, "339", Number(339))
	assert.Equal(t, "2,048", Number(2048))
	assert.Equal(t, "6,822", Number(6822))
	assert.Equal(t, "123,456", Number(123456))
	assert.Equal(t, "1,234,567", Number(1234567))
	assert.Equal(t, "-4,096", Number(-4096))
}

func TestBytes(t *testing.T) {
	assert.Equal(t, "812 B", Bytes(812))
	assert.Equal(t, "6.7 KiB", Bytes(6822))
	assert.Equal(t, "1.0 MiB", Bytes(1<<20))
	assert.Equal(t, "18.2 MiB", Bytes(19090000))
	assert.Equal(t, "2.0 GiB", Bytes(2<<30))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "0ms", Duration(0))
	assert.Equal(t, "420ms", Duration(420*time.Millisecond))
	assert.Equal(t, "5.2s", Duration(5230*time.Millisecond))
	assert.Equal(t, "3m5s", Duration(3*time.Minute+5*time.Second+200*time.Millisecond))
	assert.Equal(t, "2h15m0s", Duration(2*time.Hour+15*time.Minute))
}

func TestRate(t *testing.T) {
	assert.Equal(t, "850.0", Rate(850))
	assert.Equal(t, "12.3K", Rate(12340))
	assert.Equal(t, "1.5M", Rate(1500000))
	assert.Equal(t, "2.0G", Rate(2e9))
}

func TestDisabledProgress(t *testing.T) {
	p := NewProgress(10, false)
	p.Update(3, "maps/start.bsp")
	p.Callback()(4, 10, "gfx/pop.lmp")
	p.Finish()
}
