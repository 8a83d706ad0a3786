package lmap

import (
	"github.com/ValentinKolb/dGrid/lib/gridmap"
	maptesting "github.com/ValentinKolb/dGrid/lib/gridmap/testing"
	"testing"
)

func TestLocalMap(t *testing.T) {
	maptesting.RunIMapTests(t, "lmap", func(t *testing.T) gridmap.IMap {
		return NewLocalMap(t.Name())
	})
}
