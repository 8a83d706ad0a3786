// Package testing provides a shared test suite for gridmap.IMap implementations.
//
// Usage:
//
//	func TestLocalMap(t *testing.T) {
//	    testing.RunIMapTests(t, "lmap", func(t *testing.T) gridmap.IMap {
//	        return lmap.NewLocalMap(t.Name())
//	    })
//	}
package testing
