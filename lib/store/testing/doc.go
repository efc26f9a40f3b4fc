// Package testing provides a standardised test suite for implementations of the
// store.IStore interface.
//
// The suite runs against every implementation in this module: the memory store
// directly and the rpc client connected to a server over each transport.
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() store.IStore {
//		return NewMyStore()
//	}
//
//	// Running the standard test suite
//	storetesting.RunStoreTests(t, "MyStore", factory)
package testing
