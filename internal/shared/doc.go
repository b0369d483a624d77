// Package shared declares the interfaces and clock workflow commands depend
// on, so services can be exercised with stubs while the CLI wires real
// implementations.
package shared
