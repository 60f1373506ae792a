// Package scopeshare wraps a value behind scoped access: closures and guards
// that hand out shared or exclusive access and always give it back.
//
// Cell is for a value owned by one goroutine and reports conflicting borrows
// by panicking. SharedCell is for a value shared between goroutines and
// serializes writers against readers with an RWLocker.
package scopeshare
