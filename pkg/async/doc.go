// Package async provides small generic helpers for running computations
// concurrently and joining their results.
//
// The package is centred around Future, the eventual result of a function
// started with Async. The caller waits with Await, polls with IsComplete or
// selects on Done. WaitAll joins a homogeneous group of futures.
//
// Session stores use it to fan an operation out to several tiers at once and
// then inspect every tier's outcome, which is why WaitAll never returns before
// all futures are settled.
//
// # Usage
//
//	cacheF := async.Async(ctx, id, cache.Delete)
//	storeF := async.Async(ctx, id, store.Delete)
//
//	_, cacheErr := cacheF.Await()
//	existed, storeErr := storeF.Await()
//
// # Error Handling
//
// Futures carry the error returned by the callback. If the context is already
// cancelled when Async is called the callback is skipped and the context error
// is returned. A panicking callback completes its Future with an error wrapping
// ErrPanicked instead of crashing the process.
package async
