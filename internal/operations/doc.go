// Package operations runs one reconciliation as a small pipeline of steps.
//
// The Engine registers five steps and executes them level by level in
// dependency order:
//
//	locate ─┬─ diff ── reconcile ── summarize
//	        └─ volume
//
// Steps on the same level run concurrently under an errgroup. Every step
// records its state (pending, active, completed, failed, skipped) on the
// run's OperationState, emits a span, and reports its duration to the
// step histogram.
//
// A run is synchronous and self-contained: the engine keeps nothing between
// runs. A failing step aborts the run with an *OperationError naming the
// step; the error unwraps to the domain.ReconcileError (or context error)
// that caused it, so callers can branch with errors.As.
//
// Example:
//
//	engine, err := operations.NewEngine(operations.EngineOptions{Logger: logger})
//	result, err := engine.Run(ctx, operations.Request{
//	    Options: domain.DefaultRunOptions(),
//	    Takas:   takasItems,
//	    AKD:     akdItems,
//	})
package operations
