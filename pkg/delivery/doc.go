// Package delivery implements the CrashLink exception-delivery model.
//
// A single logical "an exception occurred" notification travels across a
// kernel-mediated channel in one of six wire encodings. The Raiser picks the
// encoding from the raise Behavior, sends the request, and blocks for the
// reply; the Catcher classifies whatever encoding arrived, reconstructs the
// canonical exception, and invokes one Handler with one fixed signature.
// Handler logic never branches on wire variant.
//
// # Raiser Usage
//
//	raiser := delivery.NewRaiser(conn)
//
//	result, err := raiser.Raise(ctx, delivery.RaiseParams{
//	    Behavior:  wire.BehaviorStateIdentity | wire.WideCodes,
//	    Exception: excType,
//	    Code:      code,
//	    Subcode:   subcode,
//	    Thread:    thread,
//	    Task:      task,
//	    Flavor:    flavor,
//	    OldState:  stateWords,
//	})
//
// # Catcher Usage
//
//	catcher := delivery.NewCatcher(func(ctx context.Context, exc *delivery.Exception) wire.Status {
//	    // exc carries canonical fields; absent capabilities appear as
//	    // null-port, no-flavor, and zero-length sentinels.
//	    return wire.StatusSuccess
//	})
//
//	// Single synchronous exchange
//	err := catcher.ServeOne(ctx, conn)
//
//	// Bounded serving loop
//	err = catcher.Serve(ctx, conn)
//
// # Error Taxonomy
//
// Transport failures surface as *TransportError, a reply arriving in a
// different variant than the request as ErrProtocolMismatch, and handler
// failure as a non-success Status in the result. There is no masking or
// retry at this layer; cancellation and timeouts belong to the Transport.
package delivery
