// Package results provides the outcome type that every responder returns.
//
// A [Result] has two independent bits: whether it succeeded and whether it carries a value. A
// failing result may still carry a value, for example a partially built response that is useful to
// render. Failures are described by a tree of [Error] values so that a high-level failure keeps
// the full chain of causes:
//
//	res := results.FailureError[Status](results.Wrap("load user", results.NewError("connection reset")))
//	fmt.Println(res.Errors()[0]) // load user: [connection reset]
package results
