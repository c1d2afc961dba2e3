// package feed turns heterogeneous upstream payloads into one uniform
// playlist item list.
//
// A generation request flows one direction: the raw input string is parsed
// into clauses, the dispatcher derives a call plan and issues every call
// concurrently, each settled outcome is classified into one of seven payload
// shapes and normalized, and the aggregator concatenates the results in plan
// order. A failed call degrades the result, it never aborts the batch.
package feed
