package errors

// Code is a machine-readable error code.
type Code string

// Back-pressure errors
const (
	// CodeBackPressure indicates a buffer filled up despite the request
	// discipline, typically because the upstream ignored demand.
	CodeBackPressure Code = "BACK_PRESSURE"
)

// Protocol violations
const (
	// CodeInvalidRequest indicates a non-positive demand request.
	CodeInvalidRequest Code = "INVALID_REQUEST"
	// CodeMapperReturnedNil indicates a mapper produced a nil publisher.
	CodeMapperReturnedNil Code = "MAPPER_RETURNED_NIL"
	// CodeSupplierReturnedNil indicates a supplier produced a nil publisher.
	CodeSupplierReturnedNil Code = "SUPPLIER_RETURNED_NIL"
)

// Execution errors
const (
	// CodeCallbackFailure indicates a user callback returned an error.
	CodeCallbackFailure Code = "CALLBACK_FAILURE"
	// CodeExecutionRejected indicates an executor refused a drain task.
	CodeExecutionRejected Code = "EXECUTION_REJECTED"
)
