package session

// State is the single derived value driving what a client shows. It is
// never stored authoritatively; derive recomputes it from the session
// facts every time, so it cannot drift from the store contents.
type State string

const (
	StateLoading         State = "loading"
	StateNoContent       State = "no_content"
	StateNetworkError    State = "network_error"
	StatePermissionError State = "permission_error"
	StateGenericError    State = "generic_error"
	StateContent         State = "content"
)

// outcome records how the most recent fetch attempt ended.
type outcome int

const (
	outcomeNone outcome = iota
	outcomeOK
	outcomeNoNetwork
	outcomeUnauthorized
	outcomeUnknown
)

// derive maps (fetch in flight, last fetch outcome, collection
// emptiness) to a presentation state. Existing content always wins:
// errors and loading indicators only surface on an empty collection.
func derive(fetching bool, last outcome, empty bool) State {
	if !empty {
		return StateContent
	}
	if fetching {
		return StateLoading
	}
	switch last {
	case outcomeNoNetwork:
		return StateNetworkError
	case outcomeUnauthorized:
		return StatePermissionError
	case outcomeUnknown:
		return StateGenericError
	default:
		return StateNoContent
	}
}

// isErrorState reports whether a client showing st is already
// displaying an error view; used to suppress duplicate notices.
func isErrorState(st State) bool {
	switch st {
	case StateNetworkError, StatePermissionError, StateGenericError:
		return true
	}
	return false
}
