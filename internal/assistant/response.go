package assistant

// Kind tags a Response.
type Kind string

const (
	KindText     Kind = "TEXT"
	KindNavigate Kind = "NAVIGATE"
)

// Routes the UI knows how to open.
const (
	RouteAdherence   = "/adherence"
	RouteMedications = "/medications"
)

// Response is the single reply produced for a turn. Reply always mirrors
// Message for callers that predate the typed envelope.
type Response struct {
	Type    Kind   `json:"type"`
	Route   string `json:"route,omitempty"`
	Message string `json:"message"`
	Reply   string `json:"reply"`
}

// Text builds a plain conversational reply.
func Text(msg string) Response {
	return Response{Type: KindText, Message: msg, Reply: msg}
}

// Navigate builds a reply that also sends the UI to route.
func Navigate(route, msg string) Response {
	return Response{Type: KindNavigate, Route: route, Message: msg, Reply: msg}
}

// ServerError is the generic reply boundaries send when a turn fails.
func ServerError() Response {
	return Text("Server error")
}
