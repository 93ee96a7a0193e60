package values

// ID addresses a single entity. It is either a single id (GeneratedID or
// CustomID, one path segment) or a composite IDTuple (two path segments).
type ID interface {
	// PathSegments returns the URL path segments identifying the entity.
	PathSegments() []string
	String() string
	sealedID()
}

// GeneratedID is a server-issued, lexicographically ordered identifier.
type GeneratedID string

const (
	// MinID sorts before every generated id.
	MinID GeneratedID = "------------"
	// MaxID sorts after every generated id.
	MaxID GeneratedID = "zzzzzzzzzzzz"
)

func (id GeneratedID) String() string         { return string(id) }
func (id GeneratedID) PathSegments() []string { return []string{string(id)} }
func (GeneratedID) sealedID()                 {}

// CustomID is a client-chosen identifier.
type CustomID string

func (id CustomID) String() string         { return string(id) }
func (id CustomID) PathSegments() []string { return []string{string(id)} }
func (CustomID) sealedID()                 {}

// IDTuple identifies an element inside a list.
type IDTuple struct {
	ListID    GeneratedID
	ElementID GeneratedID
}

// NewIDTuple builds an IDTuple.
func NewIDTuple(listID, elementID GeneratedID) IDTuple {
	return IDTuple{ListID: listID, ElementID: elementID}
}

func (t IDTuple) String() string {
	return string(t.ListID) + "/" + string(t.ElementID)
}

func (t IDTuple) PathSegments() []string {
	return []string{string(t.ListID), string(t.ElementID)}
}

func (IDTuple) sealedID() {}
