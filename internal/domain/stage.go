package domain

// Direction names a stage move requested by the client ("up", "left", ...).
// No vocabulary is enforced here.
type Direction string
