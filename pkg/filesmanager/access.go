package filesmanager

// CanRead reports whether callerID may see object. Public objects are
// readable by anyone, including anonymous callers (empty callerID); private
// objects only by their owner.
func CanRead(object *Object, callerID string) bool {
	if object == nil {
		return false
	}
	if object.IsPublic {
		return true
	}
	return callerID != "" && callerID == object.OwnerID
}
