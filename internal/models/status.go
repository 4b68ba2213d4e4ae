package models

// MessageStatus is the delivery status of a message.
type MessageStatus string

const (
	// StatusSending models client-side optimistic UI; the store never writes it.
	StatusSending   MessageStatus = "sending"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

var statusRank = map[MessageStatus]int{
	StatusSending:   0,
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

// Valid reports whether s is one of the known statuses.
func (s MessageStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Transition applies the delivery-status state machine. It returns the
// resulting status and whether a change occurred. Status never moves backward:
// requesting an earlier or equal status returns the current one unchanged, so
// repeated calls are idempotent under concurrent read-acks.
func Transition(current, target MessageStatus) (MessageStatus, bool) {
	cur, ok := statusRank[current]
	if !ok {
		return current, false
	}
	tgt, ok := statusRank[target]
	if !ok || target == StatusSending {
		return current, false
	}
	if tgt <= cur {
		return current, false
	}
	return target, true
}
