package domain

import (
	"errors"
	"fmt"
)

type Status string

// remember to add new statuses to the validStatuses map
const (
	StatusAwaitingPayment Status = "awaiting-payment"
	StatusInQueue         Status = "in-queue"
	StatusAktif           Status = "aktif"
	StatusDiproses        Status = "diproses"
	StatusSelesai         Status = "selesai"
	StatusCancelled       Status = "cancelled"
	StatusExpired         Status = "expired"
)

var ErrInvalidStatus = errors.New("invalid order status")

var validStatuses = map[Status]struct{}{
	StatusAwaitingPayment: {},
	StatusInQueue:         {},
	StatusAktif:           {},
	StatusDiproses:        {},
	StatusSelesai:         {},
	StatusCancelled:       {},
	StatusExpired:         {},
}

func ToStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := validStatuses[status]; ok {
		return status, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func Statuses() []Status {
	result := make([]Status, 0, len(validStatuses))
	for status := range validStatuses {
		result = append(result, status)
	}
	return result
}

// Op is a customer-facing state machine operation.
type Op string

const (
	OpCancel          Op = "cancel"
	OpConfirmReceived Op = "confirm-received"
)

// Transition applies a customer operation to the current status. Both
// operations overwrite whatever status the order currently has, terminal
// ones included; the permissiveness is deliberate and lives only here.
func Transition(current Status, op Op) (Status, bool) {
	switch op {
	case OpCancel:
		return StatusCancelled, true
	case OpConfirmReceived:
		return StatusSelesai, true
	}
	return current, false
}
