package chatstream

import (
	"fmt"
	"strconv"
	"strings"
)

const cursorPrefix = "id:"

// encodeCursor builds the opaque page token for the last-seen message id.
func encodeCursor(messageID int) string {
	return cursorPrefix + strconv.Itoa(messageID)
}

// parseCursor extracts the message id from a page token. An empty cursor means
// the first page and yields 0.
func parseCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, ok := strings.CutPrefix(cursor, cursorPrefix)
	if !ok {
		return 0, fmt.Errorf("%w: bad cursor", ErrValidation)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad cursor", ErrValidation)
	}
	return id, nil
}
