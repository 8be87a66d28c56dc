package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PostCursor marks a position in a created_at DESC, id DESC post listing.
type PostCursor struct {
	CreatedAt time.Time
	ID        int64
}

// String encodes the cursor as "id:unixmicros".
func (c PostCursor) String() string {
	return fmt.Sprintf("%d:%d", c.ID, c.CreatedAt.UnixMicro())
}

// Admits reports whether p lies strictly past the cursor in listing order.
func (c PostCursor) Admits(p *Post) bool {
	if p.CreatedAt.Equal(c.CreatedAt) {
		return p.ID < c.ID
	}
	return p.CreatedAt.Before(c.CreatedAt)
}

// ParsePostCursor decodes a cursor produced by PostCursor.String.
func ParsePostCursor(s string) (*PostCursor, error) {
	idPart, tsPart, ok := strings.Cut(s, ":")
	if !ok {
		return nil, ErrInvalidCursor
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	us, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	return &PostCursor{CreatedAt: time.UnixMicro(us), ID: id}, nil
}

// TimelineEntry is a post id scored by its creation time in unix micros,
// the same precision as PostCursor.
type TimelineEntry struct {
	PostID int64
	Score  int64
}

var ErrInvalidCursor = newError(ErrValidation, "invalid cursor")
