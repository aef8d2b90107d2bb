package images

import "fmt"

// ValidationError reports an upload rejected before anything was written.
// Limit is set only for oversize rejections so callers can echo the cap back
// to the client.
type ValidationError struct {
	Filename string
	Reason   string
	Limit    int64
}

func (e *ValidationError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("invalid upload %q: %s (max %dMB)", e.Filename, e.Reason, e.Limit/(1024*1024))
	}
	return fmt.Sprintf("invalid upload %q: %s", e.Filename, e.Reason)
}
