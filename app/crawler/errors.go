package crawler

import (
	"fmt"
)

// FetchError wraps the final error for an item whose fetch kept failing
// after all retries were spent. Callers log it and skip the item; it is
// never fatal to a crawl run.
type FetchError struct {
	ID  int64
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch item %d failed: %v", e.ID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
