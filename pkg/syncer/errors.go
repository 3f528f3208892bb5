package syncer

import "errors"

// ErrNoDialogue means a document was fetched and parsed but yielded no usable
// dialogue: every extraction strategy came up empty, or what they produced
// stripped down to nothing. Such documents are recorded as failures, never as
// empty successes.
var ErrNoDialogue = errors.New("sync: no usable dialogue extracted")
