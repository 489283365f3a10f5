package model

import "errors"

// ErrNotFound is the shared not-found kind. Packages wrap it with their own
// subject so transport layers can map missing resources with errors.Is
// without importing every store.
var ErrNotFound = errors.New("not found")
