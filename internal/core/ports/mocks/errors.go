package mocks

import "errors"

// ErrLocked is returned by ArticleStore.Lock when the article is already locked.
var ErrLocked = errors.New("article locked")
