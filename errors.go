package kit

import "errors"

var (
	// ErrInvalidConfig reports an unusable [Config].
	ErrInvalidConfig = errors.New("invalid kit config")
	// ErrBuilderUsed reports a second call to [Builder.Build].
	ErrBuilderUsed = errors.New("builder already used")
	// ErrKitClosed reports use of a [Kit] after Close.
	ErrKitClosed = errors.New("kit closed")
)
