package store

import "errors"

// ErrNoCredential indicates the user has no stored refresh credential.
var ErrNoCredential = errors.New("no credential stored for user")
