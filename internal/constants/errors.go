package constants

import "errors"

// Configuration errors.
var (
	ErrConfigFileUnreadable = errors.New("config file exists but cannot be read")
	ErrNoHomeDir            = errors.New("could not determine home directory")
)

// Validation errors.
var (
	ErrInvalidColumnDecl  = errors.New("column declaration must be id:type:label")
	ErrInvalidRecordDecl  = errors.New("record field must be column:value")
	ErrInvalidAccessLevel = errors.New("access must be one of owners, editors, viewers, members, none")
	ErrInvalidMaxAccess   = errors.New("max access must be one of owners, editors, viewers")
	ErrRecordIDNumeric    = errors.New("record ID must be a number")
	ErrUserIDNotFound     = errors.New("user id not found")
	ErrFileNotFound       = errors.New("file not found")
	ErrNotRegularFile     = errors.New("path is not a regular file")
	ErrDirNotFound        = errors.New("destination directory not found")
)
