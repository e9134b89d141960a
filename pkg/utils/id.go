package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID 32 hex chars, no dashes; fits the varchar(32) primary keys.
func NewID() string { return strings.ReplaceAll(uuid.NewString(), "-", "") }
