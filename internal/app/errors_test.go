package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationError(t *testing.T) {
	tests := []struct {
		name string
		err  *OperationError
		want string
	}{
		{"full", NewOperationError("save", "/tmp/a", ErrNoFilePath), "save /tmp/a: document has no file path"},
		{"no target", NewOperationError("watch", "", ErrClosed), "watch: application closed"},
		{"no cause", NewOperationError("close", "x", nil), "close x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}

	err := NewOperationError("open", "a", ErrDocumentNotFound)
	assert.True(t, errors.Is(err, ErrDocumentNotFound))
}

func TestComponentError(t *testing.T) {
	cause := errors.New("bad")
	err := &ComponentError{Component: "plugins", Err: cause}

	assert.Equal(t, "plugins: bad", err.Error())
	assert.ErrorIs(t, err, cause)
}
