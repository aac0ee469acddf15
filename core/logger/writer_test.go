package logger

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSink struct{}

func (failingSink) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAsyncWriterFansOut(t *testing.T) {
	var a, b bytes.Buffer
	w := newAsyncWriter([]io.Writer{&a, nil, &b}, 16)
	require.NoError(t, w.Write([]byte("one\n")))
	require.NoError(t, w.Write([]byte("two\n")))
	require.NoError(t, w.Flush())
	assert.Equal(t, "one\ntwo\n", a.String())

	require.NoError(t, w.Close())
	assert.Equal(t, "one\ntwo\n", b.String())
	assert.ErrorIs(t, w.Write([]byte("late\n")), errWriterClosed)
	assert.NoError(t, w.Flush())
	assert.NoError(t, w.Close())
}

func TestAsyncWriterKeepsFirstError(t *testing.T) {
	w := newAsyncWriter([]io.Writer{failingSink{}}, 1)
	_ = w.Write([]byte("line\n"))
	err := w.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
