//go:build linux

package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	serial "github.com/luhtfiimanal/go-serialline"
)

type failingWriter struct{ err error }

func (w failingWriter) Write(p []byte) (int, error) { return 0, w.err }

func openReplyLine(t *testing.T, reply string) *serial.Line {
	t.Helper()
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	logger, _ := test.NewNullLogger()
	log = logrus.NewEntry(logger)

	cfg := serial.DefaultConfig(slave.Name())
	cfg.Logger = logger
	line, err := serial.Open(cfg)
	require.NoError(t, err)
	require.True(t, line.IsOpen())
	t.Cleanup(func() { line.Close() })

	_, err = master.Write([]byte(reply))
	require.NoError(t, err)
	return line
}

func TestReadReplies(t *testing.T) {
	line := openReplyLine(t, "OK\r\n")

	var out bytes.Buffer
	require.NoError(t, readReplies(line, &out, 50*time.Millisecond))
	require.Equal(t, "OK\r\n", out.String())
}

func TestReadReplies_WriteError(t *testing.T) {
	line := openReplyLine(t, "OK\r\n")

	broken := errors.New("broken pipe")
	err := readReplies(line, failingWriter{err: broken}, 50*time.Millisecond)
	require.ErrorIs(t, err, broken)
}
