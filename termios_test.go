//go:build linux

package serial

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func dirtyTermios() *unix.Termios {
	tty := &unix.Termios{
		Iflag:  math.MaxUint32,
		Oflag:  math.MaxUint32,
		Cflag:  math.MaxUint32,
		Lflag:  math.MaxUint32,
		Ispeed: math.MaxUint32,
		Ospeed: math.MaxUint32,
	}
	for i := range tty.Cc {
		tty.Cc[i] = 0xff
	}
	return tty
}

func requireRaw(t *testing.T, tty *unix.Termios, s settings) {
	t.Helper()

	mask, err := dataBitsMask(s.dataBits)
	require.NoError(t, err)

	require.Equal(t, s.parity, tty.Cflag&unix.PARENB != 0, "PARENB")
	require.Equal(t, s.stopBits == 2, tty.Cflag&unix.CSTOPB != 0, "CSTOPB")
	require.Equal(t, mask, tty.Cflag&unix.CSIZE, "CSIZE")
	require.Zero(t, tty.Cflag&unix.CRTSCTS, "CRTSCTS")
	require.Equal(t, uint32(unix.CREAD|unix.CLOCAL), tty.Cflag&(unix.CREAD|unix.CLOCAL))
	require.Equal(t, baudCodes[s.baudRate], tty.Cflag&unix.CBAUD, "CBAUD")
	require.Zero(t, tty.Cflag&unix.CIBAUD, "CIBAUD")

	require.Zero(t, tty.Lflag&(unix.ICANON|unix.ECHO|unix.ECHOE|unix.ECHONL|unix.ISIG), "Lflag")
	require.Zero(t, tty.Iflag&(unix.IXON|unix.IXOFF|unix.IXANY|unix.IGNBRK|unix.BRKINT|
		unix.PARMRK|unix.ISTRIP|unix.INLCR|unix.IGNCR|unix.ICRNL), "Iflag")
	require.Zero(t, tty.Oflag&(unix.OPOST|unix.ONLCR|unix.TABDLY), "Oflag")

	require.Zero(t, tty.Cc[unix.VMIN], "VMIN")
	require.Zero(t, tty.Cc[unix.VTIME], "VTIME")
}

func TestDataBitsMask(t *testing.T) {
	seen := map[uint32]int{}
	for _, bits := range []int{5, 6, 7, 8} {
		mask, err := dataBitsMask(bits)
		require.NoError(t, err)
		require.Equal(t, mask, mask&unix.CSIZE)
		_, dup := seen[mask]
		require.False(t, dup, "mask for %d data bits is not distinct", bits)
		seen[mask] = bits
	}

	for _, bits := range []int{-1, 0, 4, 9, 16} {
		_, err := dataBitsMask(bits)
		require.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestConfigureTermios_AllCombinations(t *testing.T) {
	for _, parity := range []bool{false, true} {
		for _, stop := range []int{1, 2} {
			for bits := 5; bits <= 8; bits++ {
				for _, baud := range []int{1200, 9600, 115200} {
					s := settings{baudRate: baud, parity: parity, stopBits: stop, dataBits: bits}

					dirty := dirtyTermios()
					require.NoError(t, configureTermios(dirty, s))
					requireRaw(t, dirty, s)

					clean := &unix.Termios{}
					require.NoError(t, configureTermios(clean, s))
					requireRaw(t, clean, s)
				}
			}
		}
	}
}

func TestConfigureTermios_LeavesUnrelatedBits(t *testing.T) {
	tty := &unix.Termios{
		Iflag: unix.IUTF8 | unix.ICRNL,
		Lflag: unix.IEXTEN | unix.ICANON,
	}
	tty.Cc[unix.VINTR] = 3

	require.NoError(t, configureTermios(tty, settings{baudRate: 9600, stopBits: 1, dataBits: 8}))

	require.Equal(t, uint32(unix.IUTF8), tty.Iflag)
	require.Equal(t, uint32(unix.IEXTEN), tty.Lflag)
	require.Equal(t, uint8(3), tty.Cc[unix.VINTR])
}

func TestConfigureTermios_Speed(t *testing.T) {
	tty := dirtyTermios()
	require.NoError(t, configureTermios(tty, settings{baudRate: 57600, stopBits: 1, dataBits: 8}))
	require.Equal(t, uint32(unix.B57600), tty.Ispeed)
	require.Equal(t, uint32(unix.B57600), tty.Ospeed)
	require.Equal(t, uint32(unix.B57600), tty.Cflag&unix.CBAUD)
}

func TestConfigureTermios_Rejects(t *testing.T) {
	tty := &unix.Termios{}
	err := configureTermios(tty, settings{baudRate: 9600, stopBits: 1, dataBits: 9})
	require.ErrorIs(t, err, ErrInvalidArgument)

	err = configureTermios(tty, settings{baudRate: 9601, stopBits: 1, dataBits: 8})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBaudRates(t *testing.T) {
	rates := BaudRates()
	require.True(t, sort.IntsAreSorted(rates))
	require.Len(t, baudCodes, len(rates))
	for _, r := range rates {
		require.True(t, validBaudRate(r), "%d", r)
		_, ok := baudCodes[r]
		require.True(t, ok, "%d has no code", r)
	}
	for _, r := range []int{-9600, 1, 7200, 9601, 14400, 4000001} {
		require.False(t, validBaudRate(r), "%d", r)
	}

	rates[0] = 42
	require.Equal(t, 0, BaudRates()[0])
}
