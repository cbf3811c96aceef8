// Package serial configures and drives a raw serial line on Linux.
//
// A Line turns four logical parameters (baud rate, even parity, stop bits
// and data bits) into the termios bit pattern of the device, commits it,
// and then moves raw bytes. The line is set up for byte transfer with no
// line discipline at all:
//   - no canonical mode, echo or signal characters
//   - no software or hardware flow control
//   - no CR/NL translation on input or output
//   - VMIN=0 and VTIME=0 with O_NONBLOCK, so reads poll and never wait
//
// Parameter validation is deliberately uneven. An unsupported baud rate
// is logged and the previous rate kept, data bits outside 5..8 are
// ignored, and stop bits other than 1 or 2 fail with ErrInvalidArgument.
//
// Writes are single non-blocking attempts. A short write is returned as
// is and not retried.
//
// This package does **not** support Windows.
//
// Example usage:
//
//	cfg := serial.DefaultConfig("/dev/ttyUSB0")
//	line, err := serial.Open(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer line.Close()
//	if !line.IsOpen() {
//	    log.Fatal("device not available")
//	}
//
//	if _, err := line.WriteString("AT\r\n"); err != nil {
//	    log.Println("Write failed:", err)
//	}
//
//	buf := make([]byte, 64)
//	n, err := line.ReadTimeout(buf, 500*time.Millisecond)
//	if err != nil {
//	    log.Println("Read failed:", err)
//	}
//	fmt.Printf("Received: %q\n", buf[:n])
package serial
