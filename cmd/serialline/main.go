//go:build linux

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"

	serial "github.com/luhtfiimanal/go-serialline"
)

var (
	flags    lineFlags
	logLevel int
	log      *logrus.Entry
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "serialline",
		Short: "configure a raw serial line and write to it",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := newLogger(logrus.Level(logLevel))
			serial.SetDefaultLogger(logger)
			log = logger.WithField("prefix", "serialline")
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().IntVar(&logLevel, "loglevel", int(logrus.InfoLevel), "The loglevel to use. Valid values are from 0 to 6. Higher values output more information")
	flags.register(rootCmd.PersistentFlags())

	rootCmd.AddCommand(sendCMD())
	rootCmd.AddCommand(inspectCMD())
	rootCmd.AddCommand(baudsCMD())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openLine(cmd *cobra.Command) (*serial.Line, error) {
	cfg, err := flags.config(cmd.Flags())
	if err != nil {
		return nil, err
	}
	line, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	if !line.IsOpen() {
		return nil, fmt.Errorf("cannot open %s", cfg.Device)
	}
	log.Debugf("opened %s", line)
	return line, nil
}

func sendCMD() *cobra.Command {
	var (
		escape bool
		wait   time.Duration
	)

	cc := &cobra.Command{
		Use:   "send [text]",
		Short: "write text to the line once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := args[0]
			if escape {
				unquoted, err := strconv.Unquote(`"` + text + `"`)
				if err != nil {
					return fmt.Errorf("bad escape sequence in %q: %w", text, err)
				}
				text = unquoted
			}

			line, err := openLine(cmd)
			if err != nil {
				return err
			}
			defer line.Close()

			n, err := line.WriteString(text)
			if err != nil {
				return err
			}
			if n < len(text) {
				log.Warnf("short write: %s of %s accepted", humanize.Bytes(uint64(n)), humanize.Bytes(uint64(len(text))))
			} else {
				log.Infof("wrote %s to %s", humanize.Bytes(uint64(n)), line.Device())
			}

			if wait > 0 {
				return readReplies(line, os.Stdout, wait)
			}
			return nil
		},
	}
	cc.Flags().BoolVarP(&escape, "escape", "e", false, `interpret Go escape sequences such as \r\n in text`)
	cc.Flags().DurationVarP(&wait, "wait", "w", 0, "print replies until the line is quiet for this long")
	return cc
}

// readReplies copies what the line receives to w until nothing arrives for
// quiet or the other end hangs up.
func readReplies(line *serial.Line, w io.Writer, quiet time.Duration) error {
	buf := make([]byte, 4096)
	var total uint64
	for {
		n, err := line.ReadTimeout(buf, quiet)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return fmt.Errorf("write reply: %w", err)
		}
		total += uint64(n)
	}
	log.Debugf("received %s", humanize.Bytes(total))
	return nil
}

type inspectReport struct {
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
	Parity   bool   `yaml:"parity"`
	StopBits int    `yaml:"stop_bits"`
	DataBits int    `yaml:"data_bits"`
	Termios  struct {
		Iflag     string `yaml:"iflag"`
		Oflag     string `yaml:"oflag"`
		Cflag     string `yaml:"cflag"`
		Lflag     string `yaml:"lflag"`
		Canonical bool   `yaml:"canonical"`
		Echo      bool   `yaml:"echo"`
		Signals   bool   `yaml:"signals"`
		RTSCTS    bool   `yaml:"rtscts"`
		VMin      uint8  `yaml:"vmin"`
		VTime     uint8  `yaml:"vtime"`
	} `yaml:"termios"`
}

func inspectCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "configure the line and print the resulting terminal attributes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := openLine(cmd)
			if err != nil {
				return err
			}
			defer line.Close()

			tty, err := line.Attributes()
			if err != nil {
				return err
			}

			r := inspectReport{
				Device:   line.Device(),
				BaudRate: line.BaudRate(),
				Parity:   line.Parity(),
				StopBits: line.StopBits(),
				DataBits: line.DataBits(),
			}
			r.Termios.Iflag = fmt.Sprintf("%#08x", tty.Iflag)
			r.Termios.Oflag = fmt.Sprintf("%#08x", tty.Oflag)
			r.Termios.Cflag = fmt.Sprintf("%#08x", tty.Cflag)
			r.Termios.Lflag = fmt.Sprintf("%#08x", tty.Lflag)
			r.Termios.Canonical = tty.Lflag&unix.ICANON != 0
			r.Termios.Echo = tty.Lflag&unix.ECHO != 0
			r.Termios.Signals = tty.Lflag&unix.ISIG != 0
			r.Termios.RTSCTS = tty.Cflag&unix.CRTSCTS != 0
			r.Termios.VMin = tty.Cc[unix.VMIN]
			r.Termios.VTime = tty.Cc[unix.VTIME]

			enc := yaml.NewEncoder(os.Stdout)
			defer enc.Close()
			return enc.Encode(r)
		},
	}
}

func baudsCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "bauds",
		Short: "list the supported baud rates",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, rate := range serial.BaudRates() {
				fmt.Println(rate)
			}
		},
	}
}
