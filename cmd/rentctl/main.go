// Command rentctl prices rentals and runs booking payments from a terminal.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		printHelp(out)
		return nil
	}
	switch args[0] {
	case "quote":
		return runQuote(args[1:], out)
	case "pay":
		return runPay(args[1:], out)
	case "help", "-h", "--help":
		printHelp(out)
		return nil
	}
	return fmt.Errorf("unknown command %q (try \"rentctl help\")", args[0])
}

// parseFlags treats --help as success.
func parseFlags(fs *pflag.FlagSet, args []string, out io.Writer) (bool, error) {
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return false, nil
		}
		return false, err
	}
	if rest := fs.Args(); len(rest) > 0 {
		return false, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return true, nil
}

func printHelp(out io.Writer) {
	fmt.Fprint(out, `rentctl - rental marketplace tools

Usage:
  rentctl quote --period Day --pickup 2026-03-01T09:00 --return 2026-03-03T09:00 --price 500
               [--barangay "Brgy. Aquino" --location "Zone 4, Bulan"] [--delivery 50]
  rentctl pay --server http://localhost:8080 --booking ID --method Gcash|QRPh|"Cash on Delivery" --amount 1050
              [--payload booking.json] [--gate-success]

quote prices a rental locally. With --barangay and --location the delivery
fee is estimated from the driving distance.

pay runs the checkout flow against a server. For Gcash the QR is polled
until it is paid; press Enter to check now, Ctrl-C to close the QR.
Cash payments resend the booking read from --payload.
`)
}
