package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/seanjensengrey/cryopid.dev/capture"
	"github.com/seanjensengrey/cryopid.dev/chunk"
	"github.com/seanjensengrey/cryopid.dev/corelog"
	"github.com/seanjensengrey/cryopid.dev/fetch"
)

var captureFlags int

var captureCmd = &cobra.Command{
	Use:   "capture <pid>",
	Short: "Attach to a running process and capture its external state",
	Args:  cobra.ExactArgs(1),
	RunE:  runCapture,
}

func init() {
	captureCmd.Flags().IntVar(&captureFlags, "flags", 0, "opaque flags word forwarded to chunk fetchers")
	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, args []string) error {
	pid, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid pid %q: %w", args[0], err)
	}

	ctx := GetContext()
	log := corelog.Scope{PID: pid}.Logger(corelog.Default())

	sink := chunk.NewList()
	fetchers := capture.Fetchers{
		VMA:     &fetch.VMAFetcher{},
		FD:      &fetch.FDFetcher{},
		SigHand: &fetch.SigHandFetcher{},
		Regs:    &fetch.RegsFetcher{},
	}

	binOffset, err := capture.Run(ctx, pid, captureFlags, sink, fetchers)
	if err != nil {
		return fmt.Errorf("capture pid %d: %w", pid, err)
	}

	log.Info("capture complete", "chunks", sink.Len(), "bin_offset", binOffset)
	if _, err := sink.WriteTo(os.Stdout); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}
