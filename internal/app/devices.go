package app

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/tejashwikalptaru/goscope/internal/ports"
)

// ListDevices writes a table of the devices reported by source. Default
// devices are flagged, and loopback devices show which mode can use them.
func ListDevices(w io.Writer, source ports.AudioSource) error {
	devices, err := source.Devices()
	if err != nil {
		return fmt.Errorf("listing devices: %w", err)
	}

	defaultIn, inErr := source.DefaultInputDevice()
	defaultOut, outErr := source.DefaultOutputDevice()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tHOST API\tIN\tOUT\tRATE\tFLAGS")
	for _, d := range devices {
		flags := ""
		if inErr == nil && d.ID == defaultIn.ID && d.Name == defaultIn.Name {
			flags += "default-input "
		}
		if outErr == nil && d.ID == defaultOut.ID && d.Name == defaultOut.Name {
			flags += "default-output "
		}
		if d.IsLoopback {
			flags += "loopback"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%.0f\t%s\n",
			d.ID, d.Name, d.HostAPI, d.InputChannels, d.OutputChannels, d.DefaultSampleRate, flags)
	}
	return tw.Flush()
}
